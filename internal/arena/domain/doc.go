// Package domain holds the game aggregate and the closed vocabularies of the
// werewolf referee: roles, phases, action kinds, violation codes, and the
// compliance ledger. It has no dependencies on transport or storage.
package domain
