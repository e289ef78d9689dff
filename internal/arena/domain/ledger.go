package domain

import (
	"fmt"
	"strings"
)

// LedgerKey addresses one compliance counter: which actor did what kind of
// action in which phase.
type LedgerKey struct {
	Actor string
	Kind  ActionKind
	Phase Phase
}

// MarshalText encodes the key as "actor|kind|phase" so ledgers survive JSON
// round trips as map keys.
func (k LedgerKey) MarshalText() ([]byte, error) {
	return []byte(k.Actor + "|" + k.Kind.String() + "|" + k.Phase.String()), nil
}

// UnmarshalText decodes an "actor|kind|phase" key.
func (k *LedgerKey) UnmarshalText(data []byte) error {
	parts := strings.SplitN(string(data), "|", 3)
	if len(parts) != 3 {
		return fmt.Errorf("malformed ledger key %q", data)
	}
	kind, err := ParseActionKind(parts[1])
	if err != nil {
		return err
	}
	phase, err := ParsePhase(parts[2])
	if err != nil {
		return err
	}
	k.Actor = parts[0]
	k.Kind = kind
	k.Phase = phase
	return nil
}

// Ledger is the running compliance record the engine updates on every
// submission, accepted or not. It feeds externally reported metrics and has
// no influence on gameplay legality.
type Ledger struct {
	Accepted   map[LedgerKey]int
	Rejected   map[LedgerKey]int
	Violations map[Violation]int
}

// NewLedger returns an empty compliance ledger.
func NewLedger() Ledger {
	return Ledger{
		Accepted:   make(map[LedgerKey]int),
		Rejected:   make(map[LedgerKey]int),
		Violations: make(map[Violation]int),
	}
}

// RecordAccepted counts a successfully applied action.
func (l *Ledger) RecordAccepted(actor string, kind ActionKind, phase Phase) {
	if l.Accepted == nil {
		l.Accepted = make(map[LedgerKey]int)
	}
	l.Accepted[LedgerKey{Actor: actor, Kind: kind, Phase: phase}]++
}

// RecordRejected counts a rejected submission and its violation code.
func (l *Ledger) RecordRejected(actor string, kind ActionKind, phase Phase, violation Violation) {
	if l.Rejected == nil {
		l.Rejected = make(map[LedgerKey]int)
	}
	if l.Violations == nil {
		l.Violations = make(map[Violation]int)
	}
	l.Rejected[LedgerKey{Actor: actor, Kind: kind, Phase: phase}]++
	l.Violations[violation]++
}

// RecordFallback counts a communication failure that forced the referee to
// act on a participant's behalf.
func (l *Ledger) RecordFallback(cause Violation) {
	if l.Violations == nil {
		l.Violations = make(map[Violation]int)
	}
	l.Violations[cause]++
}

// RejectionsFor sums the rejected submissions attributed to one actor.
func (l *Ledger) RejectionsFor(actor string) int {
	total := 0
	for key, count := range l.Rejected {
		if key.Actor == actor {
			total += count
		}
	}
	return total
}
