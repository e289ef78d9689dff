// Package rules implements the pure action-legality check. It never mutates
// game state, so it can be exercised directly in tests without the engine.
package rules

import (
	"github.com/duskvale/werewolf-arena/internal/arena/domain"
)

// Check validates an action against the current game state and the actor's
// true role. It returns ViolationNone for a legal action. Checks run in a
// fixed order and the first failure wins.
func Check(action domain.Action, game *domain.Game, actorRole domain.Role) domain.Violation {
	if !actorAllowed(action, game) {
		return domain.ViolationDeadActor
	}

	if action.Target != "" && !game.HasParticipant(action.Target) {
		return domain.ViolationUnknownTarget
	}

	switch game.Phase {
	case domain.PhaseDayDiscussion:
		return checkDiscussion(action, game, actorRole)
	case domain.PhaseDayVoting:
		return checkVoting(action, game)
	case domain.PhaseNightWerewolf:
		return checkWerewolfNight(action, game, actorRole)
	case domain.PhaseNightSeer:
		return checkSeerNight(action, game, actorRole)
	case domain.PhaseNightDoctor:
		return checkDoctorNight(action, game, actorRole)
	case domain.PhaseNightWitch:
		return checkWitchNight(action, game, actorRole)
	case domain.PhaseHunterShoot:
		return checkHunterShoot(action, game, actorRole)
	default:
		return domain.ViolationInvalidPhase
	}
}

// AllowedKinds lists the action kinds the phase accepts from a holder of
// role. It backs the hint sent to agents alongside each action request.
func AllowedKinds(phase domain.Phase, role domain.Role) []domain.ActionKind {
	switch phase {
	case domain.PhaseDayDiscussion:
		return []domain.ActionKind{domain.ActionDiscuss, domain.ActionPass}
	case domain.PhaseDayVoting:
		return []domain.ActionKind{domain.ActionVote}
	case domain.PhaseNightWerewolf:
		if role == domain.RoleWerewolf {
			return []domain.ActionKind{domain.ActionKill, domain.ActionPass}
		}
		return []domain.ActionKind{domain.ActionPass}
	case domain.PhaseNightSeer:
		if role == domain.RoleSeer {
			return []domain.ActionKind{domain.ActionInvestigate, domain.ActionPass}
		}
		return []domain.ActionKind{domain.ActionPass}
	case domain.PhaseNightDoctor:
		if role == domain.RoleDoctor {
			return []domain.ActionKind{domain.ActionProtect, domain.ActionPass}
		}
		return []domain.ActionKind{domain.ActionPass}
	case domain.PhaseNightWitch:
		if role == domain.RoleWitch {
			return []domain.ActionKind{domain.ActionHeal, domain.ActionPoison, domain.ActionPass}
		}
		return []domain.ActionKind{domain.ActionPass}
	case domain.PhaseHunterShoot:
		if role == domain.RoleHunter {
			return []domain.ActionKind{domain.ActionShoot}
		}
		return nil
	default:
		return nil
	}
}

// actorAllowed enforces the aliveness rule. The obligated hunter is the one
// exception: it acts during HunterShoot despite being eliminated.
func actorAllowed(action domain.Action, game *domain.Game) bool {
	if game.IsAlive(action.Actor) {
		return true
	}
	return game.Phase == domain.PhaseHunterShoot && action.Actor == game.PendingHunter
}

func checkDiscussion(action domain.Action, game *domain.Game, actorRole domain.Role) domain.Violation {
	switch action.Kind {
	case domain.ActionPass:
		return domain.ViolationNone
	case domain.ActionDiscuss:
		return checkDiscussKind(action, game, actorRole)
	default:
		return domain.ViolationWrongPhaseAction
	}
}

func checkDiscussKind(action domain.Action, game *domain.Game, actorRole domain.Role) domain.Violation {
	switch action.DiscussKind {
	case "", domain.DiscussGeneral, domain.DiscussRevealIdentity, domain.DiscussAccuse,
		domain.DiscussDefend, domain.DiscussClaimRole:
		// Open to every role.
		return domain.ViolationNone
	case domain.DiscussRevealInvestigation:
		if actorRole != domain.RoleSeer {
			return domain.ViolationWrongRole
		}
		return domain.ViolationNone
	case domain.DiscussRevealHealedKilled:
		if actorRole != domain.RoleWitch {
			return domain.ViolationWrongRole
		}
		return domain.ViolationNone
	case domain.DiscussRevealProtected:
		if actorRole != domain.RoleDoctor {
			return domain.ViolationWrongRole
		}
		return domain.ViolationNone
	case domain.DiscussRevealWerewolf:
		if actorRole != domain.RoleWerewolf {
			return domain.ViolationWrongRole
		}
		if action.Target != "" && game.Roles[action.Target] != domain.RoleWerewolf {
			return domain.ViolationTeammateTarget
		}
		return domain.ViolationNone
	default:
		return domain.ViolationNone
	}
}

func checkVoting(action domain.Action, game *domain.Game) domain.Violation {
	if action.Kind != domain.ActionVote {
		return domain.ViolationWrongPhaseAction
	}
	if action.Target == "" {
		return domain.ViolationMissingTarget
	}
	if !game.IsAlive(action.Target) {
		return domain.ViolationTargetNotAlive
	}
	if action.Target == action.Actor {
		return domain.ViolationSelfTarget
	}
	return domain.ViolationNone
}

func checkWerewolfNight(action domain.Action, game *domain.Game, actorRole domain.Role) domain.Violation {
	if actorRole != domain.RoleWerewolf {
		if action.Kind != domain.ActionPass {
			return domain.ViolationWrongRole
		}
		return domain.ViolationNone
	}

	switch action.Kind {
	case domain.ActionPass:
		return domain.ViolationNone
	case domain.ActionKill:
		if action.Target == "" {
			return domain.ViolationMissingTarget
		}
		if !game.IsAlive(action.Target) {
			return domain.ViolationTargetNotAlive
		}
		if game.Roles[action.Target] == domain.RoleWerewolf {
			return domain.ViolationTeammateTarget
		}
		return domain.ViolationNone
	default:
		return domain.ViolationWrongPhaseAction
	}
}

func checkSeerNight(action domain.Action, game *domain.Game, actorRole domain.Role) domain.Violation {
	if actorRole != domain.RoleSeer {
		if action.Kind != domain.ActionPass {
			return domain.ViolationWrongRole
		}
		return domain.ViolationNone
	}

	switch action.Kind {
	case domain.ActionPass:
		return domain.ViolationNone
	case domain.ActionInvestigate:
		if action.Target == "" {
			return domain.ViolationMissingTarget
		}
		if !game.IsAlive(action.Target) {
			return domain.ViolationTargetNotAlive
		}
		if action.Target == action.Actor {
			return domain.ViolationSelfTarget
		}
		return domain.ViolationNone
	default:
		return domain.ViolationWrongPhaseAction
	}
}

func checkDoctorNight(action domain.Action, game *domain.Game, actorRole domain.Role) domain.Violation {
	if actorRole != domain.RoleDoctor {
		if action.Kind != domain.ActionPass {
			return domain.ViolationWrongRole
		}
		return domain.ViolationNone
	}

	switch action.Kind {
	case domain.ActionPass:
		return domain.ViolationNone
	case domain.ActionProtect:
		if action.Target == "" {
			return domain.ViolationMissingTarget
		}
		if !game.IsAlive(action.Target) {
			return domain.ViolationTargetNotAlive
		}
		return domain.ViolationNone
	default:
		return domain.ViolationWrongPhaseAction
	}
}

func checkWitchNight(action domain.Action, game *domain.Game, actorRole domain.Role) domain.Violation {
	if actorRole != domain.RoleWitch {
		if action.Kind != domain.ActionPass {
			return domain.ViolationWrongRole
		}
		return domain.ViolationNone
	}

	switch action.Kind {
	case domain.ActionPass:
		return domain.ViolationNone
	case domain.ActionHeal:
		if action.Target == "" {
			return domain.ViolationMissingTarget
		}
		if game.WitchHealUsed {
			return domain.ViolationResourceExhausted
		}
		if action.Target != game.NightKillTarget {
			return domain.ViolationHealTargetMismatch
		}
		return domain.ViolationNone
	case domain.ActionPoison:
		if action.Target == "" {
			return domain.ViolationMissingTarget
		}
		if game.WitchPoisonUsed {
			return domain.ViolationResourceExhausted
		}
		if !game.IsAlive(action.Target) {
			return domain.ViolationTargetNotAlive
		}
		return domain.ViolationNone
	default:
		return domain.ViolationWrongPhaseAction
	}
}

func checkHunterShoot(action domain.Action, game *domain.Game, actorRole domain.Role) domain.Violation {
	if actorRole != domain.RoleHunter || action.Actor != game.PendingHunter {
		return domain.ViolationNotObligatedHunter
	}
	if action.Kind != domain.ActionShoot {
		return domain.ViolationWrongPhaseAction
	}
	if action.Target == "" {
		return domain.ViolationMissingTarget
	}
	if !game.IsAlive(action.Target) {
		return domain.ViolationTargetNotAlive
	}
	return domain.ViolationNone
}
