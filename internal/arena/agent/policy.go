package agent

import (
	"fmt"

	"github.com/duskvale/werewolf-arena/internal/arena/domain"
	"github.com/duskvale/werewolf-arena/internal/arena/state"
)

// ScriptedPolicy is a deterministic rule-following participant brain. It
// backs the bundled drone agent and any test that needs a well-behaved
// opponent: every decision it makes passes rules validation.
type ScriptedPolicy struct{}

// Decide produces a legal decision for the actor from its view.
func (ScriptedPolicy) Decide(actor string, view state.View) Decision {
	switch view.Phase {
	case domain.PhaseDayDiscussion:
		return Decision{
			Kind:           domain.ActionDiscuss.String(),
			DiscussKind:    string(domain.DiscussGeneral),
			DiscussContent: fmt.Sprintf("%s has nothing to add this round.", actor),
			Confidence:     0.5,
		}
	case domain.PhaseDayVoting:
		if target := firstTarget(view.Alive, actor, view.WerewolfTeammates); target != "" {
			return Decision{Kind: domain.ActionVote.String(), Target: target, Confidence: 0.5}
		}
	case domain.PhaseNightWerewolf:
		if view.Role == domain.RoleWerewolf {
			if target := firstTarget(view.Alive, actor, view.WerewolfTeammates); target != "" {
				return Decision{Kind: domain.ActionKill.String(), Target: target, Confidence: 0.6}
			}
		}
	case domain.PhaseNightSeer:
		if view.Role == domain.RoleSeer {
			if target := firstUninvestigated(view, actor); target != "" {
				return Decision{Kind: domain.ActionInvestigate.String(), Target: target, Confidence: 0.7}
			}
		}
	case domain.PhaseNightDoctor:
		if view.Role == domain.RoleDoctor {
			// Self-protection is always legal.
			return Decision{Kind: domain.ActionProtect.String(), Target: actor, Confidence: 0.6}
		}
	case domain.PhaseNightWitch:
		if view.Role == domain.RoleWitch && view.Witch != nil {
			if view.Witch.HealAvailable && view.Witch.NightKillTarget != "" {
				return Decision{Kind: domain.ActionHeal.String(), Target: view.Witch.NightKillTarget, Confidence: 0.8}
			}
		}
	case domain.PhaseHunterShoot:
		if view.PendingShot {
			if target := firstTarget(view.Alive, actor, nil); target != "" {
				return Decision{Kind: domain.ActionShoot.String(), Target: target, Confidence: 0.6}
			}
		}
	}
	return Decision{Kind: domain.ActionPass.String(), Confidence: 0.5}
}

// firstTarget returns the first living participant that is neither the actor
// nor excluded.
func firstTarget(alive []string, actor string, excluded []string) string {
	skip := make(map[string]bool, len(excluded)+1)
	skip[actor] = true
	for _, id := range excluded {
		skip[id] = true
	}
	for _, id := range alive {
		if !skip[id] {
			return id
		}
	}
	return ""
}

// firstUninvestigated returns the first living participant the seer has not
// looked at yet.
func firstUninvestigated(view state.View, actor string) string {
	seen := make(map[string]bool, len(view.Investigations))
	for _, inv := range view.Investigations {
		seen[inv.Target] = true
	}
	for _, id := range view.Alive {
		if id != actor && !seen[id] {
			return id
		}
	}
	return firstTarget(view.Alive, actor, nil)
}
