// Package state owns every game-state mutation: role assignment, phase
// resolutions, elimination bookkeeping, phase sequencing, and the per-viewer
// projection. The engine composes these operations; nothing here talks to
// transport or storage.
package state

import (
	"errors"
	"fmt"
	mrand "math/rand"
	"sort"
	"time"

	"github.com/duskvale/werewolf-arena/internal/arena/domain"
	"github.com/duskvale/werewolf-arena/internal/platform/random"
)

var (
	// ErrTooFewParticipants indicates the roster cannot field the configured
	// role bag.
	ErrTooFewParticipants = errors.New("too few participants for configured roles")
)

// Manager performs state transitions on a Game. The random source drives the
// role shuffle and vote tie-breaks; the clock stamps round records. Both are
// injectable for deterministic tests.
type Manager struct {
	rng   *mrand.Rand
	clock func() time.Time
}

// NewManager creates a Manager with default dependencies.
func NewManager() (*Manager, error) {
	rng, err := random.NewRand()
	if err != nil {
		return nil, fmt.Errorf("seed state manager: %w", err)
	}
	return &Manager{rng: rng, clock: time.Now}, nil
}

// NewManagerWith creates a Manager with explicit dependencies. Nil values
// fall back to the defaults.
func NewManagerWith(rng *mrand.Rand, clock func() time.Time) (*Manager, error) {
	if rng == nil {
		seeded, err := random.NewRand()
		if err != nil {
			return nil, fmt.Errorf("seed state manager: %w", err)
		}
		rng = seeded
	}
	if clock == nil {
		clock = time.Now
	}
	return &Manager{rng: rng, clock: clock}, nil
}

// AssignRoles builds the secret role bag for the roster and deals it out
// uniformly at random. The bag holds the configured werewolf count, one entry
// per enabled optional role, and villagers for the remainder.
func (m *Manager) AssignRoles(participants []string, cfg domain.Config) (map[string]domain.Role, error) {
	if len(participants) < cfg.MinParticipants() {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrTooFewParticipants, cfg.MinParticipants(), len(participants))
	}

	bag := make([]domain.Role, 0, len(participants))
	for range cfg.Werewolves {
		bag = append(bag, domain.RoleWerewolf)
	}
	if cfg.HasSeer {
		bag = append(bag, domain.RoleSeer)
	}
	if cfg.HasDoctor {
		bag = append(bag, domain.RoleDoctor)
	}
	if cfg.HasHunter {
		bag = append(bag, domain.RoleHunter)
	}
	if cfg.HasWitch {
		bag = append(bag, domain.RoleWitch)
	}
	for len(bag) < len(participants) {
		bag = append(bag, domain.RoleVillager)
	}

	m.rng.Shuffle(len(bag), func(i, j int) {
		bag[i], bag[j] = bag[j], bag[i]
	})

	assignment := make(map[string]domain.Role, len(participants))
	for i, participant := range participants {
		assignment[participant] = bag[i]
	}
	return assignment, nil
}

// ResolveVotes tallies the current vote map and returns the participant to
// eliminate, or "" when nobody was voted out. A unique maximum wins; ties
// break by uniform random choice among the tied candidates.
func (m *Manager) ResolveVotes(game *domain.Game) string {
	tally := game.VoteTally()
	if len(tally) == 0 {
		return ""
	}

	maxVotes := 0
	for _, count := range tally {
		if count > maxVotes {
			maxVotes = count
		}
	}

	var candidates []string
	for target, count := range tally {
		if count == maxVotes {
			candidates = append(candidates, target)
		}
	}
	// Map iteration order is random; sort so the rng pick is the only
	// nondeterminism.
	sort.Strings(candidates)

	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[m.rng.Intn(len(candidates))]
}

// ResolveWerewolfKill tallies kill votes and returns the consensus target,
// or "" when no target got strictly more than half of the living werewolves.
// The target is provisional: it is recorded on the game but not eliminated
// until the night ends.
func (m *Manager) ResolveWerewolfKill(game *domain.Game, actions []domain.Action) string {
	tally := make(map[string]int)
	for _, action := range actions {
		if action.Kind == domain.ActionKill && action.Target != "" {
			tally[action.Target]++
		}
	}
	if len(tally) == 0 {
		return ""
	}

	required := game.LivingWerewolves()/2 + 1
	for target, votes := range tally {
		if votes >= required {
			return target
		}
	}
	return ""
}

// Eliminate removes the participant from the alive set and appends it to the
// eliminated list, preserving elimination order. Eliminating the hunter sets
// the pending-shoot obligation.
func (m *Manager) Eliminate(game *domain.Game, id string) {
	if !game.IsAlive(id) {
		return
	}
	alive := make([]string, 0, len(game.Alive)-1)
	for _, participant := range game.Alive {
		if participant != id {
			alive = append(alive, participant)
		}
	}
	game.Alive = alive
	game.Eliminated = append(game.Eliminated, id)

	if game.Roles[id] == domain.RoleHunter {
		game.PendingHunter = id
	}
}

// WitchOutcome reports what the witch phase decided.
type WitchOutcome struct {
	Healed       bool
	PoisonTarget string
}

// ResolveWitch applies at most one heal and at most one poison from the
// phase's accepted actions. A heal clears the provisional kill target; the
// poison target is returned for immediate elimination. The two potions are
// independent one-shot resources.
func (m *Manager) ResolveWitch(game *domain.Game, actions []domain.Action) WitchOutcome {
	var outcome WitchOutcome
	for _, action := range actions {
		switch action.Kind {
		case domain.ActionHeal:
			if outcome.Healed || game.WitchHealUsed {
				continue
			}
			if action.Target == game.NightKillTarget && action.Target != "" {
				game.WitchHealUsed = true
				game.NightKillTarget = ""
				outcome.Healed = true
			}
		case domain.ActionPoison:
			if outcome.PoisonTarget != "" || game.WitchPoisonUsed {
				continue
			}
			if game.IsAlive(action.Target) {
				game.WitchPoisonUsed = true
				outcome.PoisonTarget = action.Target
			}
		}
	}
	return outcome
}

// ResolveSeer records the phase's investigations. Results key on the
// (seer, target, round) triple, so repeats within a round are idempotent.
func (m *Manager) ResolveSeer(game *domain.Game, actions []domain.Action) {
	for _, action := range actions {
		if action.Kind != domain.ActionInvestigate || action.Target == "" {
			continue
		}
		game.RecordInvestigation(domain.Investigation{
			Seer:       action.Actor,
			Target:     action.Target,
			Round:      game.Round,
			IsWerewolf: game.Roles[action.Target] == domain.RoleWerewolf,
		})
	}
}

// ResolveDoctor records tonight's protection. Protecting the provisional kill
// target cancels the kill.
func (m *Manager) ResolveDoctor(game *domain.Game, actions []domain.Action) {
	for _, action := range actions {
		if action.Kind != domain.ActionProtect || action.Target == "" {
			continue
		}
		game.ProtectedTarget = action.Target
		if game.NightKillTarget == action.Target {
			game.NightKillTarget = ""
		}
		return
	}
}

// ResolveHunter scans the phase's actions for a shoot from the obligated
// hunter and returns the shot target, or "" when the hunter never fired.
// There is no forced retaliation.
func (m *Manager) ResolveHunter(game *domain.Game, actions []domain.Action) string {
	if game.PendingHunter == "" {
		return ""
	}
	for _, action := range actions {
		if action.Actor == game.PendingHunter && action.Kind == domain.ActionShoot {
			return action.Target
		}
	}
	return ""
}

// NextPhase computes the successor of the current phase under the game's
// config. Disabled optional roles never appear. A pending hunter obligation
// diverts play into HunterShoot, remembering where to resume.
func (m *Manager) NextPhase(game *domain.Game) domain.Phase {
	if game.Phase == domain.PhaseHunterShoot {
		if game.ResumePhase != domain.PhaseUnspecified {
			return game.ResumePhase
		}
		return domain.PhaseDayDiscussion
	}
	if game.Phase == domain.PhaseSetup {
		return domain.PhaseNightWerewolf
	}

	order := append(game.Config.EnabledNightPhases(), domain.PhaseDayDiscussion, domain.PhaseDayVoting)
	for i, phase := range order {
		if phase == game.Phase {
			return order[(i+1)%len(order)]
		}
	}
	return domain.PhaseDayDiscussion
}

// AdvanceInto moves the game into next. Every transition clears the vote
// map, and the resume marker survives only while HunterShoot is being
// entered; entering DayDiscussion additionally starts a new round and drops
// the per-night transient state, including an unserved hunter obligation.
func (m *Manager) AdvanceInto(game *domain.Game, next domain.Phase) {
	game.Votes = make(map[string]string)
	if next != domain.PhaseHunterShoot {
		game.ResumePhase = domain.PhaseUnspecified
	}
	if next == domain.PhaseDayDiscussion {
		game.Round++
		game.NightKillTarget = ""
		game.ProtectedTarget = ""
		game.PendingHunter = ""
	}
	game.Phase = next
}

// AppendRecord adds one resolved-phase record to the append-only history.
func (m *Manager) AppendRecord(game *domain.Game, actions []domain.Action, eliminated []string) {
	game.History = append(game.History, domain.RoundRecord{
		Round:      game.Round,
		Phase:      game.Phase,
		Actions:    actions,
		Eliminated: eliminated,
		Timestamp:  m.clock().UTC(),
	})
}
