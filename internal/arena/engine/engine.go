// Package engine drives a game through its lifecycle: creation, the phase
// loop, action admission, phase resolution, and the terminal outcome. It owns
// no concurrency and no transport; the orchestrator serializes all calls for
// one game.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/duskvale/werewolf-arena/internal/arena/domain"
	"github.com/duskvale/werewolf-arena/internal/arena/rules"
	"github.com/duskvale/werewolf-arena/internal/arena/state"
	"github.com/duskvale/werewolf-arena/internal/platform/id"
)

var (
	// ErrNotWaiting indicates a start call on a game past the waiting state.
	ErrNotWaiting = errors.New("game is not waiting to start")
	// ErrNotRunning indicates a submission or advance on a game that is not
	// in progress.
	ErrNotRunning = errors.New("game is not in progress")
	// ErrDuplicateParticipant indicates a roster with a repeated id.
	ErrDuplicateParticipant = errors.New("duplicate participant id")
)

// Engine applies game semantics on top of the state manager. The clock and id
// generator are injectable for deterministic tests.
type Engine struct {
	state *state.Manager
	clock func() time.Time
	newID func() (string, error)
}

// New creates an Engine with default dependencies.
func New() (*Engine, error) {
	manager, err := state.NewManager()
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	return &Engine{state: manager, clock: time.Now, newID: id.NewID}, nil
}

// NewWith creates an Engine with explicit dependencies. Nil values fall back
// to the defaults.
func NewWith(manager *state.Manager, clock func() time.Time, newID func() (string, error)) (*Engine, error) {
	if manager == nil {
		var err error
		manager, err = state.NewManager()
		if err != nil {
			return nil, fmt.Errorf("new engine: %w", err)
		}
	}
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Engine{state: manager, clock: clock, newID: newID}, nil
}

// Create builds a new waiting game for the given roster. Roles are assigned
// at creation so the setup phase has nothing left to decide; the game does
// not run until Start.
func (e *Engine) Create(profiles []domain.Profile, cfg domain.Config) (*domain.Game, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, fmt.Errorf("game config: %w", err)
	}

	ids := make([]string, 0, len(profiles))
	seen := make(map[string]bool, len(profiles))
	for _, profile := range profiles {
		if seen[profile.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, profile.ID)
		}
		seen[profile.ID] = true
		ids = append(ids, profile.ID)
	}

	roles, err := e.state.AssignRoles(ids, cfg)
	if err != nil {
		return nil, err
	}

	gameID, err := e.newID()
	if err != nil {
		return nil, fmt.Errorf("generate game id: %w", err)
	}

	game := &domain.Game{
		ID:           gameID,
		Status:       domain.StatusWaiting,
		Phase:        domain.PhaseSetup,
		Participants: ids,
		Alive:        append([]string(nil), ids...),
		Roles:        roles,
		Profiles:     make(map[string]domain.Profile, len(profiles)),
		Votes:        make(map[string]string),
		Ledger:       domain.NewLedger(),
		Config:       cfg,
		CreatedAt:    e.clock().UTC(),
	}
	for _, profile := range profiles {
		profile.Role = roles[profile.ID]
		game.Profiles[profile.ID] = profile
	}
	return game, nil
}

// Start moves a waiting game into the first werewolf night of round one.
func (e *Engine) Start(game *domain.Game) error {
	if game.Status != domain.StatusWaiting {
		return fmt.Errorf("%w: %s", ErrNotWaiting, game.Status)
	}
	game.Status = domain.StatusInProgress
	game.Phase = domain.PhaseNightWerewolf
	game.Round = 1
	game.StartedAt = e.clock().UTC()
	return nil
}

// Cancel abandons a running game without a winner.
func (e *Engine) Cancel(game *domain.Game) error {
	if game.Terminal() {
		return fmt.Errorf("%w: %s", ErrNotRunning, game.Status)
	}
	game.Status = domain.StatusCancelled
	game.CompletedAt = e.clock().UTC()
	return nil
}

// Submit validates one action against the current phase and the actor's true
// role, updates the compliance ledger, and applies the action's immediate
// effect. Phase-resolved effects (kills, investigations, protections) wait
// for Advance. The returned violation is ViolationNone for accepted actions.
func (e *Engine) Submit(game *domain.Game, action domain.Action) (domain.Violation, error) {
	if game.Status != domain.StatusInProgress {
		return domain.ViolationInvalidPhase, fmt.Errorf("%w: %s", ErrNotRunning, game.Status)
	}
	role, err := game.RoleOf(action.Actor)
	if err != nil {
		game.Ledger.RecordRejected(action.Actor, action.Kind, game.Phase, domain.ViolationUnknownTarget)
		return domain.ViolationUnknownTarget, err
	}

	if violation := rules.Check(action, game, role); violation != domain.ViolationNone {
		game.Ledger.RecordRejected(action.Actor, action.Kind, game.Phase, violation)
		return violation, nil
	}

	// A re-vote replaces the previous one; all other immediate effects are
	// deferred to phase resolution.
	if action.Kind == domain.ActionVote {
		game.Votes[action.Actor] = action.Target
	}

	game.Ledger.RecordAccepted(action.Actor, action.Kind, game.Phase)
	return domain.ViolationNone, nil
}

// ExpectedActors lists the participants the current phase is waiting on. Day
// phases expect everyone alive; a night phase expects the living holders of
// its role; the hunter-shoot phase expects only the obligated hunter.
func (e *Engine) ExpectedActors(game *domain.Game) []string {
	switch game.Phase {
	case domain.PhaseDayDiscussion, domain.PhaseDayVoting:
		return append([]string(nil), game.Alive...)
	case domain.PhaseHunterShoot:
		if game.PendingHunter == "" {
			return nil
		}
		return []string{game.PendingHunter}
	default:
		if !game.Phase.IsNight() {
			return nil
		}
		return game.AliveWithRole(game.Phase.NightRole())
	}
}

// ReadyToAdvance reports whether every expected actor has been heard from.
func (e *Engine) ReadyToAdvance(game *domain.Game, received map[string]bool) bool {
	for _, actor := range e.ExpectedActors(game) {
		if !received[actor] {
			return false
		}
	}
	return true
}

// AdvanceResult reports what one phase resolution did.
type AdvanceResult struct {
	Previous   domain.Phase
	Next       domain.Phase
	Eliminated []string
	Completed  bool
	Winner     domain.Winner
}

// Advance resolves the current phase with the accepted actions, applies
// eliminations, records history, checks the win conditions, and moves the
// game into its next phase. The provisional werewolf kill is finalized on the
// advance that opens the day; a hunter eliminated along the way diverts play
// into a shoot phase before anything else proceeds.
func (e *Engine) Advance(game *domain.Game, actions []domain.Action) (AdvanceResult, error) {
	if game.Status != domain.StatusInProgress {
		return AdvanceResult{}, fmt.Errorf("%w: %s", ErrNotRunning, game.Status)
	}

	result := AdvanceResult{Previous: game.Phase}
	eliminate := func(target string) {
		if target == "" || !game.IsAlive(target) {
			return
		}
		e.state.Eliminate(game, target)
		result.Eliminated = append(result.Eliminated, target)
	}

	switch game.Phase {
	case domain.PhaseNightWerewolf:
		game.NightKillTarget = e.state.ResolveWerewolfKill(game, actions)
	case domain.PhaseNightWitch:
		outcome := e.state.ResolveWitch(game, actions)
		eliminate(outcome.PoisonTarget)
	case domain.PhaseNightSeer:
		e.state.ResolveSeer(game, actions)
	case domain.PhaseNightDoctor:
		e.state.ResolveDoctor(game, actions)
	case domain.PhaseDayVoting:
		eliminate(e.state.ResolveVotes(game))
	case domain.PhaseHunterShoot:
		shot := e.state.ResolveHunter(game, actions)
		game.PendingHunter = ""
		eliminate(shot)
	case domain.PhaseDayDiscussion:
		// Discussion has no resolution; accepted contributions live in the
		// round record.
	default:
		return AdvanceResult{}, fmt.Errorf("cannot advance from phase %s", game.Phase)
	}

	next := e.state.NextPhase(game)

	// The werewolf kill stays provisional through the rest of the night so
	// the witch's heal and the doctor's protection get their chance. It lands
	// on the advance that opens the day.
	if next == domain.PhaseDayDiscussion && game.NightKillTarget != "" {
		victim := game.NightKillTarget
		game.NightKillTarget = ""
		eliminate(victim)
	}

	// An elimination above may have obligated the hunter. Divert into the
	// shoot phase and remember where play resumes.
	if game.PendingHunter != "" && result.Previous != domain.PhaseHunterShoot {
		game.ResumePhase = next
		next = domain.PhaseHunterShoot
	}

	e.state.AppendRecord(game, actions, result.Eliminated)

	// The win check waits for a pending hunter shot: the retaliation can
	// still swing the outcome.
	if next != domain.PhaseHunterShoot {
		if winner, over := decide(game); over {
			e.complete(game, winner)
			result.Next = domain.PhaseGameOver
			result.Completed = true
			result.Winner = winner
			return result, nil
		}
	}

	e.state.AdvanceInto(game, next)

	if next == domain.PhaseDayDiscussion && game.Config.MaxRounds > 0 && game.Round > game.Config.MaxRounds {
		e.complete(game, domain.WinnerNone)
		result.Next = domain.PhaseGameOver
		result.Completed = true
		return result, nil
	}

	result.Next = next
	return result, nil
}

// decide evaluates the win conditions against the living roster.
func decide(game *domain.Game) (domain.Winner, bool) {
	wolves := game.LivingWerewolves()
	others := len(game.Alive) - wolves
	switch {
	case len(game.Alive) == 0:
		return domain.WinnerDraw, true
	case wolves == 0:
		return domain.WinnerVillagers, true
	case wolves >= others:
		return domain.WinnerWerewolves, true
	default:
		return domain.WinnerNone, false
	}
}

func (e *Engine) complete(game *domain.Game, winner domain.Winner) {
	game.Status = domain.StatusCompleted
	game.Phase = domain.PhaseGameOver
	game.Winner = winner
	game.CompletedAt = e.clock().UTC()
}
