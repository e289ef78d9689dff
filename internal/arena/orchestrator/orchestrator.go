// Package orchestrator runs the live game loop: it fans requests out to the
// participants a phase is waiting on, collects their decisions under a
// deadline, substitutes deterministic fallbacks for anyone who fails to
// deliver, and advances the engine until the game ends.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duskvale/werewolf-arena/internal/arena/agent"
	"github.com/duskvale/werewolf-arena/internal/arena/domain"
	"github.com/duskvale/werewolf-arena/internal/arena/engine"
	"github.com/duskvale/werewolf-arena/internal/arena/journal"
	"github.com/duskvale/werewolf-arena/internal/arena/rules"
	"github.com/duskvale/werewolf-arena/internal/arena/state"
	"github.com/duskvale/werewolf-arena/internal/arena/storage"
	"github.com/duskvale/werewolf-arena/internal/platform/timeouts"
)

// Clients maps participant ids to their decision clients.
type Clients map[string]agent.Client

// Orchestrator drives games to completion. One Run call owns its game
// exclusively: all state mutation happens on the loop goroutine, so the
// engine and aggregate need no locking.
type Orchestrator struct {
	engine   *engine.Engine
	recorder *journal.Recorder
	games    storage.GameStore
	clock    func() time.Time

	// requestTimeout bounds a single agent call in phases without their own
	// configured limit.
	requestTimeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithGameStore persists the aggregate after every phase.
func WithGameStore(games storage.GameStore) Option {
	return func(o *Orchestrator) { o.games = games }
}

// WithRequestTimeout overrides the default per-agent deadline.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) { o.requestTimeout = timeout }
}

// WithClock overrides the clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// New creates an Orchestrator around an engine and a journal recorder.
func New(eng *engine.Engine, recorder *journal.Recorder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine:         eng,
		recorder:       recorder,
		clock:          time.Now,
		requestTimeout: timeouts.AgentRequest,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// reply carries one participant's response off its worker goroutine.
type reply struct {
	actor  string
	action domain.Action
	err    error
}

// Run starts the game and loops phases until a terminal state. Cancelling
// ctx abandons in-flight agent calls and marks the game cancelled.
func (o *Orchestrator) Run(ctx context.Context, game *domain.Game, clients Clients) error {
	if err := o.engine.Start(game); err != nil {
		return err
	}
	o.journal(ctx, game, journal.EventGameStarted, "", nil)
	o.persist(ctx, game)
	log.Printf("game %s started with %d participants", game.ID, len(game.Participants))

	for !game.Terminal() {
		if err := ctx.Err(); err != nil {
			o.cancel(ctx, game)
			return err
		}
		if err := o.runPhase(ctx, game, clients); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				o.cancel(ctx, game)
			}
			return err
		}
	}
	return nil
}

// runPhase collects every expected actor's decision, applies them, and
// advances the engine once.
func (o *Orchestrator) runPhase(ctx context.Context, game *domain.Game, clients Clients) error {
	tracer := otel.Tracer("arena/orchestrator")
	ctx, span := tracer.Start(ctx, "phase.run", trace.WithAttributes(
		attribute.String("game.id", game.ID),
		attribute.String("game.phase", game.Phase.String()),
		attribute.Int("game.round", game.Round),
	))
	defer span.End()

	expected := o.engine.ExpectedActors(game)
	deadline := o.phaseTimeout(game)

	// Views and requests are built before any goroutine starts; workers only
	// touch their own request and client.
	replies := make(chan reply, len(expected))
	for _, actor := range expected {
		req := agent.Request{
			Actor:      actor,
			View:       state.ViewFor(game, actor),
			ValidKinds: kindNames(rules.AllowedKinds(game.Phase, game.Roles[actor])),
		}
		client := clients[actor]
		go func() {
			if client == nil {
				replies <- reply{actor: req.Actor, err: fmt.Errorf("no client for participant %s", req.Actor)}
				return
			}
			callCtx, cancel := context.WithTimeout(ctx, deadline)
			defer cancel()
			action, err := client.Decide(callCtx, req)
			replies <- reply{actor: req.Actor, action: action, err: err}
		}()
	}

	received := make(map[string]bool, len(expected))
	actions := make([]domain.Action, 0, len(expected))
	for range expected {
		var r reply
		select {
		case r = <-replies:
		case <-ctx.Done():
			return ctx.Err()
		}
		actions = append(actions, o.admit(ctx, game, r))
		received[r.actor] = true
	}

	if !o.engine.ReadyToAdvance(game, received) {
		return fmt.Errorf("phase %s not ready to advance", game.Phase)
	}

	result, err := o.engine.Advance(game, actions)
	if err != nil {
		return err
	}

	o.journal(ctx, game, journal.EventPhaseAdvanced, "", map[string]any{
		"from": result.Previous.String(),
		"to":   result.Next.String(),
	})
	for _, eliminated := range result.Eliminated {
		o.journal(ctx, game, journal.EventElimination, eliminated, map[string]any{
			"role": game.Roles[eliminated].String(),
		})
	}
	if result.Completed {
		o.journal(ctx, game, journal.EventGameCompleted, "", map[string]any{
			"winner": result.Winner.String(),
			"rounds": game.Round,
		})
		log.Printf("game %s completed: winner=%s rounds=%d", game.ID, result.Winner, game.Round)
	}
	if _, err := o.recorder.Snapshot(ctx, game); err != nil {
		log.Printf("game %s: snapshot: %v", game.ID, err)
	}
	o.persist(ctx, game)
	return nil
}

// admit turns one reply into an applied action, substituting the
// deterministic fallback when the participant timed out, misbehaved, or
// submitted an illegal action.
func (o *Orchestrator) admit(ctx context.Context, game *domain.Game, r reply) domain.Action {
	if r.err != nil {
		cause := classify(r.err)
		game.Ledger.RecordFallback(cause)
		o.journal(ctx, game, journal.EventFallbackApplied, r.actor, map[string]any{
			"cause": string(cause),
			"error": r.err.Error(),
		})
		log.Printf("game %s: falling back for %s: %v", game.ID, r.actor, r.err)
		return domain.FallbackPass(r.actor, string(cause), o.clock())
	}

	violation, err := o.engine.Submit(game, r.action)
	if err != nil {
		cause := domain.CauseMalformedResponse
		game.Ledger.RecordFallback(cause)
		o.journal(ctx, game, journal.EventFallbackApplied, r.actor, map[string]any{
			"cause": string(cause),
			"error": err.Error(),
		})
		return domain.FallbackPass(r.actor, string(cause), o.clock())
	}
	if violation != domain.ViolationNone {
		o.journal(ctx, game, journal.EventActionRejected, r.actor, journal.ActionPayload(r.action, violation))
		return domain.FallbackPass(r.actor, string(violation), o.clock())
	}

	o.journal(ctx, game, journal.EventActionApplied, r.actor, journal.ActionPayload(r.action, domain.ViolationNone))
	return r.action
}

// phaseTimeout picks the per-agent deadline for the current phase. Day
// phases honor the configured discussion and voting limits.
func (o *Orchestrator) phaseTimeout(game *domain.Game) time.Duration {
	switch game.Phase {
	case domain.PhaseDayDiscussion:
		if game.Config.DiscussionLimit > 0 {
			return game.Config.DiscussionLimit
		}
	case domain.PhaseDayVoting:
		if game.Config.VotingLimit > 0 {
			return game.Config.VotingLimit
		}
	}
	return o.requestTimeout
}

// classify maps a client error to its fallback cause.
func classify(err error) domain.Violation {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.CauseTimeout
	case errors.Is(err, agent.ErrMalformed):
		return domain.CauseMalformedResponse
	default:
		return domain.CauseTransportFailure
	}
}

func (o *Orchestrator) cancel(ctx context.Context, game *domain.Game) {
	if game.Terminal() {
		return
	}
	if err := o.engine.Cancel(game); err != nil {
		log.Printf("game %s: cancel: %v", game.ID, err)
		return
	}
	// The loop context is gone; give persistence its own short deadline.
	flushCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	o.journal(flushCtx, game, journal.EventGameCancelled, "", nil)
	o.persist(flushCtx, game)
	log.Printf("game %s cancelled in round %d", game.ID, game.Round)
}

func (o *Orchestrator) journal(ctx context.Context, game *domain.Game, eventType journal.EventType, actor string, payload map[string]any) {
	if err := o.recorder.Record(ctx, game, eventType, actor, payload); err != nil {
		log.Printf("game %s: journal %s: %v", game.ID, eventType, err)
	}
}

func (o *Orchestrator) persist(ctx context.Context, game *domain.Game) {
	if o.games == nil {
		return
	}
	if err := o.games.SaveGame(ctx, game); err != nil {
		log.Printf("game %s: persist: %v", game.ID, err)
	}
}

func kindNames(kinds []domain.ActionKind) []string {
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, kind.String())
	}
	return names
}
