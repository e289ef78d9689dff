package orchestrator

import (
	"context"
	"errors"
	"fmt"
	mrand "math/rand"
	"testing"
	"time"

	"github.com/duskvale/werewolf-arena/internal/arena/agent"
	"github.com/duskvale/werewolf-arena/internal/arena/domain"
	"github.com/duskvale/werewolf-arena/internal/arena/engine"
	"github.com/duskvale/werewolf-arena/internal/arena/journal"
	"github.com/duskvale/werewolf-arena/internal/arena/state"
)

// scriptedClient answers instantly with the deterministic policy.
type scriptedClient struct {
	policy agent.ScriptedPolicy
}

func (c scriptedClient) Decide(ctx context.Context, req agent.Request) (domain.Action, error) {
	decision := c.policy.Decide(req.Actor, req.View)
	kind, err := domain.ParseActionKind(decision.Kind)
	if err != nil {
		return domain.Action{}, err
	}
	return domain.Action{
		Actor:          req.Actor,
		Kind:           kind,
		Target:         decision.Target,
		Confidence:     decision.Confidence,
		DiscussKind:    domain.DiscussKind(decision.DiscussKind),
		DiscussContent: decision.DiscussContent,
	}, nil
}

// blockingClient never answers; it waits for the per-request deadline.
type blockingClient struct{}

func (blockingClient) Decide(ctx context.Context, req agent.Request) (domain.Action, error) {
	<-ctx.Done()
	return domain.Action{}, ctx.Err()
}

// brokenClient fails transport on every call.
type brokenClient struct{}

func (brokenClient) Decide(ctx context.Context, req agent.Request) (domain.Action, error) {
	return domain.Action{}, fmt.Errorf("dial tcp: connection refused")
}

// selfishClient always votes for itself, which is never legal.
type selfishClient struct{}

func (selfishClient) Decide(ctx context.Context, req agent.Request) (domain.Action, error) {
	return domain.Action{Actor: req.Actor, Kind: domain.ActionVote, Target: req.Actor, Confidence: 1}, nil
}

func testEngine(t *testing.T, seed int64) *engine.Engine {
	t.Helper()
	manager, err := state.NewManagerWith(mrand.New(mrand.NewSource(seed)), nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	eng, err := engine.NewWith(manager, nil, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

func testProfiles(n int) []domain.Profile {
	profiles := make([]domain.Profile, n)
	for i := range profiles {
		id := fmt.Sprintf("agent_%d", i)
		profiles[i] = domain.Profile{ID: id, Name: id}
	}
	return profiles
}

func allScripted(game *domain.Game) Clients {
	clients := make(Clients, len(game.Participants))
	for _, id := range game.Participants {
		clients[id] = scriptedClient{}
	}
	return clients
}

func TestRunCompletesFullGame(t *testing.T) {
	eng := testEngine(t, 7)
	cfg := domain.DefaultConfig()
	cfg.MaxRounds = 20
	cfg.DiscussionLimit = time.Second
	cfg.VotingLimit = time.Second

	game, err := eng.Create(testProfiles(8), cfg)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	memory := journal.NewMemory()
	orch := New(eng, journal.NewRecorder(memory))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := orch.Run(ctx, game, allScripted(game)); err != nil {
		t.Fatalf("run: %v", err)
	}

	if game.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", game.Status)
	}
	if game.Phase != domain.PhaseGameOver {
		t.Fatalf("expected game_over, got %s", game.Phase)
	}

	events := memory.Events(game.ID)
	if len(events) == 0 {
		t.Fatal("expected journal events")
	}
	var started, completed bool
	lastSeq := 0
	for _, event := range events {
		if event.Seq <= lastSeq {
			t.Fatalf("journal out of order at seq %d", event.Seq)
		}
		lastSeq = event.Seq
		switch event.Type {
		case journal.EventGameStarted:
			started = true
		case journal.EventGameCompleted:
			completed = true
		}
	}
	if !started || !completed {
		t.Fatalf("journal missing lifecycle events: started=%v completed=%v", started, completed)
	}
}

func TestRunPhaseTimeoutFallback(t *testing.T) {
	eng := testEngine(t, 1)
	game, err := eng.Create(testProfiles(8), domain.DefaultConfig())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := eng.Start(game); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Every wolf blocks, so the werewolf night resolves entirely on
	// fallbacks.
	clients := allScripted(game)
	for _, wolf := range game.AliveWithRole(domain.RoleWerewolf) {
		clients[wolf] = blockingClient{}
	}

	memory := journal.NewMemory()
	orch := New(eng, journal.NewRecorder(memory), WithRequestTimeout(50*time.Millisecond))

	if err := orch.runPhase(context.Background(), game, clients); err != nil {
		t.Fatalf("run phase: %v", err)
	}

	if game.Phase != domain.PhaseNightWitch {
		t.Fatalf("phase should advance on fallbacks, got %s", game.Phase)
	}
	if game.NightKillTarget != "" {
		t.Fatalf("no kill should land without wolf input, got %q", game.NightKillTarget)
	}
	if game.Ledger.Violations[domain.CauseTimeout] != 2 {
		t.Fatalf("expected 2 timeout fallbacks, got %d", game.Ledger.Violations[domain.CauseTimeout])
	}

	var fallbacks int
	for _, event := range memory.Events(game.ID) {
		if event.Type == journal.EventFallbackApplied {
			fallbacks++
		}
	}
	if fallbacks != 2 {
		t.Fatalf("expected 2 fallback events, got %d", fallbacks)
	}
}

func TestRunPhaseTransportFallback(t *testing.T) {
	eng := testEngine(t, 1)
	game, err := eng.Create(testProfiles(8), domain.DefaultConfig())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := eng.Start(game); err != nil {
		t.Fatalf("start: %v", err)
	}

	clients := allScripted(game)
	wolves := game.AliveWithRole(domain.RoleWerewolf)
	clients[wolves[0]] = brokenClient{}

	orch := New(eng, journal.NewRecorder(journal.NewMemory()))
	if err := orch.runPhase(context.Background(), game, clients); err != nil {
		t.Fatalf("run phase: %v", err)
	}
	if game.Ledger.Violations[domain.CauseTransportFailure] != 1 {
		t.Fatalf("expected 1 transport fallback, got %d", game.Ledger.Violations[domain.CauseTransportFailure])
	}
	// The healthy wolf alone is a majority of one living voice short of
	// two, so no kill lands.
	if game.NightKillTarget != "" {
		t.Fatalf("single wolf vote must not reach consensus, got %q", game.NightKillTarget)
	}
}

func TestRunPhaseIllegalActionFallsBack(t *testing.T) {
	eng := testEngine(t, 1)
	game, err := eng.Create(testProfiles(8), domain.DefaultConfig())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := eng.Start(game); err != nil {
		t.Fatalf("start: %v", err)
	}
	game.Phase = domain.PhaseDayVoting

	clients := allScripted(game)
	offender := game.Alive[0]
	clients[offender] = selfishClient{}

	memory := journal.NewMemory()
	orch := New(eng, journal.NewRecorder(memory))
	if err := orch.runPhase(context.Background(), game, clients); err != nil {
		t.Fatalf("run phase: %v", err)
	}

	if game.Ledger.RejectionsFor(offender) != 1 {
		t.Fatalf("expected 1 rejection for %s, got %d", offender, game.Ledger.RejectionsFor(offender))
	}
	var rejected bool
	for _, event := range memory.Events(game.ID) {
		if event.Type == journal.EventActionRejected && event.Actor == offender {
			rejected = true
		}
	}
	if !rejected {
		t.Fatal("expected a rejected-action event")
	}
}

func TestRunCancellation(t *testing.T) {
	eng := testEngine(t, 1)
	game, err := eng.Create(testProfiles(8), domain.DefaultConfig())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clients := make(Clients, len(game.Participants))
	for _, id := range game.Participants {
		clients[id] = blockingClient{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	orch := New(eng, journal.NewRecorder(journal.NewMemory()))
	go func() {
		done <- orch.Run(ctx, game, clients)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context cancellation, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
	if game.Status != domain.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", game.Status)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want domain.Violation
	}{
		{context.DeadlineExceeded, domain.CauseTimeout},
		{fmt.Errorf("call agent: %w", context.DeadlineExceeded), domain.CauseTimeout},
		{fmt.Errorf("%w: bad json", agent.ErrMalformed), domain.CauseMalformedResponse},
		{errors.New("connection refused"), domain.CauseTransportFailure},
	}
	for _, tc := range cases {
		if got := classify(tc.err); got != tc.want {
			t.Fatalf("classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
