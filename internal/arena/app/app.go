// Package app composes the arena service: storage, engine, journal,
// orchestrator, and the HTTP surface, plus the lifecycle of background game
// loops.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/duskvale/werewolf-arena/internal/arena/agent"
	"github.com/duskvale/werewolf-arena/internal/arena/api"
	"github.com/duskvale/werewolf-arena/internal/arena/domain"
	"github.com/duskvale/werewolf-arena/internal/arena/engine"
	"github.com/duskvale/werewolf-arena/internal/arena/journal"
	"github.com/duskvale/werewolf-arena/internal/arena/orchestrator"
	"github.com/duskvale/werewolf-arena/internal/arena/storage"
	"github.com/duskvale/werewolf-arena/internal/arena/storage/sqlite"
	"github.com/duskvale/werewolf-arena/internal/platform/config"
	"github.com/duskvale/werewolf-arena/internal/platform/timeouts"
)

// App is the wired arena service.
type App struct {
	cfg      Config
	engine   *engine.Engine
	recorder *journal.Recorder
	store    storage.Store
	orch     *orchestrator.Orchestrator
	preset   domain.Config
	closer   func() error

	// rootCtx parents every background game loop so shutdown cancels them.
	rootCtx    context.Context
	cancelRoot context.CancelFunc
	games      sync.WaitGroup

	newClient func(url string) (agent.Client, error)
}

// New wires an App from its configuration.
func New(cfg Config) (*App, error) {
	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	eng, err := engine.New()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	preset := domain.DefaultConfig()
	if err := config.LoadPreset(cfg.PresetPath, &preset); err != nil {
		_ = store.Close()
		return nil, err
	}

	recorder := journal.NewRecorder(store)
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	return &App{
		cfg:      cfg,
		engine:   eng,
		recorder: recorder,
		store:    store,
		orch: orchestrator.New(eng, recorder,
			orchestrator.WithGameStore(store),
			orchestrator.WithRequestTimeout(cfg.AgentTimeout),
		),
		preset:     preset,
		closer:     store.Close,
		rootCtx:    rootCtx,
		cancelRoot: cancelRoot,
		newClient: func(url string) (agent.Client, error) {
			return agent.NewHTTPClient(url)
		},
	}, nil
}

// CreateGame creates a game for the requested agents and launches its loop
// in the background. The response reflects the game just after start.
func (a *App) CreateGame(ctx context.Context, req api.CreateGameRequest) (*domain.Game, error) {
	if len(req.Agents) == 0 {
		return nil, errors.New("at least one agent is required")
	}

	profiles := make([]domain.Profile, 0, len(req.Agents))
	clients := make(orchestrator.Clients, len(req.Agents))
	for _, spec := range req.Agents {
		id := strings.TrimSpace(spec.ID)
		if id == "" {
			return nil, errors.New("agent id is required")
		}
		client, err := a.newClient(spec.URL)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", id, err)
		}
		clients[id] = client
		name := spec.Name
		if name == "" {
			name = id
		}
		profiles = append(profiles, domain.Profile{ID: id, URL: spec.URL, Name: name, Model: spec.Model})
	}

	gameCfg := req.Config
	if gameCfg == (domain.Config{}) {
		gameCfg = a.preset
	}

	game, err := a.engine.Create(profiles, gameCfg)
	if err != nil {
		return nil, err
	}

	if err := a.recorder.Record(ctx, game, journal.EventGameCreated, "", map[string]any{
		"participants": len(game.Participants),
	}); err != nil {
		return nil, err
	}
	if err := a.store.SaveGame(ctx, game); err != nil {
		return nil, err
	}

	a.games.Add(1)
	go func() {
		defer a.games.Done()
		runCtx, cancel := context.WithTimeout(a.rootCtx, a.cfg.GameTimeLimit)
		defer cancel()
		if err := a.orch.Run(runCtx, game, clients); err != nil {
			log.Printf("game %s: run: %v", game.ID, err)
		}
	}()

	// The caller sees the stored snapshot, not the live aggregate the loop
	// goroutine now owns.
	return a.store.GetGame(ctx, game.ID)
}

// GetGame serves the latest persisted snapshot of a game.
func (a *App) GetGame(ctx context.Context, id string) (*domain.Game, error) {
	return a.store.GetGame(ctx, id)
}

// ListGames serves the stored game summaries.
func (a *App) ListGames(ctx context.Context) ([]domain.Summary, error) {
	return a.store.ListSummaries(ctx)
}

// GameEvents serves a game's journal.
func (a *App) GameEvents(ctx context.Context, id string) ([]journal.Event, error) {
	if _, err := a.store.GetGame(ctx, id); err != nil {
		return nil, err
	}
	return a.store.ListEvents(ctx, id)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully:
// in-flight games are cancelled and the listener drains.
func (a *App) Run(ctx context.Context) error {
	router := api.NewRouter(a)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("arena listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		a.cancelRoot()
		return err
	case <-ctx.Done():
	}

	a.cancelRoot()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	a.waitForGames(timeouts.Shutdown)
	return nil
}

// Close cancels background games and releases storage.
func (a *App) Close() error {
	a.cancelRoot()
	a.waitForGames(timeouts.Shutdown)
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

func (a *App) waitForGames(limit time.Duration) {
	done := make(chan struct{})
	go func() {
		a.games.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(limit):
		log.Printf("shutdown: game loops still draining after %s", limit)
	}
}
