// Package storage defines persistence contracts for arena state.
package storage

import (
	"context"
	"errors"

	"github.com/duskvale/werewolf-arena/internal/arena/domain"
	"github.com/duskvale/werewolf-arena/internal/arena/journal"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
)

// GameStore persists game aggregates and serves listing rollups.
type GameStore interface {
	// SaveGame upserts the full game state keyed by id.
	SaveGame(ctx context.Context, game *domain.Game) error
	// GetGame loads one game by id, or ErrNotFound.
	GetGame(ctx context.Context, id string) (*domain.Game, error)
	// ListSummaries returns one rollup per stored game, newest first.
	ListSummaries(ctx context.Context) ([]domain.Summary, error)
}

// EventStore persists the journal event stream.
type EventStore interface {
	// AppendEvent stores one journal event. Re-appending the same
	// (game, seq) pair is idempotent, giving sinks at-least-once safety.
	AppendEvent(ctx context.Context, event journal.Event) error
	// ListEvents returns a game's events in sequence order.
	ListEvents(ctx context.Context, gameID string) ([]journal.Event, error)
}

// Store is the combined persistence surface the service wires up.
type Store interface {
	GameStore
	EventStore
}
