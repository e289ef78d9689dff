// Package sqlite provides a SQLite-backed arena storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/duskvale/werewolf-arena/internal/arena/domain"
	"github.com/duskvale/werewolf-arena/internal/arena/journal"
	"github.com/duskvale/werewolf-arena/internal/arena/storage"
	"github.com/duskvale/werewolf-arena/internal/arena/storage/sqlite/migrations"
	"github.com/duskvale/werewolf-arena/internal/platform/storage/sqlitemigrate"

	_ "modernc.org/sqlite"
)

// Store persists arena state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite arena store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveGame upserts the full game state plus the listing columns.
func (s *Store) SaveGame(ctx context.Context, game *domain.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if game == nil || strings.TrimSpace(game.ID) == "" {
		return fmt.Errorf("game id is required")
	}

	state, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encode game state: %w", err)
	}

	summary := domain.Summarize(game)
	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO games (
		   id, status, phase, round, winner, survivors, eliminated, state,
		   created_at, started_at, completed_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status,
		   phase = excluded.phase,
		   round = excluded.round,
		   winner = excluded.winner,
		   survivors = excluded.survivors,
		   eliminated = excluded.eliminated,
		   state = excluded.state,
		   started_at = excluded.started_at,
		   completed_at = excluded.completed_at`,
		game.ID,
		summary.Status.String(),
		summary.Phase.String(),
		summary.Round,
		summary.Winner.String(),
		summary.Survivors,
		summary.Eliminated,
		string(state),
		toMillis(game.CreatedAt),
		toMillis(game.StartedAt),
		toMillis(game.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

// GetGame loads one game by id.
func (s *Store) GetGame(ctx context.Context, id string) (*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var state string
	row := s.sqlDB.QueryRowContext(ctx, "SELECT state FROM games WHERE id = ?", id)
	if err := row.Scan(&state); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get game: %w", err)
	}

	var game domain.Game
	if err := json.Unmarshal([]byte(state), &game); err != nil {
		return nil, fmt.Errorf("decode game state: %w", err)
	}
	return &game, nil
}

// ListSummaries returns one rollup per stored game, newest first.
func (s *Store) ListSummaries(ctx context.Context) ([]domain.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, status, phase, round, winner, survivors, eliminated, started_at, completed_at
		 FROM games ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var summaries []domain.Summary
	for rows.Next() {
		var (
			summary              domain.Summary
			status, phase        string
			winner               string
			startedAt, completed int64
		)
		if err := rows.Scan(
			&summary.ID, &status, &phase, &summary.Round, &winner,
			&summary.Survivors, &summary.Eliminated, &startedAt, &completed,
		); err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		if summary.Status, err = domain.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("decode game row: %w", err)
		}
		if summary.Phase, err = domain.ParsePhase(phase); err != nil {
			return nil, fmt.Errorf("decode game row: %w", err)
		}
		if err := summary.Winner.UnmarshalText([]byte(winner)); err != nil {
			return nil, fmt.Errorf("decode game row: %w", err)
		}
		started, ended := fromMillis(startedAt), fromMillis(completed)
		if !started.IsZero() && !ended.IsZero() {
			summary.DurationS = ended.Sub(started).Seconds()
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return summaries, nil
}

// AppendEvent stores one journal event. The (game, seq) primary key makes
// replays idempotent.
func (s *Store) AppendEvent(ctx context.Context, event journal.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(event.GameID) == "" || event.Seq <= 0 {
		return fmt.Errorf("event game id and seq are required")
	}

	payload := ""
	if event.Payload != nil {
		encoded, err := json.Marshal(event.Payload)
		if err != nil {
			return fmt.Errorf("encode event payload: %w", err)
		}
		payload = string(encoded)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO game_events (game_id, seq, type, round, phase, actor, payload, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.GameID,
		event.Seq,
		string(event.Type),
		event.Round,
		event.Phase.String(),
		event.Actor,
		payload,
		toMillis(event.At),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListEvents returns a game's events in sequence order.
func (s *Store) ListEvents(ctx context.Context, gameID string) ([]journal.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT game_id, seq, type, round, phase, actor, payload, at
		 FROM game_events WHERE game_id = ? ORDER BY seq ASC`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []journal.Event
	for rows.Next() {
		var (
			event     journal.Event
			eventType string
			phase     string
			payload   string
			atMillis  int64
		)
		if err := rows.Scan(
			&event.GameID, &event.Seq, &eventType, &event.Round,
			&phase, &event.Actor, &payload, &atMillis,
		); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		event.Type = journal.EventType(eventType)
		if event.Phase, err = domain.ParsePhase(phase); err != nil {
			return nil, fmt.Errorf("decode event row: %w", err)
		}
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &event.Payload); err != nil {
				return nil, fmt.Errorf("decode event payload: %w", err)
			}
		}
		event.At = fromMillis(atMillis)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Emit satisfies journal.Emitter by persisting the event.
func (s *Store) Emit(ctx context.Context, event journal.Event) error {
	return s.AppendEvent(ctx, event)
}
