// Package journal records the authoritative event stream of a game: every
// lifecycle transition, accepted and rejected action, elimination, and
// outcome. Emitters receive events in order, exactly as they happened; sinks
// that persist them give a game a replayable audit trail.
package journal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/duskvale/werewolf-arena/internal/arena/domain"
)

// EventType classifies a journal entry.
type EventType string

const (
	EventGameCreated     EventType = "game_created"
	EventGameStarted     EventType = "game_started"
	EventActionApplied   EventType = "action_applied"
	EventActionRejected  EventType = "action_rejected"
	EventFallbackApplied EventType = "fallback_applied"
	EventPhaseAdvanced   EventType = "phase_advanced"
	EventElimination     EventType = "elimination"
	EventSnapshot        EventType = "snapshot"
	EventGameCompleted   EventType = "game_completed"
	EventGameCancelled   EventType = "game_cancelled"
)

// Event is one journal entry. Seq is a per-game monotonic counter assigned by
// the recorder; consumers can detect gaps and reorder-free replay on it.
type Event struct {
	GameID  string         `json:"game_id"`
	Seq     int            `json:"seq"`
	Type    EventType      `json:"type"`
	Round   int            `json:"round"`
	Phase   domain.Phase   `json:"phase"`
	Actor   string         `json:"actor,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

// Emitter receives journal events in order. Emit is called from the game's
// single orchestration goroutine, so implementations need no internal
// ordering guarantees beyond honoring call order.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Recorder assigns sequence numbers and fans events out to an emitter. It
// also offers change-suppressed state snapshots: a snapshot is only emitted
// when the observable state differs from the previous one.
type Recorder struct {
	emitter Emitter
	clock   func() time.Time

	mu      sync.Mutex
	seq     map[string]int
	digests map[string]string
}

// NewRecorder creates a Recorder writing to emitter.
func NewRecorder(emitter Emitter) *Recorder {
	return &Recorder{
		emitter: emitter,
		clock:   time.Now,
		seq:     make(map[string]int),
		digests: make(map[string]string),
	}
}

// NewRecorderWith creates a Recorder with an explicit clock.
func NewRecorderWith(emitter Emitter, clock func() time.Time) *Recorder {
	recorder := NewRecorder(emitter)
	recorder.clock = clock
	return recorder
}

// Record emits one event for the game, stamping sequence and time.
func (r *Recorder) Record(ctx context.Context, game *domain.Game, eventType EventType, actor string, payload map[string]any) error {
	event := Event{
		GameID:  game.ID,
		Type:    eventType,
		Round:   game.Round,
		Phase:   game.Phase,
		Actor:   actor,
		Payload: payload,
		At:      r.clock().UTC(),
	}

	r.mu.Lock()
	r.seq[game.ID]++
	event.Seq = r.seq[game.ID]
	r.mu.Unlock()

	if err := r.emitter.Emit(ctx, event); err != nil {
		return fmt.Errorf("emit %s: %w", eventType, err)
	}
	return nil
}

// stateSnapshot is the observable slice of game state the snapshot digest
// covers. Secret facts stay out so the journal can be shared post-game
// without re-redaction.
type stateSnapshot struct {
	Status     domain.Status     `json:"status"`
	Phase      domain.Phase      `json:"phase"`
	Round      int               `json:"round"`
	Alive      []string          `json:"alive"`
	Eliminated []string          `json:"eliminated"`
	Votes      map[string]string `json:"votes"`
	Winner     domain.Winner     `json:"winner"`
}

// Snapshot emits a snapshot event unless the observable state is unchanged
// since the last snapshot of this game. It reports whether an event was
// emitted.
func (r *Recorder) Snapshot(ctx context.Context, game *domain.Game) (bool, error) {
	snapshot := stateSnapshot{
		Status:     game.Status,
		Phase:      game.Phase,
		Round:      game.Round,
		Alive:      game.Alive,
		Eliminated: game.Eliminated,
		Votes:      game.Votes,
		Winner:     game.Winner,
	}
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}
	sum := sha256.Sum256(encoded)
	digest := hex.EncodeToString(sum[:])

	r.mu.Lock()
	unchanged := r.digests[game.ID] == digest
	if !unchanged {
		r.digests[game.ID] = digest
	}
	r.mu.Unlock()
	if unchanged {
		return false, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return false, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := r.Record(ctx, game, EventSnapshot, "", payload); err != nil {
		return false, err
	}
	return true, nil
}

// ActionPayload builds the payload for an action event.
func ActionPayload(action domain.Action, violation domain.Violation) map[string]any {
	payload := map[string]any{
		"kind":       action.Kind.String(),
		"confidence": action.Confidence,
	}
	if action.Target != "" {
		payload["target"] = action.Target
	}
	if action.Reasoning != "" {
		payload["reasoning"] = action.Reasoning
	}
	if action.DiscussKind != "" {
		payload["discuss_kind"] = string(action.DiscussKind)
	}
	if violation != domain.ViolationNone {
		payload["violation"] = string(violation)
	}
	return payload
}
