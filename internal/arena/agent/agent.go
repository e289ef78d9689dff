// Package agent talks to remote participants. Each participant exposes an
// HTTP decision endpoint; the client posts the participant's private view of
// the game and reads one action back.
package agent

import (
	"context"

	"github.com/duskvale/werewolf-arena/internal/arena/domain"
	"github.com/duskvale/werewolf-arena/internal/arena/state"
)

// Request is what a participant sees when asked to act. ValidKinds is a
// hint, not a contract: submissions still go through rules validation.
type Request struct {
	RequestID  string     `json:"request_id"`
	Actor      string     `json:"actor"`
	View       state.View `json:"view"`
	ValidKinds []string   `json:"valid_kinds,omitempty"`
	// DeadlineSeconds tells the agent how long it has before the referee
	// falls back on its behalf.
	DeadlineSeconds float64 `json:"deadline_seconds,omitempty"`
}

// Decision is the wire shape of an agent's reply.
type Decision struct {
	Kind           string         `json:"kind"`
	Target         string         `json:"target,omitempty"`
	Reasoning      string         `json:"reasoning,omitempty"`
	Confidence     float64        `json:"confidence"`
	DiscussKind    string         `json:"discuss_kind,omitempty"`
	DiscussContent string         `json:"discuss_content,omitempty"`
	ClaimedRole    string         `json:"claimed_role,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Client obtains one decision from a participant. Implementations must honor
// ctx cancellation; the orchestrator enforces per-request deadlines with it.
type Client interface {
	Decide(ctx context.Context, req Request) (domain.Action, error)
}

// toAction converts a wire decision into a domain action for the actor.
func toAction(actor string, decision Decision) (domain.Action, error) {
	kind, err := domain.ParseActionKind(decision.Kind)
	if err != nil {
		return domain.Action{}, err
	}
	return domain.Action{
		Actor:          actor,
		Kind:           kind,
		Target:         decision.Target,
		Reasoning:      decision.Reasoning,
		Confidence:     decision.Confidence,
		Metadata:       decision.Metadata,
		DiscussKind:    domain.DiscussKind(decision.DiscussKind),
		DiscussContent: decision.DiscussContent,
		ClaimedRole:    decision.ClaimedRole,
	}, nil
}
