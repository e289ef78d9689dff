package domain

import (
	"fmt"
	"time"
)

// ActionKind identifies what a participant is trying to do.
type ActionKind int

const (
	// ActionUnspecified represents an invalid action kind.
	ActionUnspecified ActionKind = iota
	// ActionVote casts a day-phase elimination vote.
	ActionVote
	// ActionKill casts a werewolf night kill vote.
	ActionKill
	// ActionInvestigate is the seer's night investigation.
	ActionInvestigate
	// ActionProtect is the doctor's night protection.
	ActionProtect
	// ActionShoot is the eliminated hunter's retaliation.
	ActionShoot
	// ActionHeal spends the witch's heal potion on the night kill target.
	ActionHeal
	// ActionPoison spends the witch's poison potion on a living target.
	ActionPoison
	// ActionDiscuss contributes to the day discussion.
	ActionDiscuss
	// ActionPass declines to act this phase.
	ActionPass
)

// String returns the lowercase wire name of the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionVote:
		return "vote"
	case ActionKill:
		return "kill"
	case ActionInvestigate:
		return "investigate"
	case ActionProtect:
		return "protect"
	case ActionShoot:
		return "shoot"
	case ActionHeal:
		return "heal"
	case ActionPoison:
		return "poison"
	case ActionDiscuss:
		return "discuss"
	case ActionPass:
		return "pass"
	default:
		return "unspecified"
	}
}

// ParseActionKind maps a wire name back to an ActionKind. "unspecified" is
// accepted so zero values survive serialization round trips.
func ParseActionKind(value string) (ActionKind, error) {
	if value == "unspecified" {
		return ActionUnspecified, nil
	}
	for _, k := range []ActionKind{
		ActionVote, ActionKill, ActionInvestigate, ActionProtect,
		ActionShoot, ActionHeal, ActionPoison, ActionDiscuss, ActionPass,
	} {
		if k.String() == value {
			return k, nil
		}
	}
	return ActionUnspecified, fmt.Errorf("unknown action kind %q", value)
}

// MarshalText encodes the action kind as its wire name.
func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes an action kind from its wire name.
func (k *ActionKind) UnmarshalText(data []byte) error {
	parsed, err := ParseActionKind(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// DiscussKind classifies a discussion contribution. Some kinds are
// role-restricted; see the rules validator.
type DiscussKind string

const (
	DiscussGeneral             DiscussKind = "general_discussion"
	DiscussRevealIdentity      DiscussKind = "reveal_identity"
	DiscussRevealInvestigation DiscussKind = "reveal_investigation"
	DiscussRevealHealedKilled  DiscussKind = "reveal_healed_killed"
	DiscussRevealProtected     DiscussKind = "reveal_protected"
	DiscussAccuse              DiscussKind = "accuse"
	DiscussDefend              DiscussKind = "defend"
	DiscussClaimRole           DiscussKind = "claim_role"
	DiscussRevealWerewolf      DiscussKind = "reveal_werewolf"
)

// Action is one immutable submission from a participant. Invalid actions are
// rejected before they touch game state; applied ones become part of the
// round history.
type Action struct {
	Actor       string         `json:"actor"`
	Kind        ActionKind     `json:"kind"`
	Target      string         `json:"target,omitempty"`
	Reasoning   string         `json:"reasoning,omitempty"`
	Confidence  float64        `json:"confidence"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	// Discussion details, only meaningful for ActionDiscuss.
	DiscussKind    DiscussKind `json:"discuss_kind,omitempty"`
	DiscussContent string      `json:"discuss_content,omitempty"`
	ClaimedRole    string      `json:"claimed_role,omitempty"`
}

// FallbackPass builds the deterministic zero-confidence fallback applied when
// a participant times out, misbehaves, or submits an illegal action.
func FallbackPass(actor, reason string, now time.Time) Action {
	return Action{
		Actor:       actor,
		Kind:        ActionPass,
		Reasoning:   reason,
		Confidence:  0,
		SubmittedAt: now.UTC(),
	}
}
