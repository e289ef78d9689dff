package domain

import (
	"errors"
	"fmt"
	"time"
)

// Status describes the lifecycle state of a game.
type Status int

const (
	// StatusUnspecified represents an invalid status value.
	StatusUnspecified Status = iota
	// StatusWaiting indicates the game was created but not started.
	StatusWaiting
	// StatusInProgress indicates the phase loop is running.
	StatusInProgress
	// StatusCompleted indicates the game reached a terminal outcome.
	StatusCompleted
	// StatusCancelled indicates the game was abandoned mid-flight.
	StatusCancelled
)

// String returns the lowercase wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unspecified"
	}
}

// MarshalText encodes the status as its wire name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStatus maps a wire name back to a Status. "unspecified" is accepted
// so zero values survive serialization round trips.
func ParseStatus(value string) (Status, error) {
	if value == "unspecified" {
		return StatusUnspecified, nil
	}
	for _, s := range []Status{StatusWaiting, StatusInProgress, StatusCompleted, StatusCancelled} {
		if s.String() == value {
			return s, nil
		}
	}
	return StatusUnspecified, fmt.Errorf("unknown status %q", value)
}

// UnmarshalText decodes a status from its wire name.
func (s *Status) UnmarshalText(data []byte) error {
	parsed, err := ParseStatus(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Winner identifies the side a finished game was decided for.
type Winner int

const (
	// WinnerNone means the game is still running or ended without a winner.
	WinnerNone Winner = iota
	// WinnerVillagers means every werewolf was eliminated.
	WinnerVillagers
	// WinnerWerewolves means the werewolves reached parity with the village.
	WinnerWerewolves
	// WinnerDraw means nobody survived.
	WinnerDraw
)

// String returns the lowercase wire name of the winner.
func (w Winner) String() string {
	switch w {
	case WinnerVillagers:
		return "villagers"
	case WinnerWerewolves:
		return "werewolves"
	case WinnerDraw:
		return "draw"
	default:
		return ""
	}
}

// MarshalText encodes the winner as its wire name.
func (w Winner) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText decodes a winner from its wire name. The empty string is
// WinnerNone.
func (w *Winner) UnmarshalText(data []byte) error {
	value := string(data)
	for _, candidate := range []Winner{WinnerNone, WinnerVillagers, WinnerWerewolves, WinnerDraw} {
		if candidate.String() == value {
			*w = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown winner %q", value)
}

var (
	// ErrUnknownParticipant indicates an id outside the participant list.
	ErrUnknownParticipant = errors.New("unknown participant")
)

// Investigation records one seer investigation outcome. The (Seer, Target,
// Round) triple is unique; repeat investigations of the same pair in the same
// round are idempotent.
type Investigation struct {
	Seer       string `json:"seer"`
	Target     string `json:"target"`
	Round      int    `json:"round"`
	IsWerewolf bool   `json:"is_werewolf"`
}

// RoundRecord captures one resolved phase for the append-only history.
type RoundRecord struct {
	Round      int       `json:"round"`
	Phase      Phase     `json:"phase"`
	Actions    []Action  `json:"actions"`
	Eliminated []string  `json:"eliminated"`
	Timestamp  time.Time `json:"timestamp"`
}

// Game is the root aggregate. The orchestration loop holds the only live
// reference and serializes every mutating call, so none of the fields carry
// their own locking.
type Game struct {
	ID     string
	Status Status
	Phase  Phase
	Round  int

	Participants []string
	Alive        []string
	Eliminated   []string
	Roles        map[string]Role
	Profiles     map[string]Profile

	// Per-round transient state.
	Votes           map[string]string
	NightKillTarget string
	ProtectedTarget string
	PendingHunter   string
	// ResumePhase remembers where play continues after an inserted
	// HunterShoot phase.
	ResumePhase Phase

	// Witch potion flags are monotonic: once true, never reset.
	WitchHealUsed   bool
	WitchPoisonUsed bool

	Investigations []Investigation
	History        []RoundRecord
	Ledger         Ledger

	Config Config
	Winner Winner

	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// HasParticipant reports whether id belongs to the game.
func (g *Game) HasParticipant(id string) bool {
	for _, participant := range g.Participants {
		if participant == id {
			return true
		}
	}
	return false
}

// IsAlive reports whether id is still in play.
func (g *Game) IsAlive(id string) bool {
	for _, alive := range g.Alive {
		if alive == id {
			return true
		}
	}
	return false
}

// RoleOf returns the role assigned to id.
func (g *Game) RoleOf(id string) (Role, error) {
	role, ok := g.Roles[id]
	if !ok {
		return RoleUnspecified, fmt.Errorf("%w: %s", ErrUnknownParticipant, id)
	}
	return role, nil
}

// AliveWithRole lists the living holders of role in participant order.
func (g *Game) AliveWithRole(role Role) []string {
	var holders []string
	for _, id := range g.Alive {
		if g.Roles[id] == role {
			holders = append(holders, id)
		}
	}
	return holders
}

// LivingWerewolves counts the werewolves still in play.
func (g *Game) LivingWerewolves() int {
	return len(g.AliveWithRole(RoleWerewolf))
}

// Terminal reports whether the game accepts no further mutation.
func (g *Game) Terminal() bool {
	return g.Status == StatusCompleted || g.Status == StatusCancelled
}

// RecordInvestigation appends an investigation result, overwriting a repeat
// of the same (seer, target, round) triple instead of duplicating it.
func (g *Game) RecordInvestigation(inv Investigation) {
	for i, existing := range g.Investigations {
		if existing.Seer == inv.Seer && existing.Target == inv.Target && existing.Round == inv.Round {
			g.Investigations[i] = inv
			return
		}
	}
	g.Investigations = append(g.Investigations, inv)
}

// InvestigationsBy lists the investigations a seer has made, oldest first.
func (g *Game) InvestigationsBy(seer string) []Investigation {
	var results []Investigation
	for _, inv := range g.Investigations {
		if inv.Seer == seer {
			results = append(results, inv)
		}
	}
	return results
}

// VoteTally counts the current votes by target.
func (g *Game) VoteTally() map[string]int {
	tally := make(map[string]int)
	for _, target := range g.Votes {
		if target != "" {
			tally[target]++
		}
	}
	return tally
}
