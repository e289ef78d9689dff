package domain

import (
	"errors"
	"fmt"
	"time"
)

// Default per-phase time limits, matching the canonical benchmark setup.
const (
	DefaultDiscussionLimit = 300 * time.Second
	DefaultVotingLimit     = 60 * time.Second
)

var (
	// ErrTooFewWerewolves indicates a config without at least one werewolf.
	ErrTooFewWerewolves = errors.New("at least one werewolf is required")
)

// Config captures the per-game rule toggles and limits.
type Config struct {
	Werewolves int  `json:"werewolves" yaml:"werewolves"`
	HasSeer    bool `json:"has_seer" yaml:"has_seer"`
	HasDoctor  bool `json:"has_doctor" yaml:"has_doctor"`
	HasHunter  bool `json:"has_hunter" yaml:"has_hunter"`
	HasWitch   bool `json:"has_witch" yaml:"has_witch"`

	// MaxRounds caps the game length; zero means no cap.
	MaxRounds int `json:"max_rounds,omitempty" yaml:"max_rounds"`

	DiscussionLimit time.Duration `json:"discussion_limit,omitempty" yaml:"discussion_limit"`
	VotingLimit     time.Duration `json:"voting_limit,omitempty" yaml:"voting_limit"`
}

// DefaultConfig returns the canonical two-werewolf configuration with every
// optional role enabled.
func DefaultConfig() Config {
	return Config{
		Werewolves:      2,
		HasSeer:         true,
		HasDoctor:       true,
		HasHunter:       true,
		HasWitch:        true,
		DiscussionLimit: DefaultDiscussionLimit,
		VotingLimit:     DefaultVotingLimit,
	}
}

// Normalize fills zero-valued limits with defaults and validates the counts.
func (c Config) Normalize() (Config, error) {
	if c.Werewolves < 1 {
		return Config{}, ErrTooFewWerewolves
	}
	if c.DiscussionLimit <= 0 {
		c.DiscussionLimit = DefaultDiscussionLimit
	}
	if c.VotingLimit <= 0 {
		c.VotingLimit = DefaultVotingLimit
	}
	if c.MaxRounds < 0 {
		return Config{}, fmt.Errorf("max rounds must not be negative, got %d", c.MaxRounds)
	}
	return c, nil
}

// specialRoles counts the enabled optional roles.
func (c Config) specialRoles() int {
	count := 0
	for _, enabled := range []bool{c.HasSeer, c.HasDoctor, c.HasHunter, c.HasWitch} {
		if enabled {
			count++
		}
	}
	return count
}

// MinParticipants is the smallest participant count that fields every
// configured role without a degenerate villager count. The canonical
// 2-werewolf game with all four specials needs 8.
func (c Config) MinParticipants() int {
	return c.Werewolves + c.specialRoles() + 2
}

// EnabledNightPhases lists the night phases this config plays, in order.
func (c Config) EnabledNightPhases() []Phase {
	phases := []Phase{PhaseNightWerewolf}
	if c.HasWitch {
		phases = append(phases, PhaseNightWitch)
	}
	if c.HasSeer {
		phases = append(phases, PhaseNightSeer)
	}
	if c.HasDoctor {
		phases = append(phases, PhaseNightDoctor)
	}
	return phases
}
