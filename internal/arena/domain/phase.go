package domain

import "fmt"

// Phase identifies one step of the day/night cycle.
type Phase int

const (
	// PhaseUnspecified represents an invalid phase value.
	PhaseUnspecified Phase = iota
	// PhaseSetup is the pre-start phase where roles are assigned.
	PhaseSetup
	// PhaseDayDiscussion is the open-discussion day phase.
	PhaseDayDiscussion
	// PhaseDayVoting is the elimination-vote day phase.
	PhaseDayVoting
	// PhaseNightWerewolf is the werewolf kill-consensus night phase.
	PhaseNightWerewolf
	// PhaseNightWitch is the witch heal/poison night phase.
	PhaseNightWitch
	// PhaseNightSeer is the seer investigation night phase.
	PhaseNightSeer
	// PhaseNightDoctor is the doctor protection night phase.
	PhaseNightDoctor
	// PhaseHunterShoot is the retaliation phase inserted when a hunter dies.
	PhaseHunterShoot
	// PhaseGameOver is the terminal phase.
	PhaseGameOver
)

// String returns the lowercase wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseDayDiscussion:
		return "day_discussion"
	case PhaseDayVoting:
		return "day_voting"
	case PhaseNightWerewolf:
		return "night_werewolf"
	case PhaseNightWitch:
		return "night_witch"
	case PhaseNightSeer:
		return "night_seer"
	case PhaseNightDoctor:
		return "night_doctor"
	case PhaseHunterShoot:
		return "hunter_shoot"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unspecified"
	}
}

// ParsePhase maps a wire name back to a Phase. "unspecified" is accepted so
// zero values survive serialization round trips.
func ParsePhase(value string) (Phase, error) {
	if value == "unspecified" {
		return PhaseUnspecified, nil
	}
	for _, p := range []Phase{
		PhaseSetup, PhaseDayDiscussion, PhaseDayVoting, PhaseNightWerewolf,
		PhaseNightWitch, PhaseNightSeer, PhaseNightDoctor, PhaseHunterShoot,
		PhaseGameOver,
	} {
		if p.String() == value {
			return p, nil
		}
	}
	return PhaseUnspecified, fmt.Errorf("unknown phase %q", value)
}

// MarshalText encodes the phase as its wire name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase from its wire name.
func (p *Phase) UnmarshalText(data []byte) error {
	parsed, err := ParsePhase(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// IsNight reports whether the phase is one of the night role phases.
func (p Phase) IsNight() bool {
	switch p {
	case PhaseNightWerewolf, PhaseNightWitch, PhaseNightSeer, PhaseNightDoctor:
		return true
	default:
		return false
	}
}

// NightRole returns the role that acts during a night phase, or
// RoleUnspecified for phases that are not role-restricted.
func (p Phase) NightRole() Role {
	switch p {
	case PhaseNightWerewolf:
		return RoleWerewolf
	case PhaseNightWitch:
		return RoleWitch
	case PhaseNightSeer:
		return RoleSeer
	case PhaseNightDoctor:
		return RoleDoctor
	default:
		return RoleUnspecified
	}
}
