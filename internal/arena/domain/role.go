package domain

import "fmt"

// Role identifies the secret role a participant holds for the whole game.
type Role int

const (
	// RoleUnspecified represents an invalid role value.
	RoleUnspecified Role = iota
	// RoleVillager has no special powers.
	RoleVillager
	// RoleWerewolf hunts at night and wins by outnumbering the village.
	RoleWerewolf
	// RoleSeer may investigate one participant per night.
	RoleSeer
	// RoleDoctor may protect one participant per night.
	RoleDoctor
	// RoleHunter may shoot one participant when eliminated.
	RoleHunter
	// RoleWitch holds a one-shot heal potion and a one-shot poison potion.
	RoleWitch
)

// String returns the lowercase wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleVillager:
		return "villager"
	case RoleWerewolf:
		return "werewolf"
	case RoleSeer:
		return "seer"
	case RoleDoctor:
		return "doctor"
	case RoleHunter:
		return "hunter"
	case RoleWitch:
		return "witch"
	default:
		return "unspecified"
	}
}

// ParseRole maps a wire name back to a Role.
func ParseRole(value string) (Role, error) {
	switch value {
	case "unspecified":
		return RoleUnspecified, nil
	case "villager":
		return RoleVillager, nil
	case "werewolf":
		return RoleWerewolf, nil
	case "seer":
		return RoleSeer, nil
	case "doctor":
		return RoleDoctor, nil
	case "hunter":
		return RoleHunter, nil
	case "witch":
		return RoleWitch, nil
	default:
		return RoleUnspecified, fmt.Errorf("unknown role %q", value)
	}
}

// MarshalText encodes the role as its wire name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role from its wire name.
func (r *Role) UnmarshalText(data []byte) error {
	parsed, err := ParseRole(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
