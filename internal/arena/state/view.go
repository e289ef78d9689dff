package state

import (
	"github.com/duskvale/werewolf-arena/internal/arena/domain"
)

// WitchView is the witch's private slice of the state: the provisional kill
// target and the two potion-availability flags.
type WitchView struct {
	NightKillTarget string `json:"night_kill_target,omitempty"`
	HealAvailable   bool   `json:"heal_available"`
	PoisonAvailable bool   `json:"poison_available"`
}

// View is the game state visible to one participant. Public facts are always
// present; private facts depend on the viewer's role.
type View struct {
	GameID     string       `json:"game_id"`
	Phase      domain.Phase `json:"phase"`
	Round      int          `json:"round"`
	Alive      []string     `json:"alive"`
	Eliminated []string     `json:"eliminated"`
	Role       domain.Role  `json:"your_role"`

	// Werewolves see their teammates, excluding themselves.
	WerewolfTeammates []string `json:"werewolf_teammates,omitempty"`

	// The witch sees the kill target and potion flags.
	Witch *WitchView `json:"witch,omitempty"`

	// The seer sees its own investigation history.
	Investigations []domain.Investigation `json:"investigations,omitempty"`

	// During day voting everyone sees the live vote map.
	Votes map[string]string `json:"current_votes,omitempty"`

	// The obligated hunter is told it may shoot.
	PendingShot bool `json:"pending_shot,omitempty"`
}

// ViewFor projects the state visible to viewer. Two viewers of the same role
// get structurally identical private-fact shapes.
func ViewFor(game *domain.Game, viewer string) View {
	view := View{
		GameID:     game.ID,
		Phase:      game.Phase,
		Round:      game.Round,
		Alive:      append([]string(nil), game.Alive...),
		Eliminated: append([]string(nil), game.Eliminated...),
		Role:       game.Roles[viewer],
	}

	switch game.Roles[viewer] {
	case domain.RoleWerewolf:
		for _, id := range game.Participants {
			if id != viewer && game.Roles[id] == domain.RoleWerewolf {
				view.WerewolfTeammates = append(view.WerewolfTeammates, id)
			}
		}
	case domain.RoleWitch:
		view.Witch = &WitchView{
			NightKillTarget: game.NightKillTarget,
			HealAvailable:   !game.WitchHealUsed,
			PoisonAvailable: !game.WitchPoisonUsed,
		}
	case domain.RoleSeer:
		view.Investigations = game.InvestigationsBy(viewer)
	case domain.RoleHunter:
		view.PendingShot = game.Phase == domain.PhaseHunterShoot && game.PendingHunter == viewer
	}

	if game.Phase == domain.PhaseDayVoting {
		view.Votes = make(map[string]string, len(game.Votes))
		for voter, target := range game.Votes {
			view.Votes[voter] = target
		}
	}

	return view
}
