package domain

// Profile describes one participating agent. The role is referee-private;
// per-viewer projections decide what leaks to whom.
type Profile struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Model string `json:"model,omitempty"`
}

// Summary is the one-line rollup served by the game listing.
type Summary struct {
	ID         string  `json:"id"`
	Status     Status  `json:"status"`
	Phase      Phase   `json:"phase"`
	Round      int     `json:"round"`
	Winner     Winner  `json:"winner,omitempty"`
	Survivors  int     `json:"survivors"`
	Eliminated int     `json:"eliminated"`
	DurationS  float64 `json:"duration_seconds,omitempty"`
}

// Summarize builds the listing rollup for a game.
func Summarize(g *Game) Summary {
	summary := Summary{
		ID:         g.ID,
		Status:     g.Status,
		Phase:      g.Phase,
		Round:      g.Round,
		Winner:     g.Winner,
		Survivors:  len(g.Alive),
		Eliminated: len(g.Eliminated),
	}
	if !g.CompletedAt.IsZero() && !g.StartedAt.IsZero() {
		summary.DurationS = g.CompletedAt.Sub(g.StartedAt).Seconds()
	}
	return summary
}
