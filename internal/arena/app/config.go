package app

import "time"

// Config holds the arena service configuration, loaded from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port int `env:"WEREWOLF_ARENA_PORT" envDefault:"8080"`
	// DatabasePath locates the SQLite database file.
	DatabasePath string `env:"WEREWOLF_ARENA_DB_PATH" envDefault:"arena.db"`
	// AgentTimeout bounds a single agent call outside the configured day
	// phase limits.
	AgentTimeout time.Duration `env:"WEREWOLF_ARENA_AGENT_TIMEOUT" envDefault:"60s"`
	// GameTimeLimit caps a whole game; an expired game is cancelled.
	GameTimeLimit time.Duration `env:"WEREWOLF_ARENA_GAME_TIME_LIMIT" envDefault:"1h"`
	// PresetPath optionally points at a YAML file with default game rules.
	PresetPath string `env:"WEREWOLF_ARENA_PRESET_PATH"`
}
