// Package config loads runtime settings from the environment and game
// content (items, areas, drop tables, races, classes) from a JSON file.
// Content is the single source of truth for seeding; the database copy is
// refreshed from it at startup.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings are the process-level knobs, parsed from the environment.
type Settings struct {
	ServerAddress string `env:"WILDLANDS_ADDR" envDefault:":8080"`
	ConfigPath    string `env:"WILDLANDS_CONFIG" envDefault:"wildlands_config.json"`
	DBPath        string `env:"WILDLANDS_DB" envDefault:"wildlands.db"`
	RedisURL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// ExpeditionTTL bounds how long an abandoned expedition survives.
	ExpeditionTTL time.Duration `env:"WILDLANDS_EXPEDITION_TTL" envDefault:"1h"`
	// DuelTTL bounds how long an abandoned duel state survives.
	DuelTTL time.Duration `env:"WILDLANDS_DUEL_TTL" envDefault:"1h"`
	// TurnLockTTL bounds how long a crashed turn can block a duel.
	TurnLockTTL time.Duration `env:"WILDLANDS_TURN_LOCK_TTL" envDefault:"12s"`

	// StatsBackend selects the combat stats provider: "db" reads race and
	// class passives from storage, "baseline" serves fixed hero stats.
	StatsBackend string `env:"WILDLANDS_STATS_BACKEND" envDefault:"db"`
}

// LoadSettings parses Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
