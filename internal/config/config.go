package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Engine holds all configuration for the combat engine process.
type Engine struct {
	LogLevel string `yaml:"log_level"`

	// Timezone defines the local-day boundary for once-per-day passives.
	Timezone string `yaml:"timezone"`

	// Storage selects the durable store: "postgres" or "memory".
	Storage string `yaml:"storage"`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`

	// ItemsPath overrides the embedded item catalog when set.
	ItemsPath string `yaml:"items_path"`

	Stats     Stats     `yaml:"stats"`
	Combat    Combat    `yaml:"combat"`
	Scheduler Scheduler `yaml:"scheduler"`
	Economy   Economy   `yaml:"economy"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds Redis connection parameters for the equip cache.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	EquipTTL time.Duration `yaml:"equip_ttl"`
}

// Stats holds defaults for lazily created player rows.
type Stats struct {
	MaxHP     int `yaml:"max_hp"`
	MaxShield int `yaml:"max_shield"`
}

// DamageRange is an inclusive [Min, Max] roll.
type DamageRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Combat holds the tunables of the resolution pipeline.
type Combat struct {
	AttackCooldown time.Duration `yaml:"attack_cooldown"`

	CritChance     float64 `yaml:"crit_chance"`
	CritMultiplier float64 `yaml:"crit_multiplier"`

	BaseDodge    float64 `yaml:"base_dodge"`
	MaxDodge     float64 `yaml:"max_dodge"`     // must stay below 1.0
	MaxReduction float64 `yaml:"max_reduction"` // must stay below 1.0

	// ChainFactor scales secondary hits when the item does not set its own.
	ChainFactor float64     `yaml:"chain_factor"`
	BareDamage  DamageRange `yaml:"bare_damage"`

	VirusSpreadChance     float64 `yaml:"virus_spread_chance"`
	InfectionSpreadChance float64 `yaml:"infection_spread_chance"`

	// OutgoingPenalty is a flat penalty per carried debuff type.
	OutgoingPenalty map[string]int `yaml:"outgoing_penalty"`
}

// Scheduler holds the tick scheduler settings.
type Scheduler struct {
	PollPeriod time.Duration `yaml:"poll_period"`
}

// Economy holds coin and box rewards.
type Economy struct {
	DailyReward int64 `yaml:"daily_reward"`
	BoxRolls    int   `yaml:"box_rolls"`
}

// DefaultCombat returns Combat with the stock rule set.
func DefaultCombat() Combat {
	return Combat{
		AttackCooldown:        5 * time.Second,
		CritChance:            0.10,
		CritMultiplier:        2.0,
		BaseDodge:             0.05,
		MaxDodge:              0.75,
		MaxReduction:          0.80,
		ChainFactor:           0.5,
		BareDamage:            DamageRange{Min: 5, Max: 10},
		VirusSpreadChance:     1.0,
		InfectionSpreadChance: 0.25,
		OutgoingPenalty:       map[string]int{"poison": 10},
	}
}

// Default returns Engine config with sensible defaults.
func Default() Engine {
	return Engine{
		LogLevel: "info",
		Timezone: "UTC",
		Storage:  StoragePostgres,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "brawlcore",
			Password: "brawlcore",
			DBName:   "brawlcore",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Redis: RedisConfig{
			Addr:     "127.0.0.1:6379",
			EquipTTL: 10 * time.Minute,
		},
		Stats: Stats{
			MaxHP:     100,
			MaxShield: 100,
		},
		Combat: DefaultCombat(),
		Scheduler: Scheduler{
			PollPeriod: time.Minute,
		},
		Economy: Economy{
			DailyReward: 100,
			BoxRolls:    1,
		},
	}
}

// Load loads engine config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Engine, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values the engine cannot run with.
func (c Engine) Validate() error {
	switch c.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage)
	}
	if c.Stats.MaxHP <= 0 {
		return fmt.Errorf("stats.max_hp must be positive, got %d", c.Stats.MaxHP)
	}
	if c.Stats.MaxShield < 0 {
		return fmt.Errorf("stats.max_shield must not be negative, got %d", c.Stats.MaxShield)
	}
	if c.Scheduler.PollPeriod <= 0 {
		return fmt.Errorf("scheduler.poll_period must be positive, got %s", c.Scheduler.PollPeriod)
	}
	if c.Combat.MaxDodge >= 1 || c.Combat.MaxReduction >= 1 {
		return fmt.Errorf("combat caps must stay below 1.0 (dodge=%.2f, reduction=%.2f)",
			c.Combat.MaxDodge, c.Combat.MaxReduction)
	}
	if c.Combat.BareDamage.Min < 0 || c.Combat.BareDamage.Max < c.Combat.BareDamage.Min {
		return fmt.Errorf("combat.bare_damage range [%d, %d] is invalid",
			c.Combat.BareDamage.Min, c.Combat.BareDamage.Max)
	}
	if c.Economy.DailyReward < 0 || c.Economy.BoxRolls < 1 {
		return fmt.Errorf("economy: daily_reward must not be negative and box_rolls must be at least 1 (got %d, %d)",
			c.Economy.DailyReward, c.Economy.BoxRolls)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c Engine) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
