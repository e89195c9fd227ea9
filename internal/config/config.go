// Package config loads server configuration from yaml with sensible
// defaults. Config values are threaded explicitly through
// constructors; nothing in the server reads process-wide state.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GameServer holds all configuration for the game server.
type GameServer struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	LogLevel string `yaml:"log_level"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// WorldDataPath points at the static tables file (enemies,
	// attacks, routes, levels). Missing file falls back to built-ins.
	WorldDataPath string `yaml:"world_data_path"`

	Ticks TickConfig  `yaml:"ticks"`
	Rules RulesConfig `yaml:"rules"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// TickConfig holds the cadences of the independent periodic triggers.
// Durations are numeric to keep the yaml shape simple.
type TickConfig struct {
	AIMs         int `yaml:"ai_ms"`
	SpawnMaintS  int `yaml:"spawn_maintenance_seconds"`
	CleanupS     int `yaml:"cleanup_seconds"`
	LeaderboardS int `yaml:"leaderboard_seconds"`
	PersistenceS int `yaml:"persistence_seconds"`
}

// AI returns the fast AI/patrol tick interval.
func (t TickConfig) AI() time.Duration { return time.Duration(t.AIMs) * time.Millisecond }

// SpawnMaint returns the spawn-maintenance tick interval.
func (t TickConfig) SpawnMaint() time.Duration { return time.Duration(t.SpawnMaintS) * time.Second }

// Cleanup returns the dead-entity cleanup tick interval.
func (t TickConfig) Cleanup() time.Duration { return time.Duration(t.CleanupS) * time.Second }

// Leaderboard returns the leaderboard refresh interval.
func (t TickConfig) Leaderboard() time.Duration { return time.Duration(t.LeaderboardS) * time.Second }

// Persistence returns the dirty-player flush interval.
func (t TickConfig) Persistence() time.Duration { return time.Duration(t.PersistenceS) * time.Second }

// RulesConfig holds gameplay tunables.
type RulesConfig struct {
	// MaxAttackTargets bounds worst-case work per player attack.
	MaxAttackTargets int `yaml:"max_attack_targets"`
	// DamagedRecoveryMs is the auto-recovery delay from Damaged to Idle.
	DamagedRecoveryMs int `yaml:"damaged_recovery_ms"`
	// CorpseGraceS is how long a Dead entity lingers before cleanup.
	CorpseGraceS int `yaml:"corpse_grace_seconds"`
	// DamageRetentionS prunes damage events older than this.
	DamageRetentionS int `yaml:"damage_retention_seconds"`
	// PlayerRespawnS gates player respawn after death.
	PlayerRespawnS int `yaml:"player_respawn_seconds"`
	// LeaderboardSize is the N of the top-N snapshot.
	LeaderboardSize int `yaml:"leaderboard_size"`
	// MaxMoveSpeed clamps client movement intents (units/second).
	MaxMoveSpeed float64 `yaml:"max_move_speed"`
	// ViewRadius bounds the proximity filter of client subscriptions.
	ViewRadius float64 `yaml:"view_radius"`
}

// DamagedRecovery returns the Damaged → Idle auto-recovery delay.
func (r RulesConfig) DamagedRecovery() time.Duration {
	return time.Duration(r.DamagedRecoveryMs) * time.Millisecond
}

// CorpseGrace returns how long corpses linger before cleanup.
func (r RulesConfig) CorpseGrace() time.Duration {
	return time.Duration(r.CorpseGraceS) * time.Second
}

// DamageRetention returns the damage-event retention window.
func (r RulesConfig) DamageRetention() time.Duration {
	return time.Duration(r.DamageRetentionS) * time.Second
}

// PlayerRespawn returns the player respawn delay.
func (r RulesConfig) PlayerRespawn() time.Duration {
	return time.Duration(r.PlayerRespawnS) * time.Second
}

// Default returns a GameServer config with sensible defaults.
func Default() GameServer {
	return GameServer{
		BindAddress:   "0.0.0.0",
		Port:          8777,
		LogLevel:      "info",
		WorldDataPath: "config/world.yaml",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "emberfall",
			Password: "emberfall",
			DBName:   "emberfall",
			SSLMode:  "disable",
		},
		Ticks: TickConfig{
			AIMs:         100,
			SpawnMaintS:  10,
			CleanupS:     1,
			LeaderboardS: 30,
			PersistenceS: 60,
		},
		Rules: RulesConfig{
			MaxAttackTargets:  3,
			DamagedRecoveryMs: 400,
			CorpseGraceS:      5,
			DamageRetentionS:  30,
			PlayerRespawnS:    3,
			LeaderboardSize:   10,
			MaxMoveSpeed:      260,
			ViewRadius:        900,
		},
	}
}

// Load loads game server config from a yaml file. If the file doesn't
// exist, returns defaults.
func Load(path string) (GameServer, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
