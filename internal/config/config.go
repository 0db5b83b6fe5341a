// Package config provides Viper-based configuration loading for the levelup service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
	// EnemyTurnDelay is how long after a player action the enemy responds.
	// Zero leaves enemy turns to the caller.
	EnemyTurnDelay time.Duration `mapstructure:"enemy_turn_delay"`
	// AllowedOrigins lists the browser origins granted CORS access; "*" allows any.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects the character snapshot backend.
type StorageConfig struct {
	// Driver is one of "postgres", "sqlite", "redis".
	Driver string `mapstructure:"driver"`
	// CharacterID is the key of the single user's character snapshot.
	CharacterID string `mapstructure:"character_id"`
	// CharacterName names the character when no snapshot exists yet.
	CharacterName string `mapstructure:"character_name"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// SQLiteConfig holds the local database file location.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// RecoveryConfig holds passive HP/MP regeneration settings.
type RecoveryConfig struct {
	// Interval is the wall-clock length of one recovery period.
	Interval time.Duration `mapstructure:"interval"`
	// Percent is the share of max HP/MP restored per period.
	Percent int `mapstructure:"percent"`
	// CheckInterval is how often the background scheduler looks for elapsed periods.
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

// LevelingConfig selects the leveling policy.
type LevelingConfig struct {
	// Policy is "auto_growth" or "stat_points".
	Policy string `mapstructure:"policy"`
	// PointsPerLevel is the allocatable points granted per level under "stat_points".
	PointsPerLevel int `mapstructure:"points_per_level"`
}

// ContentConfig holds the static reference data directories.
type ContentConfig struct {
	EnemiesDir string `mapstructure:"enemies_dir"`
	ItemsDir   string `mapstructure:"items_dir"`
	SkillsDir  string `mapstructure:"skills_dir"`
}

// DiceConfig controls the randomness source.
type DiceConfig struct {
	// Seed selects a deterministic source when non-zero; zero uses crypto/rand.
	Seed uint64 `mapstructure:"seed"`
}

// QuestGenConfig holds the quest drafting collaborator settings.
type QuestGenConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Recovery  RecoveryConfig  `mapstructure:"recovery"`
	Leveling  LevelingConfig  `mapstructure:"leveling"`
	Content   ContentConfig   `mapstructure:"content"`
	Dice      DiceConfig      `mapstructure:"dice"`
	QuestGen  QuestGenConfig  `mapstructure:"questgen"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRecovery(c.Recovery); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLeveling(c.Leveling); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.EnemyTurnDelay < 0 {
		errs = append(errs, "server.enemy_turn_delay must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(c Config) error {
	if c.Storage.CharacterID == "" {
		return errors.New("storage.character_id must not be empty")
	}
	switch c.Storage.Driver {
	case "postgres":
		return validateDatabase(c.Database)
	case "sqlite":
		if c.SQLite.Path == "" {
			return errors.New("sqlite.path must not be empty")
		}
		return nil
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("redis.addr must not be empty")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("redis.db must be >= 0, got %d", c.Redis.DB)
		}
		return nil
	default:
		return fmt.Errorf("storage.driver must be one of [postgres, sqlite, redis], got %q", c.Storage.Driver)
	}
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateRecovery(r RecoveryConfig) error {
	var errs []string
	if r.Interval <= 0 {
		errs = append(errs, "recovery.interval must be > 0")
	}
	if r.CheckInterval <= 0 {
		errs = append(errs, "recovery.check_interval must be > 0")
	}
	if r.Percent < 0 || r.Percent > 100 {
		errs = append(errs, fmt.Sprintf("recovery.percent must be 0-100, got %d", r.Percent))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLeveling(l LevelingConfig) error {
	switch l.Policy {
	case "auto_growth":
		return nil
	case "stat_points":
		if l.PointsPerLevel < 0 {
			return fmt.Errorf("leveling.points_per_level must be >= 0, got %d", l.PointsPerLevel)
		}
		return nil
	default:
		return fmt.Errorf("leveling.policy must be one of [auto_growth, stat_points], got %q", l.Policy)
	}
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with LEVELUP_ prefix
	v.SetEnvPrefix("LEVELUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.enemy_turn_delay", "1s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.character_id", "player")
	v.SetDefault("storage.character_name", "Hunter")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "levelup")
	v.SetDefault("database.password", "levelup")
	v.SetDefault("database.name", "levelup")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("sqlite.path", "levelup.db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "levelup:character:")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("recovery.interval", "5m")
	v.SetDefault("recovery.percent", 10)
	v.SetDefault("recovery.check_interval", "1m")

	v.SetDefault("leveling.policy", "auto_growth")
	v.SetDefault("leveling.points_per_level", 10)

	v.SetDefault("content.enemies_dir", "content/enemies")
	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.skills_dir", "content/skills")

	v.SetDefault("dice.seed", 0)

	v.SetDefault("questgen.api_key", "")
	v.SetDefault("questgen.model", "claude-3-5-haiku-latest")
	v.SetDefault("questgen.max_tokens", 800)

	v.SetDefault("scripting.instruction_limit", 100000)
}
