// Package config provides Viper-based configuration loading for the skirmish engine.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

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

// Storage drivers.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects where snapshots and journals are persisted.
type StorageConfig struct {
	// Driver is one of "none", "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout" or a file path.
	Output string `mapstructure:"output"`
	// Fields are attached to every entry, e.g. a deployment or operator name.
	Fields map[string]string `mapstructure:"fields"`
}

// EncounterConfig holds the rules tunables of new encounters.
type EncounterConfig struct {
	// Seed drives every random draw; 0 picks a fresh random seed.
	Seed uint64 `mapstructure:"seed"`
	// HazardDamage is dealt when a unit ends its movement on hazardous terrain.
	HazardDamage int `mapstructure:"hazard_damage"`
	// MaxRounds ends an encounter in a draw; 0 means unlimited.
	MaxRounds int `mapstructure:"max_rounds"`
}

// AIConfig holds the decision engine defaults.
type AIConfig struct {
	SupportRadius      int     `mapstructure:"support_radius"`
	LowHealthFraction  float64 `mapstructure:"low_health_fraction"`
	MaxCommandsPerTurn int     `mapstructure:"max_commands_per_turn"`
}

// ScriptingConfig holds the Lua sandbox settings.
type ScriptingConfig struct {
	// ScriptDir holds the global .lua files; a sub-directory named after a
	// scenario adds hooks visible only to that scenario's encounters.
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit bounds a single hook call; 0 uses the sandbox default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// ContentConfig locates the YAML content directories.
type ContentConfig struct {
	UnitsDir      string `mapstructure:"units_dir"`
	ConditionsDir string `mapstructure:"conditions_dir"`
	AIDir         string `mapstructure:"ai_dir"`
	ScenariosDir  string `mapstructure:"scenarios_dir"`
}

// TelemetryConfig holds OpenTelemetry tracing settings.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	// Insecure sends spans over plain HTTP.
	Insecure bool `mapstructure:"insecure"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Encounter EncounterConfig `mapstructure:"encounter"`
	AI        AIConfig        `mapstructure:"ai"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Content   ContentConfig   `mapstructure:"content"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Driver == DriverPostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateEncounter(c.Encounter); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAI(c.AI); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}
	if c.Content.UnitsDir == "" {
		errs = append(errs, "content.units_dir must not be empty")
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		errs = append(errs, "telemetry.endpoint must not be empty when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
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

func validateStorage(s StorageConfig) error {
	switch s.Driver {
	case DriverNone, DriverPostgres:
		return nil
	case DriverSQLite:
		if s.SQLitePath == "" {
			return errors.New("storage.sqlite_path must not be empty for the sqlite driver")
		}
		return nil
	}
	return fmt.Errorf("storage.driver must be one of [none, sqlite, postgres], got %q", s.Driver)
}

func validateEncounter(e EncounterConfig) error {
	var errs []string
	if e.HazardDamage < 0 {
		errs = append(errs, fmt.Sprintf("encounter.hazard_damage must be >= 0, got %d", e.HazardDamage))
	}
	if e.MaxRounds < 0 {
		errs = append(errs, fmt.Sprintf("encounter.max_rounds must be >= 0, got %d", e.MaxRounds))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateAI(a AIConfig) error {
	var errs []string
	if a.SupportRadius < 0 {
		errs = append(errs, fmt.Sprintf("ai.support_radius must be >= 0, got %d", a.SupportRadius))
	}
	if a.LowHealthFraction < 0 || a.LowHealthFraction > 1 {
		errs = append(errs, fmt.Sprintf("ai.low_health_fraction must be in [0,1], got %g", a.LowHealthFraction))
	}
	if a.MaxCommandsPerTurn < 1 {
		errs = append(errs, fmt.Sprintf("ai.max_commands_per_turn must be >= 1, got %d", a.MaxCommandsPerTurn))
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
	if l.Output == "" {
		return fmt.Errorf("logging.output must not be empty")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the environment only.
//
// Precondition: path is empty or names a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with SKIRMISH_ prefix
	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "skirmish")
	v.SetDefault("database.password", "skirmish")
	v.SetDefault("database.name", "skirmish")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("storage.driver", DriverNone)
	v.SetDefault("storage.sqlite_path", "skirmish.db")

	v.SetDefault("encounter.seed", 0)
	v.SetDefault("encounter.hazard_damage", 1)
	v.SetDefault("encounter.max_rounds", 50)

	v.SetDefault("ai.support_radius", 3)
	v.SetDefault("ai.low_health_fraction", 0.5)
	v.SetDefault("ai.max_commands_per_turn", 1)

	v.SetDefault("scripting.script_dir", "content/scripts")
	v.SetDefault("scripting.instruction_limit", 100000)

	v.SetDefault("content.units_dir", "content/units")
	v.SetDefault("content.conditions_dir", "content/conditions")
	v.SetDefault("content.ai_dir", "content/ai")
	v.SetDefault("content.scenarios_dir", "content/scenarios")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "skirmish")
	v.SetDefault("telemetry.insecure", true)
}
