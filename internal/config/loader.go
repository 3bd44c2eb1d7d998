package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/example/scm/internal/environment"
	"github.com/example/scm/internal/logging"
	"github.com/example/scm/internal/migration"
	"github.com/example/scm/internal/session"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SCM"

// Option keys, shared by flags and SCM_* environment variables.
const (
	KeyMigrationsDir  = "migrations-dir"
	KeyEnvDir         = "env-dir"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"
	KeyConnectTimeout = "connect-timeout"
	KeyTimeout        = "timeout"
	KeyConsistency    = "consistency"
)

// Config captures flag and environment driven settings of the scm command.
type Config struct {
	MigrationsDir  string
	EnvDir         string
	LogLevel       slog.Level
	LogFormat      string
	ConnectTimeout time.Duration
	Timeout        time.Duration
	Consistency    string
}

// SessionOptions returns the dialer options described by the configuration.
func (c Config) SessionOptions() session.Options {
	return session.Options{
		ConnectTimeout: c.ConnectTimeout,
		Timeout:        c.Timeout,
		Consistency:    c.Consistency,
	}
}

// NewViper returns a viper instance reading SCM_* variables, with "-" in
// keys mapped to "_" (e.g. SCM_MIGRATIONS_DIR).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	defaults := session.DefaultOptions()
	v.SetDefault(KeyMigrationsDir, migration.DefaultDir)
	v.SetDefault(KeyEnvDir, ".")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, logging.FormatText)
	v.SetDefault(KeyConnectTimeout, defaults.ConnectTimeout.String())
	v.SetDefault(KeyTimeout, defaults.Timeout.String())
	v.SetDefault(KeyConsistency, defaults.Consistency)
	return v
}

// Load resolves the configuration from v.
//
// Every invalid value is reported in a single error so that operators can fix
// them at once.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		MigrationsDir: strings.TrimSpace(v.GetString(KeyMigrationsDir)),
		EnvDir:        strings.TrimSpace(v.GetString(KeyEnvDir)),
		LogFormat:     strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		Consistency:   strings.TrimSpace(v.GetString(KeyConsistency)),
	}

	invalid := make([]string, 0, 4)

	if cfg.MigrationsDir == "" {
		invalid = append(invalid, KeyMigrationsDir)
	}
	if cfg.EnvDir == "" {
		cfg.EnvDir = "."
	}

	level, err := logging.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		invalid = append(invalid, KeyLogLevel)
	}
	cfg.LogLevel = level

	switch cfg.LogFormat {
	case logging.FormatText, logging.FormatJSON:
	default:
		invalid = append(invalid, KeyLogFormat)
	}

	if cfg.ConnectTimeout, err = parseDuration(v.GetString(KeyConnectTimeout)); err != nil {
		invalid = append(invalid, KeyConnectTimeout)
	}
	if cfg.Timeout, err = parseDuration(v.GetString(KeyTimeout)); err != nil {
		invalid = append(invalid, KeyTimeout)
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// EnvironmentStore returns the environment store rooted at EnvDir.
func (c Config) EnvironmentStore() *environment.Store {
	return environment.NewStore(c.EnvDir)
}

func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", value)
	}
	return d, nil
}
