package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SPRINKLER"

// Config is the full application configuration.
type Config struct {
	Port     string         `mapstructure:"port"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Override OverrideConfig `mapstructure:"override"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// RemoteConfig describes the irrigation controller's HTTP boundary.
type RemoteConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	StatusPath string        `mapstructure:"status_path"`
	DryRun     bool          `mapstructure:"dry_run"`
}

type OverrideConfig struct {
	ReadinessTimeout time.Duration `mapstructure:"readiness_timeout"`
	CommandTimeout   time.Duration `mapstructure:"command_timeout"`
}

type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type ScheduleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

var (
	errMissingBaseURL = errors.New("remote.base_url is required")
	errMissingKey     = errors.New("auth.signing_key is required")
)

// setDefaults registers every default so that a missing config file still
// yields a runnable configuration once required keys come from the env.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", ":memory:")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("remote.timeout", 5*time.Second)
	v.SetDefault("remote.status_path", "/zoneStatus")
	v.SetDefault("remote.dry_run", false)
	v.SetDefault("override.readiness_timeout", 10*time.Second)
	v.SetDefault("override.command_timeout", 10*time.Second)
	v.SetDefault("sync.interval", 15*time.Second)
	v.SetDefault("schedule.interval", time.Minute)
}

// Load reads <dir>/config.yml (if present), applies SPRINKLER_* env
// overrides and validates the result.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required keys and normalizes values.
func (c *Config) Validate() error {
	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	if c.Remote.BaseURL == "" && !c.Remote.DryRun {
		return errMissingBaseURL
	}
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		return errMissingKey
	}
	if !strings.HasPrefix(c.Remote.StatusPath, "/") {
		c.Remote.StatusPath = "/" + c.Remote.StatusPath
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval)
	}
	if c.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive, got %s", c.Schedule.Interval)
	}
	return nil
}
