// Package config loads the application configuration from defaults, an
// optional YAML file and UNSPLASH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/unsplash-client/pkg/logging"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// UNSPLASH_API_ACCESS_KEY for api.access_key.
const EnvPrefix = "UNSPLASH"

// Config holds all application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Prefs     PrefsConfig     `mapstructure:"prefs"`
	Locale    string          `mapstructure:"locale"`
}

// APIConfig holds Unsplash API settings.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	AccessKey string        `mapstructure:"access_key"`
	UserAgent string        `mapstructure:"user_agent"`
	PerPage   int           `mapstructure:"per_page"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RedisConfig enables the response cache and shared quota tracking.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TelemetryConfig configures Sentry. An empty DSN disables reporting.
type TelemetryConfig struct {
	SentryDSN   string `mapstructure:"sentry_dsn"`
	Environment string `mapstructure:"environment"`
	Release     string `mapstructure:"release"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ServerConfig holds the HTTP server settings of the serve command.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// PrefsConfig locates the preference database.
type PrefsConfig struct {
	Path string `mapstructure:"path"`
}

// configDir returns the per-user configuration directory.
func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "unsplash")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.unsplash.com")
	v.SetDefault("api.access_key", "")
	v.SetDefault("api.user_agent", "unsplash-client/0.1.0")
	v.SetDefault("api.per_page", 30)
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("telemetry.sentry_dsn", "")
	v.SetDefault("telemetry.environment", "production")
	v.SetDefault("telemetry.release", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("prefs.path", filepath.Join(configDir(), "prefs.db"))
	v.SetDefault("locale", "en")
}

// Load reads the configuration. With an empty path, config.yaml is searched
// in the user config directory and the working directory and may be absent;
// an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings needed to talk to the API.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.AccessKey) == "" {
		return fmt.Errorf("api.access_key is required (set %s_API_ACCESS_KEY)", EnvPrefix)
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if c.API.PerPage < 1 || c.API.PerPage > 30 {
		return fmt.Errorf("api.per_page must be between 1 and 30 (got %d)", c.API.PerPage)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must be >= 0 (got %s)", c.API.Timeout)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}
