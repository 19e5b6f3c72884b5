package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

/* Config is read from an optional .env file (TOML syntax) in the working
 * directory; environment variables override it
 */

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Host               string        `mapstructure:"HOST"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	MaxEvents          int           `mapstructure:"MAX_EVENTS"`
	ReplayHistoryLimit int           `mapstructure:"REPLAY_HISTORY_LIMIT"`
	ReplayTimeout      time.Duration `mapstructure:"REPLAY_TIMEOUT"`
	ResponseBodyLimit  int           `mapstructure:"RESPONSE_BODY_LIMIT"`
	MaxBodyBytes       int64         `mapstructure:"MAX_BODY_BYTES"`
	TargetsFile        string        `mapstructure:"TARGETS_FILE"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
	RedisStream        string        `mapstructure:"REDIS_STREAM"`
	RedisStreamMaxLen  int64         `mapstructure:"REDIS_STREAM_MAX_LEN"`
}

var defaults = map[string]any{
	"PORT":                 "8899",
	"HOST":                 "0.0.0.0",
	"LOG_LEVEL":            "info",
	"MAX_EVENTS":           1000,
	"REPLAY_HISTORY_LIMIT": 0,
	"REPLAY_TIMEOUT":       30 * time.Second,
	"RESPONSE_BODY_LIMIT":  4000,
	"MAX_BODY_BYTES":       int64(1 << 20),
	"TARGETS_FILE":         "",
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"REDIS_STREAM":         "hookwatch:events",
	"REDIS_STREAM_MAX_LEN": int64(10000),
}

// GetConfig reads the configuration from the working directory
func GetConfig() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom reads the configuration from a .env file in dir, if present
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	err = v.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// Validate rejects values the server cannot run with
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.MaxEvents <= 0 {
		return fmt.Errorf("MAX_EVENTS must be positive (got %d)", c.MaxEvents)
	}
	if c.ReplayHistoryLimit < 0 {
		return fmt.Errorf("REPLAY_HISTORY_LIMIT cannot be negative (got %d)", c.ReplayHistoryLimit)
	}
	if c.ReplayTimeout <= 0 {
		return fmt.Errorf("REPLAY_TIMEOUT must be positive (got %s)", c.ReplayTimeout)
	}
	if c.ResponseBodyLimit <= 0 {
		return fmt.Errorf("RESPONSE_BODY_LIMIT must be positive (got %d)", c.ResponseBodyLimit)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive (got %d)", c.MaxBodyBytes)
	}
	if c.RedisStreamMaxLen <= 0 {
		return fmt.Errorf("REDIS_STREAM_MAX_LEN must be positive (got %d)", c.RedisStreamMaxLen)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Addr is the listen address of the API server
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Level parses LOG_LEVEL
func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// RedisEnabled reports whether activity is published to a Redis stream
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}
