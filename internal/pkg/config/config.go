package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the engine.
type Config struct {
	Port     int
	DBURL    string
	LogLevel string
	SQLDebug bool

	SnoozeDelay     time.Duration
	HandlerTimeout  time.Duration
	JobPollInterval time.Duration
	JobRetryBase    time.Duration
	JobRetryMax     time.Duration

	ChannelSecret      string
	ChannelAccessToken string
	LineEndpointBase   string

	AppBackgroundCommand string
}

// Defaults applied when the environment does not set a key.
var defaults = map[string]any{
	"PORT":                   8080,
	"DB_URL":                 "engine.db",
	"LOG_LEVEL":              "info",
	"SQL_DEBUG":              false,
	"SNOOZE_DELAY":           "20m",
	"HANDLER_TIMEOUT":        "5s",
	"JOB_POLL_INTERVAL":      "10s",
	"JOB_RETRY_BASE":         "2s",
	"JOB_RETRY_MAX":          "5m",
	"CHANNEL_SECRET":         "",
	"CHANNEL_ACCESS_TOKEN":   "",
	"LINE_ENDPOINT_BASE":     "",
	"APP_BACKGROUND_COMMAND": "",
}

// Load reads configuration from the process environment. A .env file, if
// present, has already been merged into the environment by godotenv.
func Load() (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                 v.GetInt("PORT"),
		DBURL:                v.GetString("DB_URL"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		SQLDebug:             v.GetBool("SQL_DEBUG"),
		SnoozeDelay:          v.GetDuration("SNOOZE_DELAY"),
		HandlerTimeout:       v.GetDuration("HANDLER_TIMEOUT"),
		JobPollInterval:      v.GetDuration("JOB_POLL_INTERVAL"),
		JobRetryBase:         v.GetDuration("JOB_RETRY_BASE"),
		JobRetryMax:          v.GetDuration("JOB_RETRY_MAX"),
		ChannelSecret:        v.GetString("CHANNEL_SECRET"),
		ChannelAccessToken:   v.GetString("CHANNEL_ACCESS_TOKEN"),
		LineEndpointBase:     v.GetString("LINE_ENDPOINT_BASE"),
		AppBackgroundCommand: v.GetString("APP_BACKGROUND_COMMAND"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid PORT %d", c.Port)
	}
	if c.DBURL == "" {
		return fmt.Errorf("config: DB_URL is required")
	}
	if c.SnoozeDelay <= 0 {
		return fmt.Errorf("config: SNOOZE_DELAY must be positive")
	}
	if c.HandlerTimeout <= 0 {
		return fmt.Errorf("config: HANDLER_TIMEOUT must be positive")
	}
	if c.JobPollInterval < time.Second {
		return fmt.Errorf("config: JOB_POLL_INTERVAL must be at least 1s")
	}
	if c.JobRetryBase <= 0 || c.JobRetryMax < c.JobRetryBase {
		return fmt.Errorf("config: JOB_RETRY_BASE must be positive and not exceed JOB_RETRY_MAX")
	}
	return nil
}

// LineEnabled reports whether LINE credentials were provided.
func (c *Config) LineEnabled() bool {
	return c.ChannelSecret != "" && c.ChannelAccessToken != ""
}
