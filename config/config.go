// Package config provides environment-based configuration for the cortex
// engine and server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/j0hanz/cortex/core"
)

// Config holds all tunables for the engine, loaded from environment
// variables. Durations are expressed in milliseconds in the environment.
type Config struct {
	// Addr is the address the HTTP server listens on.
	Addr string

	// SessionTTL is the idle lifetime of a session. 0 disables expiry.
	SessionTTL time.Duration

	// MaxSessions caps concurrently stored sessions. 0 means unlimited.
	MaxSessions int

	// MaxTotalTokens caps the aggregate token usage across all sessions.
	// 0 means unlimited.
	MaxTotalTokens int

	// MaxActiveTasks caps concurrently admitted background tasks.
	// 0 means unlimited.
	MaxActiveTasks int

	// SweepInterval is the cadence of the periodic expiry sweep.
	SweepInterval time.Duration

	// TaskTTL is the retention of terminal tasks before pruning.
	TaskTTL time.Duration

	// TaskPollInterval is the default poll hint returned with new tasks.
	TaskPollInterval time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogFormat is "json" or "text".
	LogFormat string

	// LevelsFile optionally points at a YAML file overriding the built-in
	// reasoning level table.
	LevelsFile string

	// Levels is the effective reasoning level table.
	Levels map[core.Level]core.LevelConfig
}

// Load creates a Config from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:             envOr("CORTEX_ADDR", ":7090"),
		SessionTTL:       envOrMillis("CORTEX_SESSION_TTL_MS", 30*time.Minute),
		MaxSessions:      envOrInt("CORTEX_MAX_SESSIONS", 128),
		MaxTotalTokens:   envOrInt("CORTEX_MAX_TOTAL_TOKENS", 1_000_000),
		MaxActiveTasks:   envOrInt("CORTEX_MAX_ACTIVE_TASKS", 8),
		SweepInterval:    envOrMillis("CORTEX_SWEEP_INTERVAL_MS", time.Minute),
		TaskTTL:          envOrMillis("CORTEX_TASK_TTL_MS", 10*time.Minute),
		TaskPollInterval: envOrMillis("CORTEX_TASK_POLL_MS", 2*time.Second),
		LogLevel:         envOr("CORTEX_LOG_LEVEL", "info"),
		LogFormat:        envOr("CORTEX_LOG_FORMAT", "text"),
		LevelsFile:       os.Getenv("CORTEX_LEVELS_FILE"),
		Levels:           core.DefaultLevels(),
	}

	if cfg.LevelsFile != "" {
		levels, err := LoadLevels(cfg.LevelsFile)
		if err != nil {
			return nil, fmt.Errorf("loading levels file: %w", err)
		}
		cfg.Levels = levels
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks internal consistency of the configuration.
func (c *Config) Validate() error {
	if c.SessionTTL < 0 {
		return fmt.Errorf("session TTL must not be negative")
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("max sessions must not be negative")
	}
	if c.MaxTotalTokens < 0 {
		return fmt.Errorf("max total tokens must not be negative")
	}
	if c.MaxActiveTasks < 0 {
		return fmt.Errorf("max active tasks must not be negative")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("log format must be json or text, got %q", c.LogFormat)
	}
	if len(c.Levels) == 0 {
		return fmt.Errorf("level table must not be empty")
	}
	for name, lc := range c.Levels {
		if lc.MinThoughts < 1 || lc.MaxThoughts < lc.MinThoughts {
			return fmt.Errorf("level %s: thought bounds [%d, %d] are invalid", name, lc.MinThoughts, lc.MaxThoughts)
		}
		if lc.TokenBudget < 1 {
			return fmt.Errorf("level %s: token budget must be positive", name)
		}
	}
	return nil
}

// LoadLevels reads a YAML level table, for example:
//
//	basic:
//	  min_thoughts: 2
//	  max_thoughts: 5
//	  token_budget: 2000
//
// The file fully replaces the built-in table.
func LoadLevels(path string) (map[core.Level]core.LevelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	levels := make(map[core.Level]core.LevelConfig)
	if err := yaml.Unmarshal(data, &levels); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("%s defines no levels", path)
	}

	return levels, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrMillis(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return fallback
}
