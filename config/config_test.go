package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j0hanz/cortex/core"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7090", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 128, cfg.MaxSessions)
	assert.Equal(t, 1_000_000, cfg.MaxTotalTokens)
	assert.Equal(t, 8, cfg.MaxActiveTasks)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, core.DefaultLevels(), cfg.Levels)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CORTEX_ADDR", ":9999")
	t.Setenv("CORTEX_SESSION_TTL_MS", "60000")
	t.Setenv("CORTEX_MAX_SESSIONS", "4")
	t.Setenv("CORTEX_MAX_TOTAL_TOKENS", "5000")
	t.Setenv("CORTEX_MAX_ACTIVE_TASKS", "2")
	t.Setenv("CORTEX_TASK_POLL_MS", "500")
	t.Setenv("CORTEX_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, time.Minute, cfg.SessionTTL)
	assert.Equal(t, 4, cfg.MaxSessions)
	assert.Equal(t, 5000, cfg.MaxTotalTokens)
	assert.Equal(t, 2, cfg.MaxActiveTasks)
	assert.Equal(t, 500*time.Millisecond, cfg.TaskPollInterval)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	t.Setenv("CORTEX_MAX_SESSIONS", "-1")

	_, err := Load()
	assert.ErrorContains(t, err, "max sessions")
}

func TestLoad_InvalidLogFormatRejected(t *testing.T) {
	t.Setenv("CORTEX_LOG_FORMAT", "xml")

	_, err := Load()
	assert.ErrorContains(t, err, "log format")
}

func TestLoadLevels_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.yaml")
	data := []byte(`
basic:
  min_thoughts: 1
  max_thoughts: 3
  token_budget: 500
deep:
  min_thoughts: 8
  max_thoughts: 30
  token_budget: 64000
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	levels, err := LoadLevels(path)
	require.NoError(t, err)

	require.Len(t, levels, 2)
	assert.Equal(t, core.LevelConfig{MinThoughts: 1, MaxThoughts: 3, TokenBudget: 500}, levels[core.LevelBasic])
	assert.Equal(t, core.LevelConfig{MinThoughts: 8, MaxThoughts: 30, TokenBudget: 64000}, levels[core.Level("deep")])
}

func TestLoadLevels_ReplacesBuiltinTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.yaml")
	data := []byte("basic:\n  min_thoughts: 1\n  max_thoughts: 2\n  token_budget: 100\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("CORTEX_LEVELS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Levels, 1)
	assert.Equal(t, 100, cfg.Levels[core.LevelBasic].TokenBudget)
}

func TestLoadLevels_Missing(t *testing.T) {
	_, err := LoadLevels(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadLevels_InvalidBoundsRejectedByValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.yaml")
	data := []byte("basic:\n  min_thoughts: 5\n  max_thoughts: 2\n  token_budget: 100\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("CORTEX_LEVELS_FILE", path)

	_, err := Load()
	assert.ErrorContains(t, err, "thought bounds")
}
