package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.HTTPAddress)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddress)
	assert.True(t, cfg.SchedulerEnabled())
	assert.Equal(t, 30*time.Second, cfg.SchedulerInterval())
	assert.Equal(t, 3, cfg.Scheduler.BatchSize)
	assert.Equal(t, 90*time.Second, cfg.StaleAfter(), "3x interval")
	assert.Len(t, cfg.Rules, 2, "built-in rules")
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "incidash.yaml", `
server:
  http_address: ":18080"
  metrics_address: ":19090"
  stale_after: 5m
scheduler:
  enabled: false
  interval: 10s
  batch_size: 5
data:
  seed: 42
  ticket_count: 20
dashboard:
  default_window: 30d
  ticket_rows: 25
rules:
  - name: p1_compliance
    condition: compliance_p1 < 0.9
    severity: critical
log:
  level: debug
  format: console
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":18080", cfg.Server.HTTPAddress)
	assert.Equal(t, 5*time.Minute, cfg.StaleAfter())
	assert.False(t, cfg.SchedulerEnabled())
	assert.Equal(t, 10*time.Second, cfg.SchedulerInterval())
	assert.Equal(t, 5, cfg.Scheduler.BatchSize)
	assert.Equal(t, uint64(42), cfg.Data.Seed)
	assert.Equal(t, 20, cfg.Data.TicketCount)
	assert.Equal(t, "30d", cfg.Dashboard.DefaultWindow)
	assert.Equal(t, 25, cfg.Dashboard.TicketRows)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "p1_compliance", cfg.Rules[0].Name)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "missing file")

	_, err = LoadConfig(writeFile(t, "bad.yaml", "server: ["))
	assert.Error(t, err, "malformed YAML")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad interval", func(c *Config) { c.Scheduler.Interval = "soon" }},
		{"zero interval", func(c *Config) { c.Scheduler.Interval = "0s" }},
		{"negative batch", func(c *Config) { c.Scheduler.BatchSize = -1 }},
		{"bad window", func(c *Config) { c.Dashboard.DefaultWindow = "2w" }},
		{"shared address", func(c *Config) { c.Server.MetricsAddress = c.Server.HTTPAddress }},
		{"bad shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = "-1s" }},
		{"bad stale_after", func(c *Config) { c.Server.StaleAfter = "never" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"negative ticket count", func(c *Config) { c.Data.TicketCount = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("INCIDASH_HTTP_ADDRESS", ":7000")
	t.Setenv("INCIDASH_METRICS_ADDRESS", "")
	t.Setenv("INCIDASH_LOG_LEVEL", "warn")
	t.Setenv("INCIDASH_SEED", "99")

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnv())
	assert.Equal(t, ":7000", cfg.Server.HTTPAddress)
	assert.Empty(t, cfg.Server.MetricsAddress, "empty value disables the metrics listener")
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, uint64(99), cfg.Data.Seed)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_BadSeed(t *testing.T) {
	t.Setenv("INCIDASH_SEED", "abc")
	assert.Error(t, DefaultConfig().applyEnv(), "non-numeric seed")
}
