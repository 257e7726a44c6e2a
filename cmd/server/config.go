// Package main provides the incidash server CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/incidash/internal/alerting"
	"github.com/good-yellow-bee/incidash/internal/logging"
	"github.com/good-yellow-bee/incidash/internal/models"
	"github.com/good-yellow-bee/incidash/internal/store"
)

// Config represents the server configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Scheduler SchedulerConfig  `yaml:"scheduler"`
	Data      DataConfig       `yaml:"data"`
	Dashboard DashboardConfig  `yaml:"dashboard"`
	Rules     []*alerting.Rule `yaml:"rules"`
	RulesFile string           `yaml:"rules_file"` // replaces Rules when set
	Log       logging.Config   `yaml:"log"`
	Verbose   bool             `yaml:"-"` // set via CLI flag
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	HTTPAddress        string `yaml:"http_address"`          // API listen address (default: :8080)
	MetricsAddress     string `yaml:"metrics_address"`       // Prometheus listen address (default: :9090)
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"` // per client IP (default: 120)
	ShutdownTimeout    string `yaml:"shutdown_timeout"`      // graceful shutdown bound (default: 10s)
	StaleAfter         string `yaml:"stale_after"`           // readiness fails past this age (default: 3x interval)
}

// SchedulerConfig contains refresh scheduler settings.
type SchedulerConfig struct {
	Enabled   *bool  `yaml:"enabled"`    // default: true
	Interval  string `yaml:"interval"`   // default: 30s
	BatchSize int    `yaml:"batch_size"` // default: 3
}

// DataConfig selects the initial ticket set.
type DataConfig struct {
	Seed        uint64 `yaml:"seed"`         // 0 picks a random seed
	TicketCount int    `yaml:"ticket_count"` // generated tickets (default: 50)
	FixtureFile string `yaml:"fixture_file"` // YAML tickets; replaces generation
	LookupFile  string `yaml:"lookup_file"`  // breakdown tables, watched for changes
}

// DashboardConfig tunes the projection.
type DashboardConfig struct {
	DefaultWindow string `yaml:"default_window"` // 1d, 7d or 30d (default: 7d)
	TicketRows    int    `yaml:"ticket_rows"`    // default: 10
	TrendDays     int    `yaml:"trend_days"`     // default: 7
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":8080"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9090"
	}
	if c.Server.RateLimitPerMinute == 0 {
		c.Server.RateLimitPerMinute = 120
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Scheduler.Enabled == nil {
		enabled := true
		c.Scheduler.Enabled = &enabled
	}
	if c.Scheduler.Interval == "" {
		c.Scheduler.Interval = "30s"
	}
	if c.Scheduler.BatchSize == 0 {
		c.Scheduler.BatchSize = 3
	}
	if c.Data.TicketCount == 0 {
		c.Data.TicketCount = store.DefaultTicketCount
	}
	if c.Dashboard.DefaultWindow == "" {
		c.Dashboard.DefaultWindow = string(models.DefaultTimeWindow)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Rules == nil && c.RulesFile == "" {
		c.Rules = alerting.DefaultRules()
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.HTTPAddress == "" {
		return fmt.Errorf("server.http_address is required")
	}
	if c.Server.HTTPAddress == c.Server.MetricsAddress {
		return fmt.Errorf("server.metrics_address must differ from server.http_address")
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute must not be negative")
	}
	if _, err := positiveDuration("server.shutdown_timeout", c.Server.ShutdownTimeout); err != nil {
		return err
	}
	if c.Server.StaleAfter != "" {
		if _, err := positiveDuration("server.stale_after", c.Server.StaleAfter); err != nil {
			return err
		}
	}
	if _, err := positiveDuration("scheduler.interval", c.Scheduler.Interval); err != nil {
		return err
	}
	if c.Scheduler.BatchSize < 0 {
		return fmt.Errorf("scheduler.batch_size must not be negative")
	}
	if c.Data.TicketCount < 0 {
		return fmt.Errorf("data.ticket_count must not be negative")
	}
	if _, err := models.ParseTimeWindow(c.Dashboard.DefaultWindow); err != nil {
		return fmt.Errorf("dashboard.default_window: %w", err)
	}
	if c.Dashboard.TicketRows < 0 || c.Dashboard.TrendDays < 0 {
		return fmt.Errorf("dashboard.ticket_rows and dashboard.trend_days must not be negative")
	}
	if err := alerting.ValidateRules(c.Rules); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// SchedulerEnabled reports whether the refresh loop should run.
func (c *Config) SchedulerEnabled() bool {
	return c.Scheduler.Enabled == nil || *c.Scheduler.Enabled
}

// SchedulerInterval returns the parsed refresh interval.
func (c *Config) SchedulerInterval() time.Duration {
	d, _ := time.ParseDuration(c.Scheduler.Interval)
	return d
}

// ShutdownTimeout returns the parsed shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ShutdownTimeout)
	return d
}

// StaleAfter returns how old the data may get before readiness fails.
func (c *Config) StaleAfter() time.Duration {
	if d, err := time.ParseDuration(c.Server.StaleAfter); err == nil {
		return d
	}
	return 3 * c.SchedulerInterval()
}

// applyEnv overrides selected fields from INCIDASH_* variables. A .env file
// in the working directory is loaded first when present. An empty
// INCIDASH_METRICS_ADDRESS disables the metrics listener.
func (c *Config) applyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if v := os.Getenv("INCIDASH_HTTP_ADDRESS"); v != "" {
		c.Server.HTTPAddress = v
	}
	if v, ok := os.LookupEnv("INCIDASH_METRICS_ADDRESS"); ok {
		c.Server.MetricsAddress = v
	}
	if v := os.Getenv("INCIDASH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("INCIDASH_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("INCIDASH_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("INCIDASH_SEED: %w", err)
		}
		c.Data.Seed = seed
	}
	return nil
}

func positiveDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", field, value)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}
