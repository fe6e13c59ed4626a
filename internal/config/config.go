// Package config loads and hot-reloads the control core's configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LogConfig controls the process-wide logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	Async      bool   `yaml:"async"`
}

// Config is the control core's full runtime configuration.
type Config struct {
	// IPC server.
	SocketPath   string        `yaml:"socket_path"`
	InstanceID   string        `yaml:"instance_id"`
	StdioFallback bool         `yaml:"stdio_fallback"`
	MaxConns     int           `yaml:"max_connections"`
	RateLimit    float64       `yaml:"rate_limit_per_sec"`
	RateBurst    int           `yaml:"rate_burst"`

	// Browser engine. Headless defaults to false: a real windowed
	// Chrome is harder to distinguish from a human session than
	// headless-new mode.
	Headless bool `yaml:"headless"`

	// Context manager / pool.
	MaxContexts          int           `yaml:"max_contexts"`
	MaxMemoryMB          int           `yaml:"max_memory_mb"`
	PerContextEstimateMB int           `yaml:"per_context_estimate_mb"`
	IdleTTL              time.Duration `yaml:"idle_ttl"`
	CleanupInterval      time.Duration `yaml:"cleanup_interval"`
	ShutdownTimeout      time.Duration `yaml:"shutdown_timeout"`

	// Verifier.
	DefaultVerificationLevel string        `yaml:"default_verification_level"`
	StrictNetworkIdleWindow  time.Duration `yaml:"strict_network_idle_window"`
	StrictDOMStableWindow    time.Duration `yaml:"strict_dom_stable_window"`

	Log LogConfig `yaml:"log"`

	// applyReloadable copies the fields that are safe to apply from a
	// watched file without requiring a process restart: Log, IdleTTL,
	// CleanupInterval, RateLimit, RateBurst, DefaultVerificationLevel,
	// StrictNetworkIdleWindow, StrictDOMStableWindow.
	// SocketPath, InstanceID, MaxContexts, MaxMemoryMB and MaxConns take
	// effect only on the next start.
}

// ChangeCallback is invoked with the new config after a successful hot-reload.
type ChangeCallback func(cfg *Config)

// Default returns a Config with every field populated from its default.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills in zero-valued fields with their defaults. Safe to
// call on a config freshly unmarshaled from a partial YAML document.
func (c *Config) ApplyDefaults() {
	if c.SocketPath == "" {
		c.SocketPath = "/tmp/owlbrowser.sock"
	}
	if c.InstanceID == "" {
		c.InstanceID = "owlbrowser-0"
	}
	if c.MaxConns <= 0 {
		c.MaxConns = 64
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 100
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 200
	}
	if c.MaxContexts <= 0 {
		c.MaxContexts = 1000
	}
	if c.MaxMemoryMB <= 0 {
		c.MaxMemoryMB = 32 * 1024
	}
	if c.PerContextEstimateMB <= 0 {
		c.PerContextEstimateMB = 150
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 120 * time.Second
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.DefaultVerificationLevel == "" {
		c.DefaultVerificationLevel = "standard"
	}
	if c.StrictNetworkIdleWindow <= 0 {
		c.StrictNetworkIdleWindow = 500 * time.Millisecond
	}
	if c.StrictDOMStableWindow <= 0 {
		c.StrictDOMStableWindow = 1000 * time.Millisecond
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays <= 0 {
		c.Log.MaxAgeDays = 28
	}
}

// Load reads a YAML config file from path, applying defaults for any
// field left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// applyReloadable copies the subset of newCfg that is safe to hot-swap
// into c, leaving fields that require a restart untouched.
func (c *Config) applyReloadable(newCfg *Config) {
	c.Log = newCfg.Log
	c.IdleTTL = newCfg.IdleTTL
	c.CleanupInterval = newCfg.CleanupInterval
	c.RateLimit = newCfg.RateLimit
	c.RateBurst = newCfg.RateBurst
	c.DefaultVerificationLevel = newCfg.DefaultVerificationLevel
	c.StrictNetworkIdleWindow = newCfg.StrictNetworkIdleWindow
	c.StrictDOMStableWindow = newCfg.StrictDOMStableWindow
}
