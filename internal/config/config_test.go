package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	c := &Config{}
	c.ApplyDefaults()

	if c.SocketPath == "" {
		t.Error("expected non-empty SocketPath default")
	}
	if c.MaxContexts != 1000 {
		t.Errorf("MaxContexts = %d, want 1000", c.MaxContexts)
	}
	if c.MaxMemoryMB != 32*1024 {
		t.Errorf("MaxMemoryMB = %d, want %d", c.MaxMemoryMB, 32*1024)
	}
	if c.IdleTTL != 120*time.Second {
		t.Errorf("IdleTTL = %v, want 120s", c.IdleTTL)
	}
	if c.DefaultVerificationLevel != "standard" {
		t.Errorf("DefaultVerificationLevel = %q, want standard", c.DefaultVerificationLevel)
	}
	if c.StrictNetworkIdleWindow != 500*time.Millisecond {
		t.Errorf("StrictNetworkIdleWindow = %v, want 500ms", c.StrictNetworkIdleWindow)
	}
	if c.StrictDOMStableWindow != 1000*time.Millisecond {
		t.Errorf("StrictDOMStableWindow = %v, want 1000ms", c.StrictDOMStableWindow)
	}
}

func TestApplyDefaultsPreservesSetFields(t *testing.T) {
	c := &Config{MaxContexts: 5, SocketPath: "/custom.sock"}
	c.ApplyDefaults()

	if c.MaxContexts != 5 {
		t.Errorf("MaxContexts = %d, want 5 (should not override explicit value)", c.MaxContexts)
	}
	if c.SocketPath != "/custom.sock" {
		t.Errorf("SocketPath = %q, want /custom.sock", c.SocketPath)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
socket_path: /var/run/owlbrowser.sock
max_contexts: 50
idle_ttl: 30s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SocketPath != "/var/run/owlbrowser.sock" {
		t.Errorf("SocketPath = %q", cfg.SocketPath)
	}
	if cfg.MaxContexts != 50 {
		t.Errorf("MaxContexts = %d, want 50", cfg.MaxContexts)
	}
	if cfg.IdleTTL != 30*time.Second {
		t.Errorf("IdleTTL = %v, want 30s", cfg.IdleTTL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	// Untouched fields still get defaults.
	if cfg.MaxMemoryMB != 32*1024 {
		t.Errorf("MaxMemoryMB = %d, want default", cfg.MaxMemoryMB)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/owlbrowser/config.yaml"); err == nil {
		t.Error("expected error loading nonexistent file")
	}
}

func TestReloaderAppliesSafeSubsetOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("max_contexts: 10\nidle_ttl: 10s\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewReloader(path)
	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	newer := Default()
	newer.MaxContexts = 999
	newer.IdleTTL = 5 * time.Second

	r.mu.Lock()
	r.cfg.applyReloadable(newer)
	got := r.cfg
	r.mu.Unlock()

	if got.MaxContexts == 999 {
		t.Error("MaxContexts should not be hot-reloadable")
	}
	if got.IdleTTL != 5*time.Second {
		t.Errorf("IdleTTL = %v, want 5s (should be hot-reloadable)", got.IdleTTL)
	}
}
