package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/owlbrowser/core/internal/config"
)

func TestNewJSONToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "owlbrowser.log")

	l, err := New(config.LogConfig{
		Level: "info", Format: "json", Output: path,
		MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("hello", zap.String("k", "v"))
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]any
	line := strings.TrimSpace(strings.Split(string(data), "\n")[0])
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("not valid JSON: %v (%s)", err, line)
	}
	if entry["msg"] != "hello" || entry["k"] != "v" {
		t.Errorf("entry = %v", entry)
	}
}

func TestInvalidLevelErrors(t *testing.T) {
	_, err := New(config.LogConfig{Level: "noisy", Format: "json", Output: "stdout"})
	if err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestInvalidFormatErrors(t *testing.T) {
	_, err := New(config.LogConfig{Level: "info", Format: "xml", Output: "stdout"})
	if err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestWithContextPropagatesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ctx.log")
	l, err := New(config.LogConfig{Level: "info", Format: "json", Output: path, MaxSizeMB: 10})
	if err != nil {
		t.Fatal(err)
	}
	ctx := WithContext(context.Background(), zap.String("context_id", "ctx_1"))
	l.InfoContext(ctx, "action dispatched")
	l.Sync()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"context_id":"ctx_1"`) {
		t.Errorf("log missing context field: %s", data)
	}
}

func TestAsyncLoggerDrainsOnSync(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "async.log")
	l, err := New(config.LogConfig{Level: "info", Format: "json", Output: path, MaxSizeMB: 10, Async: true})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		l.Info("burst")
	}
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Count(string(data), "burst") != 50 {
		t.Errorf("expected 50 entries after drain, got %d", strings.Count(string(data), "burst"))
	}
}

func TestNewNopDiscardsSilently(t *testing.T) {
	l := NewNop()
	l.Info("noop")
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync on nop logger: %v", err)
	}
}
