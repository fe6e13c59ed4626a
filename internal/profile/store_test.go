package profile

import (
	"path/filepath"
	"testing"

	"github.com/owlbrowser/core/internal/vm"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profile.json")

	p := &Profile{
		Seeds: vm.Seeds{Canvas: 1, WebGL: 2, Audio: 3, Fonts: 4, ClientRects: 5, Navigator: 6, Screen: 7, AudioFingerprint: 0.5},
		Cookies: []Cookie{
			{Name: "a", Value: "1", Domain: "example.com", Path: "/", Secure: true},
		},
		LocalStorage: map[string]string{"k": "v"},
	}

	if err := Save(path, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Seeds != p.Seeds {
		t.Errorf("seeds mismatch: got %+v, want %+v", got.Seeds, p.Seeds)
	}
	if len(got.Cookies) != 1 || got.Cookies[0].Name != "a" {
		t.Errorf("cookies mismatch: %+v", got.Cookies)
	}
	if got.LocalStorage["k"] != "v" {
		t.Errorf("local storage mismatch: %+v", got.LocalStorage)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Error("expected error loading a nonexistent profile")
	}
}

func TestSaveEmptyPath(t *testing.T) {
	if err := Save("", &Profile{}); err == nil {
		t.Error("expected error saving with an empty path")
	}
}
