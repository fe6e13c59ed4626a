// Package profile persists a context's cookies, storage, and
// fingerprint seeds to a single JSON file so a later context can
// resume the same synthetic identity and site state.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/owlbrowser/core/internal/vm"
)

// Cookie is a profile-scoped cookie entry, independent of any
// particular browser-engine cookie representation.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	HTTPOnly bool   `json:"http_only"`
	Secure   bool   `json:"secure"`
}

// Profile is the persisted document a context can be created from or
// saved into: fingerprint seeds (and their resolved identity, kept for
// inspection without re-deriving it), cookies, and localStorage.
type Profile struct {
	Seeds        vm.Seeds           `json:"seeds"`
	Hashes       vm.Hashes          `json:"hashes"`
	ResolvedVM   *vm.VirtualMachine `json:"resolved_vm,omitempty"`
	Cookies      []Cookie           `json:"cookies"`
	LocalStorage map[string]string  `json:"local_storage"`
	SavedAt      time.Time          `json:"saved_at"`
}

// Save writes p to path as indented JSON, creating parent directories
// as needed. A profile file is private to the user that created it.
func Save(path string, p *Profile) error {
	if path == "" {
		return fmt.Errorf("profile: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("profile: create directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("profile: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("profile: write %s: %w", path, err)
	}
	return nil
}

// Load reads and decodes a profile previously written by Save.
func Load(path string) (*Profile, error) {
	if path == "" {
		return nil, fmt.Errorf("profile: empty path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile: unmarshal %s: %w", path, err)
	}
	return &p, nil
}
