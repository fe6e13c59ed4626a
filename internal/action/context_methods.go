package action

import (
	"context"
	"fmt"
	"os"

	"github.com/owlbrowser/core/internal/browserengine"
	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/profile"
)

func registerContextMethods(s *Surface) {
	s.register("createContext", handleCreateContext)
	s.register("releaseContext", handleReleaseContext)
	s.register("closeContext", handleCloseContext)
	s.register("listContexts", handleListContexts)
}

func handleCreateContext(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	opts := contextmgr.CreateOpts{
		ProxyURL:         stringParam(params, "proxy_url"),
		ProfilePath:      stringParam(params, "profile_path"),
		ResourceBlocking: boolParam(params, "resource_blocking"),
		OSFilter:         stringParam(params, "os_filter"),
		GPUFilter:        stringParam(params, "gpu_filter"),
	}

	id, err := s.Contexts.CreateContext(opts)
	if err != nil {
		return nil, err
	}

	tab, err := browserengine.Launch(id, s.Headless, opts)
	if err != nil {
		_ = s.Contexts.CloseContext(id, 0)
		return nil, fmt.Errorf("launch browser tab: %w", err)
	}

	if err := s.Contexts.WithContext(id, func(target *contextmgr.BrowserContext) error {
		target.SetHandle(tab)

		if opts.ProfilePath != "" {
			if p, err := loadProfileIfExists(opts.ProfilePath); err == nil && p != nil {
				s.VM.Set(id, p.Seeds)
				if len(p.Cookies) > 0 {
					if err := tab.SetCookies(ctx, profileCookiesToTab(p.Cookies)); err != nil {
						return err
					}
				}
				if len(p.LocalStorage) > 0 {
					if err := tab.SetLocalStorage(ctx, p.LocalStorage); err != nil {
						return err
					}
				}
			}
		}

		identity, err := s.VM.Resolve(id, vmFilterFrom(opts))
		if err != nil {
			return err
		}
		return tab.ApplyIdentity(ctx, identity)
	}); err != nil {
		tab.Close()
		_ = s.Contexts.CloseContext(id, 0)
		return nil, err
	}

	return map[string]interface{}{"context_id": id}, nil
}

// loadProfileIfExists loads a persisted profile, tolerating a missing
// file so a fresh profile_path can be used on first launch.
func loadProfileIfExists(path string) (*profile.Profile, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return profile.Load(path)
}

func profileCookiesToTab(cookies []profile.Cookie) []browserengine.Cookie {
	out := make([]browserengine.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, browserengine.Cookie{
			Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path,
			HTTPOnly: c.HTTPOnly, Secure: c.Secure,
		})
	}
	return out
}

func handleReleaseContext(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	id := stringParam(params, "context_id")
	if err := s.Contexts.ReleaseContext(id); err != nil {
		return nil, err
	}
	return true, nil
}

func handleCloseContext(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	id := stringParam(params, "context_id")
	if err := s.Contexts.CloseContext(id, 0); err != nil {
		return nil, err
	}
	return true, nil
}

func handleListContexts(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	return s.Contexts.ListContexts(), nil
}

func stringParam(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func boolParam(params map[string]interface{}, key string) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return false
}

func floatParam(params map[string]interface{}, key string) float64 {
	if v, ok := params[key].(float64); ok {
		return v
	}
	return 0
}
