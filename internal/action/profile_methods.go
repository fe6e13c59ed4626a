package action

import (
	"context"

	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/profile"
	"github.com/owlbrowser/core/internal/status"
	"github.com/owlbrowser/core/internal/vm"
)

func registerProfileMethods(s *Surface) {
	s.register("saveProfile", handleSaveProfile)
	s.register("loadProfile", handleLoadProfile)
}

func handleSaveProfile(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	path := stringParam(params, "path")
	if path == "" {
		path = bc.ProfilePath
	}
	if path == "" {
		return status.Result(status.InvalidParameter, "path is required (no profile_path configured on this context)"), nil
	}

	seeds, err := s.VM.GetOrCreate(bc.ID)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	hashes, err := s.VM.Hashes(bc.ID)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	resolved, err := s.VM.Resolve(bc.ID, vm.Filter{})
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}

	cookies, err := tab.GetCookies(ctx)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	storage, err := tab.GetLocalStorage(ctx)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}

	p := &profile.Profile{
		Seeds:        seeds,
		Hashes:       hashes,
		ResolvedVM:   resolved,
		LocalStorage: storage,
	}
	for _, c := range cookies {
		p.Cookies = append(p.Cookies, profile.Cookie{
			Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path,
			HTTPOnly: c.HTTPOnly, Secure: c.Secure,
		})
	}

	if err := profile.Save(path, p); err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return status.Result(status.OK, "profile saved"), nil
}

func handleLoadProfile(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	path := stringParam(params, "path")
	if path == "" {
		path = bc.ProfilePath
	}
	if path == "" {
		return status.Result(status.InvalidParameter, "path is required (no profile_path configured on this context)"), nil
	}

	p, err := profile.Load(path)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}

	s.VM.Set(bc.ID, p.Seeds)

	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.OK, "profile loaded, no tab attached yet"), nil
	}

	if len(p.Cookies) > 0 {
		if err := tab.SetCookies(ctx, profileCookiesToTab(p.Cookies)); err != nil {
			return status.Result(status.InternalError, err.Error()), nil
		}
	}
	if len(p.LocalStorage) > 0 {
		if err := tab.SetLocalStorage(ctx, p.LocalStorage); err != nil {
			return status.Result(status.InternalError, err.Error()), nil
		}
	}

	identity, err := s.VM.Resolve(bc.ID, vm.Filter{})
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	if err := tab.ApplyIdentity(ctx, identity); err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return status.Result(status.OK, "profile loaded"), nil
}
