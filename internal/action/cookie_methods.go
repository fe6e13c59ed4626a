package action

import (
	"context"

	"github.com/owlbrowser/core/internal/browserengine"
	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
)

func registerCookieMethods(s *Surface) {
	s.register("getCookies", handleGetCookies)
	s.register("setCookies", handleSetCookies)
	s.register("setCookie", handleSetCookie)
	s.register("clearCookies", handleClearCookies)
}

func handleGetCookies(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	cookies, err := tab.GetCookies(ctx)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	out := make([]map[string]interface{}, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, map[string]interface{}{
			"name": c.Name, "value": c.Value, "domain": c.Domain, "path": c.Path,
			"secure": c.Secure, "http_only": c.HTTPOnly,
		})
	}
	return map[string]interface{}{"cookies": out}, nil
}

func handleSetCookies(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	raw, ok := params["cookies"].([]interface{})
	if !ok || len(raw) == 0 {
		return status.Result(status.InvalidParameter, "cookies is required"), nil
	}
	cookies := make([]browserengine.Cookie, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		c := browserengine.Cookie{
			Name:     stringParam(m, "name"),
			Value:    stringParam(m, "value"),
			Domain:   stringParam(m, "domain"),
			Path:     stringParam(m, "path"),
			Secure:   boolParam(m, "secure"),
			HTTPOnly: boolParam(m, "http_only"),
		}
		cookies = append(cookies, c)
		if s.Contexts != nil {
			s.Contexts.Cookies.Add(bc.ID, contextmgr.Cookie{
				Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path,
				HTTPOnly: c.HTTPOnly, Secure: c.Secure,
			})
		}
	}
	if err := tab.SetCookies(ctx, cookies); err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return status.Result(status.OK, "cookies set"), nil
}

// handleSetCookie sets exactly one cookie, described by top-level
// params rather than the "cookies" list setCookies takes.
func handleSetCookie(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	name := stringParam(params, "name")
	if name == "" {
		return status.Result(status.InvalidParameter, "name is required"), nil
	}
	c := browserengine.Cookie{
		Name:     name,
		Value:    stringParam(params, "value"),
		Domain:   stringParam(params, "domain"),
		Path:     stringParam(params, "path"),
		Secure:   boolParam(params, "secure"),
		HTTPOnly: boolParam(params, "http_only"),
	}
	if err := tab.SetCookies(ctx, []browserengine.Cookie{c}); err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	if s.Contexts != nil {
		s.Contexts.Cookies.Add(bc.ID, contextmgr.Cookie{
			Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path,
			HTTPOnly: c.HTTPOnly, Secure: c.Secure,
		})
	}
	return status.Result(status.OK, "cookie set"), nil
}

func handleClearCookies(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	if err := tab.ClearCookies(ctx); err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	if s.Contexts != nil {
		s.Contexts.Cookies.ClearForContext(bc.ID)
	}
	return status.Result(status.OK, "cookies cleared"), nil
}
