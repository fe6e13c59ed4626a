package action

import (
	"context"
	"time"

	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
)

func registerNavigationMethods(s *Surface) {
	s.register("navigate", handleNavigate)
	s.register("reload", handleReload)
	s.register("goBack", handleGoBack)
	s.register("goForward", handleGoForward)
	s.register("canGoBack", handleCanGoBack)
	s.register("canGoForward", handleCanGoForward)
	s.register("waitForNavigation", handleWaitForNavigation)
}

func handleNavigate(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return nil, err
	}
	url := stringParam(params, "url")
	if url == "" {
		return status.Result(status.InvalidParameter, "url is required"), nil
	}

	timeout := timeoutParam(params, 30*time.Second)
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := tab.Navigate(navCtx, url); err != nil {
		if navCtx.Err() != nil {
			return status.Result(status.NavigationTimeout, err.Error()).WithURL(url), nil
		}
		return status.Result(status.NavigationFailed, err.Error()).WithURL(url), nil
	}
	return status.Result(status.OK, "navigated").WithURL(url), nil
}

func handleReload(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return nil, err
	}
	if err := tab.Reload(ctx); err != nil {
		return status.Result(status.PageLoadError, err.Error()), nil
	}
	return status.Result(status.OK, "reloaded"), nil
}

func handleGoBack(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return nil, err
	}
	return tab.GoBack(ctx)
}

func handleGoForward(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return nil, err
	}
	return tab.GoForward(ctx)
}

func handleCanGoBack(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return nil, err
	}
	return tab.CanGoBack(ctx)
}

func handleCanGoForward(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return nil, err
	}
	return tab.CanGoForward(ctx)
}

// handleWaitForNavigation blocks until the DOM has gone quiet for the
// context's configured stability window, or the timeout elapses.
func handleWaitForNavigation(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return nil, err
	}
	timeout := timeoutParam(params, 30*time.Second)
	deadline := time.Now().Add(timeout)
	for {
		stable, err := tab.DOMStable(ctx, s.VerifyDOMStableWin)
		if err == nil && stable {
			url, _ := tab.CurrentURL(ctx)
			return status.Result(status.OK, "navigation settled").WithURL(url), nil
		}
		if !time.Now().Before(deadline) {
			return status.Result(status.NavigationTimeout, "dom did not stabilize within timeout"), nil
		}
		select {
		case <-ctx.Done():
			return status.Result(status.NavigationTimeout, ctx.Err().Error()), nil
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// timeoutParam reads a millisecond timeout param, falling back to def.
// timeoutParam reads an explicit "timeout" (milliseconds) from params,
// falling back to def only when the param is absent, not a number, or
// negative —
// an explicit 0 means "don't wait at all" and must be honored, not
// coerced to the default.
func timeoutParam(params map[string]interface{}, def time.Duration) time.Duration {
	v, ok := params["timeout"]
	if !ok {
		return def
	}
	ms, ok := v.(float64)
	if !ok || ms < 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
