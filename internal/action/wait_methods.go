package action

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
)

func registerWaitMethods(s *Surface) {
	s.register("waitForSelector", handleWaitForSelector)
	s.register("waitForTimeout", handleWaitForTimeout)
	s.register("waitForNetworkIdle", handleWaitForNetworkIdle)
	s.register("waitForFunction", handleWaitForFunction)
	s.register("waitForUrl", handleWaitForURL)
}

const pollInterval = 50 * time.Millisecond

func handleWaitForSelector(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	if selector == "" {
		return status.Result(status.InvalidParameter, "selector is required"), nil
	}
	timeout := timeoutParam(params, 30*time.Second)
	deadline := time.Now().Add(timeout)

	for {
		if _, err := tab.Locate(ctx, selector); err == nil {
			return status.Result(status.OK, "selector appeared").WithSelector(selector), nil
		}
		if !time.Now().Before(deadline) {
			return status.Result(status.WaitTimeout, "selector did not appear within timeout").WithSelector(selector), nil
		}
		select {
		case <-ctx.Done():
			return status.Result(status.WaitTimeout, ctx.Err().Error()).WithSelector(selector), nil
		case <-time.After(pollInterval):
		}
	}
}

func handleWaitForTimeout(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	d := timeoutParam(params, time.Second)
	select {
	case <-time.After(d):
		return status.Result(status.OK, "waited"), nil
	case <-ctx.Done():
		return status.Result(status.WaitTimeout, ctx.Err().Error()), nil
	}
}

func handleWaitForNetworkIdle(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	window := s.VerifyNetworkIdleWin
	timeout := timeoutParam(params, 30*time.Second)
	deadline := time.Now().Add(timeout)
	for {
		idle, err := tab.NetworkIdle(ctx, window)
		if err != nil {
			return status.Result(status.InternalError, err.Error()), nil
		}
		if idle {
			return status.Result(status.OK, "network idle"), nil
		}
		if !time.Now().Before(deadline) {
			return status.Result(status.NetworkTimeout, "network did not go idle within timeout"), nil
		}
		select {
		case <-ctx.Done():
			return status.Result(status.NetworkTimeout, ctx.Err().Error()), nil
		case <-time.After(pollInterval):
		}
	}
}

func handleWaitForFunction(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	expr := stringParam(params, "expression")
	if expr == "" {
		return status.Result(status.InvalidParameter, "expression is required"), nil
	}
	script := fmt.Sprintf("(() => { return !!(%s); })()", expr)
	timeout := timeoutParam(params, 30*time.Second)
	deadline := time.Now().Add(timeout)

	for {
		ok, err := tab.EvaluateBool(ctx, script)
		if err == nil && ok {
			return status.Result(status.OK, "condition satisfied"), nil
		}
		if !time.Now().Before(deadline) {
			return status.Result(status.WaitTimeout, "expression did not become true within timeout"), nil
		}
		select {
		case <-ctx.Done():
			return status.Result(status.WaitTimeout, ctx.Err().Error()), nil
		case <-time.After(pollInterval):
		}
	}
}

func handleWaitForURL(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	pattern := stringParam(params, "url_pattern")
	if pattern == "" {
		return status.Result(status.InvalidParameter, "url_pattern is required"), nil
	}
	timeout := timeoutParam(params, 30*time.Second)
	deadline := time.Now().Add(timeout)

	for {
		url, err := tab.CurrentURL(ctx)
		if err == nil && urlMatches(url, pattern) {
			return status.Result(status.OK, "url matched").WithURL(url), nil
		}
		if !time.Now().Before(deadline) {
			return status.Result(status.WaitTimeout, "url did not match pattern within timeout"), nil
		}
		select {
		case <-ctx.Done():
			return status.Result(status.WaitTimeout, ctx.Err().Error()), nil
		case <-time.After(pollInterval):
		}
	}
}

// urlMatches treats pattern as a plain substring match unless it
// contains a glob '*', in which case it's split on the wildcard and
// each non-empty segment must appear in order.
func urlMatches(url, pattern string) bool {
	if !strings.ContainsRune(pattern, '*') {
		return strings.Contains(url, pattern)
	}
	rest := url
	for _, part := range strings.Split(pattern, "*") {
		if part == "" {
			continue
		}
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}
	return true
}
