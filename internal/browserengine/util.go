package browserengine

import (
	"context"
	"encoding/json"

	"github.com/chromedp/chromedp"
)

// withCallerDeadline derives a context from the tab's long-lived
// chromedp context that also respects the caller's deadline, so a
// per-command timeout cancels the underlying CDP call instead of only
// the caller's own bookkeeping.
func withCallerDeadline(tabCtx, caller context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := caller.Deadline(); ok {
		return context.WithDeadline(tabCtx, deadline)
	}
	return context.WithCancel(tabCtx)
}

// encodeStringMap renders a map as a JS object literal suitable for
// direct substitution into an injected script.
func encodeStringMap(kv map[string]string) (string, error) {
	b, err := json.Marshal(kv)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EvaluateBool runs a JS expression expected to resolve to a boolean,
// the shared primitive behind highlight/overlay style handlers that
// report whether their target element existed.
func (t *Tab) EvaluateBool(ctx context.Context, script string) (bool, error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var result bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &result)); err != nil {
		return false, err
	}
	return result, nil
}
