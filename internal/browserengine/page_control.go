package browserengine

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// SetViewport overrides the emulated viewport size and device pixel
// ratio for the tab.
func (t *Tab) SetViewport(ctx context.Context, width, height int, pixelRatio float64, mobile bool) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, emulation.SetDeviceMetricsOverride(int64(width), int64(height), pixelRatio, mobile))
}

// EvaluateJSON runs a JS expression and returns its result decoded into a
// generic interface{}, the primitive behind the raw "evaluate" method.
func (t *Tab) EvaluateJSON(ctx context.Context, expression string) (interface{}, error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var result interface{}
	if err := chromedp.Run(runCtx, chromedp.Evaluate(expression, &result)); err != nil {
		return nil, fmt.Errorf("browserengine: evaluate: %w", err)
	}
	return result, nil
}

// ElementExists reports whether any element matches the selector.
func (t *Tab) ElementExists(ctx context.Context, selector string) (bool, error) {
	script := fmt.Sprintf(`!!document.querySelector(%q)`, selector)
	return t.EvaluateBool(ctx, script)
}

// ElementVisible reports whether the first matching element has a
// non-zero rendered box and isn't hidden via CSS.
func (t *Tab) ElementVisible(ctx context.Context, selector string) (bool, error) {
	script := fmt.Sprintf(`(() => {
  const el = document.querySelector(%q);
  if (!el) return false;
  const r = el.getBoundingClientRect();
  const style = getComputedStyle(el);
  return r.width > 0 && r.height > 0 && style.visibility !== 'hidden' && style.display !== 'none';
})()`, selector)
	return t.EvaluateBool(ctx, script)
}

// GetAttribute reads a single attribute's value, reporting whether it
// was present at all.
func (t *Tab) GetAttribute(ctx context.Context, selector, name string) (string, bool, error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var res struct {
		Value   string `json:"value"`
		Present bool   `json:"present"`
	}
	script := fmt.Sprintf(`(() => {
  const el = document.querySelector(%q);
  if (!el || !el.hasAttribute(%q)) return {value: '', present: false};
  return {value: el.getAttribute(%q), present: true};
})()`, selector, name, name)
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &res)); err != nil {
		return "", false, fmt.Errorf("browserengine: get attribute: %w", err)
	}
	return res.Value, res.Present, nil
}

// SetDialogPolicy overrides window.alert/confirm/prompt so native JS
// dialogs never block the page; confirm/prompt resolve according to
// accept and promptText instead of waiting on a human. The override is
// registered to run before every future document (surviving
// navigation) and applied to the current document immediately.
func (t *Tab) SetDialogPolicy(ctx context.Context, accept bool, promptText string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	script := dialogOverrideJS(accept, promptText)
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
		return err
	}))
	if err != nil {
		return fmt.Errorf("browserengine: register dialog policy: %w", err)
	}
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("browserengine: apply dialog policy: %w", err)
	}
	return nil
}

func dialogOverrideJS(accept bool, promptText string) string {
	return fmt.Sprintf(`(() => {
  window.alert = function() {};
  window.confirm = function() { return %v; };
  window.prompt = function() { return %v ? %q : null; };
})()`, accept, accept, promptText)
}

// GetBoundingBox returns the first matching element's viewport rect.
func (t *Tab) GetBoundingBox(ctx context.Context, selector string) (x, y, width, height float64, err error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var res struct {
		X, Y, Width, Height float64
		Found               bool
	}
	script := fmt.Sprintf(`(() => {
  const el = document.querySelector(%q);
  if (!el) return {X: 0, Y: 0, Width: 0, Height: 0, Found: false};
  const r = el.getBoundingClientRect();
  return {X: r.x, Y: r.y, Width: r.width, Height: r.height, Found: true};
})()`, selector)
	if runErr := chromedp.Run(runCtx, chromedp.Evaluate(script, &res)); runErr != nil {
		return 0, 0, 0, 0, fmt.Errorf("browserengine: bounding box: %w", runErr)
	}
	if !res.Found {
		return 0, 0, 0, 0, fmt.Errorf("browserengine: no element matched selector %q", selector)
	}
	return res.X, res.Y, res.Width, res.Height, nil
}
