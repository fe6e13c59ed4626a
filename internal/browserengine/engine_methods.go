package browserengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/owlbrowser/core/internal/verifier"
)

// rectScript evaluates a selector's bounding rect and visibility via
// getBoundingClientRect plus a computed-style check, returning a
// single JSON-serializable result so one round trip suffices.
const rectScript = `(() => {
  const el = document.querySelector(%q);
  if (!el) return {found: false};
  const all = document.querySelectorAll(%q);
  const r = el.getBoundingClientRect();
  const style = window.getComputedStyle(el);
  const visible = style.display !== 'none' && style.visibility !== 'hidden' && r.width > 0 && r.height > 0;
  return {found: true, count: all.length, x: r.x + r.width/2, y: r.y + r.height/2, width: r.width, height: r.height, visible: visible};
})()`

type rectResult struct {
	Found   bool    `json:"found"`
	Count   int     `json:"count"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Visible bool    `json:"visible"`
}

// Locate implements verifier.Engine.
func (t *Tab) Locate(ctx context.Context, selector string) (verifier.Rect, error) {
	var res rectResult
	script := fmt.Sprintf(rectScript, selector, selector)
	if err := chromedp.Run(t.tabCtx, chromedp.Evaluate(script, &res)); err != nil {
		if isInvalidSelectorErr(err) {
			return verifier.Rect{}, fmt.Errorf("invalid_selector: %s: %w", selector, err)
		}
		return verifier.Rect{}, err
	}
	if !res.Found {
		return verifier.Rect{}, fmt.Errorf("not_found: %s", selector)
	}
	if res.Count > 1 {
		return verifier.Rect{}, fmt.Errorf("multiple: %s matched %d elements", selector, res.Count)
	}
	if !res.Visible {
		return verifier.Rect{}, fmt.Errorf("not_visible: %s", selector)
	}
	return verifier.Rect{X: res.X, Y: res.Y, Width: res.Width, Height: res.Height}, nil
}

func isInvalidSelectorErr(err error) bool {
	// chromedp surfaces a DOMException text for malformed selectors; we
	// match loosely since cdproto doesn't expose a typed variant.
	return err != nil && (strings.Contains(err.Error(), "SyntaxError") || strings.Contains(err.Error(), "is not a valid selector"))
}

const hitTestScript = `(() => {
  const el = document.elementFromPoint(%f, %f);
  if (!el) return '';
  if (el.id) return '#' + el.id;
  if (el.className && typeof el.className === 'string') return el.tagName.toLowerCase() + '.' + el.className.split(' ').join('.');
  return el.tagName.toLowerCase();
})()`

// HitTest implements verifier.Engine.
func (t *Tab) HitTest(ctx context.Context, at verifier.Rect) (string, error) {
	var sel string
	script := fmt.Sprintf(hitTestScript, at.X, at.Y)
	if err := chromedp.Run(t.tabCtx, chromedp.Evaluate(script, &sel)); err != nil {
		return "", err
	}
	return sel, nil
}

// Observe implements verifier.Engine: polls for DOM mutation or URL
// change within the timeout window. Focus changes are not observed.
func (t *Tab) Observe(ctx context.Context, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	baseline := loadTime(&t.lastDOMMutation)
	baseURL, urlErr := t.CurrentURL(ctx)
	for time.Now().Before(deadline) {
		if loadTime(&t.lastDOMMutation).After(baseline) {
			return true, nil
		}
		if urlErr == nil {
			if u, err := t.CurrentURL(ctx); err == nil && u != baseURL {
				return true, nil
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false, nil
}

// NetworkIdle implements verifier.Engine: true if no network byte has
// arrived for at least window.
func (t *Tab) NetworkIdle(ctx context.Context, window time.Duration) (bool, error) {
	last := loadTime(&t.lastNetworkByte)
	if last.IsZero() {
		return true, nil
	}
	return time.Since(last) >= window, nil
}

// DOMStable implements verifier.Engine: true if no DOM mutation has
// occurred for at least window.
func (t *Tab) DOMStable(ctx context.Context, window time.Duration) (bool, error) {
	last := loadTime(&t.lastDOMMutation)
	if last.IsZero() {
		return true, nil
	}
	return time.Since(last) >= window, nil
}
