package browserengine

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/owlbrowser/core/internal/vm"
)

// Navigate loads a URL and waits for the load event.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.Navigate(url))
}

// Reload refreshes the current page.
func (t *Tab) Reload(ctx context.Context) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.Reload())
}

// GoBack navigates to the previous history entry, reporting whether
// one existed.
func (t *Tab) GoBack(ctx context.Context) (bool, error) {
	return t.navigateHistory(ctx, -1)
}

// GoForward navigates to the next history entry, reporting whether one existed.
func (t *Tab) GoForward(ctx context.Context) (bool, error) {
	return t.navigateHistory(ctx, 1)
}

// CanGoBack reports whether a previous history entry exists.
func (t *Tab) CanGoBack(ctx context.Context) (bool, error) {
	idx, _, err := t.history(ctx)
	if err != nil {
		return false, err
	}
	return idx > 0, nil
}

// CanGoForward reports whether a next history entry exists.
func (t *Tab) CanGoForward(ctx context.Context) (bool, error) {
	idx, entries, err := t.history(ctx)
	if err != nil {
		return false, err
	}
	return idx < len(entries)-1, nil
}

func (t *Tab) history(ctx context.Context) (int, []*page.NavigationEntry, error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var idx int64
	var entries []*page.NavigationEntry
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		idx, entries, err = page.GetNavigationHistory().Do(ctx)
		return err
	}))
	if err != nil {
		return 0, nil, fmt.Errorf("browserengine: navigation history: %w", err)
	}
	return int(idx), entries, nil
}

func (t *Tab) navigateHistory(ctx context.Context, delta int) (bool, error) {
	idx, entries, err := t.history(ctx)
	if err != nil {
		return false, err
	}
	target := idx + delta
	if target < 0 || target >= len(entries) {
		return false, nil
	}
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, page.NavigateToHistoryEntry(entries[target].ID)); err != nil {
		return false, fmt.Errorf("browserengine: navigate history: %w", err)
	}
	return true, nil
}

// CurrentURL returns the tab's current location.
func (t *Tab) CurrentURL(ctx context.Context) (string, error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var url string
	if err := chromedp.Run(runCtx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("browserengine: current url: %w", err)
	}
	return url, nil
}

// Click dispatches a real mouse click at the given viewport coordinates.
func (t *Tab) Click(ctx context.Context, x, y float64) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.MouseClickXY(x, y))
}

// TypeText sends the given text as individual key events to the element
// matching selector.
func (t *Tab) TypeText(ctx context.Context, selector, text string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.SendKeys(selector, text))
}

// Screenshot captures the current viewport as PNG bytes.
func (t *Tab) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("browserengine: screenshot: %w", err)
	}
	return buf, nil
}

// OuterHTML returns the full page's outer HTML, the foundation for
// goquery-based content extraction in the action dispatcher.
func (t *Tab) OuterHTML(ctx context.Context) (string, error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("browserengine: outer html: %w", err)
	}
	return html, nil
}

// Cookie mirrors the wire cookie shape the action surface accepts/returns.
type Cookie struct {
	Name, Value, Domain, Path string
	Secure, HTTPOnly          bool
}

// SetCookies applies cookies to the tab's current origin.
func (t *Tab) SetCookies(ctx context.Context, cookies []Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &network.CookieParam{
			Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path,
			Secure: c.Secure, HTTPOnly: c.HTTPOnly,
		})
	}
	if len(params) == 0 {
		return nil
	}
	return chromedp.Run(t.tabCtx, network.SetCookies(params))
}

// GetCookies returns all cookies visible to the tab's current origin.
func (t *Tab) GetCookies(ctx context.Context) ([]Cookie, error) {
	var raw []*network.Cookie
	err := chromedp.Run(t.tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("browserengine: get cookies: %w", err)
	}
	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path, Secure: c.Secure, HTTPOnly: c.HTTPOnly})
	}
	return cookies, nil
}

// ClearCookies removes every cookie visible to this tab.
func (t *Tab) ClearCookies(ctx context.Context) error {
	return chromedp.Run(t.tabCtx, network.ClearBrowserCookies())
}

const setLocalStorageJSTemplate = `(() => { const kv = %s; for (const k in kv) { window.localStorage.setItem(k, kv[k]); } })()`

// SetLocalStorage writes key/value pairs into the tab's localStorage.
func (t *Tab) SetLocalStorage(ctx context.Context, kv map[string]string) error {
	encoded, err := encodeStringMap(kv)
	if err != nil {
		return err
	}
	script := fmt.Sprintf(setLocalStorageJSTemplate, encoded)
	return chromedp.Run(t.tabCtx, chromedp.Evaluate(script, nil))
}

const getLocalStorageJS = `(() => { const d = {}; for (let i = 0; i < localStorage.length; i++) { const k = localStorage.key(i); d[k] = localStorage.getItem(k); } return d; })()`

// GetLocalStorage reads every key/value pair out of the tab's localStorage.
func (t *Tab) GetLocalStorage(ctx context.Context) (map[string]string, error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var out map[string]string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(getLocalStorageJS, &out)); err != nil {
		return nil, fmt.Errorf("browserengine: get local storage: %w", err)
	}
	return out, nil
}

// ApplyIdentity installs the per-context virtual machine's fingerprint
// overrides via CDP's pre-navigation script-injection hook, so it
// takes effect before any page script runs, and sets the user agent and
// accept-language at the protocol level rather than by patching navigator
// after the fact (which leaves a detectable gap at load time).
func (t *Tab) ApplyIdentity(ctx context.Context, identity *vm.VirtualMachine) error {
	return chromedp.Run(t.tabCtx,
		page.AddScriptToEvaluateOnNewDocument(identity.InjectionScript()),
		network.SetUserAgentOverride(identity.Browser.UserAgent).
			WithAcceptLanguage(identity.Language.Primary),
	)
}
