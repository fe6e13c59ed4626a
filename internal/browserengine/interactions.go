package browserengine

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// FieldValue reads an input or textarea's current value, the basis
// for the type/clear post-check contract.
func (t *Tab) FieldValue(ctx context.Context, selector string) (string, error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var val string
	script := fmt.Sprintf(`(() => { const el = document.querySelector(%q); return el ? (el.value ?? '') : ''; })()`, selector)
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &val)); err != nil {
		return "", fmt.Errorf("browserengine: field value: %w", err)
	}
	return val, nil
}

// SelectedValue reads a <select>'s currently chosen value plus the
// full option list, so the caller can tell "wrong value" from
// "option doesn't exist."
func (t *Tab) SelectedValue(ctx context.Context, selector string) (string, []string, error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var res struct {
		Value   string   `json:"value"`
		Options []string `json:"options"`
	}
	script := fmt.Sprintf(`(() => {
  const el = document.querySelector(%q);
  if (!el) return {value: '', options: []};
  return {value: el.value, options: Array.from(el.options || []).map(o => o.value)};
})()`, selector)
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &res)); err != nil {
		return "", nil, fmt.Errorf("browserengine: selected value: %w", err)
	}
	return res.Value, res.Options, nil
}

// ActiveElementMatches reports whether document.activeElement matches
// the given selector, the focus/blur post-check primitive.
func (t *Tab) ActiveElementMatches(ctx context.Context, selector string) (bool, error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var matches bool
	script := fmt.Sprintf(`(() => { const el = document.querySelector(%q); return !!el && document.activeElement === el; })()`, selector)
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &matches)); err != nil {
		return false, fmt.Errorf("browserengine: active element: %w", err)
	}
	return matches, nil
}

// Focus moves focus to the target element.
func (t *Tab) Focus(ctx context.Context, selector string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.Focus(selector))
}

// Blur removes focus from the target element.
func (t *Tab) Blur(ctx context.Context, selector string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	script := fmt.Sprintf(`(() => { const el = document.querySelector(%q); if (el) el.blur(); })()`, selector)
	return chromedp.Run(runCtx, chromedp.Evaluate(script, nil))
}

// SelectAll focuses the field and selects its full value, mirroring
// what a Ctrl/Cmd+A keystroke does without depending on the platform
// modifier the host OS expects.
func (t *Tab) SelectAll(ctx context.Context, selector string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	script := fmt.Sprintf(`(() => { const el = document.querySelector(%q); if (el && el.select) { el.focus(); el.select(); } })()`, selector)
	return chromedp.Run(runCtx, chromedp.Evaluate(script, nil))
}

// ClearField empties an input/textarea's value directly, the state a
// real "select all, delete" sequence converges on.
func (t *Tab) ClearField(ctx context.Context, selector string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	script := fmt.Sprintf(`(() => {
  const el = document.querySelector(%q);
  if (!el) return;
  el.focus();
  el.value = '';
  el.dispatchEvent(new Event('input', {bubbles: true}));
  el.dispatchEvent(new Event('change', {bubbles: true}));
})()`, selector)
	return chromedp.Run(runCtx, chromedp.Evaluate(script, nil))
}

// Pick sets a <select>'s value and fires a change event.
func (t *Tab) Pick(ctx context.Context, selector, value string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.SetValue(selector, value))
}

// dispatchMouseJS fires a synthetic MouseEvent of the given type at
// (x, y) against whatever element is at that point, the primitive
// every pointer action below composes. Driving input through the page
// itself rather than a platform-level injector keeps this file free
// of any CDP input-domain surface this codebase can't verify against
// real source.
func dispatchMouseJS(ctx context.Context, evtType string, x, y float64, button int) error {
	script := fmt.Sprintf(`(() => {
  const el = document.elementFromPoint(%f, %f);
  if (!el) return;
  el.dispatchEvent(new MouseEvent(%q, {bubbles: true, cancelable: true, clientX: %f, clientY: %f, button: %d}));
})()`, x, y, evtType, x, y, button)
	return chromedp.Run(ctx, chromedp.Evaluate(script, nil))
}

// Hover moves the mouse over the target element's center without
// pressing a button.
func (t *Tab) Hover(ctx context.Context, selector string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	r, err := t.Locate(runCtx, selector)
	if err != nil {
		return err
	}
	return dispatchMouseJS(runCtx, "mousemove", r.X, r.Y, 0)
}

// MouseMove moves the mouse to the given viewport coordinates without
// clicking.
func (t *Tab) MouseMove(ctx context.Context, x, y float64) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	return dispatchMouseJS(runCtx, "mousemove", x, y, 0)
}

// DoubleClick dispatches a double click at the given coordinates.
func (t *Tab) DoubleClick(ctx context.Context, x, y float64) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	for _, evt := range []string{"mousedown", "mouseup", "mousedown", "mouseup", "dblclick"} {
		if err := dispatchMouseJS(runCtx, evt, x, y, 0); err != nil {
			return err
		}
	}
	return nil
}

// RightClick dispatches a context-menu (right button) click.
func (t *Tab) RightClick(ctx context.Context, x, y float64) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	for _, evt := range []string{"mousedown", "mouseup", "contextmenu"} {
		if err := dispatchMouseJS(runCtx, evt, x, y, 2); err != nil {
			return err
		}
	}
	return nil
}

// Modifier bit values for a parsed key combo. Arbitrary but stable;
// only parseCombo and KeyboardCombo interpret them.
const (
	modAlt   int64 = 1
	modCtrl  int64 = 2
	modMeta  int64 = 4
	modShift int64 = 8
)

// KeyboardCombo sends a modifier+key combination (e.g. ctrl+a,
// cmd+shift+z) to whatever element currently has focus.
func (t *Tab) KeyboardCombo(ctx context.Context, combo string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	mod, key := parseCombo(combo)
	script := fmt.Sprintf(`(() => {
  const el = document.activeElement || document.body;
  const opts = {bubbles: true, cancelable: true, key: %q, altKey: %v, ctrlKey: %v, metaKey: %v, shiftKey: %v};
  el.dispatchEvent(new KeyboardEvent('keydown', opts));
  el.dispatchEvent(new KeyboardEvent('keyup', opts));
})()`, key, mod&modAlt != 0, mod&modCtrl != 0, mod&modMeta != 0, mod&modShift != 0)
	return chromedp.Run(runCtx, chromedp.Evaluate(script, nil))
}

// DragDrop drags from one point to another using a synthetic mouse
// press, a series of intermediate moves, and a release, the sequence
// HTML5 drag handlers and custom drag widgets both observe.
func (t *Tab) DragDrop(ctx context.Context, fromX, fromY, toX, toY float64) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	const steps = 10
	if err := dispatchMouseJS(runCtx, "mousedown", fromX, fromY, 0); err != nil {
		return err
	}
	for i := 1; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		x := fromX + (toX-fromX)*frac
		y := fromY + (toY-fromY)*frac
		if err := dispatchMouseJS(runCtx, "mousemove", x, y, 0); err != nil {
			return err
		}
	}
	return dispatchMouseJS(runCtx, "mouseup", toX, toY, 0)
}

// UploadFile sets a file input's selected files via CDP's
// DOM.setFileInputFiles, the only way to feed a file chooser without
// a real OS dialog.
func (t *Tab) UploadFile(ctx context.Context, selector string, paths []string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.SetUploadFiles(selector, paths))
}

// ScrollTo scrolls the page to an absolute position.
func (t *Tab) ScrollTo(ctx context.Context, x, y float64) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	script := fmt.Sprintf(`window.scrollTo(%f, %f)`, x, y)
	return chromedp.Run(runCtx, chromedp.Evaluate(script, nil))
}

// ScrollBy scrolls the page by a relative offset.
func (t *Tab) ScrollBy(ctx context.Context, dx, dy float64) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	script := fmt.Sprintf(`window.scrollBy(%f, %f)`, dx, dy)
	return chromedp.Run(runCtx, chromedp.Evaluate(script, nil))
}

// ScrollIntoView scrolls the target element into the viewport.
func (t *Tab) ScrollIntoView(ctx context.Context, selector string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	script := fmt.Sprintf(`(() => { const el = document.querySelector(%q); if (el) el.scrollIntoView({block: 'center', inline: 'center'}); })()`, selector)
	return chromedp.Run(runCtx, chromedp.Evaluate(script, nil))
}

// ScrollPosition reads the current scroll offset.
func (t *Tab) ScrollPosition(ctx context.Context) (float64, float64, error) {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	var res struct{ X, Y float64 }
	if err := chromedp.Run(runCtx, chromedp.Evaluate(`({X: window.scrollX, Y: window.scrollY})`, &res)); err != nil {
		return 0, 0, fmt.Errorf("browserengine: scroll position: %w", err)
	}
	return res.X, res.Y, nil
}

// Submit submits the form owning or enclosing the given element, via
// requestSubmit when available and form.submit otherwise. It does
// nothing if the element is not inside a form.
func (t *Tab) Submit(ctx context.Context, selector string) error {
	runCtx, cancel := withCallerDeadline(t.tabCtx, ctx)
	defer cancel()
	script := fmt.Sprintf(`(() => {
  const el = document.querySelector(%q);
  const form = el && (el.form || el.closest('form'));
  if (form) { form.requestSubmit ? form.requestSubmit() : form.submit(); }
})()`, selector)
	return chromedp.Run(runCtx, chromedp.Evaluate(script, nil))
}

// parseCombo splits a "ctrl+shift+z" style combo into CDP key
// modifier bits and the trailing key name.
func parseCombo(combo string) (int64, string) {
	var mod int64
	key := combo
	for {
		idx := indexOfByte(key, '+')
		if idx < 0 {
			break
		}
		switch toLowerASCII(key[:idx]) {
		case "alt":
			mod |= modAlt
		case "ctrl", "control":
			mod |= modCtrl
		case "meta", "cmd", "command":
			mod |= modMeta
		case "shift":
			mod |= modShift
		}
		key = key[idx+1:]
	}
	return mod, key
}

func indexOfByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func toLowerASCII(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'A' && c <= 'Z' {
			out[i] = c + 32
		}
	}
	return string(out)
}
