// Package verifier gates every interaction with a pre-check and,
// depending on verification level, a post-check, converting DOM
// observations into a structured status.ActionResult.
package verifier

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/owlbrowser/core/internal/status"
)

// Level is the policy knob controlling how thoroughly the verifier
// checks an action.
type Level int

const (
	LevelNone Level = iota
	LevelBasic
	LevelStandard // default
	LevelStrict
)

// ParseLevel converts a wire-level string to a Level, defaulting to
// LevelStandard for an empty string per the spec's default.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "":
		return LevelStandard, nil
	case "none":
		return LevelNone, nil
	case "basic":
		return LevelBasic, nil
	case "standard":
		return LevelStandard, nil
	case "strict":
		return LevelStrict, nil
	default:
		return LevelNone, fmt.Errorf("unknown verification level %q", s)
	}
}

// Rect is an element's bounding rectangle in viewport coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Engine is a dependency-injected collaborator seam: everything it
// needs from the live page (element geometry, hit-testing, DOM/URL
// observation) is supplied by the out-of-scope browser engine through
// this narrow interface, so the verifier's control flow is testable
// without a real browser.
type Engine interface {
	// Locate resolves a CSS selector to a bounding rect, or an error
	// wrapping one of ElementNotFound/ElementNotVisible/InvalidSelector/
	// MultipleElements.
	Locate(ctx context.Context, selector string) (Rect, error)
	// HitTest returns the selector of whatever element is actually at
	// the rect's centroid, for click-interception detection.
	HitTest(ctx context.Context, at Rect) (string, error)
	// Observe waits up to timeout for a focus change, URL change, or
	// DOM mutation; returns true if one occurred.
	Observe(ctx context.Context, timeout time.Duration) (bool, error)
	// NetworkIdle reports whether there has been no network activity
	// for window.
	NetworkIdle(ctx context.Context, window time.Duration) (bool, error)
	// DOMStable reports whether there has been no DOM mutation for
	// window.
	DOMStable(ctx context.Context, window time.Duration) (bool, error)
}

// coordinateSelector matches the "<x>x<y>" coordinate-click form.
var coordinateSelector = regexp.MustCompile(`^(\d+)x(\d+)$`)

// cssMetaChars is a rough heuristic for "looks like CSS, not prose":
// any of these characters routes a bare string to CSS rather than to
// the natural-language finder.
var cssMetaChars = regexp.MustCompile(`[#.\[\]>:=]`)

// Finder resolves a natural-language description to a CSS selector.
type Finder interface {
	Resolve(ctx context.Context, text string, contextID string) (string, error)
}

// ResolveSelector classifies a raw selector per the spec's grammar: a
// coordinate pair routes directly; anything containing CSS
// metacharacters is treated as CSS; everything else is delegated to
// the finder.
func ResolveSelector(ctx context.Context, raw string, contextID string, finder Finder) (string, Rect, bool, error) {
	if m := coordinateSelector.FindStringSubmatch(raw); m != nil {
		x, _ := strconv.ParseFloat(m[1], 64)
		y, _ := strconv.ParseFloat(m[2], 64)
		return raw, Rect{X: x, Y: y, Width: 1, Height: 1}, true, nil
	}
	if cssMetaChars.MatchString(raw) {
		return raw, Rect{}, false, nil
	}
	resolved, err := finder.Resolve(ctx, raw, contextID)
	if err != nil {
		return "", Rect{}, false, err
	}
	return resolved, Rect{}, false, nil
}

// Verifier runs pre-checks and post-checks around a dispatched action.
type Verifier struct {
	engine         Engine
	postTimeout    time.Duration
	networkIdleWin time.Duration
	domStableWin   time.Duration
}

// New constructs a Verifier. postTimeout is the default post-check
// budget (spec default 10ms); networkIdleWin/domStableWin are the
// STRICT-mode stabilization windows (spec source defaults: 500ms
// network-idle, 1000ms DOM-stable), made configurable per the spec's
// open question.
func New(engine Engine, postTimeout, networkIdleWin, domStableWin time.Duration) *Verifier {
	return &Verifier{
		engine:         engine,
		postTimeout:    postTimeout,
		networkIdleWin: networkIdleWin,
		domStableWin:   domStableWin,
	}
}

// PreCheck resolves a selector, already-coordinate or CSS, against the
// current page, applying the checks a given Level requires before an
// action may be dispatched.
func (v *Verifier) PreCheck(ctx context.Context, level Level, selector string, isCoordinate bool, rect Rect) (Rect, *status.ActionResult) {
	if level == LevelNone {
		return rect, nil
	}
	if isCoordinate {
		return rect, nil
	}

	r, err := v.engine.Locate(ctx, selector)
	if err != nil {
		res := classifyLocateError(selector, err)
		return Rect{}, &res
	}

	if level == LevelBasic {
		return r, nil
	}

	// STANDARD and STRICT: hit-test the centroid for interception.
	hit, err := v.engine.HitTest(ctx, r)
	if err == nil && hit != "" && hit != selector {
		res := status.Result(status.ClickIntercepted, fmt.Sprintf("element %q intercepted by %q", selector, hit)).WithSelector(hit)
		return Rect{}, &res
	}
	return r, nil
}

func classifyLocateError(selector string, err error) status.ActionResult {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not_visible"):
		return status.Result(status.ElementNotVisible, msg).WithSelector(selector)
	case strings.Contains(msg, "not_interactable"):
		return status.Result(status.ElementNotInteractable, msg).WithSelector(selector)
	case strings.Contains(msg, "multiple"):
		return status.Result(status.MultipleElements, msg).WithSelector(selector)
	case strings.Contains(msg, "invalid_selector"):
		return status.Result(status.InvalidSelector, msg).WithSelector(selector)
	default:
		return status.Result(status.ElementNotFound, msg).WithSelector(selector)
	}
}

// PostCheckClick implements the click post-check contract: within
// postTimeout, verify a focus change, URL change, or DOM mutation.
// No observable change within the timeout still counts as a likely
// success (VerificationTimeout preserves Success=true).
func (v *Verifier) PostCheckClick(ctx context.Context, selector string, level Level) status.ActionResult {
	if level < LevelStandard {
		return status.Result(status.OK, "click dispatched")
	}
	changed, err := v.engine.Observe(ctx, v.postTimeout)
	if err != nil {
		return status.Result(status.InternalError, err.Error())
	}
	if !changed {
		return status.Result(status.VerificationTimeout, "no observable change within post-check timeout")
	}
	if level == LevelStrict {
		if r := v.awaitStabilization(ctx); r != nil {
			return *r
		}
	}
	return status.Result(status.OK, "click verified")
}

// awaitStabilization waits for STRICT's DOM/network stabilization
// windows; returns a non-nil result only on failure to stabilize.
func (v *Verifier) awaitStabilization(ctx context.Context) *status.ActionResult {
	idle, err := v.engine.NetworkIdle(ctx, v.networkIdleWin)
	if err != nil {
		r := status.Result(status.InternalError, err.Error())
		return &r
	}
	if !idle {
		r := status.Result(status.NetworkTimeout, "network did not go idle")
		return &r
	}
	stable, err := v.engine.DOMStable(ctx, v.domStableWin)
	if err != nil {
		r := status.Result(status.InternalError, err.Error())
		return &r
	}
	if !stable {
		r := status.Result(status.WaitTimeout, "DOM did not stabilize")
		return &r
	}
	return nil
}

// PostCheckType re-reads the field value: equal to expected is
// success; a prefix of expected is TypePartial (e.g. maxlength
// truncation); anything else is TypeFailed.
func PostCheckType(expected, actual string) status.ActionResult {
	if actual == expected {
		return status.Result(status.OK, "type verified")
	}
	if strings.HasPrefix(expected, actual) && actual != "" {
		return status.Result(status.TypePartial, "field truncated").WithErrorCode(actual)
	}
	return status.Result(status.TypeFailed, fmt.Sprintf("expected %q, got %q", expected, actual))
}

// PostCheckPick re-reads the selected value: equal to expected is
// success; expected absent among options is OptionNotFound; any other
// mismatch is PickFailed.
func PostCheckPick(expected, actual string, options []string) status.ActionResult {
	if actual == expected {
		return status.Result(status.OK, "pick verified")
	}
	for _, o := range options {
		if o == expected {
			return status.Result(status.PickFailed, fmt.Sprintf("expected %q, got %q", expected, actual))
		}
	}
	return status.Result(status.OptionNotFound, fmt.Sprintf("option %q not present", expected))
}

// PostCheckFocus reports whether document.activeElement matches the
// target selector.
func PostCheckFocus(matches bool) status.ActionResult {
	if matches {
		return status.Result(status.OK, "focus verified")
	}
	return status.Result(status.FocusFailed, "active element does not match target")
}

// PostCheckBlur reports whether document.activeElement no longer
// matches the target selector.
func PostCheckBlur(stillFocused bool) status.ActionResult {
	if !stillFocused {
		return status.Result(status.OK, "blur verified")
	}
	return status.Result(status.BlurFailed, "element still focused")
}

// PostCheckClear reports whether the field's value length is zero.
func PostCheckClear(valueLen int) status.ActionResult {
	if valueLen == 0 {
		return status.Result(status.OK, "clear verified")
	}
	return status.Result(status.ClearFailed, "field not empty after clear")
}

// PostCheckScroll reports whether the scroll position moved by the
// requested delta within one pixel, or reached the requested absolute
// position.
func PostCheckScroll(wantX, wantY, gotX, gotY float64) status.ActionResult {
	if abs(wantX-gotX) <= 1 && abs(wantY-gotY) <= 1 {
		return status.Result(status.OK, "scroll verified")
	}
	return status.Result(status.ScrollFailed, fmt.Sprintf("wanted (%.0f,%.0f), got (%.0f,%.0f)", wantX, wantY, gotX, gotY))
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
