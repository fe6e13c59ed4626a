package verifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/owlbrowser/core/internal/status"
)

type fakeEngine struct {
	locateErr   error
	rect        Rect
	hitSelector string
	observed    bool
	observeErr  error
	networkIdle bool
	domStable   bool
}

func (f *fakeEngine) Locate(ctx context.Context, selector string) (Rect, error) {
	if f.locateErr != nil {
		return Rect{}, f.locateErr
	}
	return f.rect, nil
}

func (f *fakeEngine) HitTest(ctx context.Context, at Rect) (string, error) {
	return f.hitSelector, nil
}

func (f *fakeEngine) Observe(ctx context.Context, timeout time.Duration) (bool, error) {
	return f.observed, f.observeErr
}

func (f *fakeEngine) NetworkIdle(ctx context.Context, window time.Duration) (bool, error) {
	return f.networkIdle, nil
}

func (f *fakeEngine) DOMStable(ctx context.Context, window time.Duration) (bool, error) {
	return f.domStable, nil
}

type fakeFinder struct {
	resolved string
	err      error
}

func (f *fakeFinder) Resolve(ctx context.Context, text, contextID string) (string, error) {
	return f.resolved, f.err
}

func TestResolveSelectorCoordinate(t *testing.T) {
	sel, rect, isCoord, err := ResolveSelector(context.Background(), "100x200", "ctx_1", &fakeFinder{})
	if err != nil {
		t.Fatal(err)
	}
	if !isCoord {
		t.Error("expected coordinate selector to be classified as such")
	}
	if sel != "100x200" {
		t.Errorf("selector = %q", sel)
	}
	if rect.X != 100 || rect.Y != 200 {
		t.Errorf("rect = %+v, want X=100 Y=200", rect)
	}
}

func TestResolveSelectorCSS(t *testing.T) {
	sel, _, isCoord, err := ResolveSelector(context.Background(), "#login-button", "ctx_1", &fakeFinder{})
	if err != nil {
		t.Fatal(err)
	}
	if isCoord {
		t.Error("CSS selector misclassified as coordinate")
	}
	if sel != "#login-button" {
		t.Errorf("selector = %q", sel)
	}
}

func TestResolveSelectorNaturalLanguage(t *testing.T) {
	finder := &fakeFinder{resolved: "button.login"}
	sel, _, isCoord, err := ResolveSelector(context.Background(), "the login button", "ctx_1", finder)
	if err != nil {
		t.Fatal(err)
	}
	if isCoord {
		t.Error("natural-language phrase misclassified as coordinate")
	}
	if sel != "button.login" {
		t.Errorf("selector = %q, want delegation to finder's result", sel)
	}
}

// TestMissingElement mirrors spec scenario 2: click on #nope on a
// blank page returns ElementNotFound with the selector populated.
func TestMissingElement(t *testing.T) {
	v := New(&fakeEngine{locateErr: errors.New("not found")}, 10*time.Millisecond, 500*time.Millisecond, time.Second)
	_, res := v.PreCheck(context.Background(), LevelStandard, "#nope", false, Rect{})
	if res == nil {
		t.Fatal("expected a pre-check failure")
	}
	if res.Status != status.ElementNotFound || res.Success {
		t.Errorf("result = %+v, want element_not_found/success=false", res)
	}
	if res.Selector != "#nope" {
		t.Errorf("Selector = %q, want #nope", res.Selector)
	}
}

func TestClickIntercepted(t *testing.T) {
	v := New(&fakeEngine{hitSelector: "#overlay"}, 10*time.Millisecond, 500*time.Millisecond, time.Second)
	_, res := v.PreCheck(context.Background(), LevelStandard, "#target", false, Rect{})
	if res == nil || res.Status != status.ClickIntercepted {
		t.Fatalf("result = %+v, want click_intercepted", res)
	}
}

// TestVerificationTimeout mirrors spec scenario 4: a click whose
// effect is a deferred network call produces VerificationTimeout with
// Success=true.
func TestVerificationTimeout(t *testing.T) {
	v := New(&fakeEngine{observed: false}, 10*time.Millisecond, 500*time.Millisecond, time.Second)
	res := v.PostCheckClick(context.Background(), "#button", LevelStandard)
	if res.Status != status.VerificationTimeout {
		t.Errorf("Status = %q, want verification_timeout", res.Status)
	}
	if !res.Success {
		t.Error("VerificationTimeout must preserve Success=true")
	}
}

func TestPostCheckClickObservedChange(t *testing.T) {
	v := New(&fakeEngine{observed: true}, 10*time.Millisecond, 500*time.Millisecond, time.Second)
	res := v.PostCheckClick(context.Background(), "#button", LevelStandard)
	if res.Status != status.OK || !res.Success {
		t.Errorf("result = %+v, want ok/success", res)
	}
}

// TestTypePartial mirrors spec scenario 3: an input with maxlength=3
// truncates "abcdef" to "abc".
func TestTypePartial(t *testing.T) {
	res := PostCheckType("abcdef", "abc")
	if res.Status != status.TypePartial || res.Success {
		t.Errorf("result = %+v, want type_partial/success=false", res)
	}
	if res.ErrorCode != "abc" {
		t.Errorf("ErrorCode = %q, want abc", res.ErrorCode)
	}
}

func TestTypeExactMatch(t *testing.T) {
	res := PostCheckType("hello", "hello")
	if res.Status != status.OK || !res.Success {
		t.Errorf("result = %+v, want ok/success", res)
	}
}

func TestTypeFailed(t *testing.T) {
	res := PostCheckType("hello", "xyz")
	if res.Status != status.TypeFailed || res.Success {
		t.Errorf("result = %+v, want type_failed/success=false", res)
	}
}

func TestPickOptionNotFound(t *testing.T) {
	res := PostCheckPick("blue", "red", []string{"red", "green"})
	if res.Status != status.OptionNotFound {
		t.Errorf("Status = %q, want option_not_found", res.Status)
	}
}

func TestPickFailed(t *testing.T) {
	res := PostCheckPick("blue", "red", []string{"red", "blue", "green"})
	if res.Status != status.PickFailed {
		t.Errorf("Status = %q, want pick_failed", res.Status)
	}
}

func TestScrollWithinTolerance(t *testing.T) {
	res := PostCheckScroll(100, 200, 100.5, 199.6)
	if res.Status != status.OK {
		t.Errorf("Status = %q, want ok (within 1px tolerance)", res.Status)
	}
}

func TestScrollFailed(t *testing.T) {
	res := PostCheckScroll(100, 200, 50, 50)
	if res.Status != status.ScrollFailed {
		t.Errorf("Status = %q, want scroll_failed", res.Status)
	}
}

func TestStrictLevelStabilizationFailure(t *testing.T) {
	v := New(&fakeEngine{observed: true, networkIdle: false}, 10*time.Millisecond, 500*time.Millisecond, time.Second)
	res := v.PostCheckClick(context.Background(), "#button", LevelStrict)
	if res.Status != status.NetworkTimeout {
		t.Errorf("Status = %q, want network_timeout", res.Status)
	}
}

func TestParseLevelDefaultsToStandard(t *testing.T) {
	l, err := ParseLevel("")
	if err != nil {
		t.Fatal(err)
	}
	if l != LevelStandard {
		t.Errorf("ParseLevel(\"\") = %v, want LevelStandard", l)
	}
}

func TestParseLevelUnknown(t *testing.T) {
	if _, err := ParseLevel("bogus"); err == nil {
		t.Error("expected error for unknown verification level")
	}
}
