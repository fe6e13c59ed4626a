package browserengine

import (
	"strings"
	"testing"
)

func TestDialogOverrideJSAccept(t *testing.T) {
	script := dialogOverrideJS(true, "yes")
	if !strings.Contains(script, "return true") {
		t.Errorf("expected accepting override to return true, got %q", script)
	}
	if !strings.Contains(script, `"yes"`) {
		t.Errorf("expected prompt text to be embedded, got %q", script)
	}
}

func TestDialogOverrideJSDismiss(t *testing.T) {
	script := dialogOverrideJS(false, "")
	if !strings.Contains(script, "return false") {
		t.Errorf("expected dismissing override to return false, got %q", script)
	}
	if !strings.Contains(script, ": null") {
		t.Errorf("expected prompt() to resolve null when dismissed, got %q", script)
	}
}
