package finder

import (
	"context"
	"strings"
	"testing"
)

func TestTrivialResolverKnownPhrase(t *testing.T) {
	sel, err := TrivialResolver{}.Resolve(context.Background(), "the login button", "ctx_1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sel, "login") {
		t.Errorf("selector = %q, want it to reference login", sel)
	}
}

func TestTrivialResolverUnknownPhraseFallsBack(t *testing.T) {
	sel, err := TrivialResolver{}.Resolve(context.Background(), "the big red dragon", "ctx_1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sel, "dragon") {
		t.Errorf("fallback selector = %q, want it to reference the original text", sel)
	}
}

func TestNullResolverAlwaysErrors(t *testing.T) {
	if _, err := (NullResolver{}).Resolve(context.Background(), "anything", "ctx_1"); err == nil {
		t.Error("expected NullResolver to always error")
	}
}
