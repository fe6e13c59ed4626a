// Package finder resolves a natural-language element description to a
// CSS selector. It is kept as a narrow pluggable trait rather than a
// method on the verifier so a production implementation backed by an
// LLM collaborator can be swapped in without touching dispatch code.
package finder

import (
	"context"
	"fmt"
	"strings"
)

// Resolver resolves free-text describing an element into a CSS
// selector scoped to a context's current page.
type Resolver interface {
	Resolve(ctx context.Context, text string, contextID string) (string, error)
}

// TrivialResolver is a deterministic, pattern-matching implementation
// good enough for tests: it recognizes a handful of common phrases and
// falls back to a text-based XPath guess (not CSS) for anything else.
type TrivialResolver struct{}

var phraseSelectors = map[string]string{
	"the login button":    `button[type="submit"], button.login, #login`,
	"the submit button":   `button[type="submit"]`,
	"the search box":      `input[type="search"], input[name="q"]`,
	"the username field":  `input[name="username"], input[type="email"]`,
	"the password field":  `input[type="password"]`,
	"the accept cookies button": `button[id*="accept" i], button[class*="accept" i]`,
}

// Resolve matches text against a small table of known phrases; any
// other text becomes a best-effort XPath matching elements whose text
// contains it.
func (TrivialResolver) Resolve(ctx context.Context, text string, contextID string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if sel, ok := phraseSelectors[key]; ok {
		return sel, nil
	}
	return fmt.Sprintf(`//*[contains(text(), %q)]`, text), nil
}

// NullResolver always errors. It is the production wiring point when
// no LLM collaborator is configured: callers see a clear failure
// instead of a silently wrong guess.
type NullResolver struct{}

func (NullResolver) Resolve(ctx context.Context, text string, contextID string) (string, error) {
	return "", fmt.Errorf("finder: no natural-language resolver configured for %q", text)
}
