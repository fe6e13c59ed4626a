package vm

import (
	"strings"
	"testing"
)

func TestEscapeJSHandlesLineAndParagraphSeparators(t *testing.T) {
	in := "a b c"
	got := escapeJS(in)
	if strings.Contains(got, " ") || strings.Contains(got, " ") {
		t.Errorf("escapeJS(%q) = %q, still contains a raw separator", in, got)
	}
	if !strings.Contains(got, ` `) || !strings.Contains(got, ` `) {
		t.Errorf("escapeJS(%q) = %q, expected escaped \\u2028 and \\u2029", in, got)
	}
}

func TestEscapeJSHandlesQuotesAndBackslashes(t *testing.T) {
	got := escapeJS(`it's a "test"\path`)
	if strings.ContainsAny(got, "\n") {
		t.Errorf("unexpected newline in %q", got)
	}
	if !strings.Contains(got, `\'`) {
		t.Errorf("escapeJS did not escape single quote: %q", got)
	}
	if !strings.Contains(got, `\\`) {
		t.Errorf("escapeJS did not escape backslash: %q", got)
	}
}

func TestJsStringWrapsInSingleQuotes(t *testing.T) {
	got := jsString("hello")
	if got != "'hello'" {
		t.Errorf("jsString(%q) = %q, want 'hello'", "hello", got)
	}
}
