// Package detector classifies a navigation response as a firewall
// challenge or a captcha challenge. The spec leaves the exact
// heuristics unspecified and asks for them to be "a detector module
// whose rules are data, not code" — so detection is a plain ordered
// table of regex/status signatures, not branching logic, and can be
// updated without touching the caller.
package detector

import (
	"regexp"
	"strings"

	"github.com/owlbrowser/core/internal/status"
)

// maxBodyLen bounds how much of a response body is regex-matched, to
// keep detection cheap and avoid pathological backtracking on large
// HTML documents.
const maxBodyLen = 100 * 1024

// Rule is one detection signature: a compiled pattern, an optional
// HTTP status range, and the status code to report when it matches.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	MinStatus   int // 0 = no lower bound
	MaxStatus   int // 0 = no upper bound
	Code        status.Code
	Description string
}

// Info is the outcome of a Detect call.
type Info struct {
	Detected    bool
	Name        string
	Code        status.Code
	Description string
}

// rules is ordered most-specific first: a body pattern match takes
// priority over the generic HTTP-status fallback below.
var rules = []Rule{
	{
		Name:        "captcha_challenge",
		Pattern:     regexp.MustCompile(`(?i)(captcha|hcaptcha|recaptcha|challenge-platform|turnstile)`),
		Code:        status.CaptchaDetected,
		Description: "CAPTCHA or bot-challenge markup present",
	},
	{
		Name:        "cloudflare_block",
		Pattern:     regexp.MustCompile(`(?i)(cloudflare|cf-browser-verification|attention required)`),
		MinStatus:   400,
		MaxStatus:   599,
		Code:        status.FirewallDetected,
		Description: "Cloudflare interstitial or block page",
	},
	{
		Name:        "generic_waf_block",
		Pattern:     regexp.MustCompile(`(?i)(access\s{1,3}denied|request\s{1,3}blocked|web\s{1,3}application\s{1,3}firewall)`),
		MinStatus:   400,
		MaxStatus:   599,
		Code:        status.FirewallDetected,
		Description: "generic WAF block page",
	},
}

// Detect analyzes an HTTP status code and response body for firewall
// or captcha signatures. Body is truncated to maxBodyLen first.
func Detect(httpStatus int, body string) Info {
	if len(body) > maxBodyLen {
		body = body[:maxBodyLen]
	}

	for _, r := range rules {
		if !r.Pattern.MatchString(body) {
			continue
		}
		if r.MinStatus != 0 && httpStatus < r.MinStatus {
			continue
		}
		if r.MaxStatus != 0 && httpStatus > r.MaxStatus {
			continue
		}
		return Info{Detected: true, Name: r.Name, Code: r.Code, Description: r.Description}
	}

	// No body signature matched: a bare 403 is ambiguous but treated
	// as a firewall block rather than surfaced as a generic failure.
	if httpStatus == 403 && !strings.Contains(body, "<html") {
		return Info{Detected: true, Name: "bare_403", Code: status.FirewallDetected, Description: "403 with no distinguishing body"}
	}

	return Info{}
}
