package browserengine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/owlbrowser/core/internal/verifier"
)

// ConsoleLogEntry is one captured browser console message.
type ConsoleLogEntry struct {
	Level string
	Text  string
}

// Tab owns one chromedp browser tab bound to a single browser context,
// and implements verifier.Engine against it.
type Tab struct {
	id          string
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	proxyUser, proxyPass string

	lastDOMMutation atomic.Int64 // unix nanoseconds
	lastNetworkByte atomic.Int64

	consoleMu   sync.Mutex
	consoleLogs []ConsoleLogEntry

	rulesMu sync.RWMutex
	rules   []NetworkRule
}

// NetworkRule is a substring-match request-interception rule: any
// request whose URL contains Pattern is blocked or explicitly allowed
// depending on Action.
type NetworkRule struct {
	ID      string
	Pattern string
	Action  string // "block" | "allow"
}

func storeNow(a *atomic.Int64) { a.Store(time.Now().UnixNano()) }

func loadTime(a *atomic.Int64) time.Time {
	v := a.Load()
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v)
}

// NewTab launches a fresh Chrome instance and tab for one browser context.
func NewTab(id string, cfg LaunchConfig) (*Tab, error) {
	opts, proxyUser, proxyPass, err := buildAllocatorOptions(cfg)
	if err != nil {
		return nil, err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	t := &Tab{
		id:          id,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		proxyUser:   proxyUser,
		proxyPass:   proxyPass,
	}

	if err := chromedp.Run(tabCtx); err != nil {
		t.Close()
		return nil, fmt.Errorf("browserengine: start tab %s: %w", id, err)
	}

	if err := t.enableFetchInterception(); err != nil {
		t.Close()
		return nil, err
	}

	if err := chromedp.Run(tabCtx, runtime.Enable()); err != nil {
		t.Close()
		return nil, fmt.Errorf("browserengine: enable runtime domain %s: %w", id, err)
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *dom.EventDocumentUpdated, *dom.EventChildNodeInserted, *dom.EventChildNodeRemoved, *dom.EventAttributeModified:
			storeNow(&t.lastDOMMutation)
		case *network.EventDataReceived, *network.EventResponseReceived:
			storeNow(&t.lastNetworkByte)
		case *runtime.EventConsoleAPICalled:
			t.recordConsole(e)
		}
	})

	return t, nil
}

// recordConsole appends a console.* call to the tab's in-memory log
// buffer, capped to avoid unbounded growth on chatty pages.
func (t *Tab) recordConsole(e *runtime.EventConsoleAPICalled) {
	var text string
	for i, arg := range e.Args {
		if i > 0 {
			text += " "
		}
		if arg.Value != nil {
			text += string(arg.Value)
		} else {
			text += arg.Description
		}
	}
	t.consoleMu.Lock()
	defer t.consoleMu.Unlock()
	t.consoleLogs = append(t.consoleLogs, ConsoleLogEntry{Level: string(e.Type), Text: text})
	if len(t.consoleLogs) > 1000 {
		t.consoleLogs = t.consoleLogs[len(t.consoleLogs)-1000:]
	}
}

// ConsoleLogs returns a copy of the captured console messages.
func (t *Tab) ConsoleLogs() []ConsoleLogEntry {
	t.consoleMu.Lock()
	defer t.consoleMu.Unlock()
	out := make([]ConsoleLogEntry, len(t.consoleLogs))
	copy(out, t.consoleLogs)
	return out
}

// ClearConsoleLogs empties the captured console message buffer.
func (t *Tab) ClearConsoleLogs() {
	t.consoleMu.Lock()
	defer t.consoleMu.Unlock()
	t.consoleLogs = nil
}

// enableFetchInterception turns on the Fetch domain for the lifetime
// of the tab: every request is paused and resolved against the tab's
// network rules (continued by default, failed when a "block" rule
// matches), and, when a proxy is configured, proxy basic-auth
// challenges are answered transparently instead of surfacing a
// browser credential prompt.
func (t *Tab) enableFetchInterception() error {
	chromedp.ListenTarget(t.tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventRequestPaused:
			go chromedp.Run(t.tabCtx, t.fetchDecision(e))
		case *fetch.EventAuthRequired:
			if t.proxyUser == "" {
				return
			}
			go chromedp.Run(t.tabCtx, fetch.ContinueWithAuth(e.RequestID, &fetch.AuthChallengeResponse{
				Response: fetch.AuthChallengeResponseResponseProvideCredentials,
				Username: t.proxyUser,
				Password: t.proxyPass,
			}))
		}
	})
	opt := fetch.Enable()
	if t.proxyUser != "" {
		opt = opt.WithHandleAuthRequests(true)
	}
	return chromedp.Run(t.tabCtx, opt)
}

// fetchDecision resolves one paused request against the tab's current
// network rules, first match wins in registration order; no match
// continues the request unmodified.
func (t *Tab) fetchDecision(e *fetch.EventRequestPaused) chromedp.Action {
	t.rulesMu.RLock()
	rules := t.rules
	t.rulesMu.RUnlock()
	for _, r := range rules {
		if !strings.Contains(e.Request.URL, r.Pattern) {
			continue
		}
		if r.Action == "block" {
			return fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient)
		}
		break
	}
	return fetch.ContinueRequest(e.RequestID)
}

// SetNetworkRules replaces the tab's request-interception rule set.
func (t *Tab) SetNetworkRules(rules []NetworkRule) {
	t.rulesMu.Lock()
	defer t.rulesMu.Unlock()
	t.rules = rules
}

// ClearNetworkRules removes every request-interception rule.
func (t *Tab) ClearNetworkRules() {
	t.rulesMu.Lock()
	defer t.rulesMu.Unlock()
	t.rules = nil
}

// Close tears down the tab and its exec allocator.
func (t *Tab) Close() error {
	if t.tabCancel != nil {
		t.tabCancel()
	}
	if t.allocCancel != nil {
		t.allocCancel()
	}
	return nil
}

// Context returns the tab's chromedp context for higher-level actions.
func (t *Tab) Context() context.Context { return t.tabCtx }

var _ verifier.Engine = (*Tab)(nil)
