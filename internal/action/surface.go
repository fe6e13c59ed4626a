// Package action is the ~130-method action surface: it wires the
// context manager, virtual-machine engine, verifier, detector, finder,
// frame cache, live-stream hub, browser engine, and metrics collector
// together behind a single ipc.Dispatcher implementation.
package action

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/owlbrowser/core/internal/browserengine"
	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/detector"
	"github.com/owlbrowser/core/internal/finder"
	"github.com/owlbrowser/core/internal/framecache"
	"github.com/owlbrowser/core/internal/livestream"
	"github.com/owlbrowser/core/internal/logging"
	"github.com/owlbrowser/core/internal/metrics"
	"github.com/owlbrowser/core/internal/status"
	"github.com/owlbrowser/core/internal/verifier"
	"github.com/owlbrowser/core/internal/vm"
)

// Handler is one action surface method.
type Handler func(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error)

// Surface holds every collaborator the action handlers dispatch into
// and the method registry itself.
type Surface struct {
	Contexts   *contextmgr.Manager
	VM         *vm.Engine
	Finder     finder.Resolver
	Frames     *framecache.Cache
	Stream     *livestream.Hub
	Metrics    *metrics.Collector
	Logger     *logging.Logger
	Headless   bool

	VerifyPostTimeout    time.Duration
	VerifyNetworkIdleWin time.Duration
	VerifyDOMStableWin   time.Duration

	mu       sync.RWMutex
	handlers map[string]Handler

	globalMu sync.Mutex // serializes context-less (reentrant-safe) commands among themselves

	streamMu  sync.Mutex
	streamers map[string]context.CancelFunc

	startedAt time.Time
}

// New builds a Surface with the full method registry populated.
func New(contexts *contextmgr.Manager, vmEngine *vm.Engine, f finder.Resolver, frames *framecache.Cache, stream *livestream.Hub, m *metrics.Collector, logger *logging.Logger, headless bool, postTimeout, networkIdleWin, domStableWin time.Duration) *Surface {
	s := &Surface{
		Contexts: contexts, VM: vmEngine, Finder: f, Frames: frames, Stream: stream,
		Metrics: m, Logger: logger, Headless: headless,
		VerifyPostTimeout: postTimeout, VerifyNetworkIdleWin: networkIdleWin, VerifyDOMStableWin: domStableWin,
		handlers:  make(map[string]Handler),
		streamers: make(map[string]context.CancelFunc),
		startedAt: time.Now(),
	}
	registerContextMethods(s)
	registerNavigationMethods(s)
	registerInteractionMethods(s)
	registerContentMethods(s)
	registerWaitMethods(s)
	registerCookieMethods(s)
	registerStreamMethods(s)
	registerVMMethods(s)
	registerElementStateMethods(s)
	registerPageControlMethods(s)
	registerProfileMethods(s)
	registerTabMethods(s)
	registerDownloadMethods(s)
	registerDialogMethods(s)
	registerNetworkRuleMethods(s)
	registerStatusMethods(s)
	return s
}

func (s *Surface) register(name string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = h
}

// ContextIDOf extracts the context_id param, if present.
func (s *Surface) ContextIDOf(params map[string]interface{}) string {
	if v, ok := params["context_id"].(string); ok {
		return v
	}
	return ""
}

// Dispatch implements ipc.Dispatcher.
func (s *Surface) Dispatch(ctx context.Context, method string, params map[string]interface{}) (interface{}, error) {
	start := time.Now()
	s.mu.RLock()
	h, ok := s.handlers[method]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown method: %s", method)
	}

	contextID := s.ContextIDOf(params)

	var result interface{}
	var dispatchErr error

	if contextID == "" {
		s.globalMu.Lock()
		result, dispatchErr = h(ctx, s, nil, params)
		s.globalMu.Unlock()
	} else {
		dispatchErr = s.Contexts.WithContext(contextID, func(bc *contextmgr.BrowserContext) error {
			var innerErr error
			result, innerErr = h(ctx, s, bc, params)
			return innerErr
		})
	}

	if s.Metrics != nil {
		code := ""
		success := dispatchErr == nil
		if ar, ok := result.(status.ActionResult); ok {
			code = string(ar.Status)
			success = ar.Success
			s.Metrics.RecordVerification(string(ar.Status))
		}
		s.Metrics.RecordCommand(method, time.Since(start), code, success)
	}

	return result, dispatchErr
}

// tabOf retrieves the chromedp tab attached to a context, erroring if
// the context has no engine handle yet (e.g. creation still in flight).
func tabOf(bc *contextmgr.BrowserContext) (*browserengine.Tab, error) {
	h := bc.Handle()
	tab, ok := h.(*browserengine.Tab)
	if !ok || tab == nil {
		return nil, fmt.Errorf("context %s has no attached browser tab", bc.ID)
	}
	return tab, nil
}

// detectOutcome runs the detector against a navigation response and
// folds a positive detection into an ActionResult, returning nil when
// nothing was detected.
func detectOutcome(httpStatus int, body string) *status.ActionResult {
	info := detector.Detect(httpStatus, body)
	if !info.Detected {
		return nil
	}
	r := status.Result(info.Code, info.Description).WithHTTPStatus(httpStatus)
	return &r
}
