package contextmgr

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/owlbrowser/core/internal/status"
)

// Status codes this package can return, aliased from the shared
// closed StatusCode vocabulary.
const (
	StatusBrowserNotFound = status.BrowserNotFound
	StatusBrowserNotReady = status.BrowserNotReady
	StatusContextNotFound = status.ContextNotFound
	StatusInternalError   = status.InternalError
)

// Error is a status-coded failure from the context manager.
type Error struct {
	Status  status.Code
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(code status.Code, format string, args ...any) *Error {
	return &Error{Status: code, Message: fmt.Sprintf(format, args...)}
}

// Limits bounds the registry's resource usage.
type Limits struct {
	MaxContexts          int
	MaxMemoryMB          int
	PerContextEstimateMB int
	IdleTTL              time.Duration
	CleanupInterval      time.Duration
	ShutdownTimeout      time.Duration
}

// Manager is the process-wide registry of BrowserContexts. The
// registry itself uses a reader-writer lock — lookups take shared
// access, creation/destruction take exclusive access — while each
// context carries its own mutex for operations mutating
// browser-visible state.
type Manager struct {
	limits Limits
	log    *zap.Logger

	mu       sync.RWMutex
	contexts map[string]*BrowserContext
	order    []string // creation order, for reverse-order shutdown teardown

	counter atomic.Uint64
	ready   atomic.Bool

	// idleTTLNanos mirrors limits.IdleTTL but can be hot-swapped by
	// SetIdleTTL while performMaintenance runs concurrently on another
	// goroutine.
	idleTTLNanos atomic.Int64

	draining    atomic.Bool
	cleanupStop chan struct{}
	cleanupDone chan struct{}

	ConsoleLogs   *Store[ConsoleLogEntry]
	Cookies       *Store[Cookie]
	NetworkRules  *Store[NetworkRule]
	Downloads     *Store[Download]
	Tabs          *Store[Tab]
	DialogPolicies *Store[DialogPolicy]

	// TeardownFunc is called outside any registry lock to release a
	// context's owned browser-engine resources. Nil is a legal no-op,
	// used in tests that never wire a real browser engine.
	TeardownFunc func(*BrowserContext)
}

// NewManager constructs a Manager. SetReady must be called once the
// underlying browser engine has finished initializing; until then,
// CreateContext fails with BROWSER_NOT_READY.
func NewManager(limits Limits, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		limits:         limits,
		log:            log,
		contexts:       make(map[string]*BrowserContext),
		ConsoleLogs:    NewStore[ConsoleLogEntry](),
		Cookies:        NewStore[Cookie](),
		NetworkRules:   NewStore[NetworkRule](),
		Downloads:      NewStore[Download](),
		Tabs:           NewStore[Tab](),
		DialogPolicies: NewStore[DialogPolicy](),
	}
	m.idleTTLNanos.Store(int64(limits.IdleTTL))
	return m
}

// SetReady marks the manager ready to accept CreateContext calls.
func (m *Manager) SetReady(ready bool) { m.ready.Store(ready) }

// SetIdleTTL hot-swaps the idle-eviction window, picked up by the next
// maintenance pass without restarting the cleanup loop.
func (m *Manager) SetIdleTTL(d time.Duration) { m.idleTTLNanos.Store(int64(d)) }

// StartCleanup launches the background eviction task.
func (m *Manager) StartCleanup() {
	m.cleanupStop = make(chan struct{})
	m.cleanupDone = make(chan struct{})
	go m.cleanupLoop()
}

func (m *Manager) cleanupLoop() {
	defer close(m.cleanupDone)
	ticker := time.NewTicker(m.limits.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.cleanupStop:
			return
		case <-ticker.C:
			m.performMaintenance()
		}
	}
}

// StopCleanup stops the background eviction task and waits for it to exit.
func (m *Manager) StopCleanup() {
	if m.cleanupStop == nil {
		return
	}
	close(m.cleanupStop)
	<-m.cleanupDone
}

// CreateContext allocates a new BrowserContext, evicting an idle
// victim first if the registry is at capacity.
func (m *Manager) CreateContext(opts CreateOpts) (string, error) {
	if !m.ready.Load() {
		return "", newError(StatusBrowserNotReady, "browser engine not initialized")
	}
	if m.draining.Load() {
		return "", newError(StatusInternalError, "server is shutting down, refusing new contexts")
	}

	m.mu.Lock()
	if len(m.contexts) >= m.limits.MaxContexts {
		victim := m.lockedPickEvictionVictim()
		if victim == nil {
			m.mu.Unlock()
			return "", newError(StatusInternalError, "context cap reached and no context is evictable")
		}
		delete(m.contexts, victim.ID)
		m.removeFromOrder(victim.ID)
		m.mu.Unlock()
		m.teardown(victim, EvictionRecycle)
		m.mu.Lock()
	}

	id := fmt.Sprintf("ctx_%d", m.counter.Add(1))
	bc := newBrowserContext(id, opts)
	bc.inUse.Store(true)
	m.contexts[id] = bc
	m.order = append(m.order, id)
	m.mu.Unlock()

	return id, nil
}

// lockedPickEvictionVictim must be called with m.mu held. It returns
// the least-recently-used eligible idle context, or nil if none
// qualifies.
func (m *Manager) lockedPickEvictionVictim() *BrowserContext {
	var victim *BrowserContext
	for _, id := range m.order {
		bc, ok := m.contexts[id]
		if !ok {
			continue
		}
		if bc.InUse() || bc.ActiveOps() > 0 {
			continue
		}
		if victim == nil || bc.LastUsedAt().Before(victim.LastUsedAt()) {
			victim = bc
		}
	}
	return victim
}

func (m *Manager) removeFromOrder(id string) {
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

// ReleaseContext marks a context as no longer held by its caller. It
// does not destroy the context; it may be reused or later evicted.
func (m *Manager) ReleaseContext(id string) error {
	bc, err := m.lookup(id)
	if err != nil {
		return err
	}
	bc.inUse.Store(false)
	bc.touch()
	return nil
}

// CloseContext destroys a context immediately, blocking until its
// active operations drain or timeout elapses.
func (m *Manager) CloseContext(id string, timeout time.Duration) error {
	m.mu.Lock()
	bc, ok := m.contexts[id]
	if !ok {
		m.mu.Unlock()
		return newError(StatusContextNotFound, "no such context: %s", id)
	}
	delete(m.contexts, id)
	m.removeFromOrder(id)
	m.mu.Unlock()

	if !m.waitForDrain(bc, timeout) {
		m.log.Warn("close_context timed out waiting for active_ops to drain", zap.String("context_id", id))
	}
	m.teardown(bc, "")
	return nil
}

func (m *Manager) waitForDrain(bc *BrowserContext, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for bc.ActiveOps() > 0 {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

func (m *Manager) teardown(bc *BrowserContext, reason EvictionReason) {
	bc.closed.Store(true)
	if m.TeardownFunc != nil {
		m.TeardownFunc(bc)
	}
	m.ConsoleLogs.ClearForContext(bc.ID)
	m.Cookies.ClearForContext(bc.ID)
	m.NetworkRules.ClearForContext(bc.ID)
	m.Downloads.ClearForContext(bc.ID)
	m.Tabs.ClearForContext(bc.ID)
	m.DialogPolicies.ClearForContext(bc.ID)
	if reason != "" {
		m.log.Info("context evicted", zap.String("context_id", bc.ID), zap.String("reason", string(reason)))
	}
}

// ListContexts returns every live context id.
func (m *Manager) ListContexts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.contexts))
	for id := range m.contexts {
		out = append(out, id)
	}
	return out
}

func (m *Manager) lookup(id string) (*BrowserContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bc, ok := m.contexts[id]
	if !ok {
		return nil, newError(StatusContextNotFound, "no such context: %s", id)
	}
	return bc, nil
}

// WithContext resolves id, increments active_ops, runs fn while
// holding the context's per-context mutex, then decrements active_ops
// and refreshes last_used_at — the per-action lifecycle every
// dispatched command goes through.
func (m *Manager) WithContext(id string, fn func(*BrowserContext) error) error {
	bc, err := m.lookup(id)
	if err != nil {
		return err
	}
	bc.beginOp()
	defer bc.endOp()

	bc.Lock()
	defer bc.Unlock()
	return fn(bc)
}

// performMaintenance runs the two-phase eviction pass: phase one
// identifies victims and removes them from the registry under the
// exclusive lock; phase two tears them down outside any lock so
// expensive teardown (which may dispatch to the render thread) never
// stalls unrelated operations.
func (m *Manager) performMaintenance() {
	now := time.Now()

	m.mu.Lock()
	var victims, memVictims []*BrowserContext
	for _, id := range m.order {
		bc := m.contexts[id]
		if bc.InUse() || bc.ActiveOps() > 0 {
			continue
		}
		if now.Sub(bc.LastUsedAt()) > time.Duration(m.idleTTLNanos.Load()) {
			victims = append(victims, bc)
		}
	}
	estimatedMB := len(m.contexts) * m.limits.PerContextEstimateMB
	if estimatedMB > m.limits.MaxMemoryMB {
		// Over the memory cap: evict additional idle contexts
		// least-recently-used first, beyond the idle-TTL victims
		// already found.
		seen := make(map[string]bool, len(victims))
		for _, v := range victims {
			seen[v.ID] = true
		}
		candidates := m.idleCandidatesLocked()
		for _, bc := range candidates {
			if estimatedMB <= m.limits.MaxMemoryMB {
				break
			}
			if seen[bc.ID] {
				continue
			}
			memVictims = append(memVictims, bc)
			seen[bc.ID] = true
			estimatedMB -= m.limits.PerContextEstimateMB
		}
	}
	for _, v := range append(victims, memVictims...) {
		delete(m.contexts, v.ID)
		m.removeFromOrder(v.ID)
	}
	m.mu.Unlock()

	for _, v := range victims {
		m.teardown(v, EvictionIdleTTL)
	}
	for _, v := range memVictims {
		m.teardown(v, EvictionMemory)
	}
}

// idleCandidatesLocked must be called with m.mu held; returns idle,
// evictable contexts ordered least-recently-used first.
func (m *Manager) idleCandidatesLocked() []*BrowserContext {
	var out []*BrowserContext
	for _, id := range m.order {
		bc := m.contexts[id]
		if bc.InUse() || bc.ActiveOps() > 0 {
			continue
		}
		out = append(out, bc)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].LastUsedAt().Before(out[j-1].LastUsedAt()); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Shutdown stops the cleanup task, refuses new contexts, waits for
// all active_ops to drain (bounded by the configured shutdown
// timeout), then tears down every remaining context in reverse
// creation order.
func (m *Manager) Shutdown() {
	m.draining.Store(true)
	m.StopCleanup()

	deadline := time.Now().Add(m.limits.ShutdownTimeout)
	for {
		if m.totalActiveOps() == 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	m.mu.Lock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	victims := make([]*BrowserContext, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		bc := m.contexts[ids[i]]
		delete(m.contexts, ids[i])
		victims = append(victims, bc)
	}
	m.order = nil
	m.mu.Unlock()

	for _, v := range victims {
		m.teardown(v, "")
	}
}

func (m *Manager) totalActiveOps() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, bc := range m.contexts {
		total += bc.ActiveOps()
	}
	return total
}
