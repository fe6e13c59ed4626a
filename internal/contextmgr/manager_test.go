package contextmgr

import (
	"testing"
	"time"
)

func testLimits() Limits {
	return Limits{
		MaxContexts:          2,
		MaxMemoryMB:          1 << 30,
		PerContextEstimateMB: 150,
		IdleTTL:              50 * time.Millisecond,
		CleanupInterval:      10 * time.Millisecond,
		ShutdownTimeout:      time.Second,
	}
}

func newReadyManager(limits Limits) *Manager {
	m := NewManager(limits, nil)
	m.SetReady(true)
	return m
}

func TestCreateContextFailsBeforeReady(t *testing.T) {
	m := NewManager(testLimits(), nil)
	if _, err := m.CreateContext(CreateOpts{}); err == nil {
		t.Fatal("expected BROWSER_NOT_READY error before SetReady")
	} else if e, ok := err.(*Error); !ok || e.Status != StatusBrowserNotReady {
		t.Errorf("error = %v, want status %s", err, StatusBrowserNotReady)
	}
}

func TestCreateReleaseListContext(t *testing.T) {
	m := newReadyManager(testLimits())
	id, err := m.CreateContext(CreateOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.ListContexts()) != 1 {
		t.Errorf("ListContexts() = %v, want 1 entry", m.ListContexts())
	}
	if err := m.ReleaseContext(id); err != nil {
		t.Fatal(err)
	}
}

func TestCloseContextNotFound(t *testing.T) {
	m := newReadyManager(testLimits())
	if err := m.CloseContext("ctx_999", time.Second); err == nil {
		t.Fatal("expected error closing nonexistent context")
	} else if e, ok := err.(*Error); !ok || e.Status != StatusContextNotFound {
		t.Errorf("error = %v, want status %s", err, StatusContextNotFound)
	}
}

func TestWithContextTracksActiveOps(t *testing.T) {
	m := newReadyManager(testLimits())
	id, err := m.CreateContext(CreateOpts{})
	if err != nil {
		t.Fatal(err)
	}

	var sawActiveOps int64
	err = m.WithContext(id, func(bc *BrowserContext) error {
		sawActiveOps = bc.ActiveOps()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if sawActiveOps != 1 {
		t.Errorf("ActiveOps during op = %d, want 1", sawActiveOps)
	}

	bc, _ := m.lookup(id)
	if bc.ActiveOps() != 0 {
		t.Errorf("ActiveOps after op = %d, want 0", bc.ActiveOps())
	}
}

// TestEvictionScenario mirrors the spec's concrete eviction scenario:
// with max_contexts=2, create three contexts in sequence with the
// first two released and idle past the TTL; the third creation
// succeeds, and list_contexts returns exactly two ids, the oldest
// released one gone.
func TestEvictionScenario(t *testing.T) {
	limits := testLimits()
	m := newReadyManager(limits)

	id1, err := m.CreateContext(CreateOpts{})
	if err != nil {
		t.Fatal(err)
	}
	id2, err := m.CreateContext(CreateOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.ReleaseContext(id1); err != nil {
		t.Fatal(err)
	}
	if err := m.ReleaseContext(id2); err != nil {
		t.Fatal(err)
	}

	time.Sleep(limits.IdleTTL + 20*time.Millisecond)

	id3, err := m.CreateContext(CreateOpts{})
	if err != nil {
		t.Fatalf("third creation should evict an idle victim, got error: %v", err)
	}

	ids := m.ListContexts()
	if len(ids) != 2 {
		t.Fatalf("ListContexts() = %v, want exactly 2 ids", ids)
	}
	found3 := false
	for _, id := range ids {
		if id == id1 {
			t.Error("oldest released context should have been evicted")
		}
		if id == id3 {
			found3 = true
		}
	}
	if !found3 {
		t.Error("newest context should still be present")
	}
}

func TestCreateContextFailsWhenNoneEvictable(t *testing.T) {
	limits := testLimits()
	m := newReadyManager(limits)

	if _, err := m.CreateContext(CreateOpts{}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CreateContext(CreateOpts{}); err != nil {
		t.Fatal(err)
	}
	// Both contexts are still in_use (never released) -> not evictable.
	if _, err := m.CreateContext(CreateOpts{}); err == nil {
		t.Fatal("expected internal_error: cap reached, nothing evictable")
	} else if e, ok := err.(*Error); !ok || e.Status != StatusInternalError {
		t.Errorf("error = %v, want status %s", err, StatusInternalError)
	}
}

func TestActiveOpsNeverNegativePanics(t *testing.T) {
	bc := newBrowserContext("ctx_1", CreateOpts{})
	defer func() {
		if recover() == nil {
			t.Error("expected panic when active_ops would go negative")
		}
	}()
	bc.endOp()
}

func TestBackgroundCleanupEvictsIdleContexts(t *testing.T) {
	limits := testLimits()
	m := newReadyManager(limits)
	id, err := m.CreateContext(CreateOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.ReleaseContext(id); err != nil {
		t.Fatal(err)
	}

	m.StartCleanup()
	defer m.StopCleanup()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(m.ListContexts()) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("background cleanup never evicted the idle context")
}

func TestShutdownTearsDownAllContexts(t *testing.T) {
	m := newReadyManager(testLimits())
	torn := 0
	m.TeardownFunc = func(*BrowserContext) { torn++ }

	id1, _ := m.CreateContext(CreateOpts{})
	_ = m.ReleaseContext(id1)

	m.Shutdown()

	if torn != 1 {
		t.Errorf("torn down %d contexts, want 1", torn)
	}
	if len(m.ListContexts()) != 0 {
		t.Error("expected no contexts after shutdown")
	}
}
