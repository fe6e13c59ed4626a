package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCommandSuccess(t *testing.T) {
	c := New()
	c.RecordCommand("click", 10*time.Millisecond, "", true)

	if got := testutil.ToFloat64(c.CommandsTotal.WithLabelValues("click")); got != 1 {
		t.Errorf("CommandsTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.CommandErrors.WithLabelValues("click", "")); got != 0 {
		t.Errorf("CommandErrors on success = %v, want 0", got)
	}
}

func TestRecordCommandFailureIncrementsErrors(t *testing.T) {
	c := New()
	c.RecordCommand("navigate", 5*time.Millisecond, "timeout", false)

	if got := testutil.ToFloat64(c.CommandErrors.WithLabelValues("navigate", "timeout")); got != 1 {
		t.Errorf("CommandErrors = %v, want 1", got)
	}
}

func TestRecordEviction(t *testing.T) {
	c := New()
	c.RecordEviction("idle_timeout")
	c.RecordEviction("idle_timeout")
	if got := testutil.ToFloat64(c.ContextsEvicted.WithLabelValues("idle_timeout")); got != 2 {
		t.Errorf("ContextsEvicted = %v, want 2", got)
	}
}

func TestSetPoolOccupancy(t *testing.T) {
	c := New()
	c.SetPoolOccupancy(7, 1024.5)
	if got := testutil.ToFloat64(c.ContextsActive); got != 7 {
		t.Errorf("ContextsActive = %v, want 7", got)
	}
	if got := testutil.ToFloat64(c.ContextPoolMemory); got != 1024.5 {
		t.Errorf("ContextPoolMemory = %v, want 1024.5", got)
	}
}

func TestRecordVerification(t *testing.T) {
	c := New()
	c.RecordVerification("ok")
	if got := testutil.ToFloat64(c.VerificationOutcomes.WithLabelValues("ok")); got != 1 {
		t.Errorf("VerificationOutcomes = %v, want 1", got)
	}
}

func TestIndependentCollectorsDoNotShareState(t *testing.T) {
	a := New()
	b := New()
	a.RecordEviction("memory_cap")
	if got := testutil.ToFloat64(b.ContextsEvicted.WithLabelValues("memory_cap")); got != 0 {
		t.Errorf("second collector saw cross-instance state: %v", got)
	}
}
