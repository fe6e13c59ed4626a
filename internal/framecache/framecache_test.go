package framecache

import "testing"

func TestPutGet(t *testing.T) {
	c := New()
	c.Put("ctx_1", []byte("frame1"))
	got, ok := c.Get("ctx_1")
	if !ok || string(got) != "frame1" {
		t.Errorf("Get() = %q, %v, want frame1, true", got, ok)
	}
}

func TestFreezeBlocksUpdates(t *testing.T) {
	c := New()
	c.Put("ctx_1", []byte("frame1"))
	c.Freeze("ctx_1")
	c.Put("ctx_1", []byte("frame2"))

	got, _ := c.Get("ctx_1")
	if string(got) != "frame1" {
		t.Errorf("Get() after freeze = %q, want frame1 (unchanged)", got)
	}
}

func TestUnfreezeResumesUpdates(t *testing.T) {
	c := New()
	c.Put("ctx_1", []byte("frame1"))
	c.Freeze("ctx_1")
	c.Unfreeze("ctx_1")
	c.Put("ctx_1", []byte("frame2"))

	got, _ := c.Get("ctx_1")
	if string(got) != "frame2" {
		t.Errorf("Get() after unfreeze = %q, want frame2", got)
	}
}

func TestOnPutCallback(t *testing.T) {
	c := New()
	var gotCtx string
	var gotFrame []byte
	c.OnPut(func(contextID string, frame []byte) {
		gotCtx = contextID
		gotFrame = frame
	})
	c.Put("ctx_1", []byte("frame1"))
	if gotCtx != "ctx_1" || string(gotFrame) != "frame1" {
		t.Errorf("callback saw (%q, %q)", gotCtx, gotFrame)
	}
}

func TestOnPutNotCalledWhenFrozen(t *testing.T) {
	c := New()
	c.Freeze("ctx_1")
	called := false
	c.OnPut(func(string, []byte) { called = true })
	c.Put("ctx_1", []byte("frame1"))
	if called {
		t.Error("onPut should not fire while frozen")
	}
}

func TestClearForContext(t *testing.T) {
	c := New()
	c.Put("ctx_1", []byte("frame1"))
	c.ClearForContext("ctx_1")
	if _, ok := c.Get("ctx_1"); ok {
		t.Error("expected no frame after ClearForContext")
	}
}
