package ipc

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/owlbrowser/core/internal/logging"
)

// fakeDispatcher records dispatched calls and echoes params back.
type fakeDispatcher struct {
	mu    sync.Mutex
	calls int
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{}
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, method string, params map[string]interface{}) (interface{}, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	if method == "fail" {
		return nil, errMethod("boom")
	}
	return map[string]interface{}{"echo": method, "params": params}, nil
}

type errMethod string

func (e errMethod) Error() string { return string(e) }

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "test.sock")
	d := newFakeDispatcher()
	srv := New(Config{SocketPath: sockPath, MaxConns: 8, RateLimitPerS: 1000, RateBurst: 1000}, d, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx)
		close(done)
	}()

	// Wait for the socket to appear.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pool, err := DialPool(sockPath, 1); err == nil {
			pool.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Cleanup(func() {
		cancel()
		<-done
	})
	return srv, sockPath
}

func TestServerRoundTrip(t *testing.T) {
	_, sockPath := startTestServer(t)

	pool, err := DialPool(sockPath, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	resp, err := pool.Call("navigate", "", map[string]interface{}{"url": "https://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok || result["echo"] != "navigate" {
		t.Errorf("result = %v", resp.Result)
	}
}

func TestServerDispatchError(t *testing.T) {
	_, sockPath := startTestServer(t)
	pool, err := DialPool(sockPath, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	resp, err := pool.Call("fail", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Error != "boom" {
		t.Errorf("error = %q, want boom", resp.Error)
	}
}

func TestServerTracksActiveConnections(t *testing.T) {
	srv, sockPath := startTestServer(t)
	pool, err := DialPool(sockPath, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	if _, err := pool.Call("listContexts", "", nil); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if srv.ActiveConnections() >= 3 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if srv.ActiveConnections() < 3 {
		t.Errorf("ActiveConnections = %d, want >= 3", srv.ActiveConnections())
	}
}

func TestResponseBufPoolResetsBetweenUses(t *testing.T) {
	buf := getResponseBuf()
	buf.WriteString("leftover")
	putResponseBuf(buf)

	reused := getResponseBuf()
	if reused.Len() != 0 {
		t.Errorf("expected a reset buffer, got %q", reused.String())
	}
	putResponseBuf(reused)
}

func TestMalformedLineReturnsError(t *testing.T) {
	_, sockPath := startTestServer(t)

	raw, err := dialRaw(sockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Close()

	if _, err := raw.Write([]byte("not json\n")); err != nil {
		t.Fatal(err)
	}
	line, err := readLine(raw)
	if err != nil {
		t.Fatal(err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" {
		t.Error("expected error for malformed line")
	}
}
