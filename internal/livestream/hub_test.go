package livestream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func newTestServer(t *testing.T, h *Hub, contextID string) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		h.Register(contextID, conn)
	}))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return srv, client
}

func TestOnFrameDeliversToSubscriber(t *testing.T) {
	h := NewHub()
	srv, client := newTestServer(t, h, "ctx_1")
	defer srv.Close()
	defer client.Close()

	h.OnFrame("ctx_1", []byte("pngbytes"))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !strings.Contains(string(msg), "ctx_1") || !strings.Contains(string(msg), `"type":"frame"`) {
		t.Errorf("unexpected envelope: %s", msg)
	}
}

func TestOnFrameIgnoresOtherContexts(t *testing.T) {
	h := NewHub()
	srv, client := newTestServer(t, h, "ctx_1")
	defer srv.Close()
	defer client.Close()

	h.OnFrame("ctx_2", []byte("pngbytes"))

	client.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, _, err := client.ReadMessage(); err == nil {
		t.Error("expected no message for unsubscribed context")
	}
}

func TestActiveStreamsCounts(t *testing.T) {
	h := NewHub()
	if h.ActiveStreams() != 0 {
		t.Fatalf("ActiveStreams() = %d, want 0", h.ActiveStreams())
	}
	srv, client := newTestServer(t, h, "ctx_1")
	defer srv.Close()
	defer client.Close()

	time.Sleep(50 * time.Millisecond)
	if h.ActiveStreams() != 1 {
		t.Errorf("ActiveStreams() = %d, want 1", h.ActiveStreams())
	}
}

func TestUnregisterRemovesSubscriber(t *testing.T) {
	h := NewHub()
	srv, client := newTestServer(t, h, "ctx_1")
	defer srv.Close()
	client.Close()

	// Writing to the closed connection's channel should trigger the
	// forwarding goroutine to unregister it.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.OnFrame("ctx_1", []byte("x"))
		if h.ActiveStreams() == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("expected Unregister to clean up after client close")
}

func TestOnFrameNoSubscribersIsNoop(t *testing.T) {
	h := NewHub()
	h.OnFrame("ctx_missing", []byte("x")) // must not panic
}
