// Package livestream implements the Live Streaming action category: a
// local pub/sub hub that fans out frame updates from the frame cache
// to subscribed websocket clients, one subscription list per context.
package livestream

import (
	"encoding/base64"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// frameMessage is the envelope written to each subscriber connection.
type frameMessage struct {
	Type      string `json:"type"`
	ContextID string `json:"context_id"`
	PNGBase64 string `json:"png_base64"`
}

// Hub fans frame updates out to websocket connections subscribed to a
// given context id. Each connection gets its own buffered channel and
// forwarding goroutine so one slow reader never blocks broadcast to
// the others.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]chan []byte
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*websocket.Conn]chan []byte)}
}

// Register subscribes a websocket connection to a context's frame
// stream and starts its forwarding goroutine.
func (h *Hub) Register(contextID string, conn *websocket.Conn) {
	ch := make(chan []byte, 8)
	h.mu.Lock()
	if h.conns[contextID] == nil {
		h.conns[contextID] = make(map[*websocket.Conn]chan []byte)
	}
	h.conns[contextID][conn] = ch
	h.mu.Unlock()

	go func() {
		for msg := range ch {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.Unregister(contextID, conn)
				return
			}
		}
	}()
}

// Unregister removes a connection from a context's subscriber set.
func (h *Hub) Unregister(contextID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.conns[contextID]
	if !ok {
		return
	}
	if ch, ok := subs[conn]; ok {
		close(ch)
		delete(subs, conn)
	}
	if len(subs) == 0 {
		delete(h.conns, contextID)
	}
}

// ActiveStreams reports how many contexts currently have at least one
// subscriber, for getServerStats.
func (h *Hub) ActiveStreams() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// OnFrame is wired as framecache.Cache's OnPut callback: every newly
// rendered, non-frozen frame is broadcast to that context's
// subscribers as a base64 PNG envelope.
func (h *Hub) OnFrame(contextID string, frame []byte) {
	h.mu.RLock()
	subs := h.conns[contextID]
	if len(subs) == 0 {
		h.mu.RUnlock()
		return
	}
	chans := make([]chan []byte, 0, len(subs))
	for _, ch := range subs {
		chans = append(chans, ch)
	}
	h.mu.RUnlock()

	payload, err := json.Marshal(frameMessage{
		Type:      "frame",
		ContextID: contextID,
		PNGBase64: base64.StdEncoding.EncodeToString(frame),
	})
	if err != nil {
		return
	}
	for _, ch := range chans {
		select {
		case ch <- payload:
		default:
			// Slow subscriber: drop the frame rather than block the
			// renderer or other subscribers.
		}
	}
}
