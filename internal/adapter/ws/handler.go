// Package ws implements the WebSocket hub that streams run-progress events
// to connected UI clients.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// Message is the wire envelope for every event the hub sends.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// conn is one subscribed client.
type conn struct {
	ws     *websocket.Conn
	cancel context.CancelFunc
}

// Hub tracks subscribed clients and fans events out to all of them. Clients
// only listen; the read loop exists to notice disconnects.
type Hub struct {
	mu    sync.RWMutex
	conns map[*conn]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*conn]struct{})}
}

// HandleWS upgrades the request to a WebSocket and subscribes it to the hub
// until the client goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{ws: sock, cancel: cancel}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr)
	go h.readUntilClosed(ctx, c)
}

// readUntilClosed consumes inbound frames (pings, client noise) until the
// connection errors, then unsubscribes it.
func (h *Hub) readUntilClosed(ctx context.Context, c *conn) {
	defer func() {
		h.remove(c)
		_ = c.ws.Close(websocket.StatusNormalClosure, "")
	}()
	for {
		if _, _, err := c.ws.Read(ctx); err != nil {
			return
		}
	}
}

// Broadcast sends one message to every subscribed client. A failed write
// drops that client; the rest still receive the message.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("websocket write failed", "error", err)
			go h.remove(c)
		}
	}
}

// ConnectionCount reports the number of subscribed clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected")
	}
}
