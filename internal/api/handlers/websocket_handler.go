package handlers

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/retail-vision/dashboard/internal/dashboard"
	"github.com/retail-vision/dashboard/internal/metrics"
	"github.com/retail-vision/dashboard/pkg/logger"
)

// wsConn is the write surface of an upgraded connection. The concrete
// *websocket.Conn panics on concurrent writes, so every write to a registered
// connection must go through Broadcast, which serializes under the handler
// mutex.
type wsConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// WebSocketHandler pushes dashboard snapshots to connected UI clients: one on
// connect, then one after every poll cycle via Broadcast.
type WebSocketHandler struct {
	store *dashboard.Store

	mu    sync.Mutex
	conns map[wsConn]struct{}
}

func NewWebSocketHandler(store *dashboard.Store) *WebSocketHandler {
	return &WebSocketHandler{
		store: store,
		conns: make(map[wsConn]struct{}),
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		h.unregister(c)
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	// The initial snapshot goes out before the connection joins the
	// broadcast set, so a poll cycle finishing mid-handshake can never
	// write concurrently with it.
	if err := c.WriteJSON(h.store.Snapshot()); err != nil {
		logger.Error("Failed to send initial snapshot", zap.Error(err))
		return
	}

	h.register(c)

	// Clients don't speak; the read loop only detects disconnects.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends a snapshot to every connected client. Wired as the
// poller's cycle hook. All writes to registered connections happen here,
// under the handler mutex.
func (h *WebSocketHandler) Broadcast(snap dashboard.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(snap); err != nil {
			logger.Warn("Failed to push snapshot, dropping client", zap.Error(err))
			delete(h.conns, conn)
			metrics.WebSocketClients.Dec()
			conn.Close()
		}
	}
}

func (h *WebSocketHandler) register(c wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c] = struct{}{}
	metrics.WebSocketClients.Inc()
}

func (h *WebSocketHandler) unregister(c wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		metrics.WebSocketClients.Dec()
	}
}
