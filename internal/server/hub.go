package server

import (
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 8
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes game data to every connected overlay. Slow clients drop
// messages instead of holding up the broadcaster.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    []byte
}

// NewHub creates a hub that accepts upgrades passing allowOrigin
func NewHub(allowOrigin func(r *http.Request) bool, logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		logger:   logger.Sugar(),
		clients:  make(map[*client]struct{}),
	}
}

// Clients returns the number of connected overlays
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends gd to all clients. The last message is replayed to
// clients that connect later.
func (h *Hub) Broadcast(gd GameData) {
	b, err := json.Marshal(gd)
	if err != nil {
		h.logger.Warnw("Failed to encode game data", "error", err)
		return
	}

	h.mu.Lock()
	h.last = b
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
		}
	}
	h.mu.Unlock()
}

// HandleWS upgrades the connection and serves it until the peer leaves
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()

	go h.writePump(c)

	// reads only detect the close; overlays never send anything meaningful
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debugw("WebSocket write failed", "error", err)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}
