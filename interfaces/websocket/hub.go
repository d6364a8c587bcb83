// Package websocket pushes enrichment deltas to connected presentation
// clients so a tree already on screen hydrates without polling.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"shajara/domain/tree"
	"shajara/pkg/observability"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	// sendBuffer bounds the per-client queue; a client that cannot keep
	// up with enrichment deltas is dropped rather than backing up the hub.
	sendBuffer = 64
)

// Message is the wire envelope for hub pushes.
type Message struct {
	Type  string            `json:"type"`
	Nodes []tree.NodeDetail `json:"nodes,omitempty"`
}

// Hub fans enrichment deltas out to every connected client.
type Hub struct {
	logger   *zap.Logger
	metrics  *observability.Metrics
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub.
func NewHub(logger *zap.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		logger:  logger,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The REST layer owns origin policy via its CORS config; the
			// websocket endpoint mirrors that permissiveness.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// HandleConnect upgrades the request and registers the client.
func (h *Hub) HandleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

// ServeHTTP makes the hub mountable as a handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleConnect(w, r)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastEnriched pushes a batch of enrichment deltas to every client.
// Plugged into the session as its onMerged callback.
func (h *Hub) BroadcastEnriched(details []tree.NodeDetail) {
	payload, err := json.Marshal(Message{Type: "nodes_enriched", Nodes: details})
	if err != nil {
		h.logger.Error("encoding broadcast failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Slow consumer; drop it.
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.metrics.WebsocketBroadcast()
}

// Close disconnects every client and rejects new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients only listen; reads exist to process control frames and
	// detect disconnects.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
