package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/reactiveurl/pkg/query"
)

// MessageType identifies a websocket message.
type MessageType string

const (
	// MessageTypeURL carries a new page URL.
	MessageTypeURL MessageType = "url"
)

const writeWait = 5 * time.Second

// Message is sent to websocket clients.
type Message struct {
	Type  MessageType    `json:"type"`
	URL   string         `json:"url"`
	Query query.RawQuery `json:"query,omitempty"`
}

type client struct {
	conn *websocket.Conn
	// gorilla/websocket allows one concurrent writer per connection.
	mu sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(data)
}

// writeLocked writes data. c.mu must be held.
func (c *client) writeLocked(data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages websocket clients and broadcasts messages to them.
type Hub struct {
	clients  map[*client]struct{}
	mu       sync.RWMutex
	closed   bool
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates a hub. A nil checkOrigin allows every origin.
func NewHub(checkOrigin func(*http.Request) bool, logger *slog.Logger) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades the request, sends hello to the new client and
// keeps the connection registered until the client goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, hello func() Message) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}

	// Broadcasts block on c.mu until hello is written, so it is always first.
	c.mu.Lock()
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.mu.Unlock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ErrHubClosed.Error()),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	if hello != nil {
		var data []byte
		if data, err = json.Marshal(hello()); err == nil {
			err = c.writeLocked(data)
		}
	}
	c.mu.Unlock()
	if err != nil {
		h.logger.Debug("websocket hello failed", "error", err)
		h.remove(c)
		return
	}

	// Clients never send anything meaningful; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

// Broadcast sends msg to every connected client. Clients that fail to receive
// it are dropped.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("encode message", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.logger.Warn("websocket write failed", "error", err)
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.mu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
			time.Now().Add(writeWait))
		c.mu.Unlock()
		c.conn.Close()
	}
}
