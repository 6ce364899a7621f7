package inspector

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/observe/pkg/observe"
)

const (
	// writeWait is the time allowed to write a message to a client.
	writeWait = 10 * time.Second

	// sendBuffer is the number of messages queued per client. Messages for
	// a client whose queue is full are dropped.
	sendBuffer = 64
)

// MessageType identifies a stream message.
type MessageType string

const (
	MessageHello MessageType = "hello"
	MessageEvent MessageType = "event"
)

// Message is sent to stream clients via WebSocket.
type Message struct {
	Type   MessageType `json:"type"`
	Client string      `json:"client,omitempty"`
	Event  *EventJSON  `json:"event,omitempty"`
}

// EventJSON is the wire form of an observe.Event.
type EventJSON struct {
	Seq    uint64    `json:"seq"`
	Kind   string    `json:"kind"`
	Op     string    `json:"op"`
	Key    string    `json:"key"`
	Target uint64    `json:"target"`
	Time   time.Time `json:"time"`
}

// NewEventJSON converts an event to its wire form.
func NewEventJSON(e observe.Event) EventJSON {
	return EventJSON{
		Seq:    e.Seq,
		Kind:   string(e.Kind),
		Op:     e.Op,
		Key:    e.Key.String(),
		Target: e.Target.ID(),
		Time:   e.Time,
	}
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans recorded events out to WebSocket clients.
type Hub struct {
	clients  map[*client]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates a hub. allowOrigins lists the origins allowed to connect;
// empty means same-origin only and "*" allows all.
func NewHub(allowOrigins []string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed["*"] || allowed[origin] {
			return true
		}
		originURL, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return r.Host != "" && originURL.Host == r.Host
	}
}

// HandleWebSocket upgrades the connection and streams events until the
// client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	hello, _ := json.Marshal(Message{Type: MessageHello, Client: c.id})
	c.send <- hello

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Info("stream client connected", "client", c.id)

	go h.writePump(c)

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	h.logger.Info("stream client disconnected", "client", c.id)
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(c)
			return
		}
	}
}

// remove unregisters c and closes its connection. Safe to call twice.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
	c.conn.Close()
}

// Publish sends e to every connected client. It never blocks.
func (h *Hub) Publish(e observe.Event) {
	ev := NewEventJSON(e)
	data, err := json.Marshal(Message{Type: MessageEvent, Event: &ev})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("stream client too slow, dropping event", "client", c.id, "seq", e.Seq)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}
