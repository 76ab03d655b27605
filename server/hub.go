package server

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to keep an idle connection alive.
	pongWait = 60 * time.Second
	// Send pings to peer with this period.
	pingPeriod = (pongWait * 9) / 10
	// Outgoing frames buffered per client.
	sendBuffer = 64
	// How long a send waits for room in a full buffer.
	sendWait = 5 * time.Second
)

// ErrSlowClient is returned when a frame could not be queued within the send
// wait because the client stopped draining its buffer.
var ErrSlowClient = errors.New("server: client send buffer full")

// Message is a frame exchanged with the client runtime.
type Message struct {
	Type   string  `json:"type"`
	Target string  `json:"target,omitempty"`
	Y      float64 `json:"y,omitempty"`
	HTML   string  `json:"html,omitempty"`
	Path   string  `json:"path,omitempty"`
	Locked *bool   `json:"locked,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Client is one websocket connection.
type Client struct {
	ID        string
	SessionID string

	conn     *websocket.Conn
	send     chan []byte
	sendWait time.Duration

	mu     sync.Mutex
	closed bool
}

func newClient(id, sessionID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:        id,
		SessionID: sessionID,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sendWait:  sendWait,
	}
}

// SendJSON queues v for the write pump. When the buffer is full it waits up
// to the send wait and then gives up with ErrSlowClient, so frames are never
// dropped silently.
func (c *Client) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	select {
	case c.send <- data:
		return nil
	default:
	}

	timer := time.NewTimer(c.sendWait)
	defer timer.Stop()
	select {
	case c.send <- data:
		return nil
	case <-timer.C:
		return ErrSlowClient
	}
}

// SendError reports a failed event to the client.
func (c *Client) SendError(message string) {
	_ = c.SendJSON(Message{Type: "error", Error: message})
}

// Close stops the write pump. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump decodes frames until the connection fails and hands each one to
// onMessage.
func (c *Client) readPump(onMessage func(Message)) {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.SendError("invalid message format")
			continue
		}
		onMessage(msg)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub tracks live websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{clients: make(map[string]*Client), logger: logger}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client connected", "client", c.ID, "session", c.SessionID)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if existing, ok := h.clients[c.ID]; ok && existing == c {
		delete(h.clients, c.ID)
	}
	h.mu.Unlock()
	c.Close()
	h.logger.Debug("client disconnected", "client", c.ID, "session", c.SessionID)
}

// Session returns the clients attached to a shopper session.
func (h *Hub) Session(sessionID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Client
	for _, c := range h.clients {
		if c.SessionID == sessionID {
			out = append(out, c)
		}
	}
	return out
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every client's connection.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Close()
		_ = c.conn.Close()
	}
}
