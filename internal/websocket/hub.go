// Package websocket broadcasts processing status events to connected
// browser clients.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Message types pushed to clients.
const (
	TypeConnection = "connection"
	TypeProcessing = "processing:started"
	TypeComplete   = "processing:complete"
	TypeError      = "processing:error"
	TypeFiles      = "files:changed"
)

// Message is one status event on the wire.
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Hub fans status messages out to the registered clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	quit       chan struct{}

	running bool
}

// NewHub creates a hub; call Run in a goroutine to start it.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		quit:       make(chan struct{}),
	}
}

// Run pumps registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", slog.Int("clients", n))

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", slog.Int("clients", n))

		case payload := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow consumer; drop it rather than block the hub.
					go func(c *Client) { h.unregister <- c }(client)
				}
			}
			h.mu.RUnlock()

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.running = false
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *Hub) Stop() {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if running {
		h.quit <- struct{}{}
	}
}

// Broadcast sends a typed event to every connected client. Marshalling
// failures are logged and dropped.
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("failed to encode broadcast",
			slog.String("type", msgType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast queue full, dropping message",
			slog.String("type", msgType))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
