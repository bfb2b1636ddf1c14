package websocket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"spooker/internal/config"
)

const writeWait = 10 * time.Second

// Client is one connected browser session.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	pingPeriod time.Duration
	pongWait   time.Duration
	logger     *slog.Logger
}

// Upgrader builds the HTTP upgrade handler for the hub.
func Upgrader(hub *Hub, cfg config.WebSocketConfig, logger *slog.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		// The UI is same-origin; the add-on panel is proxied by HA.
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		client := &Client{
			hub:        hub,
			conn:       conn,
			send:       make(chan []byte, 32),
			pingPeriod: cfg.PingPeriod,
			pongWait:   cfg.PongWait,
			logger:     logger,
		}
		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

// readPump drains client frames so pong handling works; inbound content
// is ignored, the protocol is push-only.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
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
