package posesync

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	remote string
}

func (c *client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug().Err(err).Str("remote", c.remote).Msg("Read error")
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.queue(Message{Type: TypeError, Data: "invalid message: " + err.Error()})
			continue
		}
		c.hub.dispatch(c, cmd)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) reply(r Result) {
	c.queue(Message{Type: TypeResult, Data: r})
}

// queue sends msg to this client only. It is a no-op once the client has
// left, and drops the client when its queue is full.
func (c *client) queue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode message")
		return
	}

	h := c.hub
	h.mu.RLock()
	_, ok := h.clients[c]
	full := false
	if ok {
		select {
		case c.send <- data:
		default:
			full = true
		}
	}
	h.mu.RUnlock()

	if full {
		h.logger.Warn().Str("remote", c.remote).Msg("Dropping slow client")
		h.unregister(c)
	}
}
