package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64KB
)

// Client is one live, authenticated connection. The connection id is
// generated server-side; the user id comes from the validated handshake
// token.
type Client struct {
	ID     string
	UserID uint

	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once

	sendMu     sync.Mutex
	sendClosed bool
}

func newClient(hub *Hub, conn *websocket.Conn, connID string, userID uint) *Client {
	return &Client{
		ID:     connID,
		UserID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
	}
}

// ReadPump consumes inbound frames and dispatches them to the hub. It runs
// in its own goroutine; exit means the connection is gone and triggers full
// cleanup.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Unexpected close", "connection_id", c.ID, "error", err.Error())
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			c.sendError("malformed event")
			continue
		}

		c.hub.dispatch(c, envelope)
	}
}

// WritePump flushes the send channel to the connection and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain any queued messages as separate frames
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendEvent queues an event for delivery. A full send buffer drops the
// frame rather than blocking the caller, and a sealed connection drops it
// outright: the hub may broadcast from a room snapshot taken just before
// this connection unregistered.
func (c *Client) sendEvent(eventType string, payload any) {
	data, err := marshalEvent(eventType, payload)
	if err != nil {
		c.hub.logger.LogError(err, "Failed to marshal event", "type", eventType)
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return
	}

	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("Send buffer full, dropping event",
			"connection_id", c.ID,
			"type", eventType,
		)
	}
}

func (c *Client) sendError(message string) {
	c.sendEvent(EventError, ErrorPayload{Error: message})
}

// closeSend seals and closes the send channel under the same lock sendEvent
// takes, so late broadcasts become no-ops instead of writes to a closed
// channel. Safe to call more than once.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// Close shuts the underlying connection down once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			c.conn.Close()
		}
	})
}
