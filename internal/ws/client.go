package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Canvas snapshots arrive base64-encoded, so the read limit is far
	// larger than a typical chat payload.
	maxMessageSize = 8 << 20

	sendBufferSize = 256
)

// Client is one WebSocket connection. Until a join-board event arrives it
// belongs to no room; afterwards every inbound frame is handed to the
// room actor untouched.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	// room is written only by readPump, which is the sole reader of the
	// connection.
	room *Room

	closeOnce sync.Once
}

func (c *Client) ID() string {
	return c.id
}

// Enqueue hands a message to the connection's write queue without
// blocking. Returns false when the buffer is full; the room treats that
// as a dead connection.
func (c *Client) Enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close tears the connection down. Safe to call from any goroutine and
// more than once; the read pump observes the closed connection and runs
// the leave path.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

func (c *Client) readPump() {
	defer func() {
		if r := c.room; r != nil {
			r.Deliver(c, eventLeave, nil)
		}
		c.Close()
		c.hub.metrics.ConnectionsActive.Dec()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", zap.String("socket_id", c.id), zap.Error(err))
			}
			return
		}

		var data map[string]any
		if err := json.Unmarshal(message, &data); err != nil {
			c.logger.Warn("Failed to parse message", zap.String("socket_id", c.id), zap.Error(err))
			continue
		}

		typ := str(data, "type")
		switch {
		case typ == EventJoinBoard:
			if c.room != nil {
				c.logger.Warn("Duplicate join-board on one connection",
					zap.String("socket_id", c.id))
				continue
			}
			boardID := str(data, "boardId")
			username := str(data, "username")
			if boardID == "" || username == "" {
				// Rejected synchronously, no state change.
				c.Enqueue(errorMsg("boardId and username are required"))
				continue
			}
			c.room = c.hub.join(c, boardID, data)
		case c.room != nil:
			c.room.Deliver(c, typ, data)
		default:
			// Events before a join have no board to act on.
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
