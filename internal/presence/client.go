package presence

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is the liveness window: a connection that produces no
	// pong (or any frame) within it is treated as gone.
	pongWait = 60 * time.Second

	// pingPeriod probes each connection well inside the pong window.
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer absorbs broadcast bursts before a connection is
	// considered too slow and dropped.
	sendBuffer = 8
)

// Client is one websocket connection bound to an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	logger *zap.Logger

	id   string
	user User
	send chan []byte

	// per-connection copies of the pump timings; tests shrink them to
	// exercise the liveness path without minute-long waits
	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewClient(hub *Hub, conn *websocket.Conn, user User, logger *zap.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		logger:     logger,
		id:         uuid.NewString(),
		user:       user,
		send:       make(chan []byte, sendBuffer),
		writeWait:  writeWait,
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
	}
}

// Run registers the client and pumps until the connection dies for any
// reason (close handshake, error, or missed liveness probe). The
// deferred unregister guarantees the hub converges no matter which one
// it was.
func (c *Client) Run() {
	c.hub.Register(c)
	go c.writePump()
	c.readPump()
}

// readPump discards inbound frames (the presence stream is one-way) and
// exists to run the close/pong machinery. The read deadline is pushed
// forward on every pong; when it lapses the read fails and the client
// is torn down.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("presence connection dropped",
					zap.String("user_id", c.user.UserID.String()),
					zap.Error(err),
				)
			}
			return
		}
	}
}

// writePump pushes snapshots and pings. A write error just exits; the
// readPump notices the dead connection and deregisters.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				// hub closed the channel: dropped or shutting down
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
