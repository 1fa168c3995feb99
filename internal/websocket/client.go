package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cryptex/internal/events"
	cryptex_errors "cryptex/pkg/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// Client is one live WebSocket session bound to a single room. It owns
// the connection; the broker's registry only holds a reference to it.
// Outbound frames pass through a single buffered channel drained by one
// writer goroutine, which keeps per-publisher delivery order intact.
type Client struct {
	id     string
	room   string
	conn   *websocket.Conn
	send   chan []byte
	broker events.Broker
	logger *Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(conn *websocket.Conn, room string, broker events.Broker, logger *Logger) *Client {
	return &Client{
		id:     uuid.New().String(),
		room:   room,
		conn:   conn,
		send:   make(chan []byte, 256),
		broker: broker,
		logger: logger,
		done:   make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Room() string {
	return c.room
}

// Deliver queues a frame for the session. It returns once the frame is
// queued, or fails when the session is closed or the caller's deadline
// expires — the broker treats either as a dead subscriber.
func (c *Client) Deliver(ctx context.Context, frame []byte) error {
	select {
	case <-c.done:
		return cryptex_errors.ErrSessionClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return cryptex_errors.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill force-closes the session. Invoked by the broker when a delivery
// attempt to this client fails.
func (c *Client) Kill() {
	c.teardown()
}

// Run services the session until the client disconnects or the
// transport errors. It blocks; teardown always runs exactly once.
func (c *Client) Run(ctx context.Context) {
	go c.writeLoop()
	c.readLoop(ctx)
	c.teardown()
}

func (c *Client) readLoop(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket unexpected close", c.room, c.id, err)
			}
			return
		}

		// Malformed input degrades to an opaque passthrough inside
		// Classify; nothing a client sends can fail the session.
		c.broker.Publish(ctx, c.room, events.Classify(message))
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown leaves the room, wakes the writer, and closes the
// connection. Safe to call any number of times from any path: explicit
// close, transport error, or broker eviction.
func (c *Client) teardown() {
	c.closeOnce.Do(func() {
		c.broker.Leave(c.room, c)
		close(c.done)
		c.conn.Close()
		c.logger.Info("client disconnected", c.room, c.id)
	})
}
