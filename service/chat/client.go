package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

var (
	errClientClosed = errors.New("client closed")
	errQueueFull    = errors.New("send queue full")
)

// Client is one live user session on this gateway. Outbound frames go
// through Send and are drained by a single writer goroutine, so writes to
// the socket are never concurrent and per-recipient ordering follows
// enqueue order.
type Client struct {
	ConnID string
	UserID int64
	WS     *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(connID string, userID int64, ws *websocket.Conn, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = 256
	}
	return &Client{
		ConnID: connID,
		UserID: userID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
	}
}

// Enqueue queues a payload without blocking. A full queue means the reader
// on the other end has stalled; the caller treats that like a transport
// failure.
func (c *Client) Enqueue(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.Send <- payload:
		return nil
	default:
		return errQueueFull
	}
}

// Close is idempotent; it stops the writer via channel close and shuts the
// socket.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	c.mu.Unlock()

	if c.WS != nil {
		_ = c.WS.Close()
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// writeTextDeadline writes one frame with a bounded deadline so a stalled
// peer cannot hold the writer forever.
func writeTextDeadline(conn *websocket.Conn, data []byte, timeout time.Duration) error {
	if conn == nil {
		return errors.New("nil conn")
	}
	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
