package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/elixoids/miner/internal/transport"
)

const (
	inboxSize = 16
	writeWait = 10 * time.Second
)

type message struct {
	data []byte
	err  error
}

// connection wraps a gorilla connection with a single read goroutine so that
// Receive can honor context cancellation.
type connection struct {
	mu   sync.Mutex // serializes writes
	conn *ws.Conn

	inbox     chan message
	done      chan struct{} // closed on shutdown
	closeOnce sync.Once

	logger *slog.Logger
}

func newConnection(conn *ws.Conn, logger *slog.Logger) *connection {
	c := &connection{
		conn:   conn,
		inbox:  make(chan message, inboxSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go c.readLoop()
	return c
}

// readLoop forwards every inbound message to inbox. It returns after the
// first read error, which is forwarded too.
func (c *connection) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		select {
		case c.inbox <- message{data: data, err: err}:
		case <-c.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Receive blocks for the next inbound message.
func (c *connection) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-c.done:
		return nil, transport.ErrClosed
	default:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, transport.ErrClosed
	case m := <-c.inbox:
		if m.err == nil {
			return m.data, nil
		}
		if ws.IsCloseError(m.err, ws.CloseNormalClosure, ws.CloseGoingAway) {
			c.logger.Debug("WebSocket closed by server", "error", m.err)
			return nil, fmt.Errorf("websocket read: %w", transport.ErrClosed)
		}
		return nil, fmt.Errorf("websocket read: %w", m.err)
	}
}

// Send writes one text message.
func (c *connection) Send(ctx context.Context, data []byte) error {
	select {
	case <-c.done:
		return transport.ErrClosed
	default:
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("websocket set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

// Close sends a close frame and releases the socket.
func (c *connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = c.conn.WriteMessage(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		)
		c.mu.Unlock()

		err = c.conn.Close()
	})
	return err
}
