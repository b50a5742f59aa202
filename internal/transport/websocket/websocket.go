// Package websocket implements transport.Dialer on top of gorilla/websocket.
package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/elixoids/miner/internal/transport"
)

// DefaultHandshakeTimeout bounds the opening handshake.
const DefaultHandshakeTimeout = 10 * time.Second

// Dialer opens game connections. The zero value is not usable; use NewDialer.
type Dialer struct {
	dialer ws.Dialer
	logger *slog.Logger
}

// NewDialer creates a dialer logging to logger.
func NewDialer(logger *slog.Logger) *Dialer {
	return &Dialer{
		dialer: ws.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		logger: logger,
	}
}

// Dial implements transport.Dialer.
func (d *Dialer) Dial(ctx context.Context, ep transport.Endpoint) (transport.Conn, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")

	conn, _, err := d.dialer.DialContext(ctx, ep.URL(), header)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	d.logger.Debug("WebSocket connected", "url", ep.URL())
	return newConnection(conn, d.logger), nil
}
