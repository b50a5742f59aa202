// Package transport defines the duplex message channel between the bot and the
// game server.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrClosed is returned by Conn methods once the connection has shut down,
// including when the server closes it normally.
var ErrClosed = errors.New("connection closed")

// Conn carries raw frames in and commands out. Receive and Send may be called
// from different goroutines; Close may be called more than once.
type Conn interface {
	Receive(ctx context.Context) ([]byte, error)
	Send(ctx context.Context, data []byte) error
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, ep Endpoint) (Conn, error)
}

// Endpoint identifies one ship in one game.
type Endpoint struct {
	Host   string
	Game   int
	Player string
}

// URL returns ws://{host}/{game}/ship/{player}.
func (e Endpoint) URL() string {
	u := url.URL{
		Scheme:  "ws",
		Host:    e.Host,
		Path:    "/" + strconv.Itoa(e.Game) + "/ship/" + e.Player,
		RawPath: "/" + strconv.Itoa(e.Game) + "/ship/" + url.PathEscape(e.Player),
	}
	return u.String()
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s game %d as %s", e.Host, e.Game, e.Player)
}
