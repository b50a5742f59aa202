package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elixoids/miner/internal/transport"
)

// Compile-time interface check.
var _ transport.Dialer = (*Dialer)(nil)

type request struct {
	path   string
	accept string
}

// testServer upgrades, records the handshake, sends the given frames, then
// echoes every received command into the returned log.
type testServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []request
	received [][]byte
}

func newTestServer(t *testing.T, frames []string, closeAfter bool) *testServer {
	t.Helper()
	ts := &testServer{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.requests = append(ts.requests, request{path: r.URL.EscapedPath(), accept: r.Header.Get("Accept")})
		ts.mu.Unlock()

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for _, f := range frames {
			if err := c.WriteMessage(ws.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		if closeAfter {
			_ = c.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, "bye"))
			return
		}

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			ts.mu.Lock()
			ts.received = append(ts.received, msg)
			ts.mu.Unlock()
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) endpoint(player string) transport.Endpoint {
	u := strings.TrimPrefix(ts.URL, "http://")
	return transport.Endpoint{Host: u, Game: 4, Player: player}
}

func (ts *testServer) messages() [][]byte {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	cp := make([][]byte, len(ts.received))
	copy(cp, ts.received)
	return cp
}

func TestDialHandshake(t *testing.T) {
	ts := newTestServer(t, nil, false)
	d := NewDialer(slog.Default())

	conn, err := d.Dial(context.Background(), ts.endpoint("MAB"))
	require.NoError(t, err)
	defer conn.Close()

	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.Len(t, ts.requests, 1)
	assert.Equal(t, "/"+strconv.Itoa(4)+"/ship/MAB", ts.requests[0].path)
	assert.Equal(t, "application/json", ts.requests[0].accept)
}

func TestReceiveAndSend(t *testing.T) {
	frames := []string{`{"theta":0,"rocks":[],"ships":[]}`, `{"theta":1,"rocks":[],"ships":[]}`}
	ts := newTestServer(t, frames, false)

	conn, err := NewDialer(slog.Default()).Dial(context.Background(), ts.endpoint("MAB"))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, want := range frames {
		got, err := conn.Receive(ctx)
		require.NoError(t, err)
		assert.JSONEq(t, want, string(got))
	}

	require.NoError(t, conn.Send(ctx, []byte(`{"theta":1.5,"fire":true}`)))
	assert.Eventually(t, func() bool { return len(ts.messages()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.JSONEq(t, `{"theta":1.5,"fire":true}`, string(ts.messages()[0]))
}

func TestReceiveHonorsContext(t *testing.T) {
	ts := newTestServer(t, nil, false)

	conn, err := NewDialer(slog.Default()).Dial(context.Background(), ts.endpoint("MAB"))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = conn.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServerClose(t *testing.T) {
	ts := newTestServer(t, []string{`{"theta":0}`}, true)

	conn, err := NewDialer(slog.Default()).Dial(context.Background(), ts.endpoint("MAB"))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = conn.Receive(ctx)
	require.NoError(t, err)
	_, err = conn.Receive(ctx)
	assert.ErrorIs(t, err, transport.ErrClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	ts := newTestServer(t, nil, false)

	conn, err := NewDialer(slog.Default()).Dial(context.Background(), ts.endpoint("MAB"))
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())

	_, err = conn.Receive(context.Background())
	assert.ErrorIs(t, err, transport.ErrClosed)
	assert.ErrorIs(t, conn.Send(context.Background(), []byte("{}")), transport.ErrClosed)
}

func TestDialFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := NewDialer(slog.Default()).Dial(context.Background(), transport.Endpoint{
		Host:   strings.TrimPrefix(ts.URL, "http://"),
		Player: "MAB",
	})
	assert.Error(t, err)
}
