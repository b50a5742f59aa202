// Package influxstorage implements the storage.Backend interface as a time
// series sink: every tick and connection event becomes an InfluxDB point.
package influxstorage

import (
	"context"
	"sync"
	"time"

	"github.com/elixoids/miner/internal/influx"
	"github.com/elixoids/miner/pkg/core"
)

// ConnectTimeout bounds the health check and bucket setup done by Init.
const ConnectTimeout = 10 * time.Second

// Backend writes points through an influx.Manager.
type Backend struct {
	manager *influx.Manager

	mu      sync.RWMutex
	session core.Session
}

// New creates a backend on top of manager; Init connects it.
func New(manager *influx.Manager) *Backend {
	return &Backend{manager: manager}
}

// Init connects to the server or opens the backup file.
func (b *Backend) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
	defer cancel()
	return b.manager.Connect(ctx)
}

// Close flushes and closes the manager.
func (b *Backend) Close() error {
	return b.manager.Close()
}

// StartSession sets the tags used for the following points.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = *s
	return nil
}

// EndSession flushes buffered points.
func (b *Backend) EndSession() error {
	return b.manager.Flush()
}

// RecordConnectionEvent writes a connection point.
func (b *Backend) RecordConnectionEvent(e *core.ConnectionEvent) error {
	return b.manager.WritePoint(influx.ConnectionPoint(b.current(), *e))
}

// RecordTick writes a tick point.
func (b *Backend) RecordTick(t *core.Tick) error {
	return b.manager.WritePoint(influx.TickPoint(b.current(), *t))
}

func (b *Backend) current() core.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}
