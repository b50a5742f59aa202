// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"

	"github.com/elixoids/miner/internal/config"
	"github.com/elixoids/miner/pkg/core"
)

// ErrNoSession is returned when recording before StartSession.
var ErrNoSession = errors.New("no session started")

// Backend stores session telemetry in memory and exports it to JSON when the
// session ends.
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	connectionEvents []core.ConnectionEvent
	ticks            []core.Tick

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session, discarding anything recorded
// for a previous one.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.connectionEvents = nil
	b.ticks = nil
	b.lastExportPath = ""

	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	return b.exportJSON()
}

// RecordConnectionEvent records a supervisor state transition
func (b *Backend) RecordConnectionEvent(e *core.ConnectionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.connectionEvents = append(b.connectionEvents, *e)
	return nil
}

// RecordTick records a processed frame
func (b *Backend) RecordTick(t *core.Tick) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.ticks = append(b.ticks, *t)
	return nil
}

// Ticks returns a copy of the recorded ticks.
func (b *Backend) Ticks() []core.Tick {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Tick(nil), b.ticks...)
}

// ConnectionEvents returns a copy of the recorded connection events.
func (b *Backend) ConnectionEvents() []core.ConnectionEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.ConnectionEvent(nil), b.connectionEvents...)
}

// GetExportedFilePath returns the path of the last export, or "" before the
// first EndSession.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
