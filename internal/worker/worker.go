// Package worker records supervisor telemetry: it observes the supervisor,
// routes events through the dispatcher and hands them to the storage backend.
package worker

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/elixoids/miner/internal/dispatcher"
	"github.com/elixoids/miner/internal/storage"
	"github.com/elixoids/miner/internal/supervisor"
	"github.com/elixoids/miner/pkg/core"
)

// Event kinds registered by RegisterHandlers.
const (
	KindSessionStart = "session:start"
	KindConnection   = "connection"
	KindTick         = "tick"
)

// Buffer sizes for the asynchronous handlers.
const (
	ConnectionBuffer = 256
	TickBuffer       = 4096
)

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Session core.Session
	Logger  *slog.Logger
}

// Manager manages the recorder handlers
type Manager struct {
	deps       Dependencies
	backend    storage.Backend
	dispatcher *dispatcher.Dispatcher

	dropped atomic.Uint64
}

var _ supervisor.Observer = (*Manager)(nil)

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the longest last write cycle among the
// backends. Returns 0 if no backend supports this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	backends := storage.Multi{m.backend}
	if multi, ok := m.backend.(storage.Multi); ok {
		backends = multi
	}

	var longest time.Duration
	for _, b := range backends {
		if p, ok := b.(DBWriteDurationProvider); ok && p.GetLastDBWriteDuration() > longest {
			longest = p.GetLastDBWriteDuration()
		}
	}
	return longest
}

// Dropped returns the number of events that could not be queued.
func (m *Manager) Dropped() uint64 {
	return m.dropped.Load()
}

// RegisterHandlers registers the recorder handlers with the dispatcher.
// The session start is synchronous so that its row exists before any
// connection event or tick is written.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	m.dispatcher = d

	d.Register(KindSessionStart, m.handleSessionStart, dispatcher.Logged())
	d.Register(KindConnection, m.handleConnection, dispatcher.Buffered(ConnectionBuffer), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(KindTick, m.handleTick, dispatcher.Buffered(TickBuffer))
}

// Start records the session.
func (m *Manager) Start() error {
	s := m.deps.Session
	_, err := m.dispatch(dispatcher.Event{Kind: KindSessionStart, Payload: &s, Timestamp: s.StartTime})
	return err
}

// Finish drains the queued events and ends the session in the backend.
func (m *Manager) Finish() error {
	if m.dispatcher != nil {
		m.dispatcher.Close()
	}
	if err := m.backend.EndSession(); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// OnStateChange implements supervisor.Observer.
func (m *Manager) OnStateChange(ev supervisor.StateChange) {
	e := ConnectionEventToCore(m.deps.Session.ID, ev)
	if _, err := m.dispatch(dispatcher.Event{Kind: KindConnection, Payload: &e, Timestamp: ev.Time}); err != nil {
		m.deps.Logger.Warn("Connection event not recorded", "state", e.State, "error", err)
	}
}

// OnTick implements supervisor.Observer. Ticks are dropped when the queue is
// full so that recording never delays the next frame.
func (m *Manager) OnTick(r supervisor.TickResult) {
	t := TickToCore(m.deps.Session.ID, r)
	if _, err := m.dispatch(dispatcher.Event{Kind: KindTick, Payload: &t, Timestamp: r.Time}); err != nil {
		if m.dropped.Add(1) == 1 {
			m.deps.Logger.Warn("Tick recording is falling behind, dropping ticks", "error", err)
		}
	}
}

func (m *Manager) dispatch(e dispatcher.Event) (any, error) {
	if m.dispatcher == nil {
		return nil, fmt.Errorf("no dispatcher registered for %s", e.Kind)
	}
	return m.dispatcher.Dispatch(e)
}

func (m *Manager) handleSessionStart(e dispatcher.Event) (any, error) {
	s, ok := e.Payload.(*core.Session)
	if !ok {
		return nil, fmt.Errorf("unexpected %s payload %T", e.Kind, e.Payload)
	}
	return nil, m.backend.StartSession(s)
}

func (m *Manager) handleConnection(e dispatcher.Event) (any, error) {
	ev, ok := e.Payload.(*core.ConnectionEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected %s payload %T", e.Kind, e.Payload)
	}
	return nil, m.backend.RecordConnectionEvent(ev)
}

func (m *Manager) handleTick(e dispatcher.Event) (any, error) {
	t, ok := e.Payload.(*core.Tick)
	if !ok {
		return nil, fmt.Errorf("unexpected %s payload %T", e.Kind, e.Payload)
	}
	return nil, m.backend.RecordTick(t)
}
