// Package supervisor owns the connection lifecycle: it dials, runs the
// session against incoming frames, and reconnects with a bounded, shrinking
// backoff. Only the supervisor decides when the bot stops.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/elixoids/miner/internal/model/core"
	"github.com/elixoids/miner/internal/session"
	"github.com/elixoids/miner/internal/transport"
	"github.com/elixoids/miner/pkg/streaming"
)

// DefaultRetries is the connection budget.
const DefaultRetries = 5

// Decoder turns raw inbound bytes into a parsed frame.
type Decoder interface {
	Decode(data []byte) (core.Frame, error)
}

// Config holds the static supervisor settings.
type Config struct {
	Endpoint transport.Endpoint
	Decoder  Decoder

	// Retries is the number of connection attempts. The backoff after an
	// attempt is the number of attempts remaining, in seconds.
	Retries int

	// KeepSnapshot reuses the session across reconnects instead of
	// starting fresh.
	KeepSnapshot bool
}

// SessionFactory creates the session for a new connection.
type SessionFactory func() *session.Session

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// WithSleep replaces the backoff sleep.
func WithSleep(fn SleepFunc) Option {
	return func(s *Supervisor) { s.sleep = fn }
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(s *Supervisor) { s.observers = append(s.observers, o) }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) { s.now = now }
}

// Supervisor runs one bot against one endpoint.
type Supervisor struct {
	cfg       Config
	dialer    transport.Dialer
	factory   SessionFactory
	observers []Observer
	sleep     SleepFunc
	now       func() time.Time
	logger    *slog.Logger
	metrics   *metrics

	mu     sync.Mutex
	status Status
}

// New validates cfg and creates a supervisor.
func New(cfg Config, dialer transport.Dialer, factory SessionFactory, opts ...Option) (*Supervisor, error) {
	if cfg.Retries < 1 {
		return nil, fmt.Errorf("retries must be at least 1, got %d", cfg.Retries)
	}
	if cfg.Decoder == nil {
		return nil, errors.New("decoder is required")
	}
	if dialer == nil || factory == nil {
		return nil, errors.New("dialer and session factory are required")
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	s := &Supervisor{
		cfg:     cfg,
		dialer:  dialer,
		factory: factory,
		sleep:   sleepContext,
		now:     time.Now,
		logger:  slog.Default(),
		metrics: m,
		status: Status{
			Endpoint:  cfg.Endpoint,
			State:     StateConnecting,
			Remaining: cfg.Retries,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Status returns a copy of the current status. Safe for concurrent use.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Run connects and plays until the retry budget is spent (nil), a processing
// error occurs (*ProcessingError), or ctx is done (ctx.Err()).
func (s *Supervisor) Run(ctx context.Context) error {
	remaining := s.cfg.Retries
	var sess *session.Session

	for attempt := 1; ; attempt++ {
		s.transition(StateChange{State: StateConnecting, Attempt: attempt, Remaining: remaining})

		if sess == nil || !s.cfg.KeepSnapshot {
			sess = s.factory()
			s.setStrategy(sess.Strategy())
		} else {
			sess.Resume()
		}

		err := s.connect(ctx, attempt, remaining, sess)

		if ctxErr := ctx.Err(); ctxErr != nil {
			s.transition(StateChange{State: StateTerminated, Attempt: attempt, Remaining: remaining, Err: ctxErr})
			return ctxErr
		}

		var perr *ProcessingError
		if errors.As(err, &perr) {
			s.logger.Error("Fatal processing error", "error", err)
			s.transition(StateChange{State: StateTerminated, Attempt: attempt, Remaining: remaining, Err: err})
			return err
		}

		s.logger.Warn("Disconnected", "attempt", attempt, "error", err)
		s.transition(StateChange{State: StateDisconnected, Attempt: attempt, Remaining: remaining, Err: err})

		backoff := time.Duration(remaining) * time.Second
		s.transition(StateChange{State: StateRetry, Attempt: attempt, Remaining: remaining, Backoff: backoff})
		if err := s.sleep(ctx, backoff); err != nil {
			s.transition(StateChange{State: StateTerminated, Attempt: attempt, Remaining: remaining, Err: err})
			return err
		}

		remaining--
		if remaining == 0 {
			s.logger.Info("Retry budget exhausted", "attempts", attempt)
			s.transition(StateChange{State: StateTerminated, Attempt: attempt, Remaining: 0})
			return nil
		}
	}
}

// connect runs one connection until it fails. The returned error is a
// *TransportError or *ProcessingError, never nil.
func (s *Supervisor) connect(ctx context.Context, attempt, remaining int, sess *session.Session) error {
	conn, err := s.dialer.Dial(ctx, s.cfg.Endpoint)
	if err != nil {
		s.countAttempt(ctx, "failed")
		return &TransportError{Op: "dial", Err: err}
	}
	s.countAttempt(ctx, "connected")

	s.logger.Info("Connected", "endpoint", s.cfg.Endpoint.String(), "attempt", attempt)
	s.transition(StateChange{State: StateConnected, Attempt: attempt, Remaining: remaining})

	err = s.play(ctx, attempt, conn, sess)
	if cerr := conn.Close(); cerr != nil && err == nil {
		err = &TransportError{Op: "close", Err: cerr}
	}
	return err
}

func (s *Supervisor) play(ctx context.Context, attempt int, conn transport.Conn, sess *session.Session) error {
	for {
		data, err := conn.Receive(ctx)
		if err != nil {
			return &TransportError{Op: "receive", Err: err}
		}

		frame, err := s.cfg.Decoder.Decode(data)
		if err != nil {
			return newProcessingError("decode", err)
		}

		d, err := sess.Process(frame)
		if err != nil {
			return newProcessingError("decide", err)
		}
		if len(frame.Contacts) == 0 {
			continue
		}

		tick := TickResult{
			Time:     s.now(),
			Attempt:  attempt,
			Number:   sess.Ticks(),
			Elapsed:  sess.Elapsed(),
			Heading:  sess.Heading(),
			Decision: d,
		}
		s.recordTick(ctx, tick)

		if d.Empty() {
			continue
		}

		out, err := streaming.EncodeCommand(*d.Command)
		if err != nil {
			return newProcessingError("encode", err)
		}
		if err := conn.Send(ctx, out); err != nil {
			return &TransportError{Op: "send", Err: err}
		}
	}
}

func (s *Supervisor) transition(ev StateChange) {
	ev.Time = s.now()

	s.mu.Lock()
	s.status.State = ev.State
	s.status.Attempt = ev.Attempt
	s.status.Remaining = ev.Remaining
	if ev.Err != nil {
		s.status.LastError = ev.Err.Error()
	}
	s.mu.Unlock()

	s.logger.Debug("State change",
		"state", ev.State.String(),
		"attempt", ev.Attempt,
		"remaining", ev.Remaining,
		"backoff", ev.Backoff)

	for _, o := range s.observers {
		o.OnStateChange(ev)
	}
}

func (s *Supervisor) recordTick(ctx context.Context, tick TickResult) {
	fire := !tick.Decision.Empty() && tick.Decision.Command.Fire != nil && *tick.Decision.Command.Fire

	s.mu.Lock()
	s.status.Ticks++
	s.status.LastTick = tick.Time
	if !tick.Decision.Empty() {
		s.status.Commands++
	}
	if fire {
		s.status.Shots++
	}
	s.mu.Unlock()

	s.metrics.ticks.Add(ctx, 1)
	if !tick.Decision.Empty() {
		s.metrics.commands.Add(ctx, 1, metric.WithAttributes(attribute.Bool("fire", fire)))
	}

	for _, o := range s.observers {
		o.OnTick(tick)
	}
}

func (s *Supervisor) setStrategy(name string) {
	s.mu.Lock()
	s.status.Strategy = name
	s.mu.Unlock()
}

func (s *Supervisor) countAttempt(ctx context.Context, outcome string) {
	s.metrics.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
