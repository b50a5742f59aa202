// Package session holds the per-connection bot state: the previous radar
// snapshot and the ship heading. It is driven by one goroutine and has no
// locks.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/elixoids/miner/internal/model/core"
	"github.com/elixoids/miner/internal/targeting"
)

// Session turns a stream of frames into a stream of decisions.
type Session struct {
	strategy targeting.Strategy
	logger   *slog.Logger
	now      func() time.Time

	previous core.Snapshot
	heading  float64

	ticks     uint
	lastFrame time.Time
	elapsed   time.Duration

	targetID  int
	hasTarget bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for target switches.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates an empty session.
func New(strategy targeting.Strategy, opts ...Option) *Session {
	s := &Session{
		strategy: strategy,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process handles one parsed frame. Frames without contacts only update the
// heading. The first frame after New or Reset never produces a command.
// The frame's snapshot is retained, callers must not modify it afterwards.
func (s *Session) Process(f core.Frame) (targeting.Decision, error) {
	s.heading = f.Heading
	if len(f.Contacts) == 0 {
		return targeting.Decision{}, nil
	}

	now := s.now()
	if !s.lastFrame.IsZero() {
		s.elapsed = now.Sub(s.lastFrame)
	}
	s.lastFrame = now
	s.ticks++

	records := targeting.Diff(s.previous, f.Contacts)
	s.previous = f.Contacts
	if len(records) == 0 {
		return targeting.Decision{}, nil
	}

	d, err := s.strategy.Decide(records, s.heading)
	if err != nil {
		return targeting.Decision{}, fmt.Errorf("%s: %w", s.strategy.Name(), err)
	}

	if !s.hasTarget || d.Target.ID != s.targetID {
		s.logger.Debug("Target switched",
			"from", s.targetID,
			"to", d.Target.ID,
			"distance", d.Target.Current.Distance,
			"candidates", d.Candidates)
		s.targetID = d.Target.ID
		s.hasTarget = true
	}
	return d, nil
}

// Reset forgets the previous snapshot so the next frame starts a new track.
func (s *Session) Reset() {
	s.previous = nil
	s.Resume()
}

// Resume prepares the session for a new connection. The previous snapshot is
// kept, so the first frame on the new connection is diffed against the last
// frame of the old one. Frame timing and the chosen target start over.
func (s *Session) Resume() {
	s.lastFrame = time.Time{}
	s.elapsed = 0
	s.hasTarget = false
	s.targetID = 0
}

// Heading is the ship heading from the last frame.
func (s *Session) Heading() float64 { return s.heading }

// Ticks counts frames that carried contacts.
func (s *Session) Ticks() uint { return s.ticks }

// Elapsed is the time between the last two frames that carried contacts.
func (s *Session) Elapsed() time.Duration { return s.elapsed }

// Strategy returns the strategy name.
func (s *Session) Strategy() string { return s.strategy.Name() }

// TargetID returns the currently tracked target, if any.
func (s *Session) TargetID() (int, bool) { return s.targetID, s.hasTarget }
