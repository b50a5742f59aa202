package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/elixoids/miner/internal/supervisor"
)

// DefaultInterval is used when Dependencies.Interval is not positive.
const DefaultInterval = time.Second

// StatusProvider returns the current supervisor status.
type StatusProvider func() supervisor.Status

// RecorderStats is implemented by the telemetry recorder.
type RecorderStats interface {
	GetLastDBWriteDuration() time.Duration
	Dropped() uint64
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Status   StatusProvider
	Recorder RecorderStats // optional
	Path     string
	Interval time.Duration
	Logger   *slog.Logger
}

// Report is the content of the status file.
type Report struct {
	Time      time.Time `json:"time"`
	Endpoint  string    `json:"endpoint"`
	Strategy  string    `json:"strategy"`
	State     string    `json:"state"`
	Attempt   int       `json:"attempt"`
	Remaining int       `json:"remaining"`
	Ticks     uint      `json:"ticks"`
	Commands  uint      `json:"commands"`
	Shots     uint      `json:"shots"`
	LastTick  time.Time `json:"lastTick,omitzero"`
	LastError string    `json:"lastError,omitempty"`

	LastWriteDurationMs float32 `json:"lastWriteDurationMs"`
	DroppedTicks        uint64  `json:"droppedTicks"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetReport returns the current status report.
func (s *Service) GetReport(now time.Time) Report {
	st := s.deps.Status()
	r := Report{
		Time:      now,
		Endpoint:  st.Endpoint.String(),
		Strategy:  st.Strategy,
		State:     st.State.String(),
		Attempt:   st.Attempt,
		Remaining: st.Remaining,
		Ticks:     st.Ticks,
		Commands:  st.Commands,
		Shots:     st.Shots,
		LastTick:  st.LastTick,
		LastError: st.LastError,
	}
	if s.deps.Recorder != nil {
		r.LastWriteDurationMs = float32(s.deps.Recorder.GetLastDBWriteDuration().Microseconds()) / 1000
		r.DroppedTicks = s.deps.Recorder.Dropped()
	}
	return r
}

// WriteStatus replaces the status file with the current report.
func (s *Service) WriteStatus() error {
	data, err := json.MarshalIndent(s.GetReport(time.Now()), "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding status: %w", err)
	}

	tmp := s.deps.Path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("error writing status file: %w", err)
	}
	if err := os.Rename(tmp, s.deps.Path); err != nil {
		return fmt.Errorf("error replacing status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if s.deps.Status == nil || s.deps.Path == "" {
		s.mu.Unlock()
		return fmt.Errorf("monitor needs a status provider and a path")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)

		logger := s.deps.Logger
		logger.Debug("Starting status monitor", "path", s.deps.Path, "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				if err := s.WriteStatus(); err != nil {
					logger.Error("Error writing final status", "error", err)
				}
				return
			case <-ticker.C:
				if err := s.WriteStatus(); err != nil {
					logger.Error("Error writing status", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor after a last write.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
}
