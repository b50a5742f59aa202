// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/elixoids/miner/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession() error

	// Recording
	RecordConnectionEvent(e *core.ConnectionEvent) error
	RecordTick(t *core.Tick) error
}

// Exportable is an optional interface for storage backends that produce a
// file when the session ends.
type Exportable interface {
	GetExportedFilePath() string
}

// Multi fans every call out to a list of backends. All backends are called
// even when one fails; the failures are joined.
type Multi []Backend

func (m Multi) each(fn func(Backend) error) error {
	var errs []error
	for _, b := range m {
		if err := fn(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Init() error {
	return m.each(Backend.Init)
}

func (m Multi) Close() error {
	return m.each(Backend.Close)
}

func (m Multi) StartSession(s *core.Session) error {
	return m.each(func(b Backend) error { return b.StartSession(s) })
}

func (m Multi) EndSession() error {
	return m.each(Backend.EndSession)
}

func (m Multi) RecordConnectionEvent(e *core.ConnectionEvent) error {
	return m.each(func(b Backend) error { return b.RecordConnectionEvent(e) })
}

func (m Multi) RecordTick(t *core.Tick) error {
	return m.each(func(b Backend) error { return b.RecordTick(t) })
}

// ExportedFiles returns the export paths of every Exportable backend that
// has written one.
func (m Multi) ExportedFiles() []string {
	var paths []string
	for _, b := range m {
		if e, ok := b.(Exportable); ok && e.GetExportedFilePath() != "" {
			paths = append(paths, e.GetExportedFilePath())
		}
	}
	return paths
}
