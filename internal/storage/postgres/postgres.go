// Package postgres implements the storage.Backend interface on PostgreSQL.
// When Postgres is unreachable the database manager falls back to an
// in-memory SQLite database that is dumped to disk.
package postgres

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/elixoids/miner/internal/database"
	"github.com/elixoids/miner/internal/storage"
	gormstorage "github.com/elixoids/miner/internal/storage/gorm"
	sqlitestorage "github.com/elixoids/miner/internal/storage/sqlite"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	Manager *database.Manager
	Logger  *slog.Logger
	// DumpInterval applies to the SQLite fallback only.
	DumpInterval time.Duration
}

// Backend delegates to a GORM backend on whichever database the manager
// connected to. The embedded Backend is nil until Init.
type Backend struct {
	storage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// Init connects, picks the backend for the connected dialect and initializes it.
func (b *Backend) Init() error {
	m := b.deps.Manager
	if err := m.Connect(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if m.ShouldSaveLocal {
		b.deps.Logger.Warn("Postgres unavailable, recording to SQLite", "path", m.SqliteFilePath)
		b.Backend = sqlitestorage.NewWithDB(m.DB, sqlitestorage.Config{
			DumpInterval: b.deps.DumpInterval,
			DumpPath:     m.SqliteFilePath,
		}, b.deps.Logger)
	} else {
		b.Backend = gormstorage.New(gormstorage.Dependencies{
			DB:     m.DB,
			Logger: b.deps.Logger,
		})
	}

	return b.Backend.Init()
}

// Close closes the delegate and the connection pool.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return errors.Join(b.Backend.Close(), b.deps.Manager.Close())
}

// IsLocal reports whether the backend fell back to SQLite.
func (b *Backend) IsLocal() bool {
	return b.deps.Manager.ShouldSaveLocal
}
