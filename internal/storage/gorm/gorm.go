// Package gormstorage implements the storage.Backend interface on top of GORM
// with internal queues and a background DB writer goroutine. The sqlite and
// postgres backends embed it and only supply the connection.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elixoids/miner/internal/model"
	"github.com/elixoids/miner/internal/model/convert"
	"github.com/elixoids/miner/internal/queue"
	"github.com/elixoids/miner/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushInterval is how often the writer drains the queues.
const DefaultFlushInterval = 2 * time.Second

// ErrNoSession is returned by EndSession when no session was started.
var ErrNoSession = errors.New("no session started")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// queues holds the write queues for batch DB insertion.
type queues struct {
	ConnectionEvents *queue.Queue[model.ConnectionEvent]
	Ticks            *queue.Queue[model.Tick]
}

func newQueues() *queues {
	return &queues{
		ConnectionEvents: queue.New[model.ConnectionEvent](),
		Ticks:            queue.New[model.Tick](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Pointer[string]

	// writeMu serializes queue drains between the writer goroutine and Flush.
	writeMu       sync.Mutex
	lastWriteNano atomic.Int64

	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init creates internal queues, runs schema migration, and starts the DB writer goroutine.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB == nil {
		close(b.done)
		return nil
	}

	b.deps.Logger.Info("Migrating schema", "dialect", b.deps.DB.Name())
	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.deps.Logger.Info("Database setup complete")

	go b.writerLoop()
	return nil
}

// Close stops the DB writer goroutine after a final drain.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.stopOnce.Do(func() { close(b.stopChan) })
	<-b.done
	return nil
}

// StartSession inserts the session row synchronously; later rows reference it.
func (b *Backend) StartSession(s *core.Session) error {
	id := s.ID
	b.sessionID.Store(&id)

	if b.deps.DB == nil {
		return nil
	}
	row := convert.CoreToSession(*s)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// EndSession drains the queues and stamps the session end time.
func (b *Backend) EndSession() error {
	id := b.sessionID.Load()
	if id == nil {
		return ErrNoSession
	}
	if err := b.Flush(); err != nil {
		return err
	}
	if b.deps.DB == nil {
		return nil
	}

	err := b.deps.DB.Model(&model.Session{}).
		Where("id = ?", *id).
		Update("end_time", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to close session %s: %w", *id, err)
	}
	return nil
}

// RecordConnectionEvent converts and queues a connection event.
func (b *Backend) RecordConnectionEvent(e *core.ConnectionEvent) error {
	b.queues.ConnectionEvents.Push(convert.CoreToConnectionEvent(*e))
	return nil
}

// RecordTick converts and queues a tick.
func (b *Backend) RecordTick(t *core.Tick) error {
	b.queues.Ticks.Push(convert.CoreToTick(*t))
	return nil
}

// QueueLengths returns the number of rows waiting for the writer.
func (b *Backend) QueueLengths() (connectionEvents, ticks int) {
	if b.queues == nil {
		return 0, 0
	}
	return b.queues.ConnectionEvents.Len(), b.queues.Ticks.Len()
}

// GetLastDBWriteDuration returns the duration of the last non-empty write cycle.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWriteNano.Load())
}

// Flush writes every queued row now.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	start := time.Now()
	wrote := false

	stamp := b.currentSessionID()
	n, errEvents := writeQueue(b.deps.DB, b.queues.ConnectionEvents, func(items []model.ConnectionEvent) {
		for i := range items {
			if items[i].SessionID == "" {
				items[i].SessionID = stamp
			}
		}
	})
	wrote = wrote || n > 0
	n, errTicks := writeQueue(b.deps.DB, b.queues.Ticks, func(items []model.Tick) {
		for i := range items {
			if items[i].SessionID == "" {
				items[i].SessionID = stamp
			}
		}
	})
	wrote = wrote || n > 0

	if wrote {
		b.lastWriteNano.Store(int64(time.Since(start)))
	}
	return errors.Join(errEvents, errTicks)
}

func (b *Backend) currentSessionID() string {
	if id := b.sessionID.Load(); id != nil {
		return *id
	}
	return ""
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items are pushed back for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], prepare func([]T)) (int, error) {
	if q.Empty() {
		return 0, nil
	}

	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}

	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		q.Requeue(items...)
		return 0, fmt.Errorf("error creating %T rows: %w", items, err)
	}
	if err := tx.Commit().Error; err != nil {
		q.Requeue(items...)
		return 0, fmt.Errorf("error committing %T rows: %w", items, err)
	}
	return len(items), nil
}

// writerLoop periodically drains queues into the DB until Close.
func (b *Backend) writerLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			if err := b.Flush(); err != nil {
				b.deps.Logger.Error("Final DB write failed", "error", err)
			}
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.deps.Logger.Error("DB write failed", "error", err)
			}
		}
	}
}
