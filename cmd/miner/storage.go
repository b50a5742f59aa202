package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/elixoids/miner/internal/config"
	"github.com/elixoids/miner/internal/database"
	"github.com/elixoids/miner/internal/influx"
	"github.com/elixoids/miner/internal/storage"
	influxstorage "github.com/elixoids/miner/internal/storage/influx"
	"github.com/elixoids/miner/internal/storage/memory"
	pgstorage "github.com/elixoids/miner/internal/storage/postgres"
	sqlitestorage "github.com/elixoids/miner/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// storageDeps carries what the backends need besides their configuration.
type storageDeps struct {
	Logger  *slog.Logger
	Zerolog zerolog.Logger
	LogsDir string
	Player  string
	Started time.Time
	Storage config.StorageConfig
	DB      config.DBConfig
	Influx  config.InfluxConfig
}

func (d storageDeps) localPath(ext string) string {
	return filepath.Join(d.LogsDir, fmt.Sprintf("miner_%s_%s.%s", d.Player, d.Started.Format("20060102_150405"), ext))
}

// createStorageBackend returns the configured backends, or nil when telemetry
// is disabled entirely.
func createStorageBackend(d storageDeps) (storage.Backend, error) {
	var backends storage.Multi

	switch d.Storage.Type {
	case config.StorageNone, "":
	case config.StorageMemory:
		d.Logger.Info("Memory storage backend selected", "outputDir", d.Storage.Memory.OutputDir)
		backends = append(backends, memory.New(d.Storage.Memory))

	case config.StorageSQLite:
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: d.Storage.SQLite.DumpInterval,
			DumpPath:     d.localPath("db"),
		}, d.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		d.Logger.Info("SQLite storage backend selected", "dumpPath", d.localPath("db"))
		backends = append(backends, backend)

	case config.StoragePostgres:
		d.Logger.Info("Postgres storage backend selected", "host", d.DB.Host, "database", d.DB.Database)
		backends = append(backends, pgstorage.New(pgstorage.Dependencies{
			Manager:      database.NewManager(d.Zerolog, d.DB, d.localPath("db")),
			Logger:       d.Logger,
			DumpInterval: d.Storage.SQLite.DumpInterval,
		}))

	default:
		return nil, fmt.Errorf("unknown storage type %q", d.Storage.Type)
	}

	if d.Influx.Enabled {
		d.Logger.Info("InfluxDB backend selected", "url", d.Influx.URL(), "bucket", d.Influx.Bucket)
		manager := influx.NewManager(d.Zerolog, d.Influx, d.localPath("influx.gz"))
		backends = append(backends, influxstorage.New(manager))
	}

	switch len(backends) {
	case 0:
		return nil, nil
	case 1:
		return backends[0], nil
	default:
		return backends, nil
	}
}
