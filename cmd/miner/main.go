package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/elixoids/miner/internal/config"
	"github.com/elixoids/miner/internal/dispatcher"
	"github.com/elixoids/miner/internal/logging"
	"github.com/elixoids/miner/internal/monitor"
	intOtel "github.com/elixoids/miner/internal/otel"
	"github.com/elixoids/miner/internal/parser"
	"github.com/elixoids/miner/internal/session"
	"github.com/elixoids/miner/internal/storage"
	"github.com/elixoids/miner/internal/supervisor"
	"github.com/elixoids/miner/internal/targeting"
	"github.com/elixoids/miner/internal/transport"
	"github.com/elixoids/miner/internal/transport/websocket"
	"github.com/elixoids/miner/internal/util"
	"github.com/elixoids/miner/internal/worker"
	"github.com/elixoids/miner/pkg/core"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Version and BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs, opts := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if opts.version {
		fmt.Printf("miner %s (%s)\n", Version, BuildDate)
		return 0
	}

	if err := bindFlags(fs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	// reported once logging is up
	configErr := config.Load(opts.configDir)

	started := time.Now()
	server := config.GetServerConfig()
	targetingCfg := config.GetTargetingConfig()
	connCfg := config.GetConnectionConfig()

	seed := targetingCfg.Seed
	if seed == 0 {
		seed = uint64(started.UnixNano())
	}
	player := util.PlayerName(server.Name, rand.New(rand.NewPCG(seed, seed>>1)))

	logLevel := viper.GetString("logLevel")
	logsDir := viper.GetString("logsDir")

	slogManager := logging.NewSlogManager()
	slogManager.Setup(logging.Options{Level: logLevel, Console: os.Stderr})
	logger := slogManager.Logger()

	if configErr != nil {
		logger.Warn("Config file not loaded, using defaults", "dir", opts.configDir, "error", configErr)
	}

	var logFile *os.File
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		logger.Warn("Failed to create logs directory", "path", logsDir, "error", err)
	} else {
		path := logging.LogFilePath(logsDir, player, started)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			logger.Warn("Failed to open log file", "path", path, "error", err)
		} else {
			logFile = f
			defer logFile.Close()
		}
	}

	var fileWriter io.Writer
	if logFile != nil {
		fileWriter = logFile
	}

	otelCfg := config.GetOTelConfig()
	otelProvider, err := intOtel.New(intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    fileWriter,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		logger.Warn("Failed to initialize OpenTelemetry", "error", err)
		otelProvider = nil
	}

	var gelfWriter logging.MessageWriter
	if graylog := config.GetGraylogConfig(); graylog.Enabled {
		w, err := logging.NewGELFWriter(graylog.Address)
		if err != nil {
			logger.Warn("Failed to connect to Graylog", "address", graylog.Address, "error", err)
		} else {
			gelfWriter = w
			defer w.Close()
		}
	}

	// set once the supervisor exists; earlier records carry no status
	var current atomic.Pointer[supervisor.Supervisor]
	logOpts := logging.Options{
		Level:   logLevel,
		Console: os.Stderr,
		File:    fileWriter,
		GELF:    gelfWriter,
		Context: func() []slog.Attr {
			attrs := []slog.Attr{slog.String("player", player), slog.Int("game", server.Game)}
			if sup := current.Load(); sup != nil {
				st := sup.Status()
				attrs = append(attrs, slog.String("state", st.State.String()), slog.Int("attempt", st.Attempt))
			}
			return attrs
		},
	}
	if otelProvider != nil {
		logOpts.Provider = otelProvider.LoggerProvider()
	}
	slogManager.Setup(logOpts)
	logger = slogManager.Logger()
	slog.SetDefault(logger)

	zl := logging.NewZerolog(logLevel, os.Stderr, fileWriter)

	logger.Info("Starting miner",
		"version", Version,
		"buildDate", BuildDate,
		"host", server.Host,
		"strategy", targetingCfg.Strategy)

	strategy, err := targeting.New(targetingCfg.Strategy, targeting.Params{
		Dampen: targetingCfg.Dampen,
		Sigma:  targetingCfg.JitterSigma,
		Noise:  targeting.NewGaussianNoise(seed),
	})
	if err != nil {
		logger.Error("Invalid targeting configuration", "error", err)
		return 2
	}

	meta := core.Session{
		ID:        uuid.NewString(),
		Player:    player,
		Game:      server.Game,
		Host:      server.Host,
		Strategy:  strategy.Name(),
		StartTime: started,
	}

	backend, err := createStorageBackend(storageDeps{
		Logger:  logger,
		Zerolog: zl,
		LogsDir: logsDir,
		Player:  player,
		Started: started,
		Storage: config.GetStorageConfig(),
		DB:      config.GetDBConfig(),
		Influx:  config.GetInfluxConfig(),
	})
	if err != nil {
		logger.Error("Failed to create storage backend", "error", err)
		return 2
	}

	var recorder *worker.Manager
	if backend != nil {
		if err := backend.Init(); err != nil {
			logger.Error("Failed to initialize storage backend, recording disabled", "error", err)
			backend = nil
		}
	}
	if backend != nil {
		d, err := dispatcher.New(logging.NewDispatcherLogger(zl))
		if err != nil {
			logger.Error("Failed to create dispatcher", "error", err)
			return 2
		}
		recorder = worker.NewManager(worker.Dependencies{Session: meta, Logger: logger}, backend)
		recorder.RegisterHandlers(d)
		if err := recorder.Start(); err != nil {
			logger.Error("Failed to record session start", "error", err)
		}
	}

	supOpts := []supervisor.Option{supervisor.WithLogger(logger)}
	if recorder != nil {
		supOpts = append(supOpts, supervisor.WithObserver(recorder))
	}
	sup, err := supervisor.New(supervisor.Config{
		Endpoint:     transport.Endpoint{Host: server.Host, Game: server.Game, Player: player},
		Decoder:      parser.NewParser(logger, targetingCfg.SaucerName, targetingCfg.SaucerRadius),
		Retries:      connCfg.Retries,
		KeepSnapshot: connCfg.KeepSnapshot,
	}, websocket.NewDialer(logger), func() *session.Session {
		return session.New(strategy, session.WithLogger(logger))
	}, supOpts...)
	if err != nil {
		logger.Error("Invalid connection configuration", "error", err)
		shutdown(logger, recorder, backend, otelProvider, slogManager)
		return 2
	}
	current.Store(sup)

	var statusMonitor *monitor.Service
	if monCfg := config.GetMonitorConfig(); monCfg.Enabled {
		deps := monitor.Dependencies{
			Status:   sup.Status,
			Path:     filepath.Join(logsDir, fmt.Sprintf("miner_%s.status.json", player)),
			Interval: monCfg.Interval,
			Logger:   logger,
		}
		if recorder != nil {
			deps.Recorder = recorder
		}
		statusMonitor = monitor.NewService(deps)
		if err := statusMonitor.Start(); err != nil {
			logger.Warn("Failed to start status monitor", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := sup.Run(ctx)

	if statusMonitor != nil {
		statusMonitor.Stop()
	}
	shutdown(logger, recorder, backend, otelProvider, slogManager)

	var perr *supervisor.ProcessingError
	switch {
	case errors.As(runErr, &perr):
		fmt.Fprintf(os.Stderr, "%+v\n", runErr)
		return 1
	case errors.Is(runErr, context.Canceled):
		logger.Info("Interrupted")
		return 0
	case runErr != nil:
		logger.Error("Miner stopped", "error", runErr)
		return 1
	default:
		logger.Info("Retry budget exhausted, exiting")
		return 0
	}
}

// shutdown drains the recorder and flushes every output.
func shutdown(logger *slog.Logger, recorder *worker.Manager, backend storage.Backend, otelProvider *intOtel.Provider, slogManager *logging.SlogManager) {
	if recorder != nil {
		if err := recorder.Finish(); err != nil {
			logger.Error("Failed to finish recording", "error", err)
		}
		if n := recorder.Dropped(); n > 0 {
			logger.Warn("Ticks were dropped", "count", n)
		}
	}
	if backend != nil {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close storage backend", "error", err)
		}
		if multi, ok := backend.(storage.Multi); ok {
			for _, path := range multi.ExportedFiles() {
				logger.Info("Recording exported", "path", path)
			}
		} else if exp, ok := backend.(storage.Exportable); ok && exp.GetExportedFilePath() != "" {
			logger.Info("Recording exported", "path", exp.GetExportedFilePath())
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := slogManager.Flush(ctx); err != nil {
		logger.Warn("Failed to flush logs", "error", err)
	}
	if otelProvider != nil {
		if err := otelProvider.Shutdown(ctx); err != nil {
			logger.Warn("Failed to shut down OpenTelemetry", "error", err)
		}
	}
}
