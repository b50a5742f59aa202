package main

import (
	"fmt"
	"strings"

	"github.com/elixoids/miner/internal/targeting"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"host":          "server.host",
	"game":          "server.game",
	"name":          "server.name",
	"strategy":      "targeting.strategy",
	"dampen":        "targeting.dampen",
	"sigma":         "targeting.jitterSigma",
	"seed":          "targeting.seed",
	"retries":       "connection.retries",
	"keep-snapshot": "connection.keepSnapshot",
	"storage":       "storage.type",
	"log-level":     "logLevel",
	"logs-dir":      "logsDir",
}

type cliOptions struct {
	configDir string
	version   bool
}

func newFlagSet() (*pflag.FlagSet, *cliOptions) {
	opts := &cliOptions{}
	fs := pflag.NewFlagSet("miner", pflag.ContinueOnError)

	fs.StringVarP(&opts.configDir, "config", "c", ".", "directory containing miner.cfg.json")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")

	fs.String("host", "localhost:8065", "game server host:port")
	fs.Int("game", 0, "game number")
	fs.StringP("name", "n", "", "player tag (random when empty)")
	fs.String("strategy", targeting.NameConstantBearing,
		fmt.Sprintf("targeting strategy (%s)", strings.Join(targeting.Names(), ", ")))
	fs.Float64("dampen", 1.5, "bearing rate dampening exponent")
	fs.Float64("sigma", 0.05, "aim jitter standard deviation in radians")
	fs.Uint64("seed", 0, "jitter and name seed (0 seeds from the clock)")
	fs.Int("retries", 5, "connection attempts before giving up")
	fs.Bool("keep-snapshot", false, "keep the previous snapshot across reconnects")
	fs.String("storage", "none", "telemetry storage (none, memory, sqlite, postgres)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("logs-dir", "./minerlogs", "directory for log files and local databases")

	return fs, opts
}

// bindFlags makes every flag in flagKeys override the configuration file when
// it is set on the command line.
func bindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}
