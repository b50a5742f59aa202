// Package logging builds the bot's loggers: a slog fan-out to console, file,
// OTel and Graylog, plus zerolog for the storage managers.
package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, player string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("miner_%s.%s.log", player, sessionStart.Format("20060102_150405")),
	)
}
