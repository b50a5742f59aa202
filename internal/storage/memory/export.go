// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elixoids/miner/pkg/core"
)

// SessionExport is the root JSON structure
type SessionExport struct {
	SessionID  string              `json:"sessionId"`
	Player     string              `json:"player"`
	Game       int                 `json:"game"`
	Host       string              `json:"host"`
	Strategy   string              `json:"strategy"`
	StartTime  time.Time           `json:"startTime"`
	EndTime    time.Time           `json:"endTime"`
	Shots      int                 `json:"shots"`
	Connection []ConnectionJSON    `json:"connection"`
	Ticks      [][]any             `json:"ticks"`
	Targets    map[int][]TrackJSON `json:"targets"`
}

// ConnectionJSON is one supervisor transition
type ConnectionJSON struct {
	Time      time.Time `json:"time"`
	State     string    `json:"state"`
	Attempt   int       `json:"attempt"`
	Remaining int       `json:"remaining"`
	BackoffMs int64     `json:"backoffMs"`
	Error     string    `json:"error,omitempty"`
}

// TrackJSON is one sighting of the chosen target
type TrackJSON struct {
	Tick     uint    `json:"tick"`
	Bearing  float64 `json:"bearing"`
	Distance float64 `json:"distance"`
}

// exportJSON writes the session data to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport(time.Now())

	// Build filename
	player := strings.ReplaceAll(b.session.Player, " ", "_")
	player = strings.ReplaceAll(player, ":", "_")
	timestamp := b.session.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("miner_%s_%d_%s.json.gz", player, b.session.Game, timestamp)
	} else {
		filename = fmt.Sprintf("miner_%s_%d_%s.json", player, b.session.Game, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

// buildExport flattens ticks into compact rows:
// [number, attemptNo, elapsedMs, heading, candidates, targetId, aim, fire]
// Ticks without a command have targetId and aim set to null.
func (b *Backend) buildExport(end time.Time) SessionExport {
	export := SessionExport{
		SessionID:  b.session.ID,
		Player:     b.session.Player,
		Game:       b.session.Game,
		Host:       b.session.Host,
		Strategy:   b.session.Strategy,
		StartTime:  b.session.StartTime,
		EndTime:    end,
		Connection: make([]ConnectionJSON, 0, len(b.connectionEvents)),
		Ticks:      make([][]any, 0, len(b.ticks)),
		Targets:    make(map[int][]TrackJSON),
	}

	for _, e := range b.connectionEvents {
		export.Connection = append(export.Connection, ConnectionJSON{
			Time:      e.Time,
			State:     e.State,
			Attempt:   e.Attempt,
			Remaining: e.Remaining,
			BackoffMs: e.Backoff.Milliseconds(),
			Error:     e.Error,
		})
	}

	for _, t := range b.ticks {
		export.Ticks = append(export.Ticks, tickRow(t))
		if !t.HasCommand {
			continue
		}
		if t.Fire {
			export.Shots++
		}
		export.Targets[t.TargetID] = append(export.Targets[t.TargetID], TrackJSON{
			Tick:     t.Number,
			Bearing:  t.Target.Bearing,
			Distance: t.Target.Distance,
		})
	}

	return export
}

func tickRow(t core.Tick) []any {
	var targetID, aim any
	if t.HasCommand {
		targetID = t.TargetID
		aim = t.Aim
	}
	return []any{
		t.Number,                 // [0] tick number
		t.Attempt,                // [1] connection attempt
		t.Elapsed.Milliseconds(), // [2] ms since previous tick
		t.Heading,                // [3] ship heading
		t.Candidates,             // [4] correlated targets
		targetID,                 // [5] chosen target or null
		aim,                      // [6] aim bearing or null
		boolToInt(t.Fire),        // [7] fired
	}
}

func writeJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
