package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elixoids/miner/internal/supervisor"
	"github.com/elixoids/miner/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct{}

func (fakeRecorder) GetLastDBWriteDuration() time.Duration { return 1500 * time.Microsecond }
func (fakeRecorder) Dropped() uint64                       { return 4 }

func testStatus() supervisor.Status {
	return supervisor.Status{
		Endpoint:  transport.Endpoint{Host: "localhost:8065", Game: 2, Player: "MAB"},
		Strategy:  "constant-bearing",
		State:     supervisor.StateConnected,
		Attempt:   1,
		Remaining: 5,
		Ticks:     10,
		Commands:  8,
		Shots:     3,
	}
}

func readReport(t *testing.T, path string) Report {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var r Report
	require.NoError(t, json.Unmarshal(data, &r))
	return r
}

func TestGetReport(t *testing.T) {
	s := NewService(Dependencies{Status: testStatus, Recorder: fakeRecorder{}})
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	r := s.GetReport(now)
	assert.Equal(t, now, r.Time)
	assert.Equal(t, "connected", r.State)
	assert.Equal(t, testStatus().Endpoint.String(), r.Endpoint)
	assert.Equal(t, uint(3), r.Shots)
	assert.InDelta(t, 1.5, r.LastWriteDurationMs, 1e-6)
	assert.Equal(t, uint64(4), r.DroppedTicks)
}

func TestWriteStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{Status: testStatus, Path: path})

	require.NoError(t, s.WriteStatus())
	r := readReport(t, path)
	assert.Equal(t, uint(10), r.Ticks)
	assert.Zero(t, r.DroppedTicks)
}

func TestStartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{Status: testStatus, Path: path, Interval: 5 * time.Millisecond})

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(), "second start is a no-op")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()

	assert.Equal(t, "connected", readReport(t, path).State)
}

func TestStart_MissingDependencies(t *testing.T) {
	assert.Error(t, NewService(Dependencies{}).Start())
}
