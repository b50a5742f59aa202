package influx

import (
	"strconv"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/elixoids/miner/pkg/core"
)

// Measurement names written by the miner.
const (
	MeasurementTick       = "miner_tick"
	MeasurementConnection = "miner_connection"
)

// TickPoint converts a tick into a point tagged by session, player and game.
// Target fields are only present when the tick produced a command.
func TickPoint(s core.Session, t core.Tick) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementTick).
		AddTag("session", s.ID).
		AddTag("player", s.Player).
		AddTag("game", strconv.Itoa(s.Game)).
		AddTag("strategy", s.Strategy).
		AddField("tick", int64(t.Number)).
		AddField("attempt", t.Attempt).
		AddField("elapsed_ms", float64(t.Elapsed.Microseconds())/1000).
		AddField("heading", t.Heading).
		AddField("candidates", t.Candidates).
		AddField("command", t.HasCommand).
		SetTime(t.Time)

	if t.HasCommand {
		p.AddField("target", t.TargetID).
			AddField("aim", t.Aim).
			AddField("fire", t.Fire).
			AddField("target_bearing", t.Target.Bearing).
			AddField("target_distance", t.Target.Distance)
	}
	return p
}

// ConnectionPoint converts a supervisor transition into a point.
func ConnectionPoint(s core.Session, e core.ConnectionEvent) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementConnection).
		AddTag("session", s.ID).
		AddTag("player", s.Player).
		AddTag("game", strconv.Itoa(s.Game)).
		AddTag("state", e.State).
		AddField("attempt", e.Attempt).
		AddField("remaining", e.Remaining).
		AddField("backoff_ms", e.Backoff.Milliseconds()).
		SetTime(e.Time)

	if e.Error != "" {
		p.AddField("error", e.Error)
	}
	return p
}
