// Package convert provides functions to convert core telemetry into GORM models
package convert

import (
	"encoding/json"

	"github.com/elixoids/miner/internal/geo"
	"github.com/elixoids/miner/internal/model"
	"github.com/elixoids/miner/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// tracksToJSON converts the correlated targets to datatypes.JSON for DB storage.
func tracksToJSON(tracks []core.TargetTrack) datatypes.JSON {
	if len(tracks) == 0 {
		return datatypes.JSON("[]")
	}
	data, err := json.Marshal(tracks)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// CoreToSession converts a core.Session to a GORM model.Session.
func CoreToSession(s core.Session) model.Session {
	return model.Session{
		ID:        s.ID,
		Player:    s.Player,
		Game:      s.Game,
		Host:      s.Host,
		Strategy:  s.Strategy,
		StartTime: s.StartTime,
	}
}

// CoreToConnectionEvent converts a core.ConnectionEvent to a GORM model.ConnectionEvent.
func CoreToConnectionEvent(e core.ConnectionEvent) model.ConnectionEvent {
	return model.ConnectionEvent{
		Time:      e.Time,
		SessionID: e.SessionID,
		State:     e.State,
		Attempt:   e.Attempt,
		Remaining: e.Remaining,
		BackoffMs: e.Backoff.Milliseconds(),
		Error:     e.Error,
	}
}

// CoreToTick converts a core.Tick to a GORM model.Tick. The chosen target is
// stored as a point; ticks without a command get an empty point.
func CoreToTick(t core.Tick) model.Tick {
	position := geom.NewEmptyPoint(geom.DimXY)
	if t.HasCommand {
		position = geo.PolarPoint(t.Target.Bearing, t.Target.Distance)
	}

	return model.Tick{
		Time:           t.Time,
		SessionID:      t.SessionID,
		Attempt:        t.Attempt,
		Number:         t.Number,
		ElapsedMs:      float32(t.Elapsed.Microseconds()) / 1000,
		Heading:        t.Heading,
		Candidates:     t.Candidates,
		HasCommand:     t.HasCommand,
		TargetID:       t.TargetID,
		Aim:            t.Aim,
		Fire:           t.Fire,
		TargetPosition: position,
		Targets:        tracksToJSON(t.Targets),
	}
}
