package worker

import (
	modelcore "github.com/elixoids/miner/internal/model/core"
	"github.com/elixoids/miner/internal/supervisor"
	"github.com/elixoids/miner/pkg/core"
)

// ConnectionEventToCore converts a supervisor transition into a storable event.
func ConnectionEventToCore(sessionID string, ev supervisor.StateChange) core.ConnectionEvent {
	e := core.ConnectionEvent{
		SessionID: sessionID,
		Time:      ev.Time,
		State:     ev.State.String(),
		Attempt:   ev.Attempt,
		Remaining: ev.Remaining,
		Backoff:   ev.Backoff,
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	return e
}

// TickToCore converts a processed frame into a storable tick.
func TickToCore(sessionID string, r supervisor.TickResult) core.Tick {
	d := r.Decision
	t := core.Tick{
		SessionID:  sessionID,
		Attempt:    r.Attempt,
		Number:     r.Number,
		Time:       r.Time,
		Elapsed:    r.Elapsed,
		Heading:    r.Heading,
		Candidates: d.Candidates,
	}

	if len(d.Records) > 0 {
		t.Targets = make([]core.TargetTrack, 0, len(d.Records))
		for _, rec := range d.Records {
			t.Targets = append(t.Targets, track(rec))
		}
	}

	if d.Empty() {
		return t
	}
	t.HasCommand = true
	t.TargetID = d.Target.ID
	t.Aim = d.Command.Theta
	t.Fire = d.Command.Fire != nil && *d.Command.Fire
	t.Target = track(d.Target)
	return t
}

func track(rec modelcore.CorrelatedRecord) core.TargetTrack {
	return core.TargetTrack{
		ID:          rec.ID,
		PrevBearing: rec.Previous.Bearing,
		Bearing:     rec.Current.Bearing,
		Distance:    rec.Current.Distance,
		Radius:      rec.Current.Radius,
	}
}
