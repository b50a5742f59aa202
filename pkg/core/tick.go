package core

import "time"

// TargetTrack is one correlated target as seen on a tick.
type TargetTrack struct {
	ID          int     `json:"id"`
	PrevBearing float64 `json:"prevBearing"`
	Bearing     float64 `json:"bearing"`
	Distance    float64 `json:"distance"`
	Radius      float64 `json:"radius"`
}

// Tick records the decision taken for one processed frame.
type Tick struct {
	SessionID  string
	Attempt    int
	Number     uint
	Time       time.Time
	Elapsed    time.Duration
	Heading    float64
	Candidates int

	// HasCommand is false for the empty decision; the fields below are then zero.
	HasCommand bool
	TargetID   int
	Aim        float64
	Fire       bool

	// Target is the chosen target's current state.
	Target  TargetTrack
	Targets []TargetTrack
}
