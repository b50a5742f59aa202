// Package core holds the per-tick radar picture the targeting code works on.
package core

// SaucerID is the reserved target id for the synthetic saucer contact. Rock ids
// assigned by the server are never negative.
const SaucerID = -1

// Target is one contact as seen from the ship.
type Target struct {
	Bearing  float64 // radians, [0, 2π)
	Distance float64
	Radius   float64
}

// Snapshot maps target id to its state on one tick.
type Snapshot map[int]Target

// Frame is a parsed inbound update: the ship heading plus the contacts.
type Frame struct {
	Heading  float64
	Contacts Snapshot
}

// CorrelatedRecord pairs the previous and current state of a target seen on
// two consecutive diffed ticks.
type CorrelatedRecord struct {
	ID       int
	Previous Target
	Current  Target
}

// Clone returns an independent copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, t := range s {
		out[id] = t
	}
	return out
}
