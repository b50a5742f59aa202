// Package core holds the storage-agnostic telemetry records produced while a
// bot is flying. Storage backends convert these into their own schemas.
package core

import "time"

// Session describes one run of the bot against one game.
type Session struct {
	ID        string
	Player    string
	Game      int
	Host      string
	Strategy  string
	StartTime time.Time
}

// ConnectionEvent records one supervisor state transition.
type ConnectionEvent struct {
	SessionID string
	Time      time.Time
	State     string
	Attempt   int
	Remaining int
	Backoff   time.Duration
	Error     string
}
