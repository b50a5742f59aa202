package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels lists every struct here that maps to a table.
var DatabaseModels = []interface{}{
	&Session{},
	&ConnectionEvent{},
	&Tick{},
}

// Session is one bot run against one game.
type Session struct {
	ID        string    `json:"id" gorm:"primarykey;size:36"`
	Player    string    `json:"player" gorm:"size:16;index:idx_session_player"`
	Game      int       `json:"game"`
	Host      string    `json:"host" gorm:"size:255"`
	Strategy  string    `json:"strategy" gorm:"size:64"`
	StartTime time.Time `json:"startTime"`
	// EndTime is set when the session ends; nil while it is running.
	EndTime *time.Time `json:"endTime"`
}

func (*Session) TableName() string {
	return "sessions"
}

// ConnectionEvent is a supervisor state transition.
type ConnectionEvent struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time"`
	SessionID string    `json:"sessionId" gorm:"size:36;index:idx_connectionevent_session_id"`
	State     string    `json:"state" gorm:"size:32"`
	Attempt   int       `json:"attempt"`
	Remaining int       `json:"remaining"`
	BackoffMs int64     `json:"backoffMs"`
	Error     string    `json:"error" gorm:"size:2000"`
}

func (*ConnectionEvent) TableName() string {
	return "connection_events"
}

// Tick is the decision taken for one processed frame.
type Tick struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time       time.Time `json:"time"`
	SessionID  string    `json:"sessionId" gorm:"size:36;index:idx_tick_session_id"`
	Attempt    int       `json:"attempt"`
	Number     uint      `json:"number" gorm:"index:idx_tick_number"`
	ElapsedMs  float32   `json:"elapsedMs"`
	Heading    float64   `json:"heading"`
	Candidates int       `json:"candidates"`
	HasCommand bool      `json:"hasCommand" gorm:"default:false"`
	TargetID   int       `json:"targetId"`
	Aim        float64   `json:"aim"`
	Fire       bool      `json:"fire" gorm:"default:false"`

	// TargetPosition is the chosen target in ship-centric XY.
	TargetPosition geom.Point     `json:"targetPosition"`
	Targets        datatypes.JSON `json:"targets"`
}

func (*Tick) TableName() string {
	return "ticks"
}
