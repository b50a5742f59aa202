package supervisor

import (
	"time"

	"github.com/elixoids/miner/internal/targeting"
	"github.com/elixoids/miner/internal/transport"
)

// State is the supervisor's connection state.
type State int

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
	StateRetry
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateRetry:
		return "retry"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// StateChange is delivered to observers on every transition.
type StateChange struct {
	Time      time.Time
	State     State
	Attempt   int
	Remaining int
	Backoff   time.Duration // set for StateRetry
	Err       error         // cause of StateDisconnected or StateTerminated
}

// TickResult is delivered to observers for every frame that carried contacts.
type TickResult struct {
	Time     time.Time
	Attempt  int
	Number   uint
	Elapsed  time.Duration
	Heading  float64
	Decision targeting.Decision
}

// Observer receives supervisor events on the Run goroutine. Implementations
// must not block.
type Observer interface {
	OnStateChange(StateChange)
	OnTick(TickResult)
}

// Status is a point-in-time copy of the supervisor state.
type Status struct {
	Endpoint  transport.Endpoint
	Strategy  string
	State     State
	Attempt   int
	Remaining int
	Ticks     uint
	Commands  uint
	Shots     uint
	LastTick  time.Time
	LastError string
}
