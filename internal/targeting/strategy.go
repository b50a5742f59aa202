package targeting

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/elixoids/miner/internal/model/core"
	"github.com/elixoids/miner/pkg/streaming"
)

// ErrUnknownStrategy is returned by New for an unregistered name.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy names accepted by New.
const (
	NameConstantBearing = "constant-bearing"
	NameNearest         = "nearest"
)

// Decision is the result of one tick. A nil Command is the empty decision.
type Decision struct {
	Command    *streaming.Command
	Target     core.CorrelatedRecord
	Candidates int
	Records    []core.CorrelatedRecord
}

// Empty reports whether nothing should be sent this tick.
func (d Decision) Empty() bool {
	return d.Command == nil
}

// Strategy turns the correlated records of one tick into a decision.
type Strategy interface {
	Name() string
	Decide(records []core.CorrelatedRecord, heading float64) (Decision, error)
}

// Params configures the strategies built by New.
type Params struct {
	Dampen float64
	Sigma  float64
	Noise  Noise
}

// New builds the named strategy.
func New(name string, p Params) (Strategy, error) {
	predictor := Predictor{Sigma: p.Sigma, Noise: p.Noise}
	switch name {
	case NameConstantBearing, "":
		sel, err := NewSelector(p.Dampen)
		if err != nil {
			return nil, err
		}
		return &ConstantBearing{Selector: sel, Predictor: predictor}, nil
	case NameNearest:
		return &Nearest{Predictor: predictor}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Names lists the registered strategies.
func Names() []string {
	names := []string{NameConstantBearing, NameNearest}
	sort.Strings(names)
	return names
}

// command assembles the outbound command; Fire is only set when firing.
func command(theta float64, fire bool) *streaming.Command {
	c := &streaming.Command{Theta: theta}
	if fire {
		c.Fire = streaming.Fire(true)
	}
	return c
}

// ConstantBearing leads the target with the most stable bearing and fires
// whenever the ship is already pointing at any target.
type ConstantBearing struct {
	Selector  Selector
	Predictor Predictor
}

// Name implements Strategy.
func (s *ConstantBearing) Name() string { return NameConstantBearing }

// Decide implements Strategy.
func (s *ConstantBearing) Decide(records []core.CorrelatedRecord, heading float64) (Decision, error) {
	target, err := s.Selector.Choose(records)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Command:    command(s.Predictor.Aim(target), ShouldFire(records, heading)),
		Target:     target,
		Candidates: len(records),
		Records:    records,
	}, nil
}

// Nearest points straight at the closest target without leading it.
type Nearest struct {
	Predictor Predictor
}

// Name implements Strategy.
func (s *Nearest) Name() string { return NameNearest }

// Decide implements Strategy.
func (s *Nearest) Decide(records []core.CorrelatedRecord, heading float64) (Decision, error) {
	if len(records) == 0 {
		return Decision{}, ErrNoTargets
	}
	target := slices.MinFunc(records, func(a, b core.CorrelatedRecord) int {
		switch {
		case a.Current.Distance < b.Current.Distance:
			return -1
		case a.Current.Distance > b.Current.Distance:
			return 1
		}
		return a.ID - b.ID
	})
	return Decision{
		Command:    command(s.Predictor.Perturb(target.Current.Bearing), ShouldFire(records, heading)),
		Target:     target,
		Candidates: len(records),
		Records:    records,
	}, nil
}
