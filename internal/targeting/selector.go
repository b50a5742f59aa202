package targeting

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/elixoids/miner/internal/model/core"
)

// ErrNoTargets is returned when a choice is requested from no records.
var ErrNoTargets = errors.New("no targets")

// DefaultDampen is the tolerance used by the original miner.
const DefaultDampen = 1.5

// Selector picks the target whose bearing changes least between ticks
// ("constant bearing, decreasing range").
type Selector struct {
	dampen float64
}

// NewSelector validates dampen, which must be greater than 1.
func NewSelector(dampen float64) (Selector, error) {
	if !(dampen > 1) || math.IsInf(dampen, 0) {
		return Selector{}, fmt.Errorf("dampen must be > 1, got %v", dampen)
	}
	return Selector{dampen: dampen}, nil
}

// Rate is the dampened bearing rate of change for a record. The difference is
// taken on the raw normalized bearings, so a target crossing the 0/2π seam
// rates as fast moving.
func (s Selector) Rate(r core.CorrelatedRecord) float64 {
	return math.Abs(r.Current.Bearing-r.Previous.Bearing) / s.dampen
}

// Choose returns the record with the smallest rate; ties go to the lower id.
func (s Selector) Choose(records []core.CorrelatedRecord) (core.CorrelatedRecord, error) {
	if len(records) == 0 {
		return core.CorrelatedRecord{}, ErrNoTargets
	}
	return slices.MinFunc(records, func(a, b core.CorrelatedRecord) int {
		ra, rb := s.Rate(a), s.Rate(b)
		switch {
		case ra < rb:
			return -1
		case ra > rb:
			return 1
		}
		return a.ID - b.ID
	}), nil
}
