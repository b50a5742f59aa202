package targeting

import (
	"github.com/elixoids/miner/internal/geo"
	"github.com/elixoids/miner/internal/model/core"
)

// ShouldFire reports whether heading lies within the angular radius of any
// record's current bearing. Targets at non-positive distance never count.
func ShouldFire(records []core.CorrelatedRecord, heading float64) bool {
	for _, r := range records {
		if inCone(r.Current, heading) {
			return true
		}
	}
	return false
}

func inCone(t core.Target, heading float64) bool {
	cone, ok := geo.AngularRadius(t.Radius, t.Distance)
	if !ok {
		return false
	}
	return geo.Separation(heading, t.Bearing) <= cone
}
