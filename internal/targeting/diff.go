// Package targeting implements the bot's aiming and firing decisions: bearing
// differencing between ticks, target selection, lead prediction and the fire
// test.
package targeting

import "github.com/elixoids/miner/internal/model/core"

// Diff correlates two consecutive snapshots. Only ids present in both are
// returned; the order is unspecified.
func Diff(prev, curr core.Snapshot) []core.CorrelatedRecord {
	if len(prev) == 0 || len(curr) == 0 {
		return nil
	}
	records := make([]core.CorrelatedRecord, 0, min(len(prev), len(curr)))
	for id, c := range curr {
		p, ok := prev[id]
		if !ok {
			continue
		}
		records = append(records, core.CorrelatedRecord{ID: id, Previous: p, Current: c})
	}
	return records
}
