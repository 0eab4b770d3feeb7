package syncfleet

import (
	"sort"

	"github.com/closeio/syncfleet/types"
)

// ZoneReport describes the outcome of one zone's balance pass.
type ZoneReport struct {
	// Zone is the zone the pass covered.
	Zone string

	// Slots is the zone's canonical slot ordering (non-debug hosts only).
	Slots []types.Slot

	// Buckets are the computed buckets, index-aligned with SlotFor.
	Buckets []types.Bucket

	// SlotFor maps bucket index to slot index (a permutation).
	SlotFor []int

	// PlacementRatio is the fraction of accounts already on their chosen
	// slot (1.0 = the pass schedules no migrations).
	PlacementRatio float64

	// Eligible is the number of accounts considered for balancing.
	Eligible int

	// Pinned is the number of accounts left untouched on debug hosts.
	Pinned int

	// Migrations are the deferred migrations the pass planned.
	Migrations []types.DeferredMigration

	// Persisted is how many of the planned migrations were written to the
	// queue (equal to len(Migrations) on success, 0 in dry-run mode).
	Persisted int

	// Err is the zone's failure, if any. Nil on success.
	Err error
}

// Failed reports whether the zone's pass ended in error.
func (r *ZoneReport) Failed() bool {
	return r.Err != nil
}

// Report is the outcome of a whole balance pass across zones.
type Report struct {
	// PassID uniquely identifies the pass; every emitted migration record
	// is stamped with it.
	PassID string

	// Zones maps zone name to its report. Every zone of the selected level
	// appears, including failed ones.
	Zones map[string]*ZoneReport
}

// FailedZones returns the names of zones whose pass ended in error.
func (r *Report) FailedZones() []string {
	var out []string
	for zone, zr := range r.Zones {
		if zr.Failed() {
			out = append(out, zone)
		}
	}
	sort.Strings(out)

	return out
}

// TotalMigrations returns the number of migrations planned across all zones.
func (r *Report) TotalMigrations() int {
	total := 0
	for _, zr := range r.Zones {
		total += len(zr.Migrations)
	}

	return total
}

// TotalPersisted returns the number of migrations written to the queue
// across all zones.
func (r *Report) TotalPersisted() int {
	total := 0
	for _, zr := range r.Zones {
		total += zr.Persisted
	}

	return total
}
