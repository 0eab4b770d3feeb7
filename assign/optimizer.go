package assign

import (
	"fmt"

	"github.com/closeio/syncfleet/types"
)

// Result is the outcome of a bucket-to-slot assignment.
type Result struct {
	// SlotFor maps bucket index to slot index; always a permutation of
	// 0..k-1, so every slot receives exactly one bucket.
	SlotFor []int

	// PlacementRatio is the fraction of accounts whose chosen slot equals
	// their current slot (0 when there are no accounts). A ratio of 1.0
	// means the pass schedules no migrations.
	PlacementRatio float64
}

// Optimize chooses the bucket-to-slot bijection that maximizes the number of
// accounts landing on their current slot, minimizing actual migrations
// without disturbing the load balance fixed by the partitioner.
//
// A profit matrix P is built with P[i][j] = 1 + (accounts of bucket i whose
// current slot is slots[j]); the added 1 keeps degenerate all-zero rows away
// from the solver. P is converted to costs (max(P) - P[i][j]) and solved as
// a minimum-cost perfect matching in O(k^3).
//
// Parameters:
//   - buckets: The k buckets produced by the partitioner
//   - slots: The zone's k slots, in canonical order
//   - current: Current slot per account id (absent = never placed)
//
// Returns:
//   - Result: The bijection and its placement ratio
//   - error: ErrConfiguration if bucket and slot counts differ
func Optimize(buckets []types.Bucket, slots []types.Slot, current map[string]types.Slot) (Result, error) {
	if err := checkCounts(buckets, slots); err != nil {
		return Result{}, err
	}
	if len(buckets) == 0 {
		return Result{}, nil
	}

	k := len(buckets)
	slotIndex := make(map[types.Slot]int, k)
	for j, s := range slots {
		slotIndex[s] = j
	}

	profit := make([][]int64, k)
	maxProfit := int64(1)
	for i, b := range buckets {
		profit[i] = make([]int64, k)
		for j := range profit[i] {
			profit[i][j] = 1
		}
		for _, id := range b.AccountIDs {
			cur, ok := current[id]
			if !ok {
				continue
			}
			j, ok := slotIndex[cur]
			if !ok {
				// Current slot is outside this zone's active slots (e.g., a
				// drained or debug host); the account migrates regardless.
				continue
			}
			profit[i][j]++
			if profit[i][j] > maxProfit {
				maxProfit = profit[i][j]
			}
		}
	}

	cost := make([][]int64, k)
	for i := range cost {
		cost[i] = make([]int64, k)
		for j := range cost[i] {
			cost[i][j] = maxProfit - profit[i][j]
		}
	}

	match := minCostMatching(cost)

	return Result{
		SlotFor:        match,
		PlacementRatio: placementRatio(buckets, profit, match),
	}, nil
}

// Identity maps bucket i directly to slot i, skipping the matching solver.
//
// Used when determinism of the mapping or speed is preferred over minimizing
// moves. The reported placement ratio still reflects how many accounts end
// up on their current slot under the identity mapping.
//
// Parameters:
//   - buckets: The k buckets produced by the partitioner
//   - slots: The zone's k slots, in canonical order
//   - current: Current slot per account id (absent = never placed)
//
// Returns:
//   - Result: The identity bijection and its placement ratio
//   - error: ErrConfiguration if bucket and slot counts differ
func Identity(buckets []types.Bucket, slots []types.Slot, current map[string]types.Slot) (Result, error) {
	if err := checkCounts(buckets, slots); err != nil {
		return Result{}, err
	}

	k := len(buckets)
	match := make([]int, k)
	matched := 0
	total := 0
	for i := range match {
		match[i] = i
		total += len(buckets[i].AccountIDs)
		for _, id := range buckets[i].AccountIDs {
			if cur, ok := current[id]; ok && cur == slots[i] {
				matched++
			}
		}
	}

	ratio := 0.0
	if total > 0 {
		ratio = float64(matched) / float64(total)
	}

	return Result{SlotFor: match, PlacementRatio: ratio}, nil
}

func checkCounts(buckets []types.Bucket, slots []types.Slot) error {
	if len(buckets) != len(slots) {
		return fmt.Errorf("%w: %d buckets vs %d slots", types.ErrConfiguration, len(buckets), len(slots))
	}

	return nil
}

// placementRatio computes the fraction of accounts already on their matched
// slot: sum(P[i][match[i]] - 1) / total accounts.
func placementRatio(buckets []types.Bucket, profit [][]int64, match []int) float64 {
	total := 0
	for _, b := range buckets {
		total += len(b.AccountIDs)
	}
	if total == 0 {
		return 0
	}

	var placed int64
	for i, j := range match {
		placed += profit[i][j] - 1
	}

	return float64(placed) / float64(total)
}
