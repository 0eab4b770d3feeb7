package partition

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/closeio/syncfleet/types"
)

// Split partitions accounts into k buckets with approximately equal
// aggregate load using the LPT heuristic.
//
// Accounts are sorted by load descending with ties broken by stable input
// order. The first k accounts seed one bucket each, so the k heaviest
// accounts anchor distinct buckets. Every remaining account is appended to
// the bucket with the smallest aggregate load at that point; ties among
// equally loaded buckets resolve to the lowest bucket index, keeping the
// result deterministic.
//
// Fewer accounts than k yields empty trailing buckets; this is not an error.
//
// Parameters:
//   - accounts: Accounts to partition (loads must be non-negative)
//   - k: Target bucket count, normally the zone's total slot capacity
//
// Returns:
//   - []types.Bucket: Exactly k buckets covering every input account once
//   - error: ErrNoCapacity if k <= 0
func Split(accounts []types.Account, k int) ([]types.Bucket, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d buckets requested", types.ErrNoCapacity, k)
	}

	ordered := make([]types.Account, len(accounts))
	copy(ordered, accounts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Load > ordered[j].Load
	})

	buckets := make([]types.Bucket, k)

	// Seed phase: the k heaviest accounts anchor distinct buckets.
	seed := min(k, len(ordered))
	lh := make(loadHeap, 0, k)
	for i := 0; i < k; i++ {
		if i < seed {
			buckets[i].AccountIDs = append(buckets[i].AccountIDs, ordered[i].ID)
			buckets[i].Load = ordered[i].Load
		}
		lh = append(lh, bucketLoad{index: i, load: buckets[i].Load})
	}
	heap.Init(&lh)

	// Greedy phase: each remaining account goes to the lightest bucket.
	for _, acct := range ordered[seed:] {
		lightest := heap.Pop(&lh).(bucketLoad)
		buckets[lightest.index].AccountIDs = append(buckets[lightest.index].AccountIDs, acct.ID)
		buckets[lightest.index].Load += acct.Load
		lightest.load = buckets[lightest.index].Load
		heap.Push(&lh, lightest)
	}

	return buckets, nil
}

// bucketLoad tracks one bucket's aggregate load inside the min-heap.
type bucketLoad struct {
	index int
	load  float64
}

// loadHeap is a min-heap of bucket loads with index tie-breaking for
// deterministic placement.
type loadHeap []bucketLoad

func (h loadHeap) Len() int { return len(h) }

func (h loadHeap) Less(i, j int) bool {
	if h[i].load != h[j].load {
		return h[i].load < h[j].load
	}

	return h[i].index < h[j].index
}

func (h loadHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *loadHeap) Push(x any) { *h = append(*h, x.(bucketLoad)) }

func (h *loadHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}
