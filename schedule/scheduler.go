// Package schedule turns a bucket-to-slot bijection into time-jittered
// deferred-migration records.
//
// Every account whose resolved slot differs from its current slot gets a
// record with a deadline drawn uniformly from [now+minDelay, now+timespan].
// The jitter spreads reconnect load across the window instead of moving the
// whole fleet at once.
package schedule

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/closeio/syncfleet/types"
)

// Scheduler computes and persists deferred migrations for one zone pass.
//
// Not safe for concurrent use: the balancer creates one scheduler per zone
// pass with that zone's random source.
type Scheduler struct {
	timespan time.Duration
	minDelay time.Duration
	now      func() time.Time
	rng      *rand.Rand
	logger   types.Logger
}

// New creates a scheduler.
//
// Parameters:
//   - timespan: Width of the migration window; deadlines never exceed now+timespan
//   - minDelay: Minimum delay before any migration becomes due
//   - now: Clock function (injected for deterministic tests)
//   - rng: Random source for jitter (injected for deterministic tests)
//   - logger: Logger for scheduling events
//
// Returns:
//   - *Scheduler: Initialized scheduler
func New(timespan, minDelay time.Duration, now func() time.Time, rng *rand.Rand, logger types.Logger) *Scheduler {
	return &Scheduler{
		timespan: timespan,
		minDelay: minDelay,
		now:      now,
		rng:      rng,
		logger:   logger,
	}
}

// Plan computes the deferred-migration records implied by the bijection.
//
// A record is emitted for every account whose resolved slot differs from its
// current slot, including accounts that were never placed. Accounts already
// on their resolved slot are skipped.
//
// Parameters:
//   - buckets: The k buckets produced by the partitioner
//   - slots: The zone's k slots, in canonical order
//   - slotFor: Bucket-to-slot bijection (slotFor[i] = slot index of bucket i)
//   - current: Current slot per account id (absent = never placed)
//   - passID: Balance pass identifier stamped on every record
//
// Returns:
//   - []types.DeferredMigration: Records sorted by bucket then account order
//   - error: ErrConfiguration on bucket/slot/bijection length mismatch
func (s *Scheduler) Plan(
	buckets []types.Bucket,
	slots []types.Slot,
	slotFor []int,
	current map[string]types.Slot,
	passID string,
) ([]types.DeferredMigration, error) {
	if len(buckets) != len(slots) || len(slotFor) != len(buckets) {
		return nil, fmt.Errorf("%w: %d buckets, %d slots, %d mappings",
			types.ErrConfiguration, len(buckets), len(slots), len(slotFor))
	}

	now := s.now()

	var migrations []types.DeferredMigration
	for i, b := range buckets {
		target := slots[slotFor[i]]
		for _, id := range b.AccountIDs {
			if cur, ok := current[id]; ok && cur == target {
				continue
			}

			migrations = append(migrations, types.DeferredMigration{
				AccountID: id,
				Target:    target,
				Deadline:  now.Add(s.jitter()),
				PassID:    passID,
			})
		}
	}

	return migrations, nil
}

// Persist appends the records to the queue in order.
//
// No retries are attempted: the first failed append aborts the remaining
// writes and is surfaced as ErrPersistence. Records already appended stand.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - q: Destination queue
//   - migrations: Records to persist
//
// Returns:
//   - int: Number of records persisted before any failure
//   - error: ErrPersistence wrapping the queue failure, nil on success
func (s *Scheduler) Persist(ctx context.Context, q types.MigrationQueue, migrations []types.DeferredMigration) (int, error) {
	for i, m := range migrations {
		if err := q.Append(ctx, m); err != nil {
			return i, fmt.Errorf("%w: account %s: %w", types.ErrPersistence, m.AccountID, err)
		}
	}

	return len(migrations), nil
}

// jitter draws a uniform delay from [minDelay, timespan].
func (s *Scheduler) jitter() time.Duration {
	window := s.timespan - s.minDelay
	if window <= 0 {
		return s.minDelay
	}

	return s.minDelay + time.Duration(s.rng.Int63n(int64(window)+1))
}
