package schedule

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/closeio/syncfleet/internal/logger"
	"github.com/closeio/syncfleet/queue"
	"github.com/closeio/syncfleet/types"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, seed int64) *Scheduler {
	t.Helper()

	return New(
		15*time.Minute,
		10*time.Second,
		func() time.Time { return testNow },
		rand.New(rand.NewSource(seed)),
		logger.NewTest(t),
	)
}

func TestPlan(t *testing.T) {
	slots := []types.Slot{{Host: "h1", Proc: 0}, {Host: "h1", Proc: 1}}
	buckets := []types.Bucket{
		{AccountIDs: []string{"stay", "move"}},
		{AccountIDs: []string{"fresh"}},
	}
	current := map[string]types.Slot{
		"stay": {Host: "h1", Proc: 0},
		"move": {Host: "h2", Proc: 0},
		// "fresh" was never placed
	}

	s := newTestScheduler(t, 1)
	migrations, err := s.Plan(buckets, slots, []int{0, 1}, current, "pass-1")
	require.NoError(t, err)

	require.Len(t, migrations, 2, "only changed and unplaced accounts migrate")

	byAccount := map[string]types.DeferredMigration{}
	for _, m := range migrations {
		byAccount[m.AccountID] = m
	}

	require.NotContains(t, byAccount, "stay")
	require.Equal(t, types.Slot{Host: "h1", Proc: 0}, byAccount["move"].Target)
	require.Equal(t, types.Slot{Host: "h1", Proc: 1}, byAccount["fresh"].Target)
	require.Equal(t, "pass-1", byAccount["move"].PassID)
}

func TestPlanLengthMismatch(t *testing.T) {
	s := newTestScheduler(t, 1)

	_, err := s.Plan(make([]types.Bucket, 2), make([]types.Slot, 3), []int{0, 1}, nil, "")
	require.ErrorIs(t, err, types.ErrConfiguration)

	_, err = s.Plan(make([]types.Bucket, 2), make([]types.Slot, 2), []int{0}, nil, "")
	require.ErrorIs(t, err, types.ErrConfiguration)
}

func TestPlanDeadlineBounds(t *testing.T) {
	slots := []types.Slot{{Host: "h", Proc: 0}}
	buckets := []types.Bucket{{AccountIDs: make([]string, 200)}}
	for i := range buckets[0].AccountIDs {
		buckets[0].AccountIDs[i] = string(rune('a' + i%26))
	}

	s := newTestScheduler(t, 99)
	migrations, err := s.Plan(buckets, slots, []int{0}, nil, "")
	require.NoError(t, err)

	lower := testNow.Add(10 * time.Second)
	upper := testNow.Add(15 * time.Minute)
	for _, m := range migrations {
		require.False(t, m.Deadline.Before(lower), "deadline %v below now+minDelay", m.Deadline)
		require.False(t, m.Deadline.After(upper), "deadline %v above now+timespan", m.Deadline)
	}
}

func TestPlanDeterministicWithFixedSeed(t *testing.T) {
	slots := []types.Slot{{Host: "h", Proc: 0}, {Host: "h", Proc: 1}}
	buckets := []types.Bucket{
		{AccountIDs: []string{"a", "b"}},
		{AccountIDs: []string{"c"}},
	}

	first, err := newTestScheduler(t, 42).Plan(buckets, slots, []int{0, 1}, nil, "p")
	require.NoError(t, err)
	second, err := newTestScheduler(t, 42).Plan(buckets, slots, []int{0, 1}, nil, "p")
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestPlanDegenerateWindow(t *testing.T) {
	// timespan == minDelay leaves no jitter room; every deadline is
	// exactly now+minDelay.
	s := New(10*time.Second, 10*time.Second,
		func() time.Time { return testNow },
		rand.New(rand.NewSource(1)),
		logger.NewNop(),
	)

	migrations, err := s.Plan(
		[]types.Bucket{{AccountIDs: []string{"a"}}},
		[]types.Slot{{Host: "h", Proc: 0}},
		[]int{0}, nil, "",
	)
	require.NoError(t, err)
	require.True(t, migrations[0].Deadline.Equal(testNow.Add(10*time.Second)))
}

func TestPersist(t *testing.T) {
	s := newTestScheduler(t, 1)
	ctx := context.Background()

	migrations := []types.DeferredMigration{
		{AccountID: "a", Target: types.Slot{Host: "h", Proc: 0}, Deadline: testNow},
		{AccountID: "b", Target: types.Slot{Host: "h", Proc: 1}, Deadline: testNow},
		{AccountID: "c", Target: types.Slot{Host: "h", Proc: 2}, Deadline: testNow},
	}

	t.Run("all records persisted", func(t *testing.T) {
		q := queue.NewMemory()
		n, err := s.Persist(ctx, q, migrations)
		require.NoError(t, err)
		require.Equal(t, 3, n)
		require.Equal(t, 3, q.Len())
	})

	t.Run("failure aborts remaining writes", func(t *testing.T) {
		q := queue.NewMemory()
		require.NoError(t, q.Append(ctx, migrations[0]))
		q.FailWith(errors.New("kv down"))

		n, err := s.Persist(ctx, q, migrations)
		require.ErrorIs(t, err, types.ErrPersistence)
		require.Zero(t, n)
		require.Equal(t, 1, q.Len(), "already-persisted records stand")
	})
}
