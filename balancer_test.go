package syncfleet_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/closeio/syncfleet"
	"github.com/closeio/syncfleet/internal/logger"
	"github.com/closeio/syncfleet/queue"
	"github.com/closeio/syncfleet/snapshot"
	"github.com/closeio/syncfleet/topology"
	"github.com/closeio/syncfleet/types"
)

var passNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// scenarioTopology: zone "z" with hosts of capacity [2, 1, 1] => 4 slots.
func scenarioTopology() types.Topology {
	return types.Topology{
		{Name: "host1", Zone: "z", Level: "staging", NumProcs: 2},
		{Name: "host2", Zone: "z", Level: "staging", NumProcs: 1},
		{Name: "host3", Zone: "z", Level: "staging", NumProcs: 1},
	}
}

func scenarioLoads(t *testing.T) *snapshot.Document {
	t.Helper()

	doc, err := snapshot.New(map[string]map[string]float64{
		"z": {"a": 10, "b": 9, "c": 8, "d": 1, "e": 1, "f": 1},
	})
	require.NoError(t, err)

	return doc
}

func scenarioCurrent() map[string]types.Slot {
	return map[string]types.Slot{
		"a": {Host: "host1", Proc: 0},
		"b": {Host: "host1", Proc: 1},
		"c": {Host: "host2", Proc: 0},
		// d, e, f unassigned
	}
}

func newTestBalancer(t *testing.T, cfg syncfleet.Config, q types.MigrationQueue, opts ...syncfleet.Option) *syncfleet.Balancer {
	t.Helper()

	opts = append([]syncfleet.Option{
		syncfleet.WithLogger(logger.NewTest(t)),
		syncfleet.WithNow(func() time.Time { return passNow }),
		syncfleet.WithSeed(42),
	}, opts...)

	b, err := syncfleet.NewBalancer(&cfg, q, opts...)
	require.NoError(t, err)

	return b
}

func TestNewBalancer(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := syncfleet.NewBalancer(nil, queue.NewMemory())
		require.ErrorIs(t, err, syncfleet.ErrInvalidConfig)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := syncfleet.DefaultConfig()
		cfg.MinDelay = time.Hour // exceeds default timespan
		_, err := syncfleet.NewBalancer(&cfg, queue.NewMemory())
		require.ErrorIs(t, err, syncfleet.ErrInvalidConfig)
	})

	t.Run("queue required unless dry-run", func(t *testing.T) {
		cfg := syncfleet.DefaultConfig()
		_, err := syncfleet.NewBalancer(&cfg, nil)
		require.ErrorIs(t, err, syncfleet.ErrQueueRequired)

		cfg.DryRun = true
		_, err = syncfleet.NewBalancer(&cfg, nil)
		require.NoError(t, err)
	})
}

func TestBalanceScenario(t *testing.T) {
	q := queue.NewMemory()
	b := newTestBalancer(t, syncfleet.TestConfig(), q)

	report, err := b.Balance(context.Background(), scenarioTopology(), scenarioLoads(t), scenarioCurrent())
	require.NoError(t, err)
	require.NotEmpty(t, report.PassID)

	zr := report.Zones["z"]
	require.NotNil(t, zr)
	require.NoError(t, zr.Err)

	// The three heavy accounts anchor distinct buckets; the three light
	// accounts collapse into the fourth: aggregate loads 10, 9, 8, 3.
	require.Len(t, zr.Buckets, 4)
	require.Equal(t,
		[]float64{10, 9, 8, 3},
		[]float64{zr.Buckets[0].Load, zr.Buckets[1].Load, zr.Buckets[2].Load, zr.Buckets[3].Load},
	)

	// a, b, c are already on distinct slots; the optimizer keeps them in
	// place, so only d, e, f migrate (all to the remaining slot, host3:0).
	require.InDelta(t, 0.5, zr.PlacementRatio, 1e-9)
	require.Len(t, zr.Migrations, 3)
	require.Equal(t, 3, zr.Persisted)
	require.Equal(t, 3, q.Len())

	moved := map[string]bool{}
	for _, m := range zr.Migrations {
		moved[m.AccountID] = true
		require.Equal(t, types.Slot{Host: "host3", Proc: 0}, m.Target)
		require.Equal(t, report.PassID, m.PassID)
	}
	require.Equal(t, map[string]bool{"d": true, "e": true, "f": true}, moved)
}

func TestBalanceIdentityMode(t *testing.T) {
	cfg := syncfleet.TestConfig()
	cfg.IdentityAssignment = true
	q := queue.NewMemory()
	b := newTestBalancer(t, cfg, q)

	report, err := b.Balance(context.Background(), scenarioTopology(), scenarioLoads(t), scenarioCurrent())
	require.NoError(t, err)

	zr := report.Zones["z"]
	require.NoError(t, zr.Err)

	// Identity maps bucket i to slot i regardless of current placement.
	require.Equal(t, []int{0, 1, 2, 3}, zr.SlotFor)
}

func TestBalanceOptimizeNeverWorseThanIdentity(t *testing.T) {
	run := func(identity bool) int {
		cfg := syncfleet.TestConfig()
		cfg.IdentityAssignment = identity
		q := queue.NewMemory()
		b := newTestBalancer(t, cfg, q)

		// Current placement is scrambled relative to the canonical slot
		// order, so identity mode must move more accounts.
		current := map[string]types.Slot{
			"a": {Host: "host3", Proc: 0},
			"b": {Host: "host2", Proc: 0},
			"c": {Host: "host1", Proc: 0},
		}

		report, err := b.Balance(context.Background(), scenarioTopology(), scenarioLoads(t), current)
		require.NoError(t, err)
		require.NoError(t, report.Zones["z"].Err)

		return len(report.Zones["z"].Migrations)
	}

	optimized := run(false)
	identity := run(true)
	require.LessOrEqual(t, optimized, identity)
}

func TestBalanceDebugExclusion(t *testing.T) {
	topo := append(scenarioTopology(), types.Host{
		Name: "debug1", Zone: "z", Level: "staging", NumProcs: 2, Debug: true,
	})
	current := scenarioCurrent()
	current["c"] = types.Slot{Host: "debug1", Proc: 0} // pin c to the debug host

	q := queue.NewMemory()
	b := newTestBalancer(t, syncfleet.TestConfig(), q)

	report, err := b.Balance(context.Background(), topo, scenarioLoads(t), current)
	require.NoError(t, err)

	zr := report.Zones["z"]
	require.NoError(t, zr.Err)
	require.Equal(t, 1, zr.Pinned)
	require.Equal(t, 5, zr.Eligible)

	// Pinned account appears in no bucket and never migrates.
	for _, bkt := range zr.Buckets {
		require.NotContains(t, bkt.AccountIDs, "c")
	}
	_, pending := q.Get("c")
	require.False(t, pending)

	// Debug host slots receive no bucket.
	for _, s := range zr.Slots {
		require.NotEqual(t, "debug1", s.Host)
	}
}

func TestBalanceZoneIsolation(t *testing.T) {
	topo := append(scenarioTopology(), types.Host{
		Name: "lonely", Zone: "starved", Level: "staging", NumProcs: 1,
	})
	doc, err := snapshot.New(map[string]map[string]float64{
		"z": {"a": 1, "b": 2},
		// "starved" has no entry and there is no fallback key
	})
	require.NoError(t, err)

	q := queue.NewMemory()
	b := newTestBalancer(t, syncfleet.TestConfig(), q)

	report, err := b.Balance(context.Background(), topo, doc, nil)
	require.NoError(t, err, "zone-level failures are not fatal")

	require.ErrorIs(t, report.Zones["starved"].Err, syncfleet.ErrMissingLoadData)
	require.NoError(t, report.Zones["z"].Err)
	require.Equal(t, []string{"starved"}, report.FailedZones())
	require.NotEmpty(t, report.Zones["z"].Migrations)
}

func TestBalanceNoCapacity(t *testing.T) {
	topo := types.Topology{
		{Name: "debug-only", Zone: "z", Level: "staging", NumProcs: 4, Debug: true},
	}

	b := newTestBalancer(t, syncfleet.TestConfig(), queue.NewMemory())

	report, err := b.Balance(context.Background(), topo, scenarioLoads(t), nil)
	require.NoError(t, err)
	require.ErrorIs(t, report.Zones["z"].Err, syncfleet.ErrNoCapacity)
}

func TestBalanceLevelSelection(t *testing.T) {
	cfg := syncfleet.TestConfig()
	cfg.Level = "prod"

	topo := scenarioTopology() // staging hosts only
	b := newTestBalancer(t, cfg, queue.NewMemory())

	report, err := b.Balance(context.Background(), topo, scenarioLoads(t), nil)
	require.NoError(t, err)
	require.Empty(t, report.Zones, "no hosts at the selected level means no zones")
}

func TestBalanceDeadlineBounds(t *testing.T) {
	cfg := syncfleet.DefaultConfig() // timespan 15m, min delay 10s
	q := queue.NewMemory()
	b := newTestBalancer(t, cfg, q)

	report, err := b.Balance(context.Background(), scenarioTopology(), scenarioLoads(t), nil)
	require.NoError(t, err)

	lower := passNow.Add(10 * time.Second)
	upper := passNow.Add(15 * time.Minute)
	for _, m := range report.Zones["z"].Migrations {
		require.False(t, m.Deadline.Before(lower))
		require.False(t, m.Deadline.After(upper))
	}
}

func TestBalanceDeterministicWithSeed(t *testing.T) {
	run := func() *syncfleet.ZoneReport {
		b := newTestBalancer(t, syncfleet.TestConfig(), queue.NewMemory())
		report, err := b.Balance(context.Background(), scenarioTopology(), scenarioLoads(t), scenarioCurrent())
		require.NoError(t, err)

		return report.Zones["z"]
	}

	first := run()
	second := run()

	require.Equal(t, first.Buckets, second.Buckets)
	require.Equal(t, first.SlotFor, second.SlotFor)

	require.Len(t, second.Migrations, len(first.Migrations))
	for i := range first.Migrations {
		// PassID differs between runs; everything else must match,
		// including jittered deadlines thanks to the fixed seed.
		require.Equal(t, first.Migrations[i].AccountID, second.Migrations[i].AccountID)
		require.Equal(t, first.Migrations[i].Target, second.Migrations[i].Target)
		require.True(t, first.Migrations[i].Deadline.Equal(second.Migrations[i].Deadline))
	}
}

func TestBalanceDryRun(t *testing.T) {
	cfg := syncfleet.TestConfig()
	cfg.DryRun = true

	b := newTestBalancer(t, cfg, nil)

	report, err := b.Balance(context.Background(), scenarioTopology(), scenarioLoads(t), scenarioCurrent())
	require.NoError(t, err)

	zr := report.Zones["z"]
	require.NoError(t, zr.Err)
	require.NotEmpty(t, zr.Migrations, "dry-run still reports the plan")
	require.Zero(t, zr.Persisted)
	require.Zero(t, report.TotalPersisted())
}

func TestBalancePersistenceFailure(t *testing.T) {
	q := queue.NewMemory()
	q.FailWith(errors.New("kv down"))

	b := newTestBalancer(t, syncfleet.TestConfig(), q)

	report, err := b.Balance(context.Background(), scenarioTopology(), scenarioLoads(t), scenarioCurrent())
	require.NoError(t, err, "persistence failures abort the zone, not the pass")
	require.ErrorIs(t, report.Zones["z"].Err, syncfleet.ErrPersistence)
}

func TestBalanceFrom(t *testing.T) {
	src := topology.NewStatic(scenarioTopology())
	q := queue.NewMemory()
	b := newTestBalancer(t, syncfleet.TestConfig(), q)

	report, err := b.BalanceFrom(context.Background(), src, scenarioLoads(t), scenarioCurrent())
	require.NoError(t, err)
	require.NoError(t, report.Zones["z"].Err)
	require.Equal(t, 3, q.Len())
}

func TestBalanceCoverage(t *testing.T) {
	q := queue.NewMemory()
	b := newTestBalancer(t, syncfleet.TestConfig(), q)

	report, err := b.Balance(context.Background(), scenarioTopology(), scenarioLoads(t), scenarioCurrent())
	require.NoError(t, err)

	seen := map[string]int{}
	for _, bkt := range report.Zones["z"].Buckets {
		for _, id := range bkt.AccountIDs {
			seen[id]++
		}
	}
	require.Len(t, seen, 6, "every account in exactly one bucket")
	for id, n := range seen {
		require.Equal(t, 1, n, "account %s placed %d times", id, n)
	}
}
