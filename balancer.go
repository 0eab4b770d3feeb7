package syncfleet

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/zeebo/xxh3"

	"github.com/closeio/syncfleet/assign"
	"github.com/closeio/syncfleet/internal/logger"
	"github.com/closeio/syncfleet/internal/metrics"
	"github.com/closeio/syncfleet/partition"
	"github.com/closeio/syncfleet/schedule"
	"github.com/closeio/syncfleet/snapshot"
	"github.com/closeio/syncfleet/topology"
	"github.com/closeio/syncfleet/types"
)

// Balancer orchestrates balance passes across zones.
//
// A pass captures its inputs (load snapshot, host topology, current
// assignments) as immutable point-in-time values. Zones are balanced
// independently and concurrently; buckets and bijections are computed and
// discarded within the pass, while the emitted deferred-migration records
// outlive it in the queue until consumed by the executor.
type Balancer struct {
	cfg     Config
	queue   types.MigrationQueue
	logger  types.Logger
	metrics types.MetricsCollector
	now     func() time.Time
	seed    uint64
}

// NewBalancer creates a balancer with validated configuration.
//
// Parameters:
//   - cfg: Balancer configuration (defaults applied, then validated)
//   - q: Destination queue for deferred migrations (may be nil in dry-run mode)
//   - opts: Optional dependencies (logger, metrics, clock, seed)
//
// Returns:
//   - *Balancer: New balancer ready for Balance calls
//   - error: ErrInvalidConfig for bad configuration, ErrQueueRequired when a
//     non-dry-run balancer is built without a queue
//
// Example:
//
//	cfg := syncfleet.DefaultConfig()
//	cfg.Level = "prod"
//	b, err := syncfleet.NewBalancer(&cfg, q,
//	    syncfleet.WithLogger(logging.NewSlogDefault()),
//	    syncfleet.WithMetrics(metrics.NewPrometheus(nil, "")),
//	)
func NewBalancer(cfg *Config, q types.MigrationQueue, opts ...Option) (*Balancer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", types.ErrInvalidConfig)
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidConfig, err)
	}

	if q == nil && !cfg.DryRun {
		return nil, types.ErrQueueRequired
	}

	options := balancerOptions{
		logger:  logger.NewNop(),
		metrics: metrics.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.seeded {
		options.seed = uint64(time.Now().UnixNano())
	}

	return &Balancer{
		cfg:     *cfg,
		queue:   q,
		logger:  options.logger,
		metrics: options.metrics,
		now:     options.now,
		seed:    options.seed,
	}, nil
}

// Balance runs one pass over every zone of the configured level.
//
// Zones are processed concurrently and independently: MissingLoadData,
// NoCapacity, and PersistenceError abort only the affected zone and are
// reported in that zone's ZoneReport. A ConfigurationError is an internal
// invariant violation, is never recovered, and is additionally returned as
// the pass error.
//
// Parameters:
//   - ctx: Context for queue writes
//   - topo: Fleet host topology snapshot
//   - doc: Load snapshot document
//   - current: Current slot per account id (absent = never placed)
//
// Returns:
//   - *Report: Per-zone outcomes, including failed zones
//   - error: Non-nil only for fatal failures (ConfigurationError)
func (b *Balancer) Balance(
	ctx context.Context,
	topo types.Topology,
	doc *snapshot.Document,
	current map[string]types.Slot,
) (*Report, error) {
	passID := uuid.NewString()
	level := topo.ForLevel(b.cfg.Level)
	zones := level.Zones()

	b.logger.Info("balance pass started",
		"pass_id", passID,
		"level", b.cfg.Level,
		"zones", len(zones),
		"dry_run", b.cfg.DryRun,
	)

	results := xsync.NewMap[string, *ZoneReport]()

	var wg sync.WaitGroup
	for _, zone := range zones {
		wg.Add(1)
		go func(zone string) {
			defer wg.Done()
			results.Store(zone, b.balanceZone(ctx, passID, zone, level.ForZone(zone), doc, current))
		}(zone)
	}
	wg.Wait()

	report := &Report{PassID: passID, Zones: make(map[string]*ZoneReport, len(zones))}

	var fatal error
	results.Range(func(zone string, zr *ZoneReport) bool {
		report.Zones[zone] = zr
		if zr.Err != nil && errors.Is(zr.Err, types.ErrConfiguration) {
			fatal = zr.Err
		}

		return true
	})

	b.logger.Info("balance pass finished",
		"pass_id", passID,
		"zones", len(zones),
		"failed_zones", len(report.FailedZones()),
		"migrations", report.TotalMigrations(),
		"persisted", report.TotalPersisted(),
	)

	if fatal != nil {
		return report, fatal
	}

	return report, nil
}

// BalanceFrom fetches the topology from a source and runs Balance.
//
// Parameters:
//   - ctx: Context for the topology fetch and queue writes
//   - src: Topology source (e.g., a fleet-service client or topology.Static)
//   - doc: Load snapshot document
//   - current: Current slot per account id
//
// Returns:
//   - *Report: Per-zone outcomes
//   - error: Topology fetch failure or fatal balance failure
func (b *Balancer) BalanceFrom(
	ctx context.Context,
	src types.TopologySource,
	doc *snapshot.Document,
	current map[string]types.Slot,
) (*Report, error) {
	topo, err := src.Hosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch topology: %w", err)
	}

	return b.Balance(ctx, topo, doc, current)
}

// balanceZone runs the full pipeline for one zone:
// debug filter -> partitioner -> assignment optimizer -> migration scheduler.
func (b *Balancer) balanceZone(
	ctx context.Context,
	passID string,
	zone string,
	zoneTopo types.Topology,
	doc *snapshot.Document,
	current map[string]types.Slot,
) *ZoneReport {
	start := time.Now()
	zr := &ZoneReport{Zone: zone}

	defer func() {
		b.metrics.RecordZoneDuration(zone, time.Since(start).Seconds())
		b.metrics.RecordZoneBalance(zone, zr.Err == nil)
		if zr.Err != nil {
			b.logger.Error("zone balance failed", "pass_id", passID, "zone", zone, "error", zr.Err)
		}
	}()

	loads, err := doc.Loads(zone)
	if err != nil {
		zr.Err = err

		return zr
	}

	accounts := accountsFromLoads(zone, loads, current)
	eligible, pinned := topology.SplitDebugAccounts(accounts, zoneTopo)
	zr.Eligible = len(eligible)
	zr.Pinned = len(pinned)
	b.metrics.RecordAccountCount(zone, len(eligible), len(pinned))

	slots := zoneTopo.Active().Slots()
	if len(slots) == 0 {
		zr.Err = fmt.Errorf("%w: zone %q", types.ErrNoCapacity, zone)

		return zr
	}
	zr.Slots = slots

	buckets, err := partition.Split(eligible, len(slots))
	if err != nil {
		zr.Err = fmt.Errorf("zone %q: %w", zone, err)

		return zr
	}
	zr.Buckets = buckets

	var result assign.Result
	if b.cfg.IdentityAssignment {
		result, err = assign.Identity(buckets, slots, current)
	} else {
		result, err = assign.Optimize(buckets, slots, current)
	}
	if err != nil {
		zr.Err = fmt.Errorf("zone %q: %w", zone, err)

		return zr
	}
	zr.SlotFor = result.SlotFor
	zr.PlacementRatio = result.PlacementRatio
	b.metrics.RecordPlacementRatio(zone, result.PlacementRatio)

	scheduler := schedule.New(b.cfg.Timespan, b.cfg.MinDelay, b.now, b.zoneRand(zone), b.logger)

	migrations, err := scheduler.Plan(buckets, slots, result.SlotFor, current, passID)
	if err != nil {
		zr.Err = fmt.Errorf("zone %q: %w", zone, err)

		return zr
	}
	zr.Migrations = migrations
	b.metrics.RecordMigrationsScheduled(zone, len(migrations))

	b.logger.Info("zone balanced",
		"pass_id", passID,
		"zone", zone,
		"slots", len(slots),
		"accounts", len(eligible),
		"pinned", len(pinned),
		"placement_ratio", result.PlacementRatio,
		"migrations", len(migrations),
	)

	if b.cfg.DryRun {
		return zr
	}

	persisted, err := scheduler.Persist(ctx, b.queue, migrations)
	zr.Persisted = persisted
	if err != nil {
		b.metrics.RecordPersistenceFailure(zone)
		zr.Err = fmt.Errorf("zone %q: %w", zone, err)
	}

	return zr
}

// zoneRand derives a per-zone random source from the balancer seed.
//
// Hashing the zone name keeps each zone's jitter stream independent of the
// order zones are scheduled in, so a fixed seed reproduces the whole pass.
func (b *Balancer) zoneRand(zone string) *rand.Rand {
	return rand.New(rand.NewSource(int64(b.seed ^ xxh3.HashString(zone)))) //nolint:gosec // jitter, not crypto
}

// accountsFromLoads builds the zone's account list in canonical order.
//
// Map iteration order is randomized, so account ids are sorted to give the
// partitioner a stable input order for tie-breaking.
func accountsFromLoads(zone string, loads map[string]float64, current map[string]types.Slot) []types.Account {
	ids := make([]string, 0, len(loads))
	for id := range loads {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	accounts := make([]types.Account, 0, len(ids))
	for _, id := range ids {
		a := types.Account{ID: id, Load: loads[id], Zone: zone}
		if cur, ok := current[id]; ok {
			slot := cur
			a.Current = &slot
		}
		accounts = append(accounts, a)
	}

	return accounts
}
