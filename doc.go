// Package syncfleet computes fleet load-balancing plans for sync accounts
// and schedules the resulting account migrations.
//
// Given a point-in-time load snapshot, the fleet host topology, and the
// accounts' current slot assignments, a balance pass partitions each zone's
// accounts into load-balanced buckets (LPT heuristic), picks the
// bucket-to-slot bijection that minimizes how many accounts actually move
// (minimum-cost bipartite matching), and emits time-jittered
// deferred-migration records so the moves spread over a bounded window
// instead of causing a reconnect storm.
//
// # Quick Start
//
//	cfg := syncfleet.DefaultConfig()
//
//	js, _ := jetstream.New(natsConn)
//	kv, err := queue.EnsureBucket(ctx, js, queue.DefaultBucket, queue.DefaultRecordTTL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	b, err := syncfleet.NewBalancer(&cfg, queue.NewKV(kv, logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := b.Balance(ctx, topo, loads, currentAssignments)
//
// # Architecture
//
// Each zone is balanced independently: a failure in one zone (missing load
// data, no capacity, a persistence error) never affects the others. Zone
// passes are pure computations over immutable inputs and run concurrently;
// only the deferred-migration queue is shared, and it tolerates concurrent
// appends.
//
// Determinism: partitioning and assignment are fully deterministic for a
// given input. Migration deadlines are jittered from a per-zone random
// source derived from the balancer seed, so fixing the seed (WithSeed) makes
// entire passes reproducible.
package syncfleet
