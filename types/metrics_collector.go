package types

// MetricsCollector defines the metrics surface of the balancer.
//
// Implementations must be safe for concurrent use; zones are balanced in
// parallel and report independently.
type MetricsCollector interface {
	// RecordZoneBalance records the outcome of one zone's balance pass.
	RecordZoneBalance(zone string, success bool)

	// RecordZoneDuration records how long one zone's pass took, in seconds.
	RecordZoneDuration(zone string, seconds float64)

	// RecordAccountCount records how many accounts a zone's pass considered,
	// split into balanced accounts and accounts pinned to debug hosts.
	RecordAccountCount(zone string, balanced, pinned int)

	// RecordPlacementRatio records the fraction of accounts already on the
	// slot the optimizer chose for them (1.0 = no migrations needed).
	RecordPlacementRatio(zone string, ratio float64)

	// RecordMigrationsScheduled records how many deferred migrations a
	// zone's pass emitted.
	RecordMigrationsScheduled(zone string, count int)

	// RecordPersistenceFailure records a failed write to the
	// deferred-migration queue.
	RecordPersistenceFailure(zone string)
}
