// Package metrics provides MetricsCollector implementations for the
// syncfleet balancer.
package metrics

import "github.com/closeio/syncfleet/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordZoneBalance discards the zone balance outcome metric.
func (n *NopMetrics) RecordZoneBalance(_ /* zone */ string, _ /* success */ bool) {
	// No-op
}

// RecordZoneDuration discards the zone duration metric.
func (n *NopMetrics) RecordZoneDuration(_ /* zone */ string, _ /* seconds */ float64) {
	// No-op
}

// RecordAccountCount discards the account count metric.
func (n *NopMetrics) RecordAccountCount(_ /* zone */ string, _ /* balanced */, _ /* pinned */ int) {
	// No-op
}

// RecordPlacementRatio discards the placement ratio metric.
func (n *NopMetrics) RecordPlacementRatio(_ /* zone */ string, _ /* ratio */ float64) {
	// No-op
}

// RecordMigrationsScheduled discards the migrations scheduled metric.
func (n *NopMetrics) RecordMigrationsScheduled(_ /* zone */ string, _ /* count */ int) {
	// No-op
}

// RecordPersistenceFailure discards the persistence failure metric.
func (n *NopMetrics) RecordPersistenceFailure(_ /* zone */ string) {
	// No-op
}
