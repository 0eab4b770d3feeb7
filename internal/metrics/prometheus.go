package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/closeio/syncfleet/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	zoneBalances         *prometheus.CounterVec
	zoneDuration         *prometheus.HistogramVec
	balancedAccounts     *prometheus.GaugeVec
	pinnedAccounts       *prometheus.GaugeVec
	placementRatio       *prometheus.GaugeVec
	migrationsScheduled  *prometheus.CounterVec
	persistenceFailures  *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "syncfleet" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "syncfleet"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.zoneBalances = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "balancer",
			Name:      "zone_passes_total",
			Help:      "Total zone balance passes by outcome.",
		}, []string{"zone", "outcome"})

		p.zoneDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "balancer",
			Name:      "zone_pass_duration_seconds",
			Help:      "Duration of zone balance passes in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"zone"})

		p.balancedAccounts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "balancer",
			Name:      "balanced_accounts",
			Help:      "Accounts considered by the last balance pass per zone.",
		}, []string{"zone"})

		p.pinnedAccounts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "balancer",
			Name:      "pinned_accounts",
			Help:      "Accounts excluded from balancing because they are pinned to debug hosts.",
		}, []string{"zone"})

		p.placementRatio = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "balancer",
			Name:      "placement_ratio",
			Help:      "Fraction of accounts already on their optimized slot (1.0 = no moves).",
		}, []string{"zone"})

		p.migrationsScheduled = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "balancer",
			Name:      "migrations_scheduled_total",
			Help:      "Total deferred migrations scheduled per zone.",
		}, []string{"zone"})

		p.persistenceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "balancer",
			Name:      "persistence_failures_total",
			Help:      "Total failed writes to the deferred-migration queue per zone.",
		}, []string{"zone"})

		collectors := []prometheus.Collector{
			p.zoneBalances,
			p.zoneDuration,
			p.balancedAccounts,
			p.pinnedAccounts,
			p.placementRatio,
			p.migrationsScheduled,
			p.persistenceFailures,
		}
		for _, c := range collectors {
			// AlreadyRegisteredError is tolerated so multiple collectors can
			// share a registry in tests.
			if err := p.reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					panic(err)
				}
			}
		}
	})
}

// RecordZoneBalance records the outcome of one zone's balance pass.
func (p *PrometheusCollector) RecordZoneBalance(zone string, success bool) {
	p.ensureRegistered()

	outcome := "success"
	if !success {
		outcome = "failure"
	}
	p.zoneBalances.WithLabelValues(zone, outcome).Inc()
}

// RecordZoneDuration records how long one zone's pass took, in seconds.
func (p *PrometheusCollector) RecordZoneDuration(zone string, seconds float64) {
	p.ensureRegistered()
	p.zoneDuration.WithLabelValues(zone).Observe(seconds)
}

// RecordAccountCount records per-zone balanced and pinned account counts.
func (p *PrometheusCollector) RecordAccountCount(zone string, balanced, pinned int) {
	p.ensureRegistered()
	p.balancedAccounts.WithLabelValues(zone).Set(float64(balanced))
	p.pinnedAccounts.WithLabelValues(zone).Set(float64(pinned))
}

// RecordPlacementRatio records the optimizer's placement ratio for a zone.
func (p *PrometheusCollector) RecordPlacementRatio(zone string, ratio float64) {
	p.ensureRegistered()
	p.placementRatio.WithLabelValues(zone).Set(ratio)
}

// RecordMigrationsScheduled records how many deferred migrations were emitted.
func (p *PrometheusCollector) RecordMigrationsScheduled(zone string, count int) {
	p.ensureRegistered()
	p.migrationsScheduled.WithLabelValues(zone).Add(float64(count))
}

// RecordPersistenceFailure records a failed queue write.
func (p *PrometheusCollector) RecordPersistenceFailure(zone string) {
	p.ensureRegistered()
	p.persistenceFailures.WithLabelValues(zone).Inc()
}
