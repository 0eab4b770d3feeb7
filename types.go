package syncfleet

import "github.com/closeio/syncfleet/types"

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the `types`
// subpackage, which contains the actual implementations.
//
// This pattern lets internal packages depend on `types` without depending on
// the root `syncfleet` package, while still providing a convenient
// `syncfleet.Account`, `syncfleet.Slot`, etc. for users.
type (
	Account           = types.Account
	Host              = types.Host
	Slot              = types.Slot
	Bucket            = types.Bucket
	Topology          = types.Topology
	DeferredMigration = types.DeferredMigration
)

// Re-export interfaces from the internal types package for convenience.
type (
	MigrationQueue   = types.MigrationQueue
	TopologySource   = types.TopologySource
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
)

// Re-export sentinel errors so callers can select error kinds without
// importing the types subpackage.
var (
	ErrMissingLoadData = types.ErrMissingLoadData
	ErrNoCapacity      = types.ErrNoCapacity
	ErrConfiguration   = types.ErrConfiguration
	ErrPersistence     = types.ErrPersistence
	ErrInvalidConfig   = types.ErrInvalidConfig
	ErrQueueRequired   = types.ErrQueueRequired
)
