package types

import "errors"

// Sentinel errors for the syncfleet library.
//
// These errors provide type-safe error checking using errors.Is() and
// errors.As(). Components wrap them with context using
// fmt.Errorf("...: %w", err); callers select on the kind to decide whether
// to retry, alert, or abort.

// Zone-level errors - abort only the affected zone; other zones proceed.
var (
	// ErrMissingLoadData is returned when the load snapshot has no entry for
	// a zone and no fallback entry either.
	ErrMissingLoadData = errors.New("no load data for zone")

	// ErrNoCapacity is returned when a zone has zero usable slots after
	// filtering debug hosts.
	ErrNoCapacity = errors.New("no usable slot capacity in zone")

	// ErrPersistence is returned when a write to the deferred-migration
	// queue fails. Remaining writes for the zone are aborted; records
	// already persisted stand.
	ErrPersistence = errors.New("failed to persist deferred migration")
)

// Fatal errors - internal invariant violations, never expected in correct
// operation and never silently recovered.
var (
	// ErrConfiguration indicates an internal invariant violation, such as a
	// bucket/slot count mismatch handed to the assignment optimizer.
	ErrConfiguration = errors.New("configuration invariant violated")
)

// Input-validation errors.
var (
	// ErrInvalidConfig is returned when the balancer configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidSlot is returned when a slot string cannot be parsed.
	ErrInvalidSlot = errors.New("invalid slot")

	// ErrNegativeLoad is returned when a load snapshot contains a negative
	// load value.
	ErrNegativeLoad = errors.New("negative account load")

	// ErrQueueRequired is returned when a non-dry-run balance pass is
	// attempted without a migration queue.
	ErrQueueRequired = errors.New("migration queue is required")
)
