package types

import (
	"context"
	"time"
)

// DeferredMigration schedules a time-delayed move of one account to a new
// slot. Records are persisted to an external queue and consumed exactly once
// by an out-of-process executor when their deadline elapses.
//
// Deadlines are jittered by the scheduler so that a balance pass spreads its
// reconnects across the configured timespan instead of moving every account
// at once.
type DeferredMigration struct {
	// AccountID is the account to move.
	AccountID string `json:"account_id"`

	// Target is the slot the account should move to.
	Target Slot `json:"target_slot"`

	// Deadline is the absolute time after which the executor may perform
	// the move.
	Deadline time.Time `json:"deadline"`

	// PassID identifies the balance pass that produced the record. Useful
	// for correlating records with balancer logs.
	PassID string `json:"pass_id,omitempty"`
}

// MigrationQueue persists deferred-migration records for the executor.
//
// Implementations must tolerate concurrent appends: independent zones are
// balanced in parallel and write to the same queue. Appending a record for
// an account that already has a pending record replaces it (last write
// wins), so the executor only ever sees the most recent target per account.
//
// Implementations should not retry internally; retry policy belongs to the
// caller's collaborator, and the balancer surfaces append failures
// immediately as ErrPersistence.
type MigrationQueue interface {
	// Append persists one deferred-migration record, replacing any pending
	// record for the same account.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - m: The record to persist
	//
	// Returns:
	//   - error: Non-nil if the record could not be persisted
	Append(ctx context.Context, m DeferredMigration) error
}

// TopologySource provides the fleet host topology for a balance pass.
//
// The returned topology is treated as an immutable snapshot; the balancer
// never mutates it.
type TopologySource interface {
	// Hosts returns the current fleet topology.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//
	// Returns:
	//   - Topology: Host list snapshot
	//   - error: Non-nil if the topology could not be fetched
	Hosts(ctx context.Context) (Topology, error)
}
