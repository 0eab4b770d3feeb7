package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/closeio/syncfleet/types"
)

// DefaultBucket is the KV bucket name used for deferred migrations.
const DefaultBucket = "syncfleet-deferred-migration"

// DefaultRecordTTL is how long an unconsumed record survives in the bucket.
// Matches the lifetime the executor grants pending migrations.
const DefaultRecordTTL = 7 * 24 * time.Hour

// KV is a MigrationQueue backed by a NATS JetStream KeyValue bucket.
//
// Records are keyed by account id: appending a record for an account with a
// pending record replaces it, so the executor only ever sees the latest
// target per account. NATS KV tolerates concurrent puts, which lets
// independent zones persist in parallel.
type KV struct {
	kv     jetstream.KeyValue
	logger types.Logger
}

var _ types.MigrationQueue = (*KV)(nil)

// NewKV creates a migration queue on top of an existing KV bucket.
//
// Parameters:
//   - kv: The JetStream KV bucket holding the records
//   - logger: Logger for queue events (must not be nil)
//
// Returns:
//   - *KV: Initialized queue
//
// Example:
//
//	kv, err := queue.EnsureBucket(ctx, js, queue.DefaultBucket, queue.DefaultRecordTTL)
//	if err != nil { /* handle */ }
//	q := queue.NewKV(kv, logger)
func NewKV(kv jetstream.KeyValue, logger types.Logger) *KV {
	return &KV{kv: kv, logger: logger}
}

// EnsureBucket creates or opens the deferred-migration KV bucket.
//
// Handles the race where multiple balancer processes try to create the
// bucket concurrently by falling back to opening an existing bucket.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream context
//   - bucket: Bucket name (DefaultBucket if empty)
//   - ttl: Record TTL (DefaultRecordTTL if zero)
//
// Returns:
//   - jetstream.KeyValue: The KV bucket instance
//   - error: Creation/open failure
func EnsureBucket(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	if ttl == 0 {
		ttl = DefaultRecordTTL
	}

	kv, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "deferred account migrations pending execution",
		TTL:         ttl,
	})
	if err == nil {
		return kv, nil
	}

	if errors.Is(err, jetstream.ErrBucketExists) {
		kv, err = js.KeyValue(ctx, bucket)
		if err == nil {
			return kv, nil
		}
	}

	return nil, fmt.Errorf("failed to create/open KV bucket %s: %w", bucket, err)
}

// Append persists one deferred-migration record, replacing any pending
// record for the same account.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - m: The record to persist
//
// Returns:
//   - error: KV put or marshal failure
func (q *KV) Append(ctx context.Context, m types.DeferredMigration) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal deferred migration: %w", err)
	}

	if _, err := q.kv.Put(ctx, m.AccountID, data); err != nil {
		return fmt.Errorf("failed to put deferred migration for %s: %w", m.AccountID, err)
	}

	q.logger.Debug("deferred migration persisted",
		"account_id", m.AccountID,
		"target", m.Target.String(),
		"deadline", m.Deadline,
	)

	return nil
}

// Pending lists the pending deferred-migration records, ordered by deadline.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - []types.DeferredMigration: Pending records (empty when none)
//   - error: KV access failure
func (q *KV) Pending(ctx context.Context) ([]types.DeferredMigration, error) {
	keys, err := q.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list pending migrations: %w", err)
	}

	out := make([]types.DeferredMigration, 0, len(keys))
	for _, key := range keys {
		entry, err := q.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue // expired or consumed between Keys() and Get()
			}

			return nil, fmt.Errorf("failed to read pending migration %s: %w", key, err)
		}

		var m types.DeferredMigration
		if err := json.Unmarshal(entry.Value(), &m); err != nil {
			q.logger.Warn("skipping malformed pending migration", "key", key, "error", err)
			continue
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Deadline.Before(out[j].Deadline)
	})

	return out, nil
}

// Remove deletes an account's pending record, typically after the executor
// has performed the move.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - accountID: Account whose record should be removed
//
// Returns:
//   - error: KV delete failure (removing an absent record is not an error)
func (q *KV) Remove(ctx context.Context, accountID string) error {
	if err := q.kv.Delete(ctx, accountID); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil
		}

		return fmt.Errorf("failed to remove deferred migration for %s: %w", accountID, err)
	}

	return nil
}
