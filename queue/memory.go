package queue

import (
	"context"
	"sort"
	"sync"

	"github.com/closeio/syncfleet/types"
)

// Memory is an in-memory MigrationQueue for tests and local inspection.
//
// Safe for concurrent appends. Like the KV queue, it keeps at most one
// pending record per account (last write wins).
type Memory struct {
	mu      sync.Mutex
	records map[string]types.DeferredMigration
	failErr error
}

var _ types.MigrationQueue = (*Memory)(nil)

// NewMemory creates an empty in-memory queue.
//
// Returns:
//   - *Memory: Initialized queue
func NewMemory() *Memory {
	return &Memory{records: make(map[string]types.DeferredMigration)}
}

// Append stores the record, replacing any pending record for the account.
func (q *Memory) Append(_ context.Context, m types.DeferredMigration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.failErr != nil {
		return q.failErr
	}
	q.records[m.AccountID] = m

	return nil
}

// Pending returns the stored records ordered by deadline.
func (q *Memory) Pending() []types.DeferredMigration {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]types.DeferredMigration, 0, len(q.records))
	for _, m := range q.records {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Deadline.Before(out[j].Deadline)
	})

	return out
}

// Get returns the pending record for an account, if any.
func (q *Memory) Get(accountID string) (types.DeferredMigration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	m, ok := q.records[accountID]

	return m, ok
}

// Len returns the number of pending records.
func (q *Memory) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.records)
}

// FailWith makes every subsequent Append return err. Pass nil to restore
// normal operation. Used to exercise persistence-failure paths in tests.
func (q *Memory) FailWith(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.failErr = err
}
