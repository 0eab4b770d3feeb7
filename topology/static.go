package topology

import (
	"context"
	"sync"

	"github.com/closeio/syncfleet/types"
)

// Static implements a topology source with a fixed host list.
type Static struct {
	mu    sync.RWMutex
	hosts types.Topology
}

var _ types.TopologySource = (*Static)(nil)

// NewStatic creates a new static topology source.
//
// The source returns a fixed host list that only changes via Update.
// Useful for testing and for CLI runs where the topology comes from a file.
//
// Parameters:
//   - hosts: Fixed host list
//
// Returns:
//   - *Static: Initialized static source
func NewStatic(hosts types.Topology) *Static {
	return &Static{hosts: hosts}
}

// Hosts returns the static host list.
//
// Returns:
//   - types.Topology: Copy of the fixed host list
//   - error: Always nil (never fails)
func (s *Static) Hosts(_ context.Context) (types.Topology, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(types.Topology, len(s.hosts))
	copy(result, s.hosts)

	return result, nil
}

// Update replaces the host list.
//
// This allows the static source to simulate topology changes between
// balance passes, which is useful for testing.
//
// Parameters:
//   - hosts: New host list
func (s *Static) Update(hosts types.Topology) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hosts = make(types.Topology, len(hosts))
	copy(s.hosts, hosts)
}
