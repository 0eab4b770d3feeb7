// Package topology loads and filters the fleet host topology.
//
// The balancer treats the topology as an immutable point-in-time input; in
// production it comes from an external fleet-topology service, while tests
// and the CLI can load it from a YAML document or use a Static source.
package topology

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/closeio/syncfleet/types"
)

// Parse reads a YAML host list.
//
// The document is a YAML sequence of hosts:
//
//	- name: sync-host-1
//	  zone: us-east-1a
//	  level: prod
//	  numProcs: 8
//	- name: sync-debug-1
//	  zone: us-east-1a
//	  level: prod
//	  numProcs: 2
//	  debug: true
//
// Parameters:
//   - r: Reader positioned at the YAML document
//
// Returns:
//   - types.Topology: Parsed host list
//   - error: Decode or validation error
func Parse(r io.Reader) (types.Topology, error) {
	var hosts types.Topology
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&hosts); err != nil {
		return nil, fmt.Errorf("failed to decode topology: %w", err)
	}

	for _, h := range hosts {
		if h.Name == "" {
			return nil, fmt.Errorf("%w: host with empty name", types.ErrInvalidConfig)
		}
		if h.NumProcs <= 0 {
			return nil, fmt.Errorf("%w: host %q has numProcs %d", types.ErrInvalidConfig, h.Name, h.NumProcs)
		}
	}

	return hosts, nil
}

// LoadFile reads a YAML host list from disk.
//
// Parameters:
//   - path: Path to the topology file
//
// Returns:
//   - types.Topology: Parsed host list
//   - error: File or decode error
func LoadFile(path string) (types.Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open topology: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// SplitDebugAccounts separates accounts pinned to debug hosts from the pool
// eligible for balancing.
//
// An account is pinned when its current slot's host is flagged debug in the
// topology. Pinned accounts are excluded from partitioning entirely and
// never receive a deferred migration; their assignment is left untouched.
//
// Parameters:
//   - accounts: Candidate accounts for the zone
//   - topo: The zone's topology (used for its debug host set)
//
// Returns:
//   - []types.Account: Accounts eligible for balancing, input order preserved
//   - []types.Account: Accounts pinned to debug hosts
func SplitDebugAccounts(accounts []types.Account, topo types.Topology) (eligible, pinned []types.Account) {
	debug := topo.DebugHosts()
	if len(debug) == 0 {
		return accounts, nil
	}

	for _, a := range accounts {
		if a.Current != nil && debug[a.Current.Host] {
			pinned = append(pinned, a)
			continue
		}
		eligible = append(eligible, a)
	}

	return eligible, pinned
}
