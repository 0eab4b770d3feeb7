package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Slot identifies one concrete sync-worker process on one host.
//
// A slot is the atomic unit of sync capacity: a host running N worker
// processes exposes N slots, numbered 0..N-1.
type Slot struct {
	// Host is the name of the host the worker process runs on.
	Host string `json:"host"`

	// Proc is the zero-based process index on the host.
	Proc int `json:"proc"`
}

// String returns the canonical "host:proc" form of the slot.
func (s Slot) String() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Proc)
}

// ParseSlot parses a "host:proc" string into a Slot.
//
// The process index is taken from the final colon-separated segment, so host
// names containing colons are tolerated.
//
// Parameters:
//   - value: Slot string in "host:proc" form
//
// Returns:
//   - Slot: Parsed slot
//   - error: ErrInvalidSlot wrapped with the offending value
func ParseSlot(value string) (Slot, error) {
	idx := strings.LastIndex(value, ":")
	if idx <= 0 || idx == len(value)-1 {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, value)
	}

	proc, err := strconv.Atoi(value[idx+1:])
	if err != nil || proc < 0 {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, value)
	}

	return Slot{Host: value[:idx], Proc: proc}, nil
}

// Account is a sync account known to the balancer.
type Account struct {
	// ID is the opaque account identifier.
	ID string `json:"id"`

	// Load is the measured sync load of the account. Always non-negative.
	Load float64 `json:"load"`

	// Zone is the zone the account syncs in.
	Zone string `json:"zone,omitempty"`

	// Current is the slot the account is currently assigned to, or nil if
	// the account has never been placed.
	Current *Slot `json:"current_slot,omitempty"`
}

// Host describes one sync host in the fleet topology.
type Host struct {
	// Name uniquely identifies the host within its zone.
	Name string `json:"name" yaml:"name"`

	// Zone is the zone (region/datacenter) the host belongs to.
	Zone string `json:"zone" yaml:"zone"`

	// Level is the deployment tier (e.g., "staging", "prod").
	Level string `json:"level" yaml:"level"`

	// IPAddress is the host's private address. Informational only; the
	// balancer addresses hosts by name.
	IPAddress string `json:"ip_address,omitempty" yaml:"ipAddress,omitempty"`

	// NumProcs is the number of sync-worker processes the host runs.
	NumProcs int `json:"num_procs" yaml:"numProcs"`

	// Debug marks a host reserved for manually pinned accounts. Debug hosts
	// are excluded from automatic rebalancing.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// Slots expands the host into its ordered list of slots.
//
// Returns:
//   - []Slot: One slot per worker process, in process-index order
func (h Host) Slots() []Slot {
	slots := make([]Slot, 0, h.NumProcs)
	for i := 0; i < h.NumProcs; i++ {
		slots = append(slots, Slot{Host: h.Name, Proc: i})
	}

	return slots
}

// Topology is an immutable point-in-time list of fleet hosts.
type Topology []Host

// ForZone returns the hosts belonging to the given zone, preserving order.
func (t Topology) ForZone(zone string) Topology {
	var out Topology
	for _, h := range t {
		if h.Zone == zone {
			out = append(out, h)
		}
	}

	return out
}

// ForLevel returns the hosts belonging to the given deployment level,
// preserving order.
func (t Topology) ForLevel(level string) Topology {
	var out Topology
	for _, h := range t {
		if h.Level == level {
			out = append(out, h)
		}
	}

	return out
}

// Active returns the non-debug hosts, preserving order.
func (t Topology) Active() Topology {
	var out Topology
	for _, h := range t {
		if !h.Debug {
			out = append(out, h)
		}
	}

	return out
}

// DebugHosts returns the set of host names flagged as debug.
func (t Topology) DebugHosts() map[string]bool {
	out := make(map[string]bool)
	for _, h := range t {
		if h.Debug {
			out[h.Name] = true
		}
	}

	return out
}

// Zones returns the sorted list of distinct zones in the topology.
func (t Topology) Zones() []string {
	seen := make(map[string]bool)

	var zones []string
	for _, h := range t {
		if !seen[h.Zone] {
			seen[h.Zone] = true
			zones = append(zones, h.Zone)
		}
	}
	sort.Strings(zones)

	return zones
}

// Slots expands every host into its slots, in host order then process-index
// order. The resulting slice defines the canonical slot ordering used by the
// partitioner and the assignment optimizer.
func (t Topology) Slots() []Slot {
	var slots []Slot
	for _, h := range t {
		slots = append(slots, h.Slots()...)
	}

	return slots
}

// Bucket is a transient grouping of accounts produced by the partitioner,
// destined for exactly one slot. Buckets are recomputed on every balance
// pass and never persisted.
type Bucket struct {
	// AccountIDs lists the accounts in the bucket.
	AccountIDs []string `json:"account_ids"`

	// Load is the aggregate load of the bucket's accounts.
	Load float64 `json:"load"`
}
