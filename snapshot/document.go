// Package snapshot reads the per-account load document consumed by the
// balancer.
//
// The document is a JSON object mapping zone names to account-load maps:
//
//	{
//	    "us-east-1a": {"account-1": 12.5, "account-2": 3},
//	    "default": {"account-9": 1}
//	}
//
// A zone with no direct entry falls back to the document's fallback key
// (default "default"); only when both are absent does the balancer report
// missing load data for the zone.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/closeio/syncfleet/types"
)

// DefaultFallbackKey is the document key consulted when a zone has no entry
// of its own.
const DefaultFallbackKey = "default"

// Document is an immutable point-in-time load snapshot.
type Document struct {
	fallbackKey string
	zones       map[string]map[string]float64
}

// New creates a document from an in-memory zone map.
//
// Parameters:
//   - zones: Zone name (or fallback key) to account-load map
//
// Returns:
//   - *Document: Document using DefaultFallbackKey
//   - error: ErrNegativeLoad if any load is negative
func New(zones map[string]map[string]float64) (*Document, error) {
	for zone, loads := range zones {
		for id, load := range loads {
			if load < 0 {
				return nil, fmt.Errorf("%w: account %q in %q has load %v", types.ErrNegativeLoad, id, zone, load)
			}
		}
	}

	return &Document{fallbackKey: DefaultFallbackKey, zones: zones}, nil
}

// Parse reads a JSON load document.
//
// Parameters:
//   - r: Reader positioned at the JSON document
//
// Returns:
//   - *Document: Parsed document
//   - error: Decode error, or ErrNegativeLoad for invalid loads
func Parse(r io.Reader) (*Document, error) {
	var zones map[string]map[string]float64
	dec := json.NewDecoder(r)
	if err := dec.Decode(&zones); err != nil {
		return nil, fmt.Errorf("failed to decode load snapshot: %w", err)
	}

	return New(zones)
}

// LoadFile reads a JSON load document from disk.
//
// Parameters:
//   - path: Path to the snapshot file
//
// Returns:
//   - *Document: Parsed document
//   - error: File or decode error
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open load snapshot: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// SetFallbackKey overrides the fallback key consulted for zones without a
// direct entry.
func (d *Document) SetFallbackKey(key string) {
	d.fallbackKey = key
}

// Loads returns the account-load map for a zone, consulting the fallback
// key when the zone has no direct entry.
//
// Parameters:
//   - zone: Zone name
//
// Returns:
//   - map[string]float64: Account id to load
//   - error: ErrMissingLoadData when neither zone nor fallback entry exists
func (d *Document) Loads(zone string) (map[string]float64, error) {
	if loads, ok := d.zones[zone]; ok {
		return loads, nil
	}
	if loads, ok := d.zones[d.fallbackKey]; ok {
		return loads, nil
	}

	return nil, fmt.Errorf("%w: zone %q (fallback %q)", types.ErrMissingLoadData, zone, d.fallbackKey)
}

// Zones returns the zone keys present in the document, including the
// fallback key if present.
func (d *Document) Zones() []string {
	out := make([]string, 0, len(d.zones))
	for zone := range d.zones {
		out = append(out, zone)
	}

	return out
}
