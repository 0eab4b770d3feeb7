package syncfleet

import (
	"fmt"
	"time"
)

// Config is the configuration for the Balancer.
//
// All duration fields accept standard Go duration strings like "30s", "5m"
// when loaded from YAML.
type Config struct {
	// Level selects the deployment tier to balance (e.g., "staging",
	// "prod"). Hosts of other levels are ignored.
	Level string `yaml:"level"`

	// Timespan is the width of the migration window. Every deferred
	// migration's deadline falls within [now+MinDelay, now+Timespan].
	// Wider windows spread reconnect load more thinly.
	Timespan time.Duration `yaml:"timespan"`

	// MinDelay is the minimum delay before any scheduled migration becomes
	// due, giving in-flight syncs a grace period.
	MinDelay time.Duration `yaml:"minDelay"`

	// IdentityAssignment skips the migration-minimizing matching solver and
	// maps bucket i directly to slot i. The mapping itself becomes
	// independent of current placement, at the cost of more migrations.
	IdentityAssignment bool `yaml:"identityAssignment"`

	// DryRun computes and reports planned buckets, bijections, and
	// migrations without persisting anything to the queue.
	DryRun bool `yaml:"dryRun"`
}

// DefaultConfig returns a Config with production defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		Level:    "staging",
		Timespan: 15 * time.Minute,
		MinDelay: 10 * time.Second,
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Level == "" {
		cfg.Level = defaults.Level
	}
	if cfg.Timespan == 0 {
		cfg.Timespan = defaults.Timespan
	}
	if cfg.MinDelay == 0 {
		cfg.MinDelay = defaults.MinDelay
	}
}

// Validate checks configuration constraints and returns an error for
// invalid values.
//
// Rules:
//   - Timespan > 0
//   - MinDelay > 0
//   - MinDelay <= Timespan (the jitter window must not be negative)
//
// Returns:
//   - error: Validation error with a clear explanation, nil if valid
func (cfg *Config) Validate() error {
	if cfg.Timespan <= 0 {
		return fmt.Errorf("Timespan must be > 0, got %v", cfg.Timespan)
	}
	if cfg.MinDelay <= 0 {
		return fmt.Errorf("MinDelay must be > 0, got %v", cfg.MinDelay)
	}
	if cfg.MinDelay > cfg.Timespan {
		return fmt.Errorf(
			"MinDelay (%v) must be <= Timespan (%v); the migration window would be empty",
			cfg.MinDelay, cfg.Timespan,
		)
	}

	return nil
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Returns:
//   - Config: Configuration with fast timings for tests
func TestConfig() Config {
	cfg := DefaultConfig()
	cfg.Timespan = 2 * time.Second
	cfg.MinDelay = 10 * time.Millisecond

	return cfg
}
