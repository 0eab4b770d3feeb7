package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/closeio/syncfleet"
	"github.com/closeio/syncfleet/queue"
	"github.com/closeio/syncfleet/snapshot"
	"github.com/closeio/syncfleet/topology"
	"github.com/closeio/syncfleet/types"
)

func newBalanceCmd() *cobra.Command {
	var (
		level       string
		dryRun      bool
		identity    bool
		timespan    time.Duration
		minDelay    time.Duration
		seed        uint64
		loadsPath   string
		topoPath    string
		assignPath  string
		fallbackKey string
	)

	cmd := &cobra.Command{
		Use:   "balance --loads <loads.json> --topology <fleet.yaml>",
		Short: "Run one balance pass and schedule the resulting migrations",
		Long: `balance reads a load snapshot, the fleet topology, and the current
account assignments, then runs one balance pass per zone. Planned
migrations are written to the deferred-migration queue unless --dry-run
is set, in which case the plan is printed and nothing is persisted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := syncfleet.Config{
				Level:              level,
				Timespan:           timespan,
				MinDelay:           minDelay,
				IdentityAssignment: identity,
				DryRun:             dryRun,
			}

			doc, err := snapshot.LoadFile(loadsPath)
			if err != nil {
				return fmt.Errorf("load snapshot: %w", err)
			}
			if fallbackKey != "" {
				doc.SetFallbackKey(fallbackKey)
			}

			topo, err := topology.LoadFile(topoPath)
			if err != nil {
				return fmt.Errorf("load topology: %w", err)
			}

			current, err := loadAssignments(assignPath)
			if err != nil {
				return fmt.Errorf("load assignments: %w", err)
			}

			ctx := cmd.Context()

			var q types.MigrationQueue
			if !dryRun {
				nc, err := nats.Connect(flagNatsURL)
				if err != nil {
					return fmt.Errorf("connect to NATS: %w", err)
				}
				defer nc.Close()

				js, err := jetstream.New(nc)
				if err != nil {
					return fmt.Errorf("create JetStream context: %w", err)
				}

				kv, err := queue.EnsureBucket(ctx, js, flagBucket, 0)
				if err != nil {
					return fmt.Errorf("ensure queue bucket: %w", err)
				}
				q = queue.NewKV(kv, logger)
			}

			opts := []syncfleet.Option{syncfleet.WithLogger(logger)}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, syncfleet.WithSeed(seed))
			}

			b, err := syncfleet.NewBalancer(&cfg, q, opts...)
			if err != nil {
				return err
			}

			report, err := b.Balance(ctx, topo, doc, current)
			if err != nil {
				return err
			}
			printReport(cmd, report, dryRun)

			// Surface the first zone failure so the exit code reflects it.
			for _, zone := range report.FailedZones() {
				return report.Zones[zone].Err
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "Deployment level to balance (default: staging)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and print the plan without writing to the queue")
	cmd.Flags().BoolVar(&identity, "identity", false, "Map bucket i to slot i instead of minimizing migrations")
	cmd.Flags().DurationVar(&timespan, "timespan", 0, "Migration window width (default: 15m)")
	cmd.Flags().DurationVar(&minDelay, "min-delay", 0, "Minimum delay before a migration becomes due (default: 10s)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Fixed seed for deadline jitter (default: random)")
	cmd.Flags().StringVar(&loadsPath, "loads", "", "Path to the JSON load snapshot")
	cmd.Flags().StringVar(&topoPath, "topology", "", "Path to the YAML fleet topology")
	cmd.Flags().StringVar(&assignPath, "assignments", "", "Path to the JSON account-to-slot assignment map (optional)")
	cmd.Flags().StringVar(&fallbackKey, "fallback-key", "", "Snapshot key to fall back to for zones without their own entry")

	_ = cmd.MarkFlagRequired("loads")
	_ = cmd.MarkFlagRequired("topology")

	return cmd
}

// loadAssignments reads a JSON object mapping account id to "host:proc".
// A missing path means no account has a current slot.
func loadAssignments(path string) (map[string]types.Slot, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse assignment map: %w", err)
	}

	current := make(map[string]types.Slot, len(raw))
	for id, s := range raw {
		slot, err := types.ParseSlot(s)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", id, err)
		}
		current[id] = slot
	}

	return current, nil
}

func printReport(cmd *cobra.Command, report *syncfleet.Report, dryRun bool) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "pass %s\n", report.PassID)
	for _, zone := range sortedZones(report) {
		zr := report.Zones[zone]
		if zr.Failed() {
			fmt.Fprintf(out, "  zone %s: FAILED: %v\n", zone, zr.Err)

			continue
		}

		fmt.Fprintf(out, "  zone %s: %d slots, %d accounts (%d pinned), placement %.2f, %d migrations\n",
			zone, len(zr.Slots), zr.Eligible, zr.Pinned, zr.PlacementRatio, len(zr.Migrations))

		if dryRun {
			for _, m := range zr.Migrations {
				fmt.Fprintf(out, "    %s -> %s (due %s)\n", m.AccountID, m.Target, m.Deadline.Format(time.RFC3339))
			}
		}
	}
	fmt.Fprintf(out, "  total: %d planned, %d persisted\n", report.TotalMigrations(), report.TotalPersisted())
}

func sortedZones(report *syncfleet.Report) []string {
	zones := make([]string, 0, len(report.Zones))
	for zone := range report.Zones {
		zones = append(zones, zone)
	}
	sort.Strings(zones)

	return zones
}
