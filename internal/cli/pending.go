package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/closeio/syncfleet/queue"
)

func newPendingCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List deferred migrations waiting in the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

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

			pending, err := queue.NewKV(kv, logger).Pending(ctx)
			if err != nil {
				return fmt.Errorf("list pending migrations: %w", err)
			}

			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")

				return enc.Encode(pending)
			}

			if len(pending) == 0 {
				fmt.Fprintln(out, "no pending migrations")

				return nil
			}

			for _, m := range pending {
				fmt.Fprintf(out, "%s -> %s (due %s, pass %s)\n",
					m.AccountID, m.Target, m.Deadline.Format(time.RFC3339), m.PassID)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the pending records as JSON")

	return cmd
}
