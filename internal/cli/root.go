// Package cli implements the syncfleet command line interface.
package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/closeio/syncfleet/internal/logging"
	"github.com/closeio/syncfleet/types"
)

var (
	flagNatsURL  string
	flagBucket   string
	flagLogLevel string

	logger types.Logger
)

// Exit codes, one per failure class so cron wrappers can tell a bad
// config apart from a transient queue outage.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitConfiguration   = 2
	ExitMissingLoadData = 3
	ExitNoCapacity      = 4
	ExitPersistence     = 5
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, types.ErrConfiguration), errors.Is(err, types.ErrInvalidConfig):
		return ExitConfiguration
	case errors.Is(err, types.ErrMissingLoadData):
		return ExitMissingLoadData
	case errors.Is(err, types.ErrNoCapacity):
		return ExitNoCapacity
	case errors.Is(err, types.ErrPersistence):
		return ExitPersistence
	default:
		return ExitFailure
	}
}

// NewRootCmd creates the root cobra command for the syncfleet CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "syncfleet",
		Short: "syncfleet balances sync accounts across fleet hosts",
		Long: `syncfleet partitions accounts by load, assigns partitions to host
slots with minimal movement, and schedules the resulting migrations as
deferred records in a JetStream key-value queue.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: parseLevel(flagLogLevel),
			})
			logger = logging.NewSlog(slog.New(handler))
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagNatsURL, "nats-url", "nats://127.0.0.1:4222", "NATS server URL")
	root.PersistentFlags().StringVar(&flagBucket, "queue-bucket", "", "JetStream KV bucket for deferred migrations (default: built-in bucket name)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newBalanceCmd(),
		newPendingCmd(),
	)

	return root
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
