// syncfleet is the fleet balance and migration scheduling CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/closeio/syncfleet/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCmd().ExecuteContext(ctx)
	os.Exit(cli.ExitCode(err))
}
