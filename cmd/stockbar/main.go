// Command stockbar is an xbar/SwiftBar plugin that shows a stock watchlist
// with price alarms in the macOS menu bar.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stockbar/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(cli.NewApp()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
