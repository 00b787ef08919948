package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mmcdole/stacks/internal/cli"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := cli.NewRootCommand(Version).ExecuteContext(ctx)
	stop()
	if err != nil {
		// Failures already printed by the command carry no message
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
