// Command rangefs lists and reads objects in S3-compatible stores through
// HTTP range requests.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/justapithecus/rangefs/cmd/rangefs/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
