package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/vnykmshr/prioflow/internal/cli"
)

func main() {
	// Match GOMAXPROCS to the container CPU quota before sizing any pool.
	undo, err := maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "maxprocs: %v\n", err)
	}
	defer undo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
