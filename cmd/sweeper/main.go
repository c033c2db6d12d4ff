// Command sweeper triggers the API's auto-convert pipeline, either once or on
// an interval.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"spendwise/internal/logger"
)

// errPartialFailure signals that the sweep ran but some items failed.
var errPartialFailure = errors.New("some upcoming expenses failed to convert")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	logger.Sync()

	switch {
	case err == nil:
	case errors.Is(err, errPartialFailure):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
