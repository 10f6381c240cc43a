package cli

import (
	"context"

	"github.com/custodia-labs/qamine/internal/logger"
)

// startScheduler runs the background scheduler for long-running commands
// and returns a function that stops it. A nil scheduler means disabled.
func startScheduler(ctx context.Context) func() {
	if scheduler == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := scheduler.Start(ctx); err != nil {
			// Scheduler errors must not take the command down.
			logger.Warn("scheduler stopped: %v", err)
		}
	}()

	return func() {
		if err := scheduler.Stop(); err != nil {
			logger.Warn("scheduler stop error: %v", err)
		}
		cancel()
		<-done
	}
}
