package util

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// WaitForInterrupt blocks until SIGINT or SIGTERM arrives or ctx ends, then
// runs callback.
func WaitForInterrupt(ctx context.Context, callback func()) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	slog.Info("Received interrupt; shutting down")
	if callback != nil {
		callback()
	}
}
