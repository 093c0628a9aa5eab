package worker

import (
	"context"

	"github.com/osse101/BrandishRaffle_Go/internal/logger"
)

// awaitShutdown waits for done or for ctx to expire, logging either outcome
func awaitShutdown(ctx context.Context, workerName string, done <-chan struct{}) error {
	log := logger.FromContext(ctx)
	log.Info("Shutting down " + workerName)

	select {
	case <-done:
		log.Info(workerName + " shutdown complete")
		return nil
	case <-ctx.Done():
		log.Warn(workerName + " shutdown timeout")
		return ctx.Err()
	}
}
