package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/BrandishRaffle_Go/internal/event"
	"github.com/osse101/BrandishRaffle_Go/internal/server"
)

// ShutdownComponents holds all components that need graceful shutdown.
type ShutdownComponents struct {
	Server             *server.Server
	Jobs               *Jobs
	Subscribers        *Subscribers
	ResilientPublisher *event.ResilientPublisher
}

// GracefulShutdown stops components in dependency order:
// 1. HTTP server (stop accepting new requests)
// 2. Rollover cron and interval scheduler (no new jobs)
// 3. Worker pool (cancel in-flight jobs, wait for them to return)
// 4. Event publisher (flush pending retries)
// 5. Outbound subscribers (Redis, Discord)
//
// Errors during shutdown are logged but do not stop the shutdown sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if components.Server != nil {
		if err := components.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if jobs := components.Jobs; jobs != nil {
		if jobs.Rollover != nil {
			if err := jobs.Rollover.Shutdown(ctx); err != nil {
				slog.Error(LogMsgRolloverShutdownFailed, "error", err)
			}
		}
		if jobs.Scheduler != nil {
			jobs.Scheduler.Stop()
		}
		if jobs.Pool != nil {
			jobs.Pool.Stop()
		}
		slog.Info(LogMsgJobsStopped)
	}

	// Publisher goes after the jobs so their final events are flushed
	if components.ResilientPublisher != nil {
		slog.Info(LogMsgShuttingDownEventPublisher)
		if err := components.ResilientPublisher.Shutdown(ctx); err != nil {
			slog.Error(LogMsgResilientPublisherFailed, "error", err)
		}
	}

	if components.Subscribers != nil {
		components.Subscribers.Close()
	}

	slog.Info(LogMsgServerStopped)
}
