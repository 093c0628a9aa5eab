package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/osse101/BrandishRaffle_Go/internal/config"
	"github.com/osse101/BrandishRaffle_Go/internal/handler"
	"github.com/osse101/BrandishRaffle_Go/internal/scheduler"
	"github.com/osse101/BrandishRaffle_Go/internal/worker"
)

// Jobs holds the background machinery that drives ingestion and transitions
type Jobs struct {
	Pool      *worker.Pool
	Scheduler *scheduler.Scheduler
	Rollover  *worker.RolloverWorker
}

// StartJobs starts the worker pool, the interval jobs and the monthly
// rollover. A zero interval disables that job.
func StartJobs(cfg *config.Config, services handler.RaffleServices) (*Jobs, error) {
	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize)
	pool.Start()

	sched := scheduler.New(pool)

	transitions := worker.NewTransitionJob(services.Periods, cfg.TransitionInterval)
	if cfg.TransitionInterval > 0 {
		sched.Schedule(cfg.TransitionInterval, transitions)
		// Catch periods that expired while the process was down
		sched.RunNow(transitions)
	}
	if cfg.WatchtimeInterval > 0 {
		sched.Schedule(cfg.WatchtimeInterval, worker.NewWatchtimeJob(services.Watchtime, cfg.WatchtimeInterval))
	}
	if cfg.WagerPollInterval > 0 {
		sched.Schedule(cfg.WagerPollInterval, worker.NewWagerPollJob(services.Wagers))
	}

	rollover := worker.NewRolloverWorker(services.Periods, cfg.RolloverCron)
	if err := rollover.Start(); err != nil {
		sched.Stop()
		pool.Stop()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedStartRollover, err)
	}

	slog.Info(LogMsgJobsStarted,
		"workers", cfg.WorkerCount,
		"watchtime_interval", cfg.WatchtimeInterval,
		"wager_poll_interval", cfg.WagerPollInterval,
		"transition_interval", cfg.TransitionInterval,
		"rollover_cron", cfg.RolloverCron)

	return &Jobs{Pool: pool, Scheduler: sched, Rollover: rollover}, nil
}
