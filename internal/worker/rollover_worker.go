package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/metrics"
)

// Roller rolls every tenant into a new raffle period
type Roller interface {
	RolloverAll(ctx context.Context) error
}

// RolloverWorker runs the monthly period rollover on a cron schedule in UTC
type RolloverWorker struct {
	roller Roller
	spec   string
	cron   *cron.Cron
	entry  cron.EntryID
}

// NewRolloverWorker creates a rollover worker. An empty spec uses the first
// of the month at midnight.
func NewRolloverWorker(roller Roller, spec string) *RolloverWorker {
	if spec == "" {
		spec = DefaultRolloverSpec
	}
	return &RolloverWorker{
		roller: roller,
		spec:   spec,
		cron:   cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start registers the schedule and starts the cron runner
func (w *RolloverWorker) Start() error {
	id, err := w.cron.AddFunc(w.spec, func() {
		_ = w.RunNow(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid rollover schedule %q: %w", w.spec, err)
	}
	w.entry = id
	w.cron.Start()

	logger.Info(LogMsgRolloverScheduled, "spec", w.spec, "next_run", w.NextRun())
	return nil
}

// NextRun reports when the rollover fires next. It is zero before Start.
func (w *RolloverWorker) NextRun() time.Time {
	return w.cron.Entry(w.entry).Next
}

// RunNow performs a rollover immediately
func (w *RolloverWorker) RunNow(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info(LogMsgRolloverStarting)

	err := w.roller.RolloverAll(ctx)
	metrics.RecordJob(JobNameRollover, err)
	if err != nil {
		log.Error(LogMsgRolloverFailed, "error", err)
		return err
	}
	log.Info(LogMsgRolloverCompleted)
	return nil
}

// Shutdown stops the schedule and waits for a running rollover to finish
func (w *RolloverWorker) Shutdown(ctx context.Context) error {
	stopped := w.cron.Stop()
	return awaitShutdown(ctx, "rollover worker", stopped.Done())
}
