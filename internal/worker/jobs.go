package worker

import (
	"context"
	"time"

	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/metrics"
)

// WatchtimeConverter converts watch time for every tenant
type WatchtimeConverter interface {
	ConvertAll(ctx context.Context) error
}

// WagerPoller polls every wager-enabled tenant
type WagerPoller interface {
	PollAll(ctx context.Context) error
}

// TransitionChecker ends expired periods
type TransitionChecker interface {
	CheckTransitions(ctx context.Context) (int, error)
}

// TaskJob runs one named background task with an optional deadline and
// records the outcome in job metrics.
type TaskJob struct {
	name    string
	timeout time.Duration
	run     func(ctx context.Context) error
}

// Name returns the job's metrics label
func (j *TaskJob) Name() string {
	return j.name
}

// Process runs the task
func (j *TaskJob) Process(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	err := j.run(ctx)
	metrics.RecordJob(j.name, err)
	if err == nil {
		logger.FromContext(ctx).Debug(LogMsgJobCompleted, "job", j.name, "duration", time.Since(start))
	}
	return err
}

// NewWatchtimeJob converts accrued watch minutes into tickets
func NewWatchtimeJob(c WatchtimeConverter, timeout time.Duration) *TaskJob {
	return &TaskJob{name: JobNameWatchtime, timeout: timeout, run: c.ConvertAll}
}

// NewWagerPollJob polls affiliate endpoints. Each tenant applies its own
// fetch timeout, so the job itself has no deadline.
func NewWagerPollJob(p WagerPoller) *TaskJob {
	return &TaskJob{name: JobNameWagerPoll, run: p.PollAll}
}

// NewTransitionJob closes expired periods and opens their successors
func NewTransitionJob(c TransitionChecker, timeout time.Duration) *TaskJob {
	return &TaskJob{
		name:    JobNameTransitions,
		timeout: timeout,
		run: func(ctx context.Context) error {
			n, err := c.CheckTransitions(ctx)
			if n > 0 {
				logger.FromContext(ctx).Info(LogMsgTransitionsApplied, "count", n)
			}
			return err
		},
	}
}
