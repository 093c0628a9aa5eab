package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osse101/BrandishRaffle_Go/internal/testing/leaktest"
	"github.com/osse101/BrandishRaffle_Go/internal/worker"
)

// MockJob is a simple job for testing
type MockJob struct {
	Done chan struct{}
}

func (m *MockJob) Process(ctx context.Context) error {
	select {
	case m.Done <- struct{}{}:
	default:
	}
	return nil
}

func TestScheduler(t *testing.T) {
	pool := worker.NewPool(1, 10)
	pool.Start()
	defer pool.Stop()

	sched := New(pool)
	defer sched.Stop()

	job := &MockJob{Done: make(chan struct{}, 10)}
	sched.Schedule(10*time.Millisecond, job)

	timeout := time.After(time.Second)
	runCount := 0
	for runCount < 2 {
		select {
		case <-job.Done:
			runCount++
		case <-timeout:
			t.Fatal("Timeout waiting for job execution")
		}
	}

	assert.GreaterOrEqual(t, runCount, 2)
}

func TestScheduler_RunNow(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Start()
	defer pool.Stop()

	sched := New(pool)
	job := &MockJob{Done: make(chan struct{}, 1)}
	assert.True(t, sched.RunNow(job))

	select {
	case <-job.Done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}

	sched.Stop()
	sched.Stop()
}

func TestScheduler_StopReleasesGoroutines(t *testing.T) {
	leaktest.AfterStop(t, leaktest.DefaultSettle, 0, func() {
		pool := worker.NewPool(2, 4)
		pool.Start()
		s := New(pool)
		s.Schedule(5*time.Millisecond, &MockJob{Done: make(chan struct{}, 1)})
		s.Schedule(5*time.Millisecond, &MockJob{Done: make(chan struct{}, 1)})

		time.Sleep(20 * time.Millisecond)
		s.Stop()
		pool.Stop()
	})
}
