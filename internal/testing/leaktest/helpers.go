// Package leaktest checks that raffle background workers (the scheduler, the
// worker pool, the resilient publisher) leave no goroutines behind once they
// are stopped.
package leaktest

import (
	"runtime"
	"testing"
	"time"
)

// DefaultSettle is how long AfterStop waits for goroutines to wind down
const DefaultSettle = time.Second

// AfterStop runs fn, which must start and stop the workers under test, and
// fails t unless the goroutine count falls back to where it was within settle.
// Extra allows for goroutines fn is known to leave running, such as pgx
// health checks on a pool that outlives the call.
func AfterStop(t testing.TB, settle time.Duration, extra int, fn func()) {
	t.Helper()

	before := runtime.NumGoroutine()
	fn()

	if n, ok := settleTo(before+extra, settle); !ok {
		t.Errorf("goroutines still running after stop: before=%d after=%d allowed=%d", before, n, extra)
	}
}

// settleTo polls until at most target goroutines remain or the deadline passes.
func settleTo(target int, settle time.Duration) (int, bool) {
	deadline := time.Now().Add(settle)
	for {
		n := runtime.NumGoroutine()
		if n <= target {
			return n, true
		}
		if time.Now().After(deadline) {
			return n, false
		}
		runtime.Gosched()
		time.Sleep(5 * time.Millisecond)
	}
}
