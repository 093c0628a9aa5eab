package leaktest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAfterStop_WorkerThatExits(t *testing.T) {
	AfterStop(t, DefaultSettle, 0, func() {
		stop := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			<-stop
		}()
		close(stop)
		<-done
	})
}

func TestSettleTo_ReportsStragglers(t *testing.T) {
	stop := make(chan struct{})
	defer close(stop)

	before, _ := settleTo(1<<30, 0)
	go func() { <-stop }()

	n, ok := settleTo(before, 20*time.Millisecond)
	assert.False(t, ok)
	assert.Greater(t, n, before)
}
