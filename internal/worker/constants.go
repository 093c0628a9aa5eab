package worker

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

// LogMsgWorkerJobFailed is logged when a worker fails to process a job
const LogMsgWorkerJobFailed = "Worker job failed"

// ============================================================================
// Log Messages - Raffle Jobs
// ============================================================================

const (
	LogMsgJobCompleted       = "Background job completed"
	LogMsgTransitionsApplied = "Period transitions applied"
)

// ============================================================================
// Log Messages - Rollover Worker
// ============================================================================

const (
	LogMsgRolloverScheduled = "Monthly rollover scheduled"
	LogMsgRolloverStarting  = "Monthly rollover starting"
	LogMsgRolloverCompleted = "Monthly rollover completed"
	LogMsgRolloverFailed    = "Monthly rollover failed"
)

// ============================================================================
// Job Names
// ============================================================================

const (
	JobNameWatchtime   = "watchtime_convert"
	JobNameWagerPoll   = "wager_poll"
	JobNameTransitions = "period_transitions"
	JobNameRollover    = "period_rollover"
)

// DefaultRolloverSpec fires at 00:00 UTC on the first day of every month
const DefaultRolloverSpec = "0 0 1 * *"

// ============================================================================
// Test Configuration
// ============================================================================

// Test pool configuration values used in pool_test.go
const (
	TestWorkerCount           = 2
	TestQueueSize             = 10
	TestExpectedJobCount      = 2
	TestWorkerProcessWaitTime = 100 // milliseconds
)
