package period

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgPeriodStarted      = "Raffle period started"
	LogMsgPeriodEnded        = "Raffle period ended"
	LogMsgPeriodRolledOver   = "Raffle period rolled over"
	LogMsgPeriodEndMoved     = "Raffle period end date moved"
	LogMsgPeriodExpired      = "Raffle period expired, starting next"
	LogMsgTransitionFailed   = "Period transition failed"
	LogMsgAutoDrawFailed     = "Automatic draw failed"
	LogMsgAutoDrawNoEntrants = "Automatic draw skipped, period had no participants"
	LogMsgCheckpointsSeeded  = "Watchtime checkpoints seeded"
	LogMsgPublishFailed      = "Failed to publish period event"
	LogMsgRolloverSkipped    = "Rollover skipped, tenant failed"
	LogMsgRolloverNotDue     = "Rollover skipped, period end date not reached"
)

// ============================================================================
// Error Context Messages
// ============================================================================

const (
	ErrContextFailedToBeginTx    = "failed to begin transaction: %w"
	ErrContextFailedToCommitTx   = "failed to commit transaction: %w"
	ErrContextFailedToEndPeriod  = "failed to end period: %w"
	ErrContextFailedToOpenPeriod = "failed to open period: %w"
	ErrContextFailedToSeed       = "failed to seed watchtime checkpoints: %w"
)
