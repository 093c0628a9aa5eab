package watchtime

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgConversionCompleted = "Watch time converted"
	LogMsgConversionSkipped   = "Watch time conversion already running for tenant, skipping"
	LogMsgNoActivePeriod      = "No active period, skipping watch time conversion"
	LogMsgAccountFailed       = "Watch time conversion failed for account"
	LogMsgTenantFailed        = "Watch time conversion failed for tenant"
	LogMsgReadingUnresolved   = "Skipping watch time for unlinked handle"
	LogMsgReadingResolveError = "Failed to resolve watch time handle"
	LogMsgBaselineRecorded    = "Recorded watch time baseline for account new to the period"
)

// ============================================================================
// Error Context Messages
// ============================================================================

const (
	ErrContextFailedToBeginTx        = "failed to begin transaction: %w"
	ErrContextFailedToCommitTx       = "failed to commit transaction: %w"
	ErrContextFailedToListReadings   = "failed to list watch time readings: %w"
	ErrContextFailedToReadCheckpoint = "failed to read checkpoint: %w"
	ErrContextFailedToSetCheckpoint  = "failed to set checkpoint: %w"
)

// DescriptionFormat describes a conversion: hours, minutes converted
const DescriptionFormat = "watch time: %d h (%d min)"
