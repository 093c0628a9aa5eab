package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details for security reasons.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	// HTTP status messages
	ErrMsgMethodNotAllowed      = "Method not allowed"
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"

	// Parameter error messages
	ErrMsgMissingQueryParam = "Missing %s query parameter"
	ErrMsgInvalidLimit      = "Invalid limit parameter"
	ErrMsgInvalidPeriodID   = "Invalid period id"
	ErrMsgMissingTenant     = "Missing tenant id"
	ErrMsgInvalidEndDate    = "end_at must be an RFC3339 timestamp"
	ErrMsgPayloadTooLarge   = "Payload too large"
)

// Success messages for API responses
const (
	MsgExclusionRemoved = "Exclusion removed"
	MsgPollCompleted    = "Wager poll completed"
	MsgRolloverDone     = "Period rolled over"
)

// Log messages
const (
	LogMsgReadinessCheckFailed = "Readiness check failed"
)
