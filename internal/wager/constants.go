package wager

import "time"

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgPollCompleted     = "Wager poll completed"
	LogMsgPollSkipped       = "Wager poll already running for tenant, skipping"
	LogMsgPollFailed        = "Wager poll failed"
	LogMsgNoActivePeriod    = "No active period, skipping wager poll"
	LogMsgEntryFailed       = "Failed to apply wager entry"
	LogMsgWagerAwarded      = "Wager tickets awarded"
	LogMsgUnverifiedAdvance = "Wager increase ignored for unverified link"
	LogMsgLinkCreated       = "Wager account linked"
	LogMsgLinkVerified      = "Wager account verified"
	LogMsgPublishFailed     = "Failed to publish wager poll event"
)

// ============================================================================
// Error Context Messages
// ============================================================================

const (
	ErrContextFailedToBeginTx      = "failed to begin transaction: %w"
	ErrContextFailedToCommitTx     = "failed to commit transaction: %w"
	ErrContextFailedToLoadSnapshot = "failed to load wager snapshot: %w"
	ErrContextFailedToSaveSnapshot = "failed to save wager snapshot: %w"
	ErrContextFailedToLoadLink     = "failed to load wager link: %w"
)

// ============================================================================
// Affiliate Endpoint
// ============================================================================

const (
	// DefaultFetchTimeout bounds one affiliate request
	DefaultFetchTimeout = 30 * time.Second

	// DefaultRequestsPerSecond paces requests to a single affiliate host
	DefaultRequestsPerSecond = 1.0

	// MaxResponseBytes caps the affiliate response body
	MaxResponseBytes = 10 << 20

	userAgent = "BrandishRaffle/1.0"
)

// Entry field paths, in order of preference
var (
	usernamePaths = []string{"username", "user_name", "name"}
	campaignPaths = []string{"campaign_code", "campaignCode"}
	amountPaths   = []string{"wager_amount", "wagerAmount"}

	// Wrapper keys tried when the endpoint returns an object instead of an array
	listPaths = []string{"data", "results", "users"}
)

// DescriptionFormat describes a wager award: username, wager delta
const DescriptionFormat = "wager by %s (+%s)"

const lockKeyPrefix = "wager:"
