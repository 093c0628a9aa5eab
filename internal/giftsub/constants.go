package giftsub

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgGiftDuplicate   = "Gifted sub event already processed, skipping"
	LogMsgGiftNotLinked   = "Gifter is not linked, event recorded without tickets"
	LogMsgGiftAwarded     = "Gifted sub tickets awarded"
	LogMsgGiftUnparseable = "Gifted sub payload rejected"
	LogMsgPublishFailed   = "Failed to publish gifted sub event"
)

// ============================================================================
// Error Context Messages
// ============================================================================

const (
	ErrContextFailedToBeginTx    = "failed to begin transaction: %w"
	ErrContextFailedToCommitTx   = "failed to commit transaction: %w"
	ErrContextFailedToRecordGift = "failed to record gift event: %w"
	ErrContextFailedToResolve    = "failed to resolve gifter: %w"
)

// ============================================================================
// Payload Fields
// ============================================================================

// Gifter handle paths, in order of preference
var gifterPaths = []string{"sender.username", "gifter", "gifter_username", "username"}

// Event id paths, in order of preference
var eventIDPaths = []string{"event_id", "id"}

// Gift count paths, in order of preference. gifted_usernames is counted.
var countPaths = []string{"gift_count", "quantity", "count"}

const (
	fieldGiftedUsernames = "gifted_usernames"
	fieldPlatform        = "platform"
)

// SyntheticIDPrefix marks event ids derived from the payload itself
const SyntheticIDPrefix = "synth:"

// DescriptionFormat describes a gift award: count, plural suffix
const DescriptionFormat = "gifted %d sub%s in chat"

// Unparseable reasons
const (
	ReasonInvalidJSON     = "payload is not a JSON object"
	ReasonMissingGifter   = "payload has no gifter username"
	ReasonInvalidCount    = "gift count must be positive"
	ReasonInvalidPlatform = "unknown platform"
)
