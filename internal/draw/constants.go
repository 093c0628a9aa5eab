package draw

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgDrawCompleted    = "Raffle draw completed"
	LogMsgNoParticipants   = "Raffle draw found no eligible participants"
	LogMsgPublishFailed    = "Failed to publish draw event"
	LogMsgAccountExcluded  = "Account excluded from raffle draws"
	LogMsgAccountIncluded  = "Account exclusion removed"
	LogMsgVerifyFailed     = "Stored draw failed verification"
	LogMsgSimulationFinish = "Draw simulation finished"
)

// ============================================================================
// Error Context Messages
// ============================================================================

const (
	ErrContextFailedToBeginTx         = "failed to begin transaction: %w"
	ErrContextFailedToCommitTx        = "failed to commit transaction: %w"
	ErrContextFailedToLoadPeriod      = "failed to load period: %w"
	ErrContextFailedToLoadEntrants    = "failed to load draw participants: %w"
	ErrContextFailedToSaveResult      = "failed to save draw result: %w"
	ErrContextFailedToMarkDrawn       = "failed to mark period drawn: %w"
	ErrContextFailedToGenerateSeed    = "failed to generate server seed: %w"
	ErrContextFailedToDeriveTicket    = "failed to derive winning ticket: %w"
	ErrContextFailedToSaveExclusion   = "failed to save exclusion: %w"
	ErrContextFailedToRemoveExclusion = "failed to remove exclusion: %w"
)

// ============================================================================
// Verification
// ============================================================================

const (
	// ClientSeedFormat is period id, total tickets, total participants
	ClientSeedFormat = "%d:%d:%d"

	// maxDerivationRounds bounds rejection sampling. Each round is rejected
	// with probability below N / 2^64, so the bound is never reached in practice.
	maxDerivationRounds = 64

	// Reasons reported when a proof does not verify
	ReasonNoEntries     = "snapshot has no entries"
	ReasonRangeMismatch = "ticket ranges are not contiguous from 1"
	ReasonTotalMismatch = "total tickets disagree with the snapshot"
	ReasonClientSeed    = "client seed does not match the snapshot"
	ReasonProofHash     = "proof hash does not match the seeds"
	ReasonWinningTicket = "winning ticket does not follow from the seeds"
	ReasonWinner        = "winner does not own the winning ticket"
)
