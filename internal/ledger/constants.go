package ledger

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgTicketsAwarded     = "Tickets awarded"
	LogMsgBonusAdjusted      = "Bonus tickets adjusted"
	LogMsgLedgerInconsistent = "Ticket balance total disagrees with its columns, aborting"
	LogMsgAuditDiscrepancies = "Ledger audit found discrepancies"
)

// ============================================================================
// Error Context Messages
// ============================================================================

const (
	ErrContextFailedToBeginTx       = "failed to begin transaction: %w"
	ErrContextFailedToCommitTx      = "failed to commit transaction: %w"
	ErrContextFailedToEnsureAccount = "failed to ensure account: %w"
	ErrContextFailedToApplyDelta    = "failed to apply ticket delta: %w"
	ErrContextFailedToAppendEntry   = "failed to append ledger entry: %w"
)

// ============================================================================
// Descriptions
// ============================================================================

const (
	// BonusDescriptionFormat describes an admin adjustment: admin, reason
	BonusDescriptionFormat = "bonus by %s: %s"

	// DefaultDescriptionFormat is used when an award carries no description
	DefaultDescriptionFormat = "%s award"
)
