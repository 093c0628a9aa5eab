package postgres

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"

	// PgErrorCodeCheckViolation is raised when a CHECK constraint rejects a row
	PgErrorCodeCheckViolation = "23514"

	// PgErrorCodeForeignKeyViolation is raised when a referenced row is missing
	PgErrorCodeForeignKeyViolation = "23503"
)

// Constraint names referenced when translating driver errors
const (
	ConstraintOneActivePeriod     = "uq_raffle_periods_one_active"
	ConstraintWagerLinkAccount    = "uq_wager_links_account"
	ConstraintWagerLinkPrimaryKey = "wager_links_pkey"
)

// Campaign codes are stored as a single comma separated column
const campaignCodeSeparator = ","

// Error Messages - Transaction Operations
const (
	ErrMsgFailedToBeginTransaction = "failed to begin transaction"
	ErrMsgFailedToCommit           = "failed to commit transaction"
)

// Error Messages - Queries
const (
	ErrMsgFailedToGetTenant        = "failed to get tenant"
	ErrMsgFailedToListTenants      = "failed to list tenants"
	ErrMsgFailedToUpsertTenant     = "failed to upsert tenant"
	ErrMsgFailedToFindLink         = "failed to find account link"
	ErrMsgFailedToUpsertLink       = "failed to upsert account link"
	ErrMsgFailedToGetPeriod        = "failed to get raffle period"
	ErrMsgFailedToListPeriods      = "failed to list raffle periods"
	ErrMsgFailedToInsertPeriod     = "failed to insert raffle period"
	ErrMsgFailedToUpdatePeriod     = "failed to update raffle period"
	ErrMsgFailedToEnsureAccount    = "failed to ensure account"
	ErrMsgFailedToApplyDelta       = "failed to apply ticket delta"
	ErrMsgFailedToAppendLedger     = "failed to append ledger entry"
	ErrMsgFailedToGetBalance       = "failed to get ticket balance"
	ErrMsgFailedToGetLeaderboard   = "failed to get leaderboard"
	ErrMsgFailedToListLedger       = "failed to list ledger entries"
	ErrMsgFailedToGetStats         = "failed to get period stats"
	ErrMsgFailedToAudit            = "failed to audit ledger"
	ErrMsgFailedToGetCheckpoint    = "failed to get watchtime checkpoint"
	ErrMsgFailedToSetCheckpoint    = "failed to set watchtime checkpoint"
	ErrMsgFailedToListReadings     = "failed to list watchtime readings"
	ErrMsgFailedToInsertGift       = "failed to insert gifted-sub event"
	ErrMsgFailedToUpdateGift       = "failed to update gifted-sub event"
	ErrMsgFailedToListGifts        = "failed to list gifted-sub events"
	ErrMsgFailedToGetWagerLink     = "failed to get wager link"
	ErrMsgFailedToCreateWagerLink  = "failed to create wager link"
	ErrMsgFailedToVerifyWagerLink  = "failed to verify wager link"
	ErrMsgFailedToGetSnapshot      = "failed to get wager snapshot"
	ErrMsgFailedToSaveSnapshot     = "failed to save wager snapshot"
	ErrMsgFailedToListSnapshots    = "failed to list wager snapshots"
	ErrMsgFailedToListParticipants = "failed to list draw participants"
	ErrMsgFailedToInsertDraw       = "failed to insert draw result"
	ErrMsgFailedToGetDraw          = "failed to get draw result"
	ErrMsgFailedToListDraws        = "failed to list draw results"
	ErrMsgFailedToModifyExclusion  = "failed to modify exclusion"
	ErrMsgFailedToListExclusions   = "failed to list exclusions"
	ErrMsgFailedToParseDecimal     = "failed to parse stored decimal"
)
