package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Ingestion errors
	ErrMsgDuplicateEvent      = "event already processed"
	ErrMsgUnresolvedIdentity  = "external identity is not linked to an account"
	ErrMsgUnparseablePayload  = "payload could not be parsed"
	ErrMsgAffiliateFetch      = "affiliate endpoint request failed"
	ErrMsgWagerLinkNotFound   = "wager link not found"
	ErrMsgWagerLinkConflict   = "wager username or account is already linked"
	ErrMsgWagerLinkUnverified = "wager link is not verified"

	// Period errors
	ErrMsgPeriodClosed        = "raffle period is not active"
	ErrMsgPeriodNotFound      = "raffle period not found"
	ErrMsgPeriodAlreadyActive = "a raffle period is already active"
	ErrMsgNoActivePeriod      = "no active raffle period"
	ErrMsgPeriodNotEnded      = "raffle period has not ended"
	ErrMsgPeriodAlreadyDrawn  = "raffle period has already been drawn"

	// Ledger errors
	ErrMsgLedgerInconsistent  = "ticket balance is inconsistent with its source columns"
	ErrMsgInvalidAmount       = "invalid ticket amount"
	ErrMsgInvalidSource       = "invalid ticket source"
	ErrMsgInsufficientTickets = "insufficient tickets"
	ErrMsgAccountNotRanked    = "account has no tickets in this period"

	// Draw errors
	ErrMsgNoParticipants = "no eligible participants"
	ErrMsgDrawNotFound   = "draw result not found"

	// Tenant errors
	ErrMsgTenantNotFound = "tenant not found"

	// Database/System errors
	ErrMsgDatabaseError = "database error"
	ErrMsgTxClosed      = "tx is closed"

	// Input errors
	ErrMsgInvalidInput    = "invalid input"
	ErrMsgInvalidPlatform = "invalid platform"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// Ingestion errors
	ErrDuplicateEvent      = errors.New(ErrMsgDuplicateEvent)
	ErrUnresolvedIdentity  = errors.New(ErrMsgUnresolvedIdentity)
	ErrUnparseablePayload  = errors.New(ErrMsgUnparseablePayload)
	ErrAffiliateFetch      = errors.New(ErrMsgAffiliateFetch)
	ErrWagerLinkNotFound   = errors.New(ErrMsgWagerLinkNotFound)
	ErrWagerLinkConflict   = errors.New(ErrMsgWagerLinkConflict)
	ErrWagerLinkUnverified = errors.New(ErrMsgWagerLinkUnverified)

	// Period errors
	ErrPeriodClosed        = errors.New(ErrMsgPeriodClosed)
	ErrPeriodNotFound      = errors.New(ErrMsgPeriodNotFound)
	ErrPeriodAlreadyActive = errors.New(ErrMsgPeriodAlreadyActive)
	ErrNoActivePeriod      = errors.New(ErrMsgNoActivePeriod)
	ErrPeriodNotEnded      = errors.New(ErrMsgPeriodNotEnded)
	ErrPeriodAlreadyDrawn  = errors.New(ErrMsgPeriodAlreadyDrawn)

	// Ledger errors
	ErrLedgerInconsistent  = errors.New(ErrMsgLedgerInconsistent)
	ErrInvalidAmount       = errors.New(ErrMsgInvalidAmount)
	ErrInvalidSource       = errors.New(ErrMsgInvalidSource)
	ErrInsufficientTickets = errors.New(ErrMsgInsufficientTickets)
	ErrAccountNotRanked    = errors.New(ErrMsgAccountNotRanked)

	// Draw errors
	ErrNoParticipants = errors.New(ErrMsgNoParticipants)
	ErrDrawNotFound   = errors.New(ErrMsgDrawNotFound)

	// Tenant errors
	ErrTenantNotFound = errors.New(ErrMsgTenantNotFound)

	// System errors
	ErrDatabaseError = errors.New(ErrMsgDatabaseError)

	// Validation errors
	ErrInvalidInput    = errors.New(ErrMsgInvalidInput)
	ErrInvalidPlatform = errors.New(ErrMsgInvalidPlatform)
)
