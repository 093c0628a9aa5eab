package repository

import (
	"context"
	"time"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

// Tx defines the interface for transactional operations.
// Every mutation of ticket balances happens through a Tx so that the balance
// update, its ledger entry and any ingestion bookkeeping commit together.
type Tx interface {
	// Periods
	GetPeriodForShare(ctx context.Context, tenantID string, periodID int64) (*domain.RafflePeriod, error)
	GetPeriodForUpdate(ctx context.Context, tenantID string, periodID int64) (*domain.RafflePeriod, error)
	GetActivePeriodForUpdate(ctx context.Context, tenantID string) (*domain.RafflePeriod, error)
	InsertPeriod(ctx context.Context, tenantID string, startAt, endAt time.Time) (*domain.RafflePeriod, error)
	UpdatePeriodStatus(ctx context.Context, periodID int64, status domain.PeriodStatus, at time.Time) error
	UpdatePeriodEnd(ctx context.Context, periodID int64, endAt time.Time) error

	// Ledger
	EnsureAccount(ctx context.Context, tenantID, accountID string) error
	ApplyTicketDelta(ctx context.Context, tenantID string, periodID int64, accountID string, source domain.TicketSource, delta int64) (*domain.TicketBalance, error)
	AppendLedgerEntry(ctx context.Context, entry *domain.LedgerEntry) error

	// Watchtime checkpoints
	// GetCheckpointForUpdate reports found=false when the account has no
	// baseline in the period yet
	GetCheckpointForUpdate(ctx context.Context, periodID int64, accountID string) (minutes int64, found bool, err error)
	SetCheckpoint(ctx context.Context, tenantID string, periodID int64, accountID string, minutes int64) error

	// Gifted subs
	InsertGiftEvent(ctx context.Context, event *domain.GiftedSubEvent) (bool, error)
	UpdateGiftEvent(ctx context.Context, event *domain.GiftedSubEvent) error

	// Wager snapshots
	GetWagerSnapshotForUpdate(ctx context.Context, periodID int64, username string) (*domain.WagerSnapshot, error)
	SaveWagerSnapshot(ctx context.Context, snapshot *domain.WagerSnapshot) error

	// Draws
	GetDrawParticipants(ctx context.Context, tenantID string, periodID int64) ([]domain.Participant, error)
	InsertDrawResult(ctx context.Context, result *domain.DrawResult) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxBeginner starts transactions
type TxBeginner interface {
	BeginTx(ctx context.Context) (Tx, error)
}
