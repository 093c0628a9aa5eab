package repository

import (
	"context"
	"time"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

// Tenant defines data access for tenant configuration
type Tenant interface {
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
	EnsureTenant(ctx context.Context, defaults domain.Tenant) error
	UpsertTenant(ctx context.Context, tenant domain.Tenant) (*domain.Tenant, error)
}

// Identity defines data access for external handle to account mappings
type Identity interface {
	FindAccountByHandle(ctx context.Context, tenantID, platform, handle string) (string, bool, error)
	UpsertLink(ctx context.Context, tenantID, platform, handle, accountID string) error
}

// PeriodReader provides non-locking period lookups
type PeriodReader interface {
	GetPeriod(ctx context.Context, tenantID string, periodID int64) (*domain.RafflePeriod, error)
	GetActivePeriod(ctx context.Context, tenantID string) (*domain.RafflePeriod, error)
}

// Period defines data access for raffle periods
type Period interface {
	TxBeginner
	PeriodReader
	ListPeriods(ctx context.Context, tenantID string, limit int) ([]domain.RafflePeriod, error)
	ListExpiredActivePeriods(ctx context.Context, now time.Time) ([]domain.RafflePeriod, error)
}

// Ledger defines read access to balances and the audit log
type Ledger interface {
	TxBeginner
	PeriodReader
	GetBalance(ctx context.Context, tenantID string, periodID int64, accountID string) (*domain.TicketBalance, error)
	GetLeaderboard(ctx context.Context, tenantID string, periodID int64, limit int) ([]domain.LeaderboardEntry, error)
	GetRank(ctx context.Context, tenantID string, periodID int64, accountID string) (*domain.LeaderboardEntry, error)
	ListLedgerEntries(ctx context.Context, tenantID string, periodID int64, accountID string, limit int) ([]domain.LedgerEntry, error)
	GetPeriodStats(ctx context.Context, tenantID string, periodID int64) (*domain.PeriodStats, error)
	FindLedgerDiscrepancies(ctx context.Context, tenantID string, periodID int64) ([]domain.LedgerDiscrepancy, error)
}

// Watchtime defines access to the upstream lifetime minute counters
type Watchtime interface {
	TxBeginner
	PeriodReader
	ListReadings(ctx context.Context, tenantID string) ([]domain.WatchtimeReading, error)
}

// GiftedSub defines data access for gifted-sub bookkeeping
type GiftedSub interface {
	TxBeginner
	PeriodReader
	ListGiftEvents(ctx context.Context, tenantID string, outcome domain.GiftOutcome, limit int) ([]domain.GiftedSubEvent, error)
}

// Wager defines data access for affiliate links and snapshots
type Wager interface {
	TxBeginner
	PeriodReader
	GetWagerLink(ctx context.Context, tenantID, username string) (*domain.WagerLink, error)
	CreateWagerLink(ctx context.Context, link *domain.WagerLink) error
	VerifyWagerLink(ctx context.Context, tenantID, username, verifiedBy string, at time.Time) (*domain.WagerLink, error)
	ListWagerSnapshots(ctx context.Context, tenantID string, periodID int64) ([]domain.WagerSnapshot, error)
}

// Draw defines data access for draw results and eligibility
type Draw interface {
	TxBeginner
	PeriodReader
	GetDrawResult(ctx context.Context, tenantID string, periodID int64) (*domain.DrawResult, error)
	ListDrawResults(ctx context.Context, tenantID string, limit int) ([]domain.DrawResult, error)
	ListParticipants(ctx context.Context, tenantID string, periodID int64) ([]domain.Participant, error)
	AddExclusion(ctx context.Context, exclusion *domain.Exclusion) error
	RemoveExclusion(ctx context.Context, tenantID, accountID string) error
	ListExclusions(ctx context.Context, tenantID string) ([]domain.Exclusion, error)
}
