package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/metrics"
	"github.com/osse101/BrandishRaffle_Go/internal/repository"
)

// Service is the single write path for ticket balances and their audit log
type Service interface {
	// Award applies one ticket delta in its own transaction
	Award(ctx context.Context, req domain.AwardRequest) (*domain.TicketBalance, error)

	// AwardTx applies one ticket delta inside a caller-owned transaction.
	// The caller commits, then reports the award with RecordAward. A zero
	// amount still checks the period and returns the balance unchanged.
	AwardTx(ctx context.Context, tx repository.Tx, req domain.AwardRequest) (*domain.TicketBalance, error)

	// AdjustBonus adds or removes bonus tickets in the tenant's active period
	AdjustBonus(ctx context.Context, tenantID, accountID string, amount int64, reason, adminID string) (*domain.TicketBalance, error)

	Balance(ctx context.Context, tenantID string, periodID int64, accountID string) (*domain.TicketBalance, error)
	Leaderboard(ctx context.Context, tenantID string, periodID int64, limit int) ([]domain.LeaderboardEntry, error)
	Rank(ctx context.Context, tenantID string, periodID int64, accountID string) (*domain.LeaderboardEntry, error)
	Entries(ctx context.Context, tenantID string, periodID int64, accountID string, limit int) ([]domain.LedgerEntry, error)
	PeriodStats(ctx context.Context, tenantID string, periodID int64) (*domain.PeriodStats, error)

	// Audit lists every balance column that disagrees with its ledger entries
	Audit(ctx context.Context, tenantID string, periodID int64) ([]domain.LedgerDiscrepancy, error)
}

type service struct {
	repo repository.Ledger
}

// NewService creates a new ledger service
func NewService(repo repository.Ledger) Service {
	return &service{repo: repo}
}

// Award applies one ticket delta in its own transaction
func (s *service) Award(ctx context.Context, req domain.AwardRequest) (*domain.TicketBalance, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	balance, err := s.AwardTx(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToCommitTx, err)
	}

	if req.Amount == 0 {
		return balance, nil
	}
	RecordAward(req)
	logger.FromContext(ctx).Info(LogMsgTicketsAwarded,
		"tenant_id", req.TenantID,
		"period_id", req.PeriodID,
		"account_id", req.AccountID,
		"source", req.Source,
		"amount", req.Amount,
		"total", balance.Total)
	return balance, nil
}

// AwardTx applies one ticket delta inside a caller-owned transaction
func (s *service) AwardTx(ctx context.Context, tx repository.Tx, req domain.AwardRequest) (*domain.TicketBalance, error) {
	if err := validateAward(req); err != nil {
		return nil, err
	}

	period, err := tx.GetPeriodForShare(ctx, req.TenantID, req.PeriodID)
	if err != nil {
		return nil, err
	}
	if !period.IsActive() {
		return nil, fmt.Errorf("%w: period %d is %s", domain.ErrPeriodClosed, period.ID, period.Status)
	}

	if err := tx.EnsureAccount(ctx, req.TenantID, req.AccountID); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToEnsureAccount, err)
	}

	balance, err := tx.ApplyTicketDelta(ctx, req.TenantID, req.PeriodID, req.AccountID, req.Source, req.Amount)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToApplyDelta, err)
	}
	if !balance.Consistent() {
		metrics.LedgerInconsistencies.WithLabelValues(req.TenantID).Inc()
		logger.FromContext(ctx).Error(LogMsgLedgerInconsistent,
			"tenant_id", req.TenantID,
			"period_id", req.PeriodID,
			"account_id", req.AccountID,
			"total", balance.Total,
			"sum", balance.Sum())
		return nil, fmt.Errorf("%w: account %s total %d, columns sum to %d",
			domain.ErrLedgerInconsistent, req.AccountID, balance.Total, balance.Sum())
	}

	if req.Amount == 0 {
		// Nothing moved, so there is nothing to audit
		return balance, nil
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf(DefaultDescriptionFormat, req.Source)
	}
	entry := &domain.LedgerEntry{
		TenantID:    req.TenantID,
		PeriodID:    req.PeriodID,
		AccountID:   req.AccountID,
		Delta:       req.Amount,
		Source:      req.Source,
		Description: description,
	}
	if err := tx.AppendLedgerEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToAppendEntry, err)
	}

	return balance, nil
}

func validateAward(req domain.AwardRequest) error {
	if strings.TrimSpace(req.TenantID) == "" || strings.TrimSpace(req.AccountID) == "" {
		return fmt.Errorf("%w: tenant and account are required", domain.ErrInvalidInput)
	}
	if !req.Source.Valid() || req.Source == domain.SourceReset {
		return fmt.Errorf("%w: %q", domain.ErrInvalidSource, req.Source)
	}
	if req.Amount < 0 && !req.Source.AllowsNegative() {
		return fmt.Errorf("%w: %s tickets cannot be negative", domain.ErrInvalidAmount, req.Source)
	}
	return nil
}

// RecordAward reports a committed award to metrics
func RecordAward(req domain.AwardRequest) {
	metrics.LedgerMutations.WithLabelValues(string(req.Source)).Inc()
	if req.Amount > 0 {
		metrics.TicketsAwarded.WithLabelValues(req.TenantID, string(req.Source)).Add(float64(req.Amount))
	}
}

// AdjustBonus adds or removes bonus tickets in the tenant's active period
func (s *service) AdjustBonus(ctx context.Context, tenantID, accountID string, amount int64, reason, adminID string) (*domain.TicketBalance, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: amount must not be zero", domain.ErrInvalidAmount)
	}

	period, err := s.repo.GetActivePeriod(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	balance, err := s.Award(ctx, domain.AwardRequest{
		TenantID:    tenantID,
		PeriodID:    period.ID,
		AccountID:   accountID,
		Source:      domain.SourceBonus,
		Amount:      amount,
		Description: fmt.Sprintf(BonusDescriptionFormat, adminID, reason),
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgBonusAdjusted,
		"tenant_id", tenantID,
		"account_id", accountID,
		"amount", amount,
		"admin", adminID)
	return balance, nil
}

// resolvePeriod maps periodID 0 to the active period and checks that any
// other id belongs to the tenant.
func (s *service) resolvePeriod(ctx context.Context, tenantID string, periodID int64) (int64, error) {
	if periodID == 0 {
		p, err := s.repo.GetActivePeriod(ctx, tenantID)
		if err != nil {
			return 0, err
		}
		return p.ID, nil
	}
	if _, err := s.repo.GetPeriod(ctx, tenantID, periodID); err != nil {
		return 0, err
	}
	return periodID, nil
}

// Balance returns an account's balance. Accounts without tickets get a zero balance.
func (s *service) Balance(ctx context.Context, tenantID string, periodID int64, accountID string) (*domain.TicketBalance, error) {
	periodID, err := s.resolvePeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}

	balance, err := s.repo.GetBalance(ctx, tenantID, periodID, accountID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance = &domain.TicketBalance{TenantID: tenantID, PeriodID: periodID, AccountID: accountID}
	}
	return balance, nil
}

func (s *service) Leaderboard(ctx context.Context, tenantID string, periodID int64, limit int) ([]domain.LeaderboardEntry, error) {
	periodID, err := s.resolvePeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetLeaderboard(ctx, tenantID, periodID, clampLimit(limit, domain.DefaultLeaderboardLimit, domain.MaxLeaderboardLimit))
}

func (s *service) Rank(ctx context.Context, tenantID string, periodID int64, accountID string) (*domain.LeaderboardEntry, error) {
	periodID, err := s.resolvePeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}

	entry, err := s.repo.GetRank(ctx, tenantID, periodID, accountID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotRanked, accountID)
	}
	return entry, nil
}

func (s *service) Entries(ctx context.Context, tenantID string, periodID int64, accountID string, limit int) ([]domain.LedgerEntry, error) {
	periodID, err := s.resolvePeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListLedgerEntries(ctx, tenantID, periodID, accountID, clampLimit(limit, domain.DefaultEntriesLimit, domain.MaxHistoryLimit))
}

func (s *service) PeriodStats(ctx context.Context, tenantID string, periodID int64) (*domain.PeriodStats, error) {
	periodID, err := s.resolvePeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetPeriodStats(ctx, tenantID, periodID)
}

func (s *service) Audit(ctx context.Context, tenantID string, periodID int64) ([]domain.LedgerDiscrepancy, error) {
	periodID, err := s.resolvePeriod(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}

	discrepancies, err := s.repo.FindLedgerDiscrepancies(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if len(discrepancies) > 0 {
		logger.FromContext(ctx).Warn(LogMsgAuditDiscrepancies,
			"tenant_id", tenantID,
			"period_id", periodID,
			"count", len(discrepancies))
	}
	return discrepancies, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
