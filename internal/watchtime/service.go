package watchtime

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/osse101/BrandishRaffle_Go/internal/concurrency"
	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/ledger"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/metrics"
	"github.com/osse101/BrandishRaffle_Go/internal/repository"
	"github.com/osse101/BrandishRaffle_Go/internal/utils"
)

// HandleResolver maps a chat handle to an account
type HandleResolver interface {
	Resolve(ctx context.Context, tenantID, platform, handle string) (string, bool, error)
}

// Awarder applies a ticket award inside a caller-owned transaction
type Awarder interface {
	AwardTx(ctx context.Context, tx repository.Tx, req domain.AwardRequest) (*domain.TicketBalance, error)
}

// TenantReader provides tenant settings
type TenantReader interface {
	Get(ctx context.Context, tenantID string) (*domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
}

// ConversionSummary reports one tenant's conversion run
type ConversionSummary struct {
	TenantID       string `json:"tenant_id"`
	PeriodID       int64  `json:"period_id"`
	Accounts       int    `json:"accounts"`
	Converted      int    `json:"converted"`
	Unlinked       int    `json:"unlinked"`
	Failed         int    `json:"failed"`
	Hours          int64  `json:"hours"`
	TicketsAwarded int64  `json:"tickets_awarded"`
	Skipped        bool   `json:"skipped,omitempty"`
}

// Service converts lifetime watch minutes into watchtime tickets
type Service interface {
	// ConvertTenant converts every linked viewer's whole unconverted hours
	ConvertTenant(ctx context.Context, tenantID string) (*ConversionSummary, error)

	// SeedCheckpoints records current lifetime minutes as the starting point
	// of a new period inside the caller's transaction. It returns the number
	// of accounts seeded.
	SeedCheckpoints(ctx context.Context, tx repository.Tx, period domain.RafflePeriod) (int, error)

	// ConvertAll runs ConvertTenant for every tenant
	ConvertAll(ctx context.Context) error
}

type service struct {
	repo     repository.Watchtime
	resolver HandleResolver
	awarder  Awarder
	tenants  TenantReader
	locks    *concurrency.LockManager
}

// NewService creates a new watch time converter
func NewService(repo repository.Watchtime, resolver HandleResolver, awarder Awarder, tenants TenantReader, locks *concurrency.LockManager) Service {
	if locks == nil {
		locks = concurrency.NewLockManager()
	}
	return &service{
		repo:     repo,
		resolver: resolver,
		awarder:  awarder,
		tenants:  tenants,
		locks:    locks,
	}
}

// accountMinutes is one account's lifetime minutes summed across its linked handles
type accountMinutes struct {
	accountID string
	minutes   int64
}

// Conversion returns how many whole hours of minutes are unconverted past
// the checkpoint. A reading below the checkpoint converts nothing.
func Conversion(minutes, checkpoint int64) int64 {
	hours, _ := utils.WholeUnits(minutes-checkpoint, domain.MinutesPerHour)
	return hours
}

// linkedMinutes resolves every reading and sums minutes per account
func (s *service) linkedMinutes(ctx context.Context, tenantID string) ([]accountMinutes, int, error) {
	readings, err := s.repo.ListReadings(ctx, tenantID)
	if err != nil {
		return nil, 0, fmt.Errorf(ErrContextFailedToListReadings, err)
	}

	log := logger.FromContext(ctx)
	totals := make(map[string]int64)
	unlinked := 0
	for _, r := range readings {
		accountID, ok, err := s.resolver.Resolve(ctx, tenantID, r.Platform, r.Handle)
		if err != nil {
			log.Warn(LogMsgReadingResolveError, "tenant_id", tenantID, "platform", r.Platform, "handle", r.Handle, "error", err)
			unlinked++
			continue
		}
		if !ok {
			log.Debug(LogMsgReadingUnresolved, "tenant_id", tenantID, "platform", r.Platform, "handle", r.Handle)
			unlinked++
			continue
		}
		totals[accountID] += r.Minutes
	}

	out := make([]accountMinutes, 0, len(totals))
	for id, m := range totals {
		out = append(out, accountMinutes{accountID: id, minutes: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].accountID < out[j].accountID })
	return out, unlinked, nil
}

func (s *service) ConvertTenant(ctx context.Context, tenantID string) (*ConversionSummary, error) {
	summary := &ConversionSummary{TenantID: tenantID}

	unlock, ok := s.locks.TryLock(concurrency.PeriodKey(tenantID))
	if !ok {
		logger.FromContext(ctx).Info(LogMsgConversionSkipped, "tenant_id", tenantID)
		summary.Skipped = true
		return summary, nil
	}
	defer unlock()

	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	period, err := s.repo.GetActivePeriod(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	summary.PeriodID = period.ID

	accounts, unlinked, err := s.linkedMinutes(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	summary.Accounts = len(accounts)
	summary.Unlinked = unlinked

	log := logger.FromContext(ctx)
	for _, acc := range accounts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		hours, tickets, err := s.convertAccount(ctx, tenant, period.ID, acc)
		if err != nil {
			summary.Failed++
			log.Error(LogMsgAccountFailed, "tenant_id", tenantID, "period_id", period.ID, "account_id", acc.accountID, "error", err)
			continue
		}
		if hours > 0 {
			summary.Converted++
			summary.Hours += hours
			summary.TicketsAwarded += tickets
		}
	}

	if summary.Hours > 0 {
		metrics.WatchtimeHoursConverted.WithLabelValues(tenantID).Add(float64(summary.Hours))
	}
	log.Info(LogMsgConversionCompleted,
		"tenant_id", tenantID,
		"period_id", period.ID,
		"accounts", summary.Accounts,
		"converted", summary.Converted,
		"hours", summary.Hours,
		"tickets", summary.TicketsAwarded,
		"failed", summary.Failed)
	return summary, nil
}

// convertAccount awards whole hours and advances the checkpoint in one
// transaction. Leftover minutes stay unconverted for the next run. An account
// with no checkpoint in the period only gets its baseline recorded: minutes
// watched before it was seen in the period never count toward it.
func (s *service) convertAccount(ctx context.Context, tenant *domain.Tenant, periodID int64, acc accountMinutes) (int64, int64, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf(ErrContextFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	checkpoint, found, err := tx.GetCheckpointForUpdate(ctx, periodID, acc.accountID)
	if err != nil {
		return 0, 0, fmt.Errorf(ErrContextFailedToReadCheckpoint, err)
	}
	if !found {
		if err := tx.SetCheckpoint(ctx, tenant.ID, periodID, acc.accountID, acc.minutes); err != nil {
			return 0, 0, fmt.Errorf(ErrContextFailedToSetCheckpoint, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, 0, fmt.Errorf(ErrContextFailedToCommitTx, err)
		}
		logger.FromContext(ctx).Debug(LogMsgBaselineRecorded,
			"tenant_id", tenant.ID,
			"period_id", periodID,
			"account_id", acc.accountID,
			"minutes", acc.minutes)
		return 0, 0, nil
	}

	hours := Conversion(acc.minutes, checkpoint)
	if hours == 0 {
		return 0, 0, nil
	}
	tickets := hours * tenant.WatchtimeRate

	req := domain.AwardRequest{
		TenantID:    tenant.ID,
		PeriodID:    periodID,
		AccountID:   acc.accountID,
		Source:      domain.SourceWatchtime,
		Amount:      tickets,
		Description: fmt.Sprintf(DescriptionFormat, hours, hours*domain.MinutesPerHour),
	}
	if tickets > 0 {
		if _, err := s.awarder.AwardTx(ctx, tx, req); err != nil {
			return 0, 0, err
		}
	}

	if err := tx.SetCheckpoint(ctx, tenant.ID, periodID, acc.accountID, checkpoint+hours*domain.MinutesPerHour); err != nil {
		return 0, 0, fmt.Errorf(ErrContextFailedToSetCheckpoint, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf(ErrContextFailedToCommitTx, err)
	}

	if tickets > 0 {
		ledger.RecordAward(req)
	}
	return hours, tickets, nil
}

func (s *service) SeedCheckpoints(ctx context.Context, tx repository.Tx, period domain.RafflePeriod) (int, error) {
	accounts, _, err := s.linkedMinutes(ctx, period.TenantID)
	if err != nil {
		return 0, err
	}
	for _, acc := range accounts {
		if err := tx.SetCheckpoint(ctx, period.TenantID, period.ID, acc.accountID, acc.minutes); err != nil {
			return 0, fmt.Errorf(ErrContextFailedToSetCheckpoint, err)
		}
	}
	return len(accounts), nil
}

// ConvertAll converts every tenant. A tenant without an active period is
// skipped, and one tenant's failure does not stop the others.
func (s *service) ConvertAll(ctx context.Context) error {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	var errs []error
	for _, t := range tenants {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := s.ConvertTenant(ctx, t.ID)
		switch {
		case errors.Is(err, domain.ErrNoActivePeriod):
			log.Debug(LogMsgNoActivePeriod, "tenant_id", t.ID)
		case err != nil:
			log.Error(LogMsgTenantFailed, "tenant_id", t.ID, "error", err)
			errs = append(errs, fmt.Errorf("tenant %s: %w", t.ID, err))
		}
	}
	return errors.Join(errs...)
}
