package wager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/osse101/BrandishRaffle_Go/internal/concurrency"
	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/event"
	"github.com/osse101/BrandishRaffle_Go/internal/identity"
	"github.com/osse101/BrandishRaffle_Go/internal/ledger"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/metrics"
	"github.com/osse101/BrandishRaffle_Go/internal/repository"
	"github.com/osse101/BrandishRaffle_Go/internal/tenant"
	"github.com/osse101/BrandishRaffle_Go/internal/utils"
)

// Awarder applies a ticket award inside a caller-owned transaction
type Awarder interface {
	AwardTx(ctx context.Context, tx repository.Tx, req domain.AwardRequest) (*domain.TicketBalance, error)
}

// TenantReader provides tenant settings
type TenantReader interface {
	Get(ctx context.Context, tenantID string) (*domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
}

// PollResult summarizes one tenant's poll
type PollResult struct {
	TenantID       string `json:"tenant_id"`
	PeriodID       int64  `json:"period_id"`
	Entries        int    `json:"entries"`
	Matched        int    `json:"matched"`
	FirstSeen      int    `json:"first_seen"`
	Unverified     int    `json:"unverified"`
	Awarded        int    `json:"awarded"`
	TicketsAwarded int64  `json:"tickets_awarded"`
	Failed         int    `json:"failed"`
	Skipped        bool   `json:"skipped,omitempty"`
}

// Service turns increases in affiliate wager totals into wager tickets
type Service interface {
	// PollTenant fetches the tenant's affiliate endpoint once and applies every matching entry
	PollTenant(ctx context.Context, tenantID string) (*PollResult, error)

	// PollAll polls every wager-enabled tenant concurrently
	PollAll(ctx context.Context) error

	// LinkAccount records a self-asserted affiliate username for an account
	LinkAccount(ctx context.Context, tenantID, username, accountID string) (*domain.WagerLink, error)

	// Verify approves a link so its future wager increases earn tickets
	Verify(ctx context.Context, tenantID, username, adminID string) (*domain.WagerLink, error)

	GetLink(ctx context.Context, tenantID, username string) (*domain.WagerLink, error)
	Snapshots(ctx context.Context, tenantID string, periodID int64) ([]domain.WagerSnapshot, error)
}

type service struct {
	repo        repository.Wager
	fetcher     Fetcher
	awarder     Awarder
	tenants     TenantReader
	bus         event.Bus
	locks       *concurrency.LockManager
	pollTimeout time.Duration
	now         func() time.Time
}

// NewService creates a new wager poller. pollTimeout bounds each tenant's
// fetch; a tenant that times out is skipped until its next tick.
func NewService(repo repository.Wager, fetcher Fetcher, awarder Awarder, tenants TenantReader, bus event.Bus, locks *concurrency.LockManager, pollTimeout time.Duration) Service {
	if locks == nil {
		locks = concurrency.NewLockManager()
	}
	if pollTimeout <= 0 {
		pollTimeout = DefaultFetchTimeout
	}
	return &service{
		repo:        repo,
		fetcher:     fetcher,
		awarder:     awarder,
		tenants:     tenants,
		bus:         bus,
		locks:       locks,
		pollTimeout: pollTimeout,
		now:         time.Now,
	}
}

// NormalizeUsername case-folds an affiliate username
func NormalizeUsername(username string) string {
	return identity.NormalizeHandle(username)
}

// FilterByCampaign keeps entries whose campaign code matches one of codes,
// ignoring case.
func FilterByCampaign(entries []domain.WagerEntry, codes []string) []domain.WagerEntry {
	allowed := make(map[string]bool)
	for _, c := range tenant.NormalizeCampaignCodes(codes) {
		allowed[c] = true
	}

	fold := cases.Fold()
	out := make([]domain.WagerEntry, 0, len(entries))
	for _, e := range entries {
		if allowed[fold.String(strings.TrimSpace(e.CampaignCode))] {
			out = append(out, e)
		}
	}
	return out
}

func (s *service) PollTenant(ctx context.Context, tenantID string) (*PollResult, error) {
	result := &PollResult{TenantID: tenantID}

	unlock, ok := s.locks.TryLock(lockKeyPrefix + tenantID)
	if !ok {
		logger.FromContext(ctx).Info(LogMsgPollSkipped, "tenant_id", tenantID)
		result.Skipped = true
		metrics.WagerPolls.WithLabelValues(tenantID, metrics.StatusSkipped).Inc()
		return result, nil
	}
	defer unlock()

	result, err := s.poll(ctx, tenantID, result)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	metrics.WagerPolls.WithLabelValues(tenantID, status).Inc()
	return result, err
}

func (s *service) poll(ctx context.Context, tenantID string, result *PollResult) (*PollResult, error) {
	t, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !t.WagerPollable() {
		result.Skipped = true
		return result, nil
	}

	period, err := s.repo.GetActivePeriod(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	result.PeriodID = period.ID

	fetchCtx, cancel := context.WithTimeout(ctx, s.pollTimeout)
	entries, err := s.fetcher.Fetch(fetchCtx, t.WagerEndpointURL)
	cancel()
	if err != nil {
		return nil, err
	}
	result.Entries = len(entries)

	matched := FilterByCampaign(entries, t.WagerCampaignCodes)
	result.Matched = len(matched)

	log := logger.FromContext(ctx)
	for _, entry := range matched {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		outcome, err := s.apply(ctx, t, period.ID, entry)
		if err != nil {
			result.Failed++
			log.Error(LogMsgEntryFailed, "tenant_id", tenantID, "period_id", period.ID, "username", entry.Username, "error", err)
			continue
		}
		switch {
		case outcome.firstSeen:
			result.FirstSeen++
		case outcome.unverified:
			result.Unverified++
		case outcome.tickets > 0:
			result.Awarded++
			result.TicketsAwarded += outcome.tickets
		}
	}

	log.Info(LogMsgPollCompleted,
		"tenant_id", tenantID,
		"period_id", period.ID,
		"entries", result.Entries,
		"matched", result.Matched,
		"awarded", result.Awarded,
		"tickets", result.TicketsAwarded,
		"failed", result.Failed)

	if s.bus != nil {
		evt := event.NewWagerPollCompletedEvent(tenantID, period.ID, result.Entries, result.Awarded, result.TicketsAwarded)
		if err := s.bus.Publish(ctx, evt); err != nil {
			log.Warn(LogMsgPublishFailed, "tenant_id", tenantID, "error", err)
		}
	}
	return result, nil
}

// entryOutcome reports what applying one entry did
type entryOutcome struct {
	firstSeen  bool
	unverified bool
	tickets    int64
}

// apply processes one affiliate entry in its own transaction. Only positive
// deltas move the high-water mark, and only verified links earn tickets.
func (s *service) apply(ctx context.Context, t *domain.Tenant, periodID int64, entry domain.WagerEntry) (entryOutcome, error) {
	username := NormalizeUsername(entry.Username)
	current := entry.WagerAmount

	link, err := s.repo.GetWagerLink(ctx, t.ID, username)
	switch {
	case errors.Is(err, domain.ErrWagerLinkNotFound):
		link = nil
	case err != nil:
		return entryOutcome{}, fmt.Errorf(ErrContextFailedToLoadLink, err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return entryOutcome{}, fmt.Errorf(ErrContextFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	snap, err := tx.GetWagerSnapshotForUpdate(ctx, periodID, username)
	if err != nil {
		return entryOutcome{}, fmt.Errorf(ErrContextFailedToLoadSnapshot, err)
	}

	var outcome entryOutcome
	var award *domain.AwardRequest
	switch {
	case snap == nil:
		// First sighting in this period only establishes the baseline
		snap = &domain.WagerSnapshot{
			TenantID:       t.ID,
			PeriodID:       periodID,
			Username:       username,
			LastKnownWager: current,
			EligibleWager:  decimal.Zero,
			UpdatedAt:      s.now().UTC(),
		}
		if link != nil {
			snap.AccountID = link.AccountID
			snap.Verified = link.Verified
		}
		outcome.firstSeen = true

	default:
		delta := current.Sub(snap.LastKnownWager)
		if !delta.IsPositive() {
			return outcome, nil
		}

		if link == nil || !link.Verified {
			snap.LastKnownWager = current
			snap.Verified = false
			snap.UpdatedAt = s.now().UTC()
			outcome.unverified = true
			logger.FromContext(ctx).Debug(LogMsgUnverifiedAdvance, "tenant_id", t.ID, "username", username, "delta", delta.String())
			break
		}

		snap.EligibleWager = snap.EligibleWager.Add(delta)
		snap.LastKnownWager = current
		snap.AccountID = link.AccountID
		snap.Verified = true
		snap.UpdatedAt = s.now().UTC()

		// Each delta is floored on its own; fractions never carry to the next poll
		owed := utils.TicketsForAmount(delta, t.WagerRate, t.WagerUnit)
		if owed > 0 {
			award = &domain.AwardRequest{
				TenantID:    t.ID,
				PeriodID:    periodID,
				AccountID:   link.AccountID,
				Source:      domain.SourceWager,
				Amount:      owed,
				Description: fmt.Sprintf(DescriptionFormat, username, delta.StringFixed(2)),
			}
			if _, err := s.awarder.AwardTx(ctx, tx, *award); err != nil {
				return entryOutcome{}, err
			}
			snap.TicketsAwarded += owed
			outcome.tickets = owed
		}
	}

	if err := tx.SaveWagerSnapshot(ctx, snap); err != nil {
		return entryOutcome{}, fmt.Errorf(ErrContextFailedToSaveSnapshot, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return entryOutcome{}, fmt.Errorf(ErrContextFailedToCommitTx, err)
	}

	if award != nil {
		ledger.RecordAward(*award)
		logger.FromContext(ctx).Info(LogMsgWagerAwarded,
			"tenant_id", t.ID,
			"period_id", periodID,
			"account_id", award.AccountID,
			"username", username,
			"tickets", award.Amount)
	}
	return outcome, nil
}

// PollAll polls each wager-enabled tenant in its own goroutine. A slow or
// failing tenant never delays or fails another.
func (s *service) PollAll(ctx context.Context) error {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return err
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, t := range tenants {
		if !t.WagerPollable() {
			continue
		}
		wg.Add(1)
		go func(tenantID string) {
			defer wg.Done()
			_, err := s.PollTenant(ctx, tenantID)
			switch {
			case errors.Is(err, domain.ErrNoActivePeriod):
				logger.FromContext(ctx).Debug(LogMsgNoActivePeriod, "tenant_id", tenantID)
			case err != nil:
				logger.FromContext(ctx).Error(LogMsgPollFailed, "tenant_id", tenantID, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("tenant %s: %w", tenantID, err))
				mu.Unlock()
			}
		}(t.ID)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (s *service) LinkAccount(ctx context.Context, tenantID, username, accountID string) (*domain.WagerLink, error) {
	username = NormalizeUsername(username)
	accountID = strings.TrimSpace(accountID)
	if username == "" || accountID == "" {
		return nil, fmt.Errorf("%w: username and account are required", domain.ErrInvalidInput)
	}
	if _, err := s.tenants.Get(ctx, tenantID); err != nil {
		return nil, err
	}

	link := &domain.WagerLink{TenantID: tenantID, Username: username, AccountID: accountID}
	if err := s.repo.CreateWagerLink(ctx, link); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgLinkCreated, "tenant_id", tenantID, "username", username, "account_id", accountID)
	return link, nil
}

func (s *service) Verify(ctx context.Context, tenantID, username, adminID string) (*domain.WagerLink, error) {
	username = NormalizeUsername(username)
	if username == "" || strings.TrimSpace(adminID) == "" {
		return nil, fmt.Errorf("%w: username and admin are required", domain.ErrInvalidInput)
	}

	link, err := s.repo.VerifyWagerLink(ctx, tenantID, username, adminID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgLinkVerified, "tenant_id", tenantID, "username", username, "admin", adminID)
	return link, nil
}

func (s *service) GetLink(ctx context.Context, tenantID, username string) (*domain.WagerLink, error) {
	return s.repo.GetWagerLink(ctx, tenantID, NormalizeUsername(username))
}

func (s *service) Snapshots(ctx context.Context, tenantID string, periodID int64) ([]domain.WagerSnapshot, error) {
	if periodID == 0 {
		p, err := s.repo.GetActivePeriod(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		periodID = p.ID
	} else if _, err := s.repo.GetPeriod(ctx, tenantID, periodID); err != nil {
		return nil, err
	}
	return s.repo.ListWagerSnapshots(ctx, tenantID, periodID)
}
