package giftsub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/event"
	"github.com/osse101/BrandishRaffle_Go/internal/ledger"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/metrics"
	"github.com/osse101/BrandishRaffle_Go/internal/repository"
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
}

// Result is the outcome of handling one gift
type Result struct {
	EventID        string             `json:"event_id"`
	Outcome        domain.GiftOutcome `json:"outcome"`
	AccountID      string             `json:"account_id,omitempty"`
	TicketsAwarded int64              `json:"tickets_awarded"`
}

// Service ingests gifted-sub notifications exactly once
type Service interface {
	// HandleRaw parses a feed payload and handles it. Unparseable payloads
	// return an error matching domain.ErrUnparseablePayload.
	HandleRaw(ctx context.Context, tenantID string, raw []byte) (*Result, error)

	// Handle awards count * rate gifted-sub tickets to the gifter. Duplicate
	// and unlinked gifts are outcomes, not errors.
	Handle(ctx context.Context, tenantID string, gift *GiftEvent) (*Result, error)

	// Unmatched lists gifts recorded without tickets because the gifter was not linked
	Unmatched(ctx context.Context, tenantID string, limit int) ([]domain.GiftedSubEvent, error)
}

type service struct {
	repo     repository.GiftedSub
	resolver HandleResolver
	awarder  Awarder
	tenants  TenantReader
	bus      event.Bus
	bucket   time.Duration
	now      func() time.Time
}

// NewService creates a new gifted-sub ingester. bucket is the window used
// to derive ids for payloads that carry none.
func NewService(repo repository.GiftedSub, resolver HandleResolver, awarder Awarder, tenants TenantReader, bus event.Bus, bucket time.Duration) Service {
	if bucket <= 0 {
		bucket = domain.DefaultGiftIDBucket
	}
	return &service{
		repo:     repo,
		resolver: resolver,
		awarder:  awarder,
		tenants:  tenants,
		bus:      bus,
		bucket:   bucket,
		now:      time.Now,
	}
}

func (s *service) HandleRaw(ctx context.Context, tenantID string, raw []byte) (*Result, error) {
	switch parsed := Parse(raw).(type) {
	case *GiftEvent:
		return s.Handle(ctx, tenantID, parsed)
	case *Unparseable:
		logger.FromContext(ctx).Warn(LogMsgGiftUnparseable, "tenant_id", tenantID, "reason", parsed.Reason)
		return nil, parsed
	default:
		return nil, fmt.Errorf("%w: unexpected payload type %T", domain.ErrUnparseablePayload, parsed)
	}
}

func (s *service) Handle(ctx context.Context, tenantID string, gift *GiftEvent) (*Result, error) {
	if gift == nil || strings.TrimSpace(gift.Gifter) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnparseablePayload, ReasonMissingGifter)
	}
	if gift.Count <= 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnparseablePayload, ReasonInvalidCount)
	}

	now := s.now().UTC()
	eventID := gift.EventID
	if eventID == "" {
		eventID = FallbackEventID(tenantID, gift.Gifter, gift.Count, now, s.bucket)
	}
	record := &domain.GiftedSubEvent{
		TenantID:     tenantID,
		EventID:      eventID,
		Platform:     gift.Platform,
		GifterHandle: gift.Gifter,
		GiftCount:    gift.Count,
		Outcome:      domain.GiftPending,
		ReceivedAt:   now,
	}
	log := logger.FromContext(ctx)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	// Dedup comes first. Any later failure rolls the insert back, so the
	// feed can redeliver the same event.
	inserted, err := tx.InsertGiftEvent(ctx, record)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToRecordGift, err)
	}
	if !inserted {
		metrics.GiftEvents.WithLabelValues(string(domain.GiftDuplicate)).Inc()
		log.Debug(LogMsgGiftDuplicate, "tenant_id", tenantID, "event_id", eventID)
		return &Result{EventID: eventID, Outcome: domain.GiftDuplicate}, nil
	}

	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	period, err := s.repo.GetActivePeriod(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	record.PeriodID = period.ID

	accountID, linked, err := s.resolver.Resolve(ctx, tenantID, gift.Platform, gift.Gifter)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToResolve, err)
	}

	var award *domain.AwardRequest
	if !linked {
		record.Outcome = domain.GiftNotLinked
	} else {
		record.GifterAccountID = accountID
		record.TicketsAwarded = int64(gift.Count) * tenant.GiftedSubRate
		record.Outcome = domain.GiftSuccess
		if record.TicketsAwarded > 0 {
			award = &domain.AwardRequest{
				TenantID:    tenantID,
				PeriodID:    period.ID,
				AccountID:   accountID,
				Source:      domain.SourceGiftedSub,
				Amount:      record.TicketsAwarded,
				Description: fmt.Sprintf(DescriptionFormat, gift.Count, plural(gift.Count)),
			}
			if _, err := s.awarder.AwardTx(ctx, tx, *award); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.UpdateGiftEvent(ctx, record); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToRecordGift, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToCommitTx, err)
	}

	if award != nil {
		ledger.RecordAward(*award)
	}
	if record.Outcome == domain.GiftNotLinked {
		log.Warn(LogMsgGiftNotLinked, "tenant_id", tenantID, "event_id", eventID, "gifter", gift.Gifter)
	} else {
		log.Info(LogMsgGiftAwarded,
			"tenant_id", tenantID,
			"period_id", period.ID,
			"account_id", accountID,
			"gift_count", gift.Count,
			"tickets", record.TicketsAwarded)
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, event.NewGiftedSubProcessedEvent(*record)); err != nil {
			log.Warn(LogMsgPublishFailed, "event_id", eventID, "error", err)
		}
	}

	return &Result{
		EventID:        eventID,
		Outcome:        record.Outcome,
		AccountID:      record.GifterAccountID,
		TicketsAwarded: record.TicketsAwarded,
	}, nil
}

func (s *service) Unmatched(ctx context.Context, tenantID string, limit int) ([]domain.GiftedSubEvent, error) {
	if limit <= 0 || limit > domain.MaxHistoryLimit {
		limit = domain.DefaultEntriesLimit
	}
	return s.repo.ListGiftEvents(ctx, tenantID, domain.GiftNotLinked, limit)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
