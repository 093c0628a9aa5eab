package giftsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/event"
	"github.com/osse101/BrandishRaffle_Go/internal/identity"
	"github.com/osse101/BrandishRaffle_Go/internal/ledger"
	"github.com/osse101/BrandishRaffle_Go/internal/tenant"
	"github.com/osse101/BrandishRaffle_Go/internal/testing/memstore"
)

const tenantID = "t1"

type fixture struct {
	store    *memstore.Store
	resolver identity.Resolver
	ledger   ledger.Service
	svc      *service
	period   domain.RafflePeriod
	mu       sync.Mutex
	outcomes []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	tenants := tenant.NewService(store, tenant.Defaults{GiftedSubRate: 15, WagerUnit: 1000})
	_, err := tenants.Ensure(ctx, tenantID)
	require.NoError(t, err)

	start, end := domain.MonthBounds(time.Now())
	f := &fixture{
		store:    store,
		resolver: identity.NewResolver(store, tenants, 100, time.Minute),
		ledger:   ledger.NewService(store),
		period:   store.SeedPeriod(tenantID, start, end, domain.PeriodActive),
	}

	bus := event.NewMemoryBus()
	bus.Subscribe(event.GiftedSubProcessed, func(_ context.Context, evt event.Event) error {
		payload := evt.Payload.(event.GiftedSubProcessedPayloadV1)
		f.mu.Lock()
		f.outcomes = append(f.outcomes, payload.Outcome)
		f.mu.Unlock()
		return nil
	})

	f.svc = NewService(store, f.resolver, f.ledger, tenants, bus, time.Minute).(*service)
	return f
}

func (f *fixture) giftedSubTickets(t *testing.T, accountID string) int64 {
	t.Helper()
	b, err := f.ledger.Balance(context.Background(), tenantID, f.period.ID, accountID)
	require.NoError(t, err)
	return b.GiftedSub
}

func TestHandle_AwardsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.resolver.Link(ctx, tenantID, domain.PlatformKick, "Generous", "alice"))

	raw := []byte(`{"id":"evt-1","sender":{"username":"generous"},"gift_count":5}`)

	res, err := f.svc.HandleRaw(ctx, tenantID, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.GiftSuccess, res.Outcome)
	assert.Equal(t, int64(75), res.TicketsAwarded)
	assert.Equal(t, "alice", res.AccountID)

	res, err = f.svc.HandleRaw(ctx, tenantID, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.GiftDuplicate, res.Outcome)
	assert.Zero(t, res.TicketsAwarded)

	assert.Equal(t, int64(75), f.giftedSubTickets(t, "alice"))
	assert.Len(t, f.store.LedgerEntries(), 1)
	assert.Equal(t, []string{string(domain.GiftSuccess)}, f.outcomes, "duplicates publish nothing")

	stored, ok := f.store.GiftEvent(tenantID, "evt-1")
	require.True(t, ok)
	assert.Equal(t, domain.GiftSuccess, stored.Outcome)
	assert.Equal(t, int64(75), stored.TicketsAwarded)
}

func TestHandle_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.resolver.Link(ctx, tenantID, domain.PlatformKick, "gifter", "alice"))

	gift := &GiftEvent{EventID: "evt-race", Platform: domain.PlatformKick, Gifter: "gifter", Count: 2}

	var wg sync.WaitGroup
	results := make([]domain.GiftOutcome, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Handle(ctx, tenantID, gift)
			if assert.NoError(t, err) {
				results[i] = res.Outcome
			}
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, o := range results {
		if o == domain.GiftSuccess {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, int64(30), f.giftedSubTickets(t, "alice"))
}

func TestHandle_NotLinked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Handle(ctx, tenantID, &GiftEvent{EventID: "evt-9", Platform: domain.PlatformKick, Gifter: "stranger", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, domain.GiftNotLinked, res.Outcome)
	assert.Zero(t, res.TicketsAwarded)
	assert.Empty(t, f.store.LedgerEntries())

	unmatched, err := f.svc.Unmatched(ctx, tenantID, 0)
	require.NoError(t, err)
	require.Len(t, unmatched, 1)
	assert.Equal(t, "stranger", unmatched[0].GifterHandle)
	assert.Equal(t, 3, unmatched[0].GiftCount)

	// A later link does not retroactively change the recorded outcome
	require.NoError(t, f.resolver.Link(ctx, tenantID, domain.PlatformKick, "stranger", "bob"))
	res, err = f.svc.Handle(ctx, tenantID, &GiftEvent{EventID: "evt-9", Platform: domain.PlatformKick, Gifter: "stranger", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, domain.GiftDuplicate, res.Outcome)
}

func TestHandle_FallbackIDDeduplicatesWithinBucket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.resolver.Link(ctx, tenantID, domain.PlatformKick, "gifter", "alice"))

	at := time.Date(2026, time.March, 3, 12, 0, 5, 0, time.UTC)
	f.svc.now = func() time.Time { return at }
	raw := []byte(`{"gifter":"gifter","quantity":1}`)

	first, err := f.svc.HandleRaw(ctx, tenantID, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.GiftSuccess, first.Outcome)

	f.svc.now = func() time.Time { return at.Add(30 * time.Second) }
	second, err := f.svc.HandleRaw(ctx, tenantID, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.GiftDuplicate, second.Outcome)
	assert.Equal(t, first.EventID, second.EventID)

	f.svc.now = func() time.Time { return at.Add(2 * time.Minute) }
	third, err := f.svc.HandleRaw(ctx, tenantID, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.GiftSuccess, third.Outcome)
}

func TestHandle_NoActivePeriod(t *testing.T) {
	f := newFixture(t)
	f.store.SetPeriodStatus(f.period.ID, domain.PeriodEnded)

	_, err := f.svc.Handle(context.Background(), tenantID, &GiftEvent{EventID: "e", Platform: domain.PlatformKick, Gifter: "g", Count: 1})
	assert.ErrorIs(t, err, domain.ErrNoActivePeriod)

	_, ok := f.store.GiftEvent(tenantID, "e")
	assert.False(t, ok, "nothing is recorded without a period")
}

func TestHandle_DuplicateAfterPeriodEnds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.resolver.Link(ctx, tenantID, domain.PlatformKick, "gifter", "alice"))
	gift := &GiftEvent{EventID: "evt-late", Platform: domain.PlatformKick, Gifter: "gifter", Count: 1}

	res, err := f.svc.Handle(ctx, tenantID, gift)
	require.NoError(t, err)
	require.Equal(t, domain.GiftSuccess, res.Outcome)

	f.store.SetPeriodStatus(f.period.ID, domain.PeriodEnded)

	res, err = f.svc.Handle(ctx, tenantID, gift)
	require.NoError(t, err, "a redelivered gift is a duplicate whether or not a period is open")
	assert.Equal(t, domain.GiftDuplicate, res.Outcome)
	assert.Equal(t, int64(15), f.giftedSubTickets(t, "alice"))
	assert.Len(t, f.store.LedgerEntries(), 1)
}

func TestHandle_NoActivePeriodStaysRedeliverable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.resolver.Link(ctx, tenantID, domain.PlatformKick, "gifter", "alice"))
	gift := &GiftEvent{EventID: "evt-gap", Platform: domain.PlatformKick, Gifter: "gifter", Count: 2}

	f.store.SetPeriodStatus(f.period.ID, domain.PeriodEnded)
	_, err := f.svc.Handle(ctx, tenantID, gift)
	require.ErrorIs(t, err, domain.ErrNoActivePeriod)

	start, end := domain.MonthBounds(time.Now())
	next := f.store.SeedPeriod(tenantID, start, end, domain.PeriodActive)

	res, err := f.svc.Handle(ctx, tenantID, gift)
	require.NoError(t, err)
	assert.Equal(t, domain.GiftSuccess, res.Outcome)

	b, err := f.ledger.Balance(ctx, tenantID, next.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(30), b.GiftedSub)
}

func TestHandle_CommitFailureLeavesEventRetryable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.resolver.Link(ctx, tenantID, domain.PlatformKick, "gifter", "alice"))
	gift := &GiftEvent{EventID: "evt-retry", Platform: domain.PlatformKick, Gifter: "gifter", Count: 1}

	f.store.FailNextCommit(errors.New("connection lost"))
	_, err := f.svc.Handle(ctx, tenantID, gift)
	require.Error(t, err)

	res, err := f.svc.Handle(ctx, tenantID, gift)
	require.NoError(t, err)
	assert.Equal(t, domain.GiftSuccess, res.Outcome, "a rolled back attempt must not count as processed")
	assert.Equal(t, int64(15), f.giftedSubTickets(t, "alice"))
}

func TestHandleRaw_Unparseable(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.HandleRaw(context.Background(), tenantID, []byte(`someone gifted 5 subs`))
	assert.ErrorIs(t, err, domain.ErrUnparseablePayload)
}
