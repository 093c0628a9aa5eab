package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/testing/memstore"
)

const tenantID = "tenant-1"

func setup(t *testing.T) (*memstore.Store, Service, domain.RafflePeriod) {
	t.Helper()
	store := memstore.New()
	start, end := domain.MonthBounds(time.Now())
	period := store.SeedPeriod(tenantID, start, end, domain.PeriodActive)
	return store, NewService(store), period
}

func award(t *testing.T, svc Service, periodID int64, account string, source domain.TicketSource, amount int64) *domain.TicketBalance {
	t.Helper()
	balance, err := svc.Award(context.Background(), domain.AwardRequest{
		TenantID:  tenantID,
		PeriodID:  periodID,
		AccountID: account,
		Source:    source,
		Amount:    amount,
	})
	require.NoError(t, err)
	return balance
}

func TestAward_ExampleScenario(t *testing.T) {
	store, svc, period := setup(t)

	award(t, svc, period.ID, "alice", domain.SourceWatchtime, 30)
	award(t, svc, period.ID, "alice", domain.SourceGiftedSub, 75)
	balance := award(t, svc, period.ID, "alice", domain.SourceWager, 16)

	assert.Equal(t, int64(30), balance.Watchtime)
	assert.Equal(t, int64(75), balance.GiftedSub)
	assert.Equal(t, int64(16), balance.Wager)
	assert.Equal(t, int64(121), balance.Total)

	entries := store.LedgerEntries()
	require.Len(t, entries, 3)
	var sum int64
	for _, e := range entries {
		sum += e.Delta
	}
	assert.Equal(t, balance.Total, sum, "ledger entries must sum to the balance total")
}

func TestAward_Validation(t *testing.T) {
	_, svc, period := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     domain.AwardRequest
		wantErr error
	}{
		{"reset source", domain.AwardRequest{TenantID: tenantID, PeriodID: period.ID, AccountID: "a", Source: domain.SourceReset, Amount: 1}, domain.ErrInvalidSource},
		{"unknown source", domain.AwardRequest{TenantID: tenantID, PeriodID: period.ID, AccountID: "a", Source: "raid", Amount: 1}, domain.ErrInvalidSource},
		{"negative watchtime", domain.AwardRequest{TenantID: tenantID, PeriodID: period.ID, AccountID: "a", Source: domain.SourceWatchtime, Amount: -1}, domain.ErrInvalidAmount},
		{"missing account", domain.AwardRequest{TenantID: tenantID, PeriodID: period.ID, Source: domain.SourceBonus, Amount: 1}, domain.ErrInvalidInput},
		{"unknown period", domain.AwardRequest{TenantID: tenantID, PeriodID: 999, AccountID: "a", Source: domain.SourceBonus, Amount: 1}, domain.ErrPeriodNotFound},
		{"other tenant's period", domain.AwardRequest{TenantID: "tenant-2", PeriodID: period.ID, AccountID: "a", Source: domain.SourceBonus, Amount: 1}, domain.ErrPeriodNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Award(ctx, tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAward_ZeroAmountIsNoop(t *testing.T) {
	store, svc, period := setup(t)
	ctx := context.Background()
	award(t, svc, period.ID, "alice", domain.SourceWatchtime, 10)

	balance, err := svc.Award(ctx, domain.AwardRequest{
		TenantID: tenantID, PeriodID: period.ID, AccountID: "alice", Source: domain.SourceWager, Amount: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance.Total)
	assert.Zero(t, balance.Wager)
	assert.Len(t, store.LedgerEntries(), 1, "a zero award appends no entry")

	store.SetPeriodStatus(period.ID, domain.PeriodEnded)
	_, err = svc.Award(ctx, domain.AwardRequest{
		TenantID: tenantID, PeriodID: period.ID, AccountID: "alice", Source: domain.SourceWager, Amount: 0,
	})
	assert.ErrorIs(t, err, domain.ErrPeriodClosed, "the period is still checked")
}

func TestReads_TenantsAreIsolated(t *testing.T) {
	store, svc, periodA := setup(t)
	ctx := context.Background()
	const otherTenant = "tenant-2"
	start, end := domain.MonthBounds(time.Now())
	periodB := store.SeedPeriod(otherTenant, start, end, domain.PeriodActive)

	award(t, svc, periodA.ID, "alice", domain.SourceGiftedSub, 45)

	balance, err := svc.Balance(ctx, otherTenant, 0, "alice")
	require.NoError(t, err)
	assert.Equal(t, periodB.ID, balance.PeriodID)
	assert.Zero(t, balance.Total)

	_, err = svc.Balance(ctx, otherTenant, periodA.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrPeriodNotFound, "another tenant's period id is not addressable")

	board, err := svc.Leaderboard(ctx, otherTenant, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, board)

	entries, err := svc.Entries(ctx, otherTenant, 0, "", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	stats, err := svc.PeriodStats(ctx, otherTenant, 0)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalTickets)
	assert.Zero(t, stats.LedgerEntryRows)

	discrepancies, err := svc.Audit(ctx, otherTenant, 0)
	require.NoError(t, err)
	assert.Empty(t, discrepancies)

	own, err := svc.Balance(ctx, tenantID, 0, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(45), own.Total)
}

func TestAward_ClosedPeriod(t *testing.T) {
	store, svc, period := setup(t)
	store.SetPeriodStatus(period.ID, domain.PeriodEnded)

	_, err := svc.Award(context.Background(), domain.AwardRequest{
		TenantID: tenantID, PeriodID: period.ID, AccountID: "alice", Source: domain.SourceWatchtime, Amount: 10,
	})
	require.ErrorIs(t, err, domain.ErrPeriodClosed)
	assert.Contains(t, err.Error(), string(domain.PeriodEnded))
	assert.Empty(t, store.LedgerEntries())
}

func TestAward_InconsistentTotalAborts(t *testing.T) {
	store, svc, period := setup(t)
	store.CorruptTotals(1)

	_, err := svc.Award(context.Background(), domain.AwardRequest{
		TenantID: tenantID, PeriodID: period.ID, AccountID: "alice", Source: domain.SourceWatchtime, Amount: 10,
	})
	require.ErrorIs(t, err, domain.ErrLedgerInconsistent)

	store.CorruptTotals(0)
	balance, err := svc.Balance(context.Background(), tenantID, period.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.Total, "rolled back award must not persist")
	assert.Empty(t, store.LedgerEntries())
}

func TestAward_CommitFailure(t *testing.T) {
	store, svc, period := setup(t)
	store.FailNextCommit(errors.New("connection reset"))

	_, err := svc.Award(context.Background(), domain.AwardRequest{
		TenantID: tenantID, PeriodID: period.ID, AccountID: "alice", Source: domain.SourceWager, Amount: 5,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, store.LedgerEntries())
}

func TestAward_ConcurrentAwardsConserveTickets(t *testing.T) {
	store, svc, period := setup(t)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Award(context.Background(), domain.AwardRequest{
				TenantID: tenantID, PeriodID: period.ID, AccountID: "alice", Source: domain.SourceWatchtime, Amount: 10,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := svc.Balance(context.Background(), tenantID, period.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*10), balance.Total)
	assert.Len(t, store.LedgerEntries(), workers)
}

func TestAdjustBonus(t *testing.T) {
	_, svc, period := setup(t)
	ctx := context.Background()

	award(t, svc, period.ID, "alice", domain.SourceWatchtime, 30)

	balance, err := svc.AdjustBonus(ctx, tenantID, "alice", 5, "stream highlight", "mod-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance.Bonus)
	assert.Equal(t, int64(35), balance.Total)

	balance, err = svc.AdjustBonus(ctx, tenantID, "alice", -20, "rule break", "mod-1")
	require.NoError(t, err)
	assert.Equal(t, int64(-15), balance.Bonus)
	assert.Equal(t, int64(15), balance.Total)

	_, err = svc.AdjustBonus(ctx, tenantID, "alice", -16, "too much", "mod-1")
	assert.ErrorIs(t, err, domain.ErrInsufficientTickets)

	entries, err := svc.Entries(ctx, tenantID, 0, "alice", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "bonus by mod-1: rule break", entries[0].Description, "newest entry first")
}

func TestAdjustBonus_NoActivePeriod(t *testing.T) {
	svc := NewService(memstore.New())
	_, err := svc.AdjustBonus(context.Background(), tenantID, "alice", 5, "x", "mod")
	assert.ErrorIs(t, err, domain.ErrNoActivePeriod)
}

func TestBalance(t *testing.T) {
	_, svc, period := setup(t)
	ctx := context.Background()

	t.Run("unknown account is zero", func(t *testing.T) {
		balance, err := svc.Balance(ctx, tenantID, period.ID, "nobody")
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance.Total)
		assert.Equal(t, "nobody", balance.AccountID)
	})

	t.Run("period zero means active", func(t *testing.T) {
		award(t, svc, period.ID, "alice", domain.SourceBonus, 3)
		balance, err := svc.Balance(ctx, tenantID, 0, "alice")
		require.NoError(t, err)
		assert.Equal(t, period.ID, balance.PeriodID)
		assert.Equal(t, int64(3), balance.Total)
	})

	t.Run("unknown period", func(t *testing.T) {
		_, err := svc.Balance(ctx, tenantID, 12345, "alice")
		assert.ErrorIs(t, err, domain.ErrPeriodNotFound)
	})
}

func TestLeaderboard_DenseRankAndLimits(t *testing.T) {
	_, svc, period := setup(t)
	ctx := context.Background()

	award(t, svc, period.ID, "carol", domain.SourceBonus, 50)
	award(t, svc, period.ID, "alice", domain.SourceBonus, 100)
	award(t, svc, period.ID, "bob", domain.SourceBonus, 50)
	award(t, svc, period.ID, "dave", domain.SourceBonus, 10)
	award(t, svc, period.ID, "erin", domain.SourceBonus, 5)
	award(t, svc, period.ID, "erin", domain.SourceBonus, -5)

	board, err := svc.Leaderboard(ctx, tenantID, period.ID, 0)
	require.NoError(t, err)
	require.Len(t, board, 4, "zero balances are not ranked")

	assert.Equal(t, "alice", board[0].AccountID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "carol", board[1].AccountID, "ties keep account creation order")
	assert.Equal(t, 2, board[1].Rank)
	assert.Equal(t, "bob", board[2].AccountID)
	assert.Equal(t, 2, board[2].Rank)
	assert.Equal(t, 3, board[3].Rank)

	top, err := svc.Leaderboard(ctx, tenantID, period.ID, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	rank, err := svc.Rank(ctx, tenantID, period.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, rank.Rank)

	_, err = svc.Rank(ctx, tenantID, period.ID, "erin")
	assert.ErrorIs(t, err, domain.ErrAccountNotRanked)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, domain.DefaultLeaderboardLimit, clampLimit(0, domain.DefaultLeaderboardLimit, domain.MaxLeaderboardLimit))
	assert.Equal(t, domain.DefaultLeaderboardLimit, clampLimit(-3, domain.DefaultLeaderboardLimit, domain.MaxLeaderboardLimit))
	assert.Equal(t, domain.MaxLeaderboardLimit, clampLimit(500, domain.DefaultLeaderboardLimit, domain.MaxLeaderboardLimit))
	assert.Equal(t, 7, clampLimit(7, domain.DefaultLeaderboardLimit, domain.MaxLeaderboardLimit))
}

func TestPeriodStatsAndAudit(t *testing.T) {
	_, svc, period := setup(t)
	ctx := context.Background()

	award(t, svc, period.ID, "alice", domain.SourceWatchtime, 30)
	award(t, svc, period.ID, "alice", domain.SourceGiftedSub, 75)
	award(t, svc, period.ID, "bob", domain.SourceWager, 16)

	stats, err := svc.PeriodStats(ctx, tenantID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Participants)
	assert.Equal(t, int64(121), stats.TotalTickets)
	assert.Equal(t, int64(30), stats.WatchtimeTotal)
	assert.Equal(t, int64(75), stats.GiftedSubTotal)
	assert.Equal(t, int64(16), stats.WagerTotal)
	assert.Equal(t, int64(3), stats.LedgerEntryRows)

	discrepancies, err := svc.Audit(ctx, tenantID, period.ID)
	require.NoError(t, err)
	assert.NotNil(t, discrepancies)
	assert.Empty(t, discrepancies)
}
