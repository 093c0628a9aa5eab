package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/draw"
	"github.com/osse101/BrandishRaffle_Go/internal/giftsub"
	"github.com/osse101/BrandishRaffle_Go/internal/repository"
	"github.com/osse101/BrandishRaffle_Go/internal/wager"
	"github.com/osse101/BrandishRaffle_Go/internal/watchtime"
)

// ============================================================================
// MOCKS
// ============================================================================

type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) Get(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Tenant), args.Error(1)
}

func (m *MockTenantService) Ensure(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantService) UpdateSettings(ctx context.Context, t domain.Tenant) (*domain.Tenant, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

type MockIdentityResolver struct {
	mock.Mock
}

func (m *MockIdentityResolver) Resolve(ctx context.Context, tenantID, platform, handle string) (string, bool, error) {
	args := m.Called(ctx, tenantID, platform, handle)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockIdentityResolver) Link(ctx context.Context, tenantID, platform, handle, accountID string) error {
	return m.Called(ctx, tenantID, platform, handle, accountID).Error(0)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) balance(args mock.Arguments) (*domain.TicketBalance, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketBalance), args.Error(1)
}

func (m *MockLedgerService) Award(ctx context.Context, req domain.AwardRequest) (*domain.TicketBalance, error) {
	return m.balance(m.Called(ctx, req))
}

func (m *MockLedgerService) AwardTx(ctx context.Context, tx repository.Tx, req domain.AwardRequest) (*domain.TicketBalance, error) {
	return m.balance(m.Called(ctx, tx, req))
}

func (m *MockLedgerService) AdjustBonus(ctx context.Context, tenantID, accountID string, amount int64, reason, adminID string) (*domain.TicketBalance, error) {
	return m.balance(m.Called(ctx, tenantID, accountID, amount, reason, adminID))
}

func (m *MockLedgerService) Balance(ctx context.Context, tenantID string, periodID int64, accountID string) (*domain.TicketBalance, error) {
	return m.balance(m.Called(ctx, tenantID, periodID, accountID))
}

func (m *MockLedgerService) Leaderboard(ctx context.Context, tenantID string, periodID int64, limit int) ([]domain.LeaderboardEntry, error) {
	args := m.Called(ctx, tenantID, periodID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LeaderboardEntry), args.Error(1)
}

func (m *MockLedgerService) Rank(ctx context.Context, tenantID string, periodID int64, accountID string) (*domain.LeaderboardEntry, error) {
	args := m.Called(ctx, tenantID, periodID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeaderboardEntry), args.Error(1)
}

func (m *MockLedgerService) Entries(ctx context.Context, tenantID string, periodID int64, accountID string, limit int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, tenantID, periodID, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerService) PeriodStats(ctx context.Context, tenantID string, periodID int64) (*domain.PeriodStats, error) {
	args := m.Called(ctx, tenantID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodStats), args.Error(1)
}

func (m *MockLedgerService) Audit(ctx context.Context, tenantID string, periodID int64) ([]domain.LedgerDiscrepancy, error) {
	args := m.Called(ctx, tenantID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerDiscrepancy), args.Error(1)
}

type MockPeriodService struct {
	mock.Mock
}

func (m *MockPeriodService) period(args mock.Arguments) (*domain.RafflePeriod, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RafflePeriod), args.Error(1)
}

func (m *MockPeriodService) Current(ctx context.Context, tenantID string) (*domain.RafflePeriod, error) {
	return m.period(m.Called(ctx, tenantID))
}

func (m *MockPeriodService) Get(ctx context.Context, tenantID string, periodID int64) (*domain.RafflePeriod, error) {
	return m.period(m.Called(ctx, tenantID, periodID))
}

func (m *MockPeriodService) List(ctx context.Context, tenantID string, limit int) ([]domain.RafflePeriod, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RafflePeriod), args.Error(1)
}

func (m *MockPeriodService) Start(ctx context.Context, tenantID string, restart bool) (*domain.RafflePeriod, error) {
	return m.period(m.Called(ctx, tenantID, restart))
}

func (m *MockPeriodService) End(ctx context.Context, tenantID string, periodID int64, endedBy string) (*domain.RafflePeriod, error) {
	return m.period(m.Called(ctx, tenantID, periodID, endedBy))
}

func (m *MockPeriodService) Rollover(ctx context.Context, tenantID, actor string) (*domain.RafflePeriod, error) {
	return m.period(m.Called(ctx, tenantID, actor))
}

func (m *MockPeriodService) RolloverAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockPeriodService) SetEndDate(ctx context.Context, tenantID string, endAt time.Time) (*domain.RafflePeriod, error) {
	return m.period(m.Called(ctx, tenantID, endAt))
}

func (m *MockPeriodService) CheckTransitions(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockPeriodService) EnsureActive(ctx context.Context, tenantID string) (*domain.RafflePeriod, error) {
	return m.period(m.Called(ctx, tenantID))
}

type MockWatchtimeService struct {
	mock.Mock
}

func (m *MockWatchtimeService) ConvertTenant(ctx context.Context, tenantID string) (*watchtime.ConversionSummary, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*watchtime.ConversionSummary), args.Error(1)
}

func (m *MockWatchtimeService) SeedCheckpoints(ctx context.Context, tx repository.Tx, p domain.RafflePeriod) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}

func (m *MockWatchtimeService) ConvertAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockGiftSubService struct {
	mock.Mock
}

func (m *MockGiftSubService) HandleRaw(ctx context.Context, tenantID string, raw []byte) (*giftsub.Result, error) {
	args := m.Called(ctx, tenantID, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*giftsub.Result), args.Error(1)
}

func (m *MockGiftSubService) Handle(ctx context.Context, tenantID string, gift *giftsub.GiftEvent) (*giftsub.Result, error) {
	args := m.Called(ctx, tenantID, gift)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*giftsub.Result), args.Error(1)
}

func (m *MockGiftSubService) Unmatched(ctx context.Context, tenantID string, limit int) ([]domain.GiftedSubEvent, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GiftedSubEvent), args.Error(1)
}

type MockWagerService struct {
	mock.Mock
}

func (m *MockWagerService) link(args mock.Arguments) (*domain.WagerLink, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WagerLink), args.Error(1)
}

func (m *MockWagerService) PollTenant(ctx context.Context, tenantID string) (*wager.PollResult, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wager.PollResult), args.Error(1)
}

func (m *MockWagerService) PollAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockWagerService) LinkAccount(ctx context.Context, tenantID, username, accountID string) (*domain.WagerLink, error) {
	return m.link(m.Called(ctx, tenantID, username, accountID))
}

func (m *MockWagerService) Verify(ctx context.Context, tenantID, username, adminID string) (*domain.WagerLink, error) {
	return m.link(m.Called(ctx, tenantID, username, adminID))
}

func (m *MockWagerService) GetLink(ctx context.Context, tenantID, username string) (*domain.WagerLink, error) {
	return m.link(m.Called(ctx, tenantID, username))
}

func (m *MockWagerService) Snapshots(ctx context.Context, tenantID string, periodID int64) ([]domain.WagerSnapshot, error) {
	args := m.Called(ctx, tenantID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WagerSnapshot), args.Error(1)
}

type MockDrawService struct {
	mock.Mock
}

func (m *MockDrawService) result(args mock.Arguments) (*domain.DrawResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DrawResult), args.Error(1)
}

func (m *MockDrawService) Draw(ctx context.Context, tenantID string, periodID int64, opts draw.Options) (*domain.DrawResult, error) {
	return m.result(m.Called(ctx, tenantID, periodID, opts))
}

func (m *MockDrawService) AutoDraw(ctx context.Context, tenantID string, periodID int64) (*domain.DrawResult, error) {
	return m.result(m.Called(ctx, tenantID, periodID))
}

func (m *MockDrawService) Result(ctx context.Context, tenantID string, periodID int64) (*domain.DrawResult, error) {
	return m.result(m.Called(ctx, tenantID, periodID))
}

func (m *MockDrawService) History(ctx context.Context, tenantID string, limit int) ([]domain.DrawResult, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DrawResult), args.Error(1)
}

func (m *MockDrawService) Verify(ctx context.Context, tenantID string, periodID int64) (*draw.Verification, error) {
	args := m.Called(ctx, tenantID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*draw.Verification), args.Error(1)
}

func (m *MockDrawService) WinProbability(ctx context.Context, tenantID string, periodID int64, accountID string) (*draw.Probability, error) {
	args := m.Called(ctx, tenantID, periodID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*draw.Probability), args.Error(1)
}

func (m *MockDrawService) Simulate(ctx context.Context, tenantID string, periodID int64, iterations int) (*draw.Simulation, error) {
	args := m.Called(ctx, tenantID, periodID, iterations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*draw.Simulation), args.Error(1)
}

func (m *MockDrawService) Exclude(ctx context.Context, tenantID, accountID, reason, adminID string) (*domain.Exclusion, error) {
	args := m.Called(ctx, tenantID, accountID, reason, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exclusion), args.Error(1)
}

func (m *MockDrawService) Include(ctx context.Context, tenantID, accountID string) error {
	return m.Called(ctx, tenantID, accountID).Error(0)
}

func (m *MockDrawService) Exclusions(ctx context.Context, tenantID string) ([]domain.Exclusion, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Exclusion), args.Error(1)
}
