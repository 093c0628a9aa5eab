package bootstrap

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrandishRaffle_Go/internal/concurrency"
	"github.com/osse101/BrandishRaffle_Go/internal/config"
	"github.com/osse101/BrandishRaffle_Go/internal/database"
	"github.com/osse101/BrandishRaffle_Go/internal/draw"
	"github.com/osse101/BrandishRaffle_Go/internal/event"
	"github.com/osse101/BrandishRaffle_Go/internal/giftsub"
	"github.com/osse101/BrandishRaffle_Go/internal/handler"
	"github.com/osse101/BrandishRaffle_Go/internal/identity"
	"github.com/osse101/BrandishRaffle_Go/internal/ledger"
	"github.com/osse101/BrandishRaffle_Go/internal/period"
	"github.com/osse101/BrandishRaffle_Go/internal/tenant"
	"github.com/osse101/BrandishRaffle_Go/internal/wager"
	"github.com/osse101/BrandishRaffle_Go/internal/watchtime"
)

// InitializeServices wires the raffle services. Every service that publishes
// events goes through bus, which should be the resilient publisher.
func InitializeServices(cfg *config.Config, repos *Repositories, bus event.Bus) handler.RaffleServices {
	// Period transitions and watch time conversion share a per-tenant key in
	// this manager; wager polls lock on their own key
	locks := concurrency.NewLockManager()

	tenants := tenant.NewService(repos.Tenant, tenant.Defaults{
		WatchtimeRate: cfg.WatchtimeRate,
		GiftedSubRate: cfg.GiftedSubRate,
		WagerRate:     cfg.WagerRate,
		WagerUnit:     cfg.WagerUnit,
		AutoDraw:      cfg.AutoDraw,
	})
	resolver := identity.NewResolver(repos.Identity, tenants, identity.DefaultCacheSize, identity.DefaultCacheTTL)
	ledgerSvc := ledger.NewService(repos.Ledger)

	watchtimeSvc := watchtime.NewService(repos.Watchtime, resolver, ledgerSvc, tenants, locks)
	giftSvc := giftsub.NewService(repos.GiftedSub, resolver, ledgerSvc, tenants, bus, cfg.GiftIDBucket)
	wagerClient := wager.NewAffiliateClient(cfg.WagerFetchTimeout, cfg.WagerFetchRPS)
	wagerSvc := wager.NewService(repos.Wager, wagerClient, ledgerSvc, tenants, bus, locks, cfg.WagerFetchTimeout)
	drawSvc := draw.NewService(repos.Draw, bus)
	periodSvc := period.NewService(repos.Period, tenants, bus, locks, watchtimeSvc, drawSvc)

	slog.Info(LogMsgServicesInitialized)

	return handler.RaffleServices{
		Tenants:   tenants,
		Identity:  resolver,
		Ledger:    ledgerSvc,
		Periods:   periodSvc,
		Watchtime: watchtimeSvc,
		GiftSubs:  giftSvc,
		Wagers:    wagerSvc,
		Draws:     drawSvc,
	}
}

// EnsureTenants registers the configured tenants and makes sure each has an
// active period. Failures are logged and skipped so one bad tenant does not
// block startup.
func EnsureTenants(ctx context.Context, tenantIDs []string, services handler.RaffleServices) {
	for _, id := range tenantIDs {
		if _, err := services.Tenants.Ensure(ctx, id); err != nil {
			slog.Error(LogMsgTenantEnsureFailed, "tenant_id", id, "error", err)
			continue
		}
		p, err := services.Periods.EnsureActive(ctx, id)
		if err != nil {
			slog.Error(LogMsgTenantEnsureFailed, "tenant_id", id, "error", err)
			continue
		}
		slog.Info(LogMsgTenantReady, "tenant_id", id, "period_id", p.ID, "end_at", p.EndAt)
	}
}

// ReadinessChecks lists what /readyz verifies: the pool answers, the schema
// matches this build, and every tenant has an open period.
func ReadinessChecks(dbPool *pgxpool.Pool, services handler.RaffleServices) []handler.ReadinessCheck {
	return []handler.ReadinessCheck{
		handler.DatabaseCheck(dbPool),
		handler.SchemaCheck(func(ctx context.Context) error {
			return database.CheckSchema(ctx, dbPool)
		}),
		handler.ActivePeriodCheck(services.Tenants, services.Periods),
	}
}
