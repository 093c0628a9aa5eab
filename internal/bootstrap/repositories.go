package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrandishRaffle_Go/internal/database/postgres"
	"github.com/osse101/BrandishRaffle_Go/internal/repository"
)

// Repositories holds all repository implementations used by the application.
type Repositories struct {
	Tenant    repository.Tenant
	Identity  repository.Identity
	Period    repository.Period
	Ledger    repository.Ledger
	Watchtime repository.Watchtime
	GiftedSub repository.GiftedSub
	Wager     repository.Wager
	Draw      repository.Draw
}

// InitializeRepositories creates all repository implementations
func InitializeRepositories(dbPool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Tenant:    postgres.NewTenantRepository(dbPool),
		Identity:  postgres.NewIdentityRepository(dbPool),
		Period:    postgres.NewPeriodRepository(dbPool),
		Ledger:    postgres.NewLedgerRepository(dbPool),
		Watchtime: postgres.NewWatchtimeRepository(dbPool),
		GiftedSub: postgres.NewGiftedSubRepository(dbPool),
		Wager:     postgres.NewWagerRepository(dbPool),
		Draw:      postgres.NewDrawRepository(dbPool),
	}
}
