package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

// periodReader provides the period lookups shared by several repositories
type periodReader struct {
	db *pgxpool.Pool
}

// GetPeriod retrieves one period of a tenant
func (r periodReader) GetPeriod(ctx context.Context, tenantID string, periodID int64) (*domain.RafflePeriod, error) {
	return getPeriod(ctx, r.db, tenantID, periodID, "")
}

// GetActivePeriod retrieves the tenant's active period or ErrNoActivePeriod
func (r periodReader) GetActivePeriod(ctx context.Context, tenantID string) (*domain.RafflePeriod, error) {
	return getActivePeriod(ctx, r.db, tenantID, "")
}

// PeriodRepository implements repository.Period for PostgreSQL
type PeriodRepository struct {
	txStarter
	periodReader
	db *pgxpool.Pool
}

// NewPeriodRepository creates a new PeriodRepository
func NewPeriodRepository(db *pgxpool.Pool) *PeriodRepository {
	return &PeriodRepository{txStarter: txStarter{db: db}, periodReader: periodReader{db: db}, db: db}
}

// ListPeriods returns the tenant's periods, newest first
func (r *PeriodRepository) ListPeriods(ctx context.Context, tenantID string, limit int) ([]domain.RafflePeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM raffle_periods
		WHERE tenant_id = $1 ORDER BY period_id DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListPeriods, err)
	}
	periods, err := scanPeriods(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListPeriods, err)
	}
	return periods, nil
}

// ListExpiredActivePeriods returns active periods of all tenants whose end has passed
func (r *PeriodRepository) ListExpiredActivePeriods(ctx context.Context, now time.Time) ([]domain.RafflePeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM raffle_periods
		WHERE status = 'active' AND end_at <= $1 ORDER BY tenant_id`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListPeriods, err)
	}
	periods, err := scanPeriods(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListPeriods, err)
	}
	return periods, nil
}
