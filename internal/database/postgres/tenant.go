package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

// TenantRepository implements repository.Tenant for PostgreSQL
type TenantRepository struct {
	db *pgxpool.Pool
}

// NewTenantRepository creates a new TenantRepository
func NewTenantRepository(db *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{db: db}
}

const tenantColumns = `tenant_id, display_name, watchtime_rate, gifted_sub_rate, wager_rate, wager_unit,
	wager_endpoint_url, wager_campaign_codes, wager_poll_enabled, auto_draw, created_at`

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	var codes string
	err := row.Scan(
		&t.ID,
		&t.DisplayName,
		&t.WatchtimeRate,
		&t.GiftedSubRate,
		&t.WagerRate,
		&t.WagerUnit,
		&t.WagerEndpointURL,
		&codes,
		&t.WagerPollEnabled,
		&t.AutoDraw,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.WagerCampaignCodes = splitCampaignCodes(codes)
	return &t, nil
}

// GetTenant retrieves a tenant's raffle configuration
func (r *TenantRepository) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE tenant_id = $1`
	t, err := scanTenant(r.db.QueryRow(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTenantNotFound, tenantID)
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetTenant, err)
	}
	return t, nil
}

// ListTenants returns every registered tenant
func (r *TenantRepository) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListTenants, err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListTenants, err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

// EnsureTenant registers the tenant with the given defaults if it does not exist yet
func (r *TenantRepository) EnsureTenant(ctx context.Context, defaults domain.Tenant) error {
	query := `
		INSERT INTO tenants (tenant_id, display_name, watchtime_rate, gifted_sub_rate, wager_rate, wager_unit, auto_draw)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		defaults.ID,
		defaults.DisplayName,
		defaults.WatchtimeRate,
		defaults.GiftedSubRate,
		defaults.WagerRate,
		defaults.WagerUnit,
		defaults.AutoDraw,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpsertTenant, err)
	}
	return nil
}

// UpsertTenant creates or replaces a tenant's settings
func (r *TenantRepository) UpsertTenant(ctx context.Context, tenant domain.Tenant) (*domain.Tenant, error) {
	query := `
		INSERT INTO tenants (tenant_id, display_name, watchtime_rate, gifted_sub_rate, wager_rate, wager_unit,
			wager_endpoint_url, wager_campaign_codes, wager_poll_enabled, auto_draw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    watchtime_rate = EXCLUDED.watchtime_rate,
		    gifted_sub_rate = EXCLUDED.gifted_sub_rate,
		    wager_rate = EXCLUDED.wager_rate,
		    wager_unit = EXCLUDED.wager_unit,
		    wager_endpoint_url = EXCLUDED.wager_endpoint_url,
		    wager_campaign_codes = EXCLUDED.wager_campaign_codes,
		    wager_poll_enabled = EXCLUDED.wager_poll_enabled,
		    auto_draw = EXCLUDED.auto_draw,
		    updated_at = NOW()
		RETURNING ` + tenantColumns
	t, err := scanTenant(r.db.QueryRow(ctx, query,
		tenant.ID,
		tenant.DisplayName,
		tenant.WatchtimeRate,
		tenant.GiftedSubRate,
		tenant.WagerRate,
		tenant.WagerUnit,
		tenant.WagerEndpointURL,
		joinCampaignCodes(tenant.WagerCampaignCodes),
		tenant.WagerPollEnabled,
		tenant.AutoDraw,
	))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToUpsertTenant, err)
	}
	return t, nil
}
