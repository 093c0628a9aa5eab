package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdentityRepository implements repository.Identity for PostgreSQL
type IdentityRepository struct {
	db *pgxpool.Pool
}

// NewIdentityRepository creates a new IdentityRepository
func NewIdentityRepository(db *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// FindAccountByHandle looks up the account linked to an external handle.
// A missing link is reported through the bool, not as an error.
func (r *IdentityRepository) FindAccountByHandle(ctx context.Context, tenantID, platform, handle string) (string, bool, error) {
	query := `
		SELECT account_id FROM account_links
		WHERE tenant_id = $1 AND platform = $2 AND external_handle = $3
	`
	var accountID string
	if err := r.db.QueryRow(ctx, query, tenantID, platform, handle).Scan(&accountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%s: %w", ErrMsgFailedToFindLink, err)
	}
	return accountID, true, nil
}

// UpsertLink maps a handle to an account, creating the account row if needed
func (r *IdentityRepository) UpsertLink(ctx context.Context, tenantID, platform, handle, accountID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer SafeRollback(ctx, tx)

	if err := ensureAccount(ctx, tx, tenantID, accountID); err != nil {
		return err
	}

	query := `
		INSERT INTO account_links (tenant_id, platform, external_handle, account_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, platform, external_handle) DO UPDATE
		SET account_id = EXCLUDED.account_id
	`
	if _, err := tx.Exec(ctx, query, tenantID, platform, handle, accountID); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpsertLink, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCommit, err)
	}
	return nil
}
