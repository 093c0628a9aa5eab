package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

// DrawRepository implements repository.Draw for PostgreSQL
type DrawRepository struct {
	txStarter
	periodReader
	db *pgxpool.Pool
}

// NewDrawRepository creates a new DrawRepository
func NewDrawRepository(db *pgxpool.Pool) *DrawRepository {
	return &DrawRepository{txStarter: txStarter{db: db}, periodReader: periodReader{db: db}, db: db}
}

const drawColumns = `period_id, tenant_id, winner_account_id, winning_ticket, total_tickets, total_participants,
	server_seed, client_seed, nonce, proof_hash, prize_description, drawn_by, drawn_at`

func scanDrawResult(row pgx.Row) (*domain.DrawResult, error) {
	var d domain.DrawResult
	err := row.Scan(
		&d.PeriodID,
		&d.TenantID,
		&d.WinnerAccountID,
		&d.WinningTicket,
		&d.TotalTickets,
		&d.TotalParticipants,
		&d.ServerSeed,
		&d.ClientSeed,
		&d.Nonce,
		&d.ProofHash,
		&d.Prize,
		&d.DrawnBy,
		&d.DrawnAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDrawResult returns a period's draw including the entry snapshot
func (r *DrawRepository) GetDrawResult(ctx context.Context, tenantID string, periodID int64) (*domain.DrawResult, error) {
	query := `SELECT ` + drawColumns + ` FROM draw_results WHERE tenant_id = $1 AND period_id = $2`
	result, err := scanDrawResult(r.db.QueryRow(ctx, query, tenantID, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: period %d", domain.ErrDrawNotFound, periodID)
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetDraw, err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT position, account_id, tickets, range_start, range_end
		FROM draw_entries WHERE period_id = $1 ORDER BY position`, periodID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetDraw, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.DrawEntry
		if err := rows.Scan(&e.Position, &e.AccountID, &e.Tickets, &e.RangeStart, &e.RangeEnd); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetDraw, err)
		}
		result.Entries = append(result.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetDraw, err)
	}
	return result, nil
}

// ListDrawResults returns the tenant's past draws, newest first, without entries
func (r *DrawRepository) ListDrawResults(ctx context.Context, tenantID string, limit int) ([]domain.DrawResult, error) {
	query := `SELECT ` + drawColumns + ` FROM draw_results
		WHERE tenant_id = $1 ORDER BY drawn_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListDraws, err)
	}
	defer rows.Close()

	var results []domain.DrawResult
	for rows.Next() {
		d, err := scanDrawResult(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListDraws, err)
		}
		results = append(results, *d)
	}
	return results, rows.Err()
}

// ListParticipants returns the current eligible snapshot without locking
func (r *DrawRepository) ListParticipants(ctx context.Context, tenantID string, periodID int64) ([]domain.Participant, error) {
	return listParticipants(ctx, r.db, tenantID, periodID, "")
}

// AddExclusion marks an account as ineligible, replacing any earlier reason
func (r *DrawRepository) AddExclusion(ctx context.Context, exclusion *domain.Exclusion) error {
	query := `
		INSERT INTO raffle_exclusions (tenant_id, account_id, reason, created_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, account_id) DO UPDATE
		SET reason = EXCLUDED.reason, created_by = EXCLUDED.created_by
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, exclusion.TenantID, exclusion.AccountID, exclusion.Reason, exclusion.CreatedBy).
		Scan(&exclusion.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToModifyExclusion, err)
	}
	return nil
}

// RemoveExclusion makes an account eligible again. Removing a missing exclusion is not an error.
func (r *DrawRepository) RemoveExclusion(ctx context.Context, tenantID, accountID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM raffle_exclusions WHERE tenant_id = $1 AND account_id = $2`, tenantID, accountID); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToModifyExclusion, err)
	}
	return nil
}

// ListExclusions returns every excluded account of a tenant
func (r *DrawRepository) ListExclusions(ctx context.Context, tenantID string) ([]domain.Exclusion, error) {
	rows, err := r.db.Query(ctx, `
		SELECT tenant_id, account_id, reason, created_by, created_at
		FROM raffle_exclusions WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListExclusions, err)
	}
	defer rows.Close()

	var exclusions []domain.Exclusion
	for rows.Next() {
		var e domain.Exclusion
		if err := rows.Scan(&e.TenantID, &e.AccountID, &e.Reason, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListExclusions, err)
		}
		exclusions = append(exclusions, e)
	}
	return exclusions, rows.Err()
}
