package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

// LedgerRepository implements repository.Ledger for PostgreSQL
type LedgerRepository struct {
	txStarter
	periodReader
	db *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{txStarter: txStarter{db: db}, periodReader: periodReader{db: db}, db: db}
}

// GetBalance returns nil when the account has no balance row in the period
func (r *LedgerRepository) GetBalance(ctx context.Context, tenantID string, periodID int64, accountID string) (*domain.TicketBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM ticket_balances
		WHERE tenant_id = $1 AND period_id = $2 AND account_id = $3`
	b, err := scanBalance(r.db.QueryRow(ctx, query, tenantID, periodID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetBalance, err)
	}
	return b, nil
}

// rankedBalances orders by tickets and breaks ties by account creation order
const rankedBalances = `
	SELECT DENSE_RANK() OVER (ORDER BY b.total_tickets DESC) AS rank,
	       b.account_id, b.total_tickets, a.seq
	FROM ticket_balances b
	JOIN raffle_accounts a ON a.tenant_id = b.tenant_id AND a.account_id = b.account_id
	WHERE b.tenant_id = $1 AND b.period_id = $2 AND b.total_tickets > 0
`

// GetLeaderboard returns the top accounts of a period
func (r *LedgerRepository) GetLeaderboard(ctx context.Context, tenantID string, periodID int64, limit int) ([]domain.LeaderboardEntry, error) {
	query := `SELECT rank, account_id, total_tickets FROM (` + rankedBalances + `) ranked
		ORDER BY total_tickets DESC, seq LIMIT $3`
	rows, err := r.db.Query(ctx, query, tenantID, periodID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetLeaderboard, err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.AccountID, &e.TotalTickets); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetLeaderboard, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetRank returns nil when the account holds no tickets in the period
func (r *LedgerRepository) GetRank(ctx context.Context, tenantID string, periodID int64, accountID string) (*domain.LeaderboardEntry, error) {
	query := `SELECT rank, account_id, total_tickets FROM (` + rankedBalances + `) ranked
		WHERE account_id = $3`
	var e domain.LeaderboardEntry
	if err := r.db.QueryRow(ctx, query, tenantID, periodID, accountID).Scan(&e.Rank, &e.AccountID, &e.TotalTickets); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetLeaderboard, err)
	}
	return &e, nil
}

// ListLedgerEntries returns audit rows newest first. An empty accountID lists the whole period.
func (r *LedgerRepository) ListLedgerEntries(ctx context.Context, tenantID string, periodID int64, accountID string, limit int) ([]domain.LedgerEntry, error) {
	query := `
		SELECT entry_id, tenant_id, period_id, account_id, delta, source, description, created_at
		FROM ledger_entries
		WHERE tenant_id = $1 AND period_id = $2 AND ($3::text = '' OR account_id = $3::text)
		ORDER BY entry_id DESC
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, periodID, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListLedger, err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var source string
		if err := rows.Scan(&e.ID, &e.TenantID, &e.PeriodID, &e.AccountID, &e.Delta, &source, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListLedger, err)
		}
		e.Source = domain.TicketSource(source)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetPeriodStats aggregates the balance table for one period
func (r *LedgerRepository) GetPeriodStats(ctx context.Context, tenantID string, periodID int64) (*domain.PeriodStats, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE total_tickets > 0),
		       COALESCE(SUM(total_tickets), 0)::bigint,
		       COALESCE(SUM(watchtime_tickets), 0)::bigint,
		       COALESCE(SUM(gifted_sub_tickets), 0)::bigint,
		       COALESCE(SUM(wager_tickets), 0)::bigint,
		       COALESCE(SUM(bonus_tickets), 0)::bigint,
		       (SELECT COUNT(*) FROM ledger_entries WHERE tenant_id = $1 AND period_id = $2)
		FROM ticket_balances
		WHERE tenant_id = $1 AND period_id = $2
	`
	stats := domain.PeriodStats{PeriodID: periodID}
	err := r.db.QueryRow(ctx, query, tenantID, periodID).Scan(
		&stats.Participants,
		&stats.TotalTickets,
		&stats.WatchtimeTotal,
		&stats.GiftedSubTotal,
		&stats.WagerTotal,
		&stats.BonusTotal,
		&stats.LedgerEntryRows,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetStats, err)
	}
	return &stats, nil
}

// FindLedgerDiscrepancies compares every balance column with the sum of its ledger entries
func (r *LedgerRepository) FindLedgerDiscrepancies(ctx context.Context, tenantID string, periodID int64) ([]domain.LedgerDiscrepancy, error) {
	query := `
		WITH ledger AS (
			SELECT account_id, source, SUM(delta)::bigint AS total
			FROM ledger_entries
			WHERE tenant_id = $1 AND period_id = $2
			GROUP BY account_id, source
		), balance_columns AS (
			SELECT account_id, 'watchtime' AS source, watchtime_tickets AS value
			FROM ticket_balances WHERE tenant_id = $1 AND period_id = $2
			UNION ALL
			SELECT account_id, 'gifted_sub', gifted_sub_tickets
			FROM ticket_balances WHERE tenant_id = $1 AND period_id = $2
			UNION ALL
			SELECT account_id, 'wager', wager_tickets
			FROM ticket_balances WHERE tenant_id = $1 AND period_id = $2
			UNION ALL
			SELECT account_id, 'bonus', bonus_tickets
			FROM ticket_balances WHERE tenant_id = $1 AND period_id = $2
		)
		SELECT COALESCE(c.account_id, l.account_id),
		       COALESCE(c.source, l.source),
		       COALESCE(c.value, 0),
		       COALESCE(l.total, 0)
		FROM balance_columns c
		FULL OUTER JOIN ledger l ON l.account_id = c.account_id AND l.source = c.source
		WHERE COALESCE(c.value, 0) <> COALESCE(l.total, 0)
		ORDER BY 1, 2
	`
	rows, err := r.db.Query(ctx, query, tenantID, periodID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToAudit, err)
	}
	defer rows.Close()

	discrepancies := []domain.LedgerDiscrepancy{}
	for rows.Next() {
		var d domain.LedgerDiscrepancy
		var source string
		if err := rows.Scan(&d.AccountID, &source, &d.BalanceValue, &d.LedgerSum); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToAudit, err)
		}
		d.Source = domain.TicketSource(source)
		discrepancies = append(discrepancies, d)
	}
	return discrepancies, rows.Err()
}
