package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/repository"
)

// SafeRollback rolls back a transaction and logs any error that isn't ErrTxClosed
func SafeRollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.FromContext(ctx).Error("Failed to rollback transaction", "error", err)
	}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txStarter gives every repository the same BeginTx implementation
type txStarter struct {
	db *pgxpool.Pool
}

// BeginTx starts a new transaction
func (s txStarter) BeginTx(ctx context.Context) (repository.Tx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	return &raffleTx{tx: tx}, nil
}

// pgErrorCode extracts the SQLSTATE and constraint name from a driver error
func pgErrorCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func isUniqueViolation(err error) bool {
	code, _ := pgErrorCode(err)
	return code == PgErrorCodeUniqueViolation
}

func isCheckViolation(err error) bool {
	code, _ := pgErrorCode(err)
	return code == PgErrorCodeCheckViolation
}

// ---- Common Helper Functions ----

const periodColumns = `period_id, tenant_id, start_at, end_at, status, created_at, ended_at`

func scanPeriod(row pgx.Row) (*domain.RafflePeriod, error) {
	var p domain.RafflePeriod
	var status string
	if err := row.Scan(&p.ID, &p.TenantID, &p.StartAt, &p.EndAt, &status, &p.CreatedAt, &p.EndedAt); err != nil {
		return nil, err
	}
	p.Status = domain.PeriodStatus(status)
	return &p, nil
}

func getPeriod(ctx context.Context, q querier, tenantID string, periodID int64, lock string) (*domain.RafflePeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM raffle_periods WHERE tenant_id = $1 AND period_id = $2 ` + lock
	p, err := scanPeriod(q.QueryRow(ctx, query, tenantID, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: period %d", domain.ErrPeriodNotFound, periodID)
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetPeriod, err)
	}
	return p, nil
}

func getActivePeriod(ctx context.Context, q querier, tenantID string, lock string) (*domain.RafflePeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM raffle_periods WHERE tenant_id = $1 AND status = 'active' ` + lock
	p, err := scanPeriod(q.QueryRow(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: tenant %s", domain.ErrNoActivePeriod, tenantID)
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetPeriod, err)
	}
	return p, nil
}

func scanPeriods(rows pgx.Rows) ([]domain.RafflePeriod, error) {
	defer rows.Close()
	var periods []domain.RafflePeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

const balanceColumns = `tenant_id, period_id, account_id, watchtime_tickets, gifted_sub_tickets, wager_tickets, bonus_tickets, total_tickets`

func scanBalance(row pgx.Row) (*domain.TicketBalance, error) {
	var b domain.TicketBalance
	if err := row.Scan(&b.TenantID, &b.PeriodID, &b.AccountID, &b.Watchtime, &b.GiftedSub, &b.Wager, &b.Bonus, &b.Total); err != nil {
		return nil, err
	}
	return &b, nil
}

// balanceColumn maps a ticket source to its column in ticket_balances
func balanceColumn(source domain.TicketSource) (string, error) {
	switch source {
	case domain.SourceWatchtime:
		return "watchtime_tickets", nil
	case domain.SourceGiftedSub:
		return "gifted_sub_tickets", nil
	case domain.SourceWager:
		return "wager_tickets", nil
	case domain.SourceBonus:
		return "bonus_tickets", nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrInvalidSource, source)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", ErrMsgFailedToParseDecimal, err)
	}
	return d, nil
}

func joinCampaignCodes(codes []string) string {
	return strings.Join(codes, campaignCodeSeparator)
}

func splitCampaignCodes(raw string) []string {
	var codes []string
	for _, code := range strings.Split(raw, campaignCodeSeparator) {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
