package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

// raffleTx implements repository.Tx on top of a pgx transaction
type raffleTx struct {
	tx pgx.Tx
}

// Commit commits the transaction
func (t *raffleTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCommit, err)
	}
	return nil
}

// Rollback rolls back the transaction
func (t *raffleTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return errors.New(domain.ErrMsgTxClosed)
	}
	return err
}

// ---- Periods ----

func (t *raffleTx) GetPeriodForShare(ctx context.Context, tenantID string, periodID int64) (*domain.RafflePeriod, error) {
	return getPeriod(ctx, t.tx, tenantID, periodID, "FOR SHARE")
}

func (t *raffleTx) GetPeriodForUpdate(ctx context.Context, tenantID string, periodID int64) (*domain.RafflePeriod, error) {
	return getPeriod(ctx, t.tx, tenantID, periodID, "FOR UPDATE")
}

func (t *raffleTx) GetActivePeriodForUpdate(ctx context.Context, tenantID string) (*domain.RafflePeriod, error) {
	return getActivePeriod(ctx, t.tx, tenantID, "FOR UPDATE")
}

// InsertPeriod creates a new active period. The partial unique index on
// active periods turns a concurrent second start into ErrPeriodAlreadyActive.
func (t *raffleTx) InsertPeriod(ctx context.Context, tenantID string, startAt, endAt time.Time) (*domain.RafflePeriod, error) {
	query := `
		INSERT INTO raffle_periods (tenant_id, start_at, end_at, status)
		VALUES ($1, $2, $3, 'active')
		RETURNING ` + periodColumns
	p, err := scanPeriod(t.tx.QueryRow(ctx, query, tenantID, startAt, endAt))
	if err != nil {
		if code, constraint := pgErrorCode(err); code == PgErrorCodeUniqueViolation && constraint == ConstraintOneActivePeriod {
			return nil, fmt.Errorf("%w: tenant %s", domain.ErrPeriodAlreadyActive, tenantID)
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToInsertPeriod, err)
	}
	return p, nil
}

func (t *raffleTx) UpdatePeriodStatus(ctx context.Context, periodID int64, status domain.PeriodStatus, at time.Time) error {
	query := `
		UPDATE raffle_periods
		SET status = $2,
		    ended_at = CASE WHEN $2 = 'ended' THEN $3 ELSE ended_at END
		WHERE period_id = $1
	`
	tag, err := t.tx.Exec(ctx, query, periodID, string(status), at)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdatePeriod, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: period %d", domain.ErrPeriodNotFound, periodID)
	}
	return nil
}

func (t *raffleTx) UpdatePeriodEnd(ctx context.Context, periodID int64, endAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE raffle_periods SET end_at = $2 WHERE period_id = $1`, periodID, endAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdatePeriod, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: period %d", domain.ErrPeriodNotFound, periodID)
	}
	return nil
}

// ---- Ledger ----

func (t *raffleTx) EnsureAccount(ctx context.Context, tenantID, accountID string) error {
	return ensureAccount(ctx, t.tx, tenantID, accountID)
}

func ensureAccount(ctx context.Context, q querier, tenantID, accountID string) error {
	query := `
		INSERT INTO raffle_accounts (tenant_id, account_id)
		VALUES ($1, $2)
		ON CONFLICT (tenant_id, account_id) DO NOTHING
	`
	if _, err := q.Exec(ctx, query, tenantID, accountID); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToEnsureAccount, err)
	}
	return nil
}

// ApplyTicketDelta increments one source column atomically and returns the
// resulting row. The total is a generated column, so it is never written here.
func (t *raffleTx) ApplyTicketDelta(ctx context.Context, tenantID string, periodID int64, accountID string, source domain.TicketSource, delta int64) (*domain.TicketBalance, error) {
	column, err := balanceColumn(source)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO ticket_balances (tenant_id, period_id, account_id, ` + column + `)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (period_id, account_id) DO UPDATE
		SET ` + column + ` = ticket_balances.` + column + ` + EXCLUDED.` + column + `,
		    updated_at = NOW()
		RETURNING ` + balanceColumns

	balance, err := scanBalance(t.tx.QueryRow(ctx, query, tenantID, periodID, accountID, delta))
	if err != nil {
		if isCheckViolation(err) {
			return nil, fmt.Errorf("%w: account %s cannot go below zero", domain.ErrInsufficientTickets, accountID)
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToApplyDelta, err)
	}
	return balance, nil
}

func (t *raffleTx) AppendLedgerEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (tenant_id, period_id, account_id, delta, source, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING entry_id, created_at
	`
	err := t.tx.QueryRow(ctx, query,
		entry.TenantID,
		entry.PeriodID,
		entry.AccountID,
		entry.Delta,
		string(entry.Source),
		entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToAppendLedger, err)
	}
	return nil
}

// ---- Watchtime checkpoints ----

// GetCheckpointForUpdate returns the minutes already converted and whether
// the account has a checkpoint for the period at all.
func (t *raffleTx) GetCheckpointForUpdate(ctx context.Context, periodID int64, accountID string) (int64, bool, error) {
	query := `
		SELECT minutes_converted FROM watchtime_checkpoints
		WHERE period_id = $1 AND account_id = $2
		FOR UPDATE
	`
	var minutes int64
	if err := t.tx.QueryRow(ctx, query, periodID, accountID).Scan(&minutes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%s: %w", ErrMsgFailedToGetCheckpoint, err)
	}
	return minutes, true, nil
}

func (t *raffleTx) SetCheckpoint(ctx context.Context, tenantID string, periodID int64, accountID string, minutes int64) error {
	query := `
		INSERT INTO watchtime_checkpoints (period_id, account_id, tenant_id, minutes_converted)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (period_id, account_id) DO UPDATE
		SET minutes_converted = EXCLUDED.minutes_converted, updated_at = NOW()
	`
	if _, err := t.tx.Exec(ctx, query, periodID, accountID, tenantID, minutes); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToSetCheckpoint, err)
	}
	return nil
}

// ---- Gifted subs ----

// InsertGiftEvent records the event id and reports false when it was already present
func (t *raffleTx) InsertGiftEvent(ctx context.Context, event *domain.GiftedSubEvent) (bool, error) {
	query := `
		INSERT INTO gifted_sub_events
			(tenant_id, event_id, period_id, platform, gifter_handle, gift_count, outcome, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
		ON CONFLICT (tenant_id, event_id) DO NOTHING
	`
	var periodID *int64
	if event.PeriodID != 0 {
		periodID = &event.PeriodID
	}
	tag, err := t.tx.Exec(ctx, query,
		event.TenantID,
		event.EventID,
		periodID,
		event.Platform,
		event.GifterHandle,
		event.GiftCount,
		event.ReceivedAt,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToInsertGift, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *raffleTx) UpdateGiftEvent(ctx context.Context, event *domain.GiftedSubEvent) error {
	query := `
		UPDATE gifted_sub_events
		SET period_id = $3, gifter_account_id = $4, tickets_awarded = $5, outcome = $6
		WHERE tenant_id = $1 AND event_id = $2
	`
	var periodID *int64
	if event.PeriodID != 0 {
		periodID = &event.PeriodID
	}
	_, err := t.tx.Exec(ctx, query,
		event.TenantID,
		event.EventID,
		periodID,
		nullIfEmpty(event.GifterAccountID),
		event.TicketsAwarded,
		string(event.Outcome),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateGift, err)
	}
	return nil
}

// ---- Wager snapshots ----

const snapshotColumns = `tenant_id, period_id, external_username, COALESCE(account_id, ''),
	last_known_wager::text, eligible_wager::text, tickets_awarded, verified, updated_at`

func scanSnapshot(row pgx.Row) (*domain.WagerSnapshot, error) {
	var s domain.WagerSnapshot
	var lastKnown, eligible string
	if err := row.Scan(&s.TenantID, &s.PeriodID, &s.Username, &s.AccountID,
		&lastKnown, &eligible, &s.TicketsAwarded, &s.Verified, &s.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if s.LastKnownWager, err = parseDecimal(lastKnown); err != nil {
		return nil, err
	}
	if s.EligibleWager, err = parseDecimal(eligible); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetWagerSnapshotForUpdate returns nil without error when the username has
// not been seen in this period.
func (t *raffleTx) GetWagerSnapshotForUpdate(ctx context.Context, periodID int64, username string) (*domain.WagerSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM wager_snapshots
		WHERE period_id = $1 AND external_username = $2
		FOR UPDATE`
	s, err := scanSnapshot(t.tx.QueryRow(ctx, query, periodID, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetSnapshot, err)
	}
	return s, nil
}

func (t *raffleTx) SaveWagerSnapshot(ctx context.Context, snapshot *domain.WagerSnapshot) error {
	query := `
		INSERT INTO wager_snapshots
			(period_id, external_username, tenant_id, account_id, last_known_wager,
			 eligible_wager, tickets_awarded, verified, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, NOW())
		ON CONFLICT (period_id, external_username) DO UPDATE
		SET account_id = EXCLUDED.account_id,
		    last_known_wager = EXCLUDED.last_known_wager,
		    eligible_wager = EXCLUDED.eligible_wager,
		    tickets_awarded = EXCLUDED.tickets_awarded,
		    verified = EXCLUDED.verified,
		    updated_at = NOW()
		RETURNING updated_at
	`
	err := t.tx.QueryRow(ctx, query,
		snapshot.PeriodID,
		snapshot.Username,
		snapshot.TenantID,
		nullIfEmpty(snapshot.AccountID),
		snapshot.LastKnownWager.StringFixed(2),
		snapshot.EligibleWager.StringFixed(2),
		snapshot.TicketsAwarded,
		snapshot.Verified,
	).Scan(&snapshot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToSaveSnapshot, err)
	}
	return nil
}

// ---- Draws ----

func (t *raffleTx) GetDrawParticipants(ctx context.Context, tenantID string, periodID int64) ([]domain.Participant, error) {
	return listParticipants(ctx, t.tx, tenantID, periodID, "FOR SHARE OF b")
}

// InsertDrawResult stores the result row and its entry snapshot. A second
// insert for the same period violates the primary key.
func (t *raffleTx) InsertDrawResult(ctx context.Context, result *domain.DrawResult) error {
	query := `
		INSERT INTO draw_results
			(period_id, tenant_id, winner_account_id, winning_ticket, total_tickets, total_participants,
			 server_seed, client_seed, nonce, proof_hash, prize_description, drawn_by, drawn_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := t.tx.Exec(ctx, query,
		result.PeriodID,
		result.TenantID,
		result.WinnerAccountID,
		result.WinningTicket,
		result.TotalTickets,
		result.TotalParticipants,
		result.ServerSeed,
		result.ClientSeed,
		result.Nonce,
		result.ProofHash,
		result.Prize,
		result.DrawnBy,
		result.DrawnAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: period %d", domain.ErrPeriodAlreadyDrawn, result.PeriodID)
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertDraw, err)
	}

	entries := result.Entries
	_, err = t.tx.CopyFrom(ctx,
		pgx.Identifier{"draw_entries"},
		[]string{"period_id", "position", "account_id", "tickets", "range_start", "range_end"},
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{result.PeriodID, e.Position, e.AccountID, e.Tickets, e.RangeStart, e.RangeEnd}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertDraw, err)
	}
	return nil
}

// listParticipants returns eligible accounts in account creation order
func listParticipants(ctx context.Context, q querier, tenantID string, periodID int64, lock string) ([]domain.Participant, error) {
	query := `
		SELECT b.account_id, b.total_tickets
		FROM ticket_balances b
		JOIN raffle_accounts a ON a.tenant_id = b.tenant_id AND a.account_id = b.account_id
		WHERE b.tenant_id = $1 AND b.period_id = $2 AND b.total_tickets > 0
		  AND NOT EXISTS (
			SELECT 1 FROM raffle_exclusions e
			WHERE e.tenant_id = b.tenant_id AND e.account_id = b.account_id
		  )
		ORDER BY a.seq ` + lock
	rows, err := q.Query(ctx, query, tenantID, periodID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListParticipants, err)
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.AccountID, &p.Tickets); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListParticipants, err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListParticipants, err)
	}
	return participants, nil
}
