package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

// WatchtimeRepository implements repository.Watchtime for PostgreSQL
type WatchtimeRepository struct {
	txStarter
	periodReader
	db *pgxpool.Pool
}

// NewWatchtimeRepository creates a new WatchtimeRepository
func NewWatchtimeRepository(db *pgxpool.Pool) *WatchtimeRepository {
	return &WatchtimeRepository{txStarter: txStarter{db: db}, periodReader: periodReader{db: db}, db: db}
}

// ListReadings returns the lifetime minute counters of every viewer in a tenant
func (r *WatchtimeRepository) ListReadings(ctx context.Context, tenantID string) ([]domain.WatchtimeReading, error) {
	query := `
		SELECT platform, external_handle, minutes
		FROM viewer_watchtime
		WHERE tenant_id = $1
		ORDER BY platform, external_handle
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListReadings, err)
	}
	defer rows.Close()

	var readings []domain.WatchtimeReading
	for rows.Next() {
		var reading domain.WatchtimeReading
		if err := rows.Scan(&reading.Platform, &reading.Handle, &reading.Minutes); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListReadings, err)
		}
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}

// GiftedSubRepository implements repository.GiftedSub for PostgreSQL
type GiftedSubRepository struct {
	txStarter
	periodReader
	db *pgxpool.Pool
}

// NewGiftedSubRepository creates a new GiftedSubRepository
func NewGiftedSubRepository(db *pgxpool.Pool) *GiftedSubRepository {
	return &GiftedSubRepository{txStarter: txStarter{db: db}, periodReader: periodReader{db: db}, db: db}
}

// ListGiftEvents returns recorded events with the given outcome, newest first
func (r *GiftedSubRepository) ListGiftEvents(ctx context.Context, tenantID string, outcome domain.GiftOutcome, limit int) ([]domain.GiftedSubEvent, error) {
	query := `
		SELECT tenant_id, event_id, COALESCE(period_id, 0), platform, gifter_handle,
		       COALESCE(gifter_account_id, ''), gift_count, tickets_awarded, outcome, received_at
		FROM gifted_sub_events
		WHERE tenant_id = $1 AND outcome = $2
		ORDER BY received_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, string(outcome), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListGifts, err)
	}
	defer rows.Close()

	var events []domain.GiftedSubEvent
	for rows.Next() {
		var e domain.GiftedSubEvent
		var out string
		err := rows.Scan(&e.TenantID, &e.EventID, &e.PeriodID, &e.Platform, &e.GifterHandle,
			&e.GifterAccountID, &e.GiftCount, &e.TicketsAwarded, &out, &e.ReceivedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListGifts, err)
		}
		e.Outcome = domain.GiftOutcome(out)
		events = append(events, e)
	}
	return events, rows.Err()
}

// WagerRepository implements repository.Wager for PostgreSQL
type WagerRepository struct {
	txStarter
	periodReader
	db *pgxpool.Pool
}

// NewWagerRepository creates a new WagerRepository
func NewWagerRepository(db *pgxpool.Pool) *WagerRepository {
	return &WagerRepository{txStarter: txStarter{db: db}, periodReader: periodReader{db: db}, db: db}
}

const wagerLinkColumns = `tenant_id, external_username, account_id, verified,
	COALESCE(verified_by, ''), verified_at, created_at`

func scanWagerLink(row pgx.Row) (*domain.WagerLink, error) {
	var l domain.WagerLink
	if err := row.Scan(&l.TenantID, &l.Username, &l.AccountID, &l.Verified, &l.VerifiedBy, &l.VerifiedAt, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// GetWagerLink retrieves the link for an affiliate username
func (r *WagerRepository) GetWagerLink(ctx context.Context, tenantID, username string) (*domain.WagerLink, error) {
	query := `SELECT ` + wagerLinkColumns + ` FROM wager_links WHERE tenant_id = $1 AND external_username = $2`
	l, err := scanWagerLink(r.db.QueryRow(ctx, query, tenantID, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrWagerLinkNotFound, username)
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetWagerLink, err)
	}
	return l, nil
}

// CreateWagerLink stores an unverified link. Both the username and the account
// may only be linked once per tenant.
func (r *WagerRepository) CreateWagerLink(ctx context.Context, link *domain.WagerLink) error {
	query := `
		INSERT INTO wager_links (tenant_id, external_username, account_id, verified)
		VALUES ($1, $2, $3, FALSE)
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query, link.TenantID, link.Username, link.AccountID).Scan(&link.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrWagerLinkConflict, link.Username)
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToCreateWagerLink, err)
	}
	return nil
}

// VerifyWagerLink marks a link as approved by an administrator
func (r *WagerRepository) VerifyWagerLink(ctx context.Context, tenantID, username, verifiedBy string, at time.Time) (*domain.WagerLink, error) {
	query := `
		UPDATE wager_links
		SET verified = TRUE, verified_by = $3, verified_at = $4
		WHERE tenant_id = $1 AND external_username = $2
		RETURNING ` + wagerLinkColumns
	l, err := scanWagerLink(r.db.QueryRow(ctx, query, tenantID, username, verifiedBy, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrWagerLinkNotFound, username)
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToVerifyWagerLink, err)
	}
	return l, nil
}

// ListWagerSnapshots returns the period's high-water marks by username
func (r *WagerRepository) ListWagerSnapshots(ctx context.Context, tenantID string, periodID int64) ([]domain.WagerSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM wager_snapshots
		WHERE tenant_id = $1 AND period_id = $2 ORDER BY external_username`
	rows, err := r.db.Query(ctx, query, tenantID, periodID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListSnapshots, err)
	}
	defer rows.Close()

	var snapshots []domain.WagerSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListSnapshots, err)
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, rows.Err()
}
