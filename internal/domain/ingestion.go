package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WatchtimeReading is one lifetime minute counter reported by the chat integration
type WatchtimeReading struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
	Minutes  int64  `json:"minutes"`
}

// GiftOutcome is the result of handling a gifted-sub event
type GiftOutcome string

// Gift outcomes. Pending only exists inside the handling transaction.
const (
	GiftPending   GiftOutcome = "pending"
	GiftDuplicate GiftOutcome = "duplicate"
	GiftNotLinked GiftOutcome = "not_linked"
	GiftSuccess   GiftOutcome = "success"
)

// GiftedSubEvent is the persisted record of a gift notification
type GiftedSubEvent struct {
	TenantID        string      `json:"tenant_id"`
	EventID         string      `json:"event_id"`
	PeriodID        int64       `json:"period_id"`
	Platform        string      `json:"platform"`
	GifterHandle    string      `json:"gifter_handle"`
	GifterAccountID string      `json:"gifter_account_id,omitempty"`
	GiftCount       int         `json:"gift_count"`
	TicketsAwarded  int64       `json:"tickets_awarded"`
	Outcome         GiftOutcome `json:"outcome"`
	ReceivedAt      time.Time   `json:"received_at"`
}

// WagerLink binds an affiliate username to an account
type WagerLink struct {
	TenantID   string     `json:"tenant_id"`
	Username   string     `json:"external_username"`
	AccountID  string     `json:"account_id"`
	Verified   bool       `json:"verified"`
	VerifiedBy string     `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// WagerSnapshot is the per-period high-water mark for one affiliate username.
// EligibleWager accumulates only deltas observed while the link was verified.
type WagerSnapshot struct {
	TenantID       string          `json:"tenant_id"`
	PeriodID       int64           `json:"period_id"`
	Username       string          `json:"external_username"`
	AccountID      string          `json:"account_id,omitempty"`
	LastKnownWager decimal.Decimal `json:"last_known_wager"`
	EligibleWager  decimal.Decimal `json:"eligible_wager"`
	TicketsAwarded int64           `json:"tickets_awarded"`
	Verified       bool            `json:"verified"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// WagerEntry is one row from the affiliate endpoint after parsing
type WagerEntry struct {
	Username     string          `json:"username"`
	CampaignCode string          `json:"campaign_code"`
	WagerAmount  decimal.Decimal `json:"wager_amount"`
}
