package domain

import "time"

// TicketSource identifies which earning pipeline produced a ticket delta
type TicketSource string

// Ticket sources. Reset is reserved for administrative zeroing and is never
// accepted by the award path.
const (
	SourceWatchtime TicketSource = "watchtime"
	SourceGiftedSub TicketSource = "gifted_sub"
	SourceWager     TicketSource = "wager"
	SourceBonus     TicketSource = "bonus"
	SourceReset     TicketSource = "reset"
)

// AwardableSources lists the sources that map onto a balance column
var AwardableSources = []TicketSource{SourceWatchtime, SourceGiftedSub, SourceWager, SourceBonus}

// Valid reports whether s is a known source
func (s TicketSource) Valid() bool {
	switch s {
	case SourceWatchtime, SourceGiftedSub, SourceWager, SourceBonus, SourceReset:
		return true
	}
	return false
}

// AllowsNegative reports whether a delta for this source may be negative
func (s TicketSource) AllowsNegative() bool {
	return s == SourceBonus
}

// TicketBalance is one account's tickets in one period, split by source.
// Total is derived by the database and never written directly.
type TicketBalance struct {
	TenantID  string `json:"tenant_id"`
	PeriodID  int64  `json:"period_id"`
	AccountID string `json:"account_id"`
	Watchtime int64  `json:"watchtime_tickets"`
	GiftedSub int64  `json:"gifted_sub_tickets"`
	Wager     int64  `json:"wager_tickets"`
	Bonus     int64  `json:"bonus_tickets"`
	Total     int64  `json:"total_tickets"`
}

// Sum returns the sum of the per-source columns
func (b TicketBalance) Sum() int64 {
	return b.Watchtime + b.GiftedSub + b.Wager + b.Bonus
}

// Consistent reports whether Total matches the per-source columns
func (b TicketBalance) Consistent() bool {
	return b.Total == b.Sum()
}

// Column returns the balance column that holds tickets from source
func (b TicketBalance) Column(source TicketSource) int64 {
	switch source {
	case SourceWatchtime:
		return b.Watchtime
	case SourceGiftedSub:
		return b.GiftedSub
	case SourceWager:
		return b.Wager
	case SourceBonus:
		return b.Bonus
	}
	return 0
}

// LedgerEntry is one append-only audit row for a balance mutation
type LedgerEntry struct {
	ID          int64        `json:"entry_id"`
	TenantID    string       `json:"tenant_id"`
	PeriodID    int64        `json:"period_id"`
	AccountID   string       `json:"account_id"`
	Delta       int64        `json:"delta"`
	Source      TicketSource `json:"source"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
}

// AwardRequest describes a single ticket mutation
type AwardRequest struct {
	TenantID    string
	PeriodID    int64
	AccountID   string
	Source      TicketSource
	Amount      int64
	Description string
}

// LeaderboardEntry is one ranked row of a period leaderboard
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	AccountID    string `json:"account_id"`
	TotalTickets int64  `json:"total_tickets"`
}

// PeriodStats summarises ticket totals for a period
type PeriodStats struct {
	PeriodID        int64 `json:"period_id"`
	Participants    int   `json:"participants"`
	TotalTickets    int64 `json:"total_tickets"`
	WatchtimeTotal  int64 `json:"watchtime_tickets"`
	GiftedSubTotal  int64 `json:"gifted_sub_tickets"`
	WagerTotal      int64 `json:"wager_tickets"`
	BonusTotal      int64 `json:"bonus_tickets"`
	LedgerEntryRows int64 `json:"ledger_entries"`
}

// LedgerDiscrepancy reports a balance column that disagrees with its ledger entries
type LedgerDiscrepancy struct {
	AccountID    string       `json:"account_id"`
	Source       TicketSource `json:"source"`
	BalanceValue int64        `json:"balance_value"`
	LedgerSum    int64        `json:"ledger_sum"`
}
