package domain

import "time"

// Participant is an eligible account and its ticket count at draw time
type Participant struct {
	AccountID string `json:"account_id"`
	Tickets   int64  `json:"tickets"`
}

// DrawEntry is one participant's contiguous range in the draw snapshot
type DrawEntry struct {
	Position   int    `json:"position"`
	AccountID  string `json:"account_id"`
	Tickets    int64  `json:"tickets"`
	RangeStart int64  `json:"range_start"`
	RangeEnd   int64  `json:"range_end"`
}

// Contains reports whether ticket falls inside the entry's range
func (e DrawEntry) Contains(ticket int64) bool {
	return ticket >= e.RangeStart && ticket <= e.RangeEnd
}

// DrawResult is the immutable outcome of a period's draw, including the
// material needed to recompute it.
type DrawResult struct {
	PeriodID          int64       `json:"period_id"`
	TenantID          string      `json:"tenant_id"`
	WinnerAccountID   string      `json:"winner_account_id"`
	WinningTicket     int64       `json:"winning_ticket_number"`
	TotalTickets      int64       `json:"total_tickets"`
	TotalParticipants int         `json:"total_participants"`
	ServerSeed        string      `json:"server_seed"`
	ClientSeed        string      `json:"client_seed"`
	Nonce             int64       `json:"nonce"`
	ProofHash         string      `json:"proof_hash"`
	Prize             string      `json:"prize_description,omitempty"`
	DrawnBy           string      `json:"drawn_by,omitempty"`
	DrawnAt           time.Time   `json:"drawn_at"`
	Entries           []DrawEntry `json:"entries,omitempty"`
}

// Exclusion marks an account as ineligible to win
type Exclusion struct {
	TenantID  string    `json:"tenant_id"`
	AccountID string    `json:"account_id"`
	Reason    string    `json:"reason"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
