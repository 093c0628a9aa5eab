package domain

import "time"

// PeriodStatus is the lifecycle state of a raffle period
type PeriodStatus string

// Period states. Transitions only move forward: active -> ended -> drawn.
const (
	PeriodActive PeriodStatus = "active"
	PeriodEnded  PeriodStatus = "ended"
	PeriodDrawn  PeriodStatus = "drawn"
)

// RafflePeriod is a time-bounded window during which tickets accumulate.
// EndAt is exclusive.
type RafflePeriod struct {
	ID        int64        `json:"period_id"`
	TenantID  string       `json:"tenant_id"`
	StartAt   time.Time    `json:"start_at"`
	EndAt     time.Time    `json:"end_at"`
	Status    PeriodStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
}

// IsActive reports whether the period still accepts tickets
func (p RafflePeriod) IsActive() bool {
	return p.Status == PeriodActive
}

// Expired reports whether the period's end has been reached at now
func (p RafflePeriod) Expired(now time.Time) bool {
	return !now.Before(p.EndAt)
}

// MonthBounds returns the first instant of the UTC month containing t and the
// first instant of the following month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Tenant holds the per-community raffle configuration
type Tenant struct {
	ID                 string    `json:"tenant_id"`
	DisplayName        string    `json:"display_name"`
	WatchtimeRate      int64     `json:"watchtime_rate"`
	GiftedSubRate      int64     `json:"gifted_sub_rate"`
	WagerRate          int64     `json:"wager_rate"`
	WagerUnit          int64     `json:"wager_unit"`
	WagerEndpointURL   string    `json:"wager_endpoint_url"`
	WagerCampaignCodes []string  `json:"wager_campaign_codes"`
	WagerPollEnabled   bool      `json:"wager_poll_enabled"`
	AutoDraw           bool      `json:"auto_draw"`
	CreatedAt          time.Time `json:"created_at"`
}

// WagerPollable reports whether the wager poller should fetch for this tenant
func (t Tenant) WagerPollable() bool {
	return t.WagerPollEnabled && t.WagerEndpointURL != "" && len(t.WagerCampaignCodes) > 0
}
