package handler

import (
	"net/http"
)

// BonusRequest is the request body for an admin bonus adjustment
type BonusRequest struct {
	AccountID string `json:"account_id" validate:"required,handle"`
	Amount    int64  `json:"amount" validate:"ticket_delta"`
	Reason    string `json:"reason" validate:"max=200"`
	AdminID   string `json:"admin_id" validate:"required,handle"`
}

// AuditResponse lists ledger discrepancies for a period
type AuditResponse struct {
	PeriodID      int64       `json:"period_id"`
	Consistent    bool        `json:"consistent"`
	Discrepancies interface{} `json:"discrepancies"`
}

// HandleGetBalance handles GET /balance?account_id=
// @Summary Ticket balance
// @Description Get an account's per-source ticket balance. period_id defaults to the active period.
// @Tags raffle
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param account_id query string true "Account ID"
// @Param period_id query int false "Period ID"
// @Success 200 {object} domain.TicketBalance
// @Failure 400 {object} ErrorResponse
// @Router /tenants/{tenantID}/raffle/balance [get]
func (h *RaffleHandlers) HandleGetBalance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		accountID, ok := GetQueryParam(r, w, "account_id")
		if !ok {
			return
		}
		periodID, ok := periodIDParam(w, r)
		if !ok {
			return
		}

		balance, err := h.svc.Ledger.Balance(r.Context(), tid, periodID, accountID)
		if err != nil {
			respondServiceError(w, r, "Get balance", err)
			return
		}
		respondJSON(w, http.StatusOK, balance)
	}
}

// HandleGetLeaderboard handles GET /leaderboard
// @Summary Leaderboard
// @Description Top accounts by total tickets
// @Tags raffle
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param limit query int false "Max rows"
// @Param period_id query int false "Period ID"
// @Success 200 {object} DataResponse
// @Router /tenants/{tenantID}/raffle/leaderboard [get]
func (h *RaffleHandlers) HandleGetLeaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		limit, ok := limitParam(w, r)
		if !ok {
			return
		}
		periodID, ok := periodIDParam(w, r)
		if !ok {
			return
		}

		rows, err := h.svc.Ledger.Leaderboard(r.Context(), tid, periodID, limit)
		if err != nil {
			respondServiceError(w, r, "Get leaderboard", err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: rows})
	}
}

// HandleGetRank handles GET /rank?account_id=
func (h *RaffleHandlers) HandleGetRank() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		accountID, ok := GetQueryParam(r, w, "account_id")
		if !ok {
			return
		}
		periodID, ok := periodIDParam(w, r)
		if !ok {
			return
		}

		rank, err := h.svc.Ledger.Rank(r.Context(), tid, periodID, accountID)
		if err != nil {
			respondServiceError(w, r, "Get rank", err)
			return
		}
		respondJSON(w, http.StatusOK, rank)
	}
}

// HandleGetEntries handles GET /entries?account_id=
func (h *RaffleHandlers) HandleGetEntries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		accountID := GetOptionalQueryParam(r, "account_id", "")
		limit, ok := limitParam(w, r)
		if !ok {
			return
		}
		periodID, ok := periodIDParam(w, r)
		if !ok {
			return
		}

		entries, err := h.svc.Ledger.Entries(r.Context(), tid, periodID, accountID, limit)
		if err != nil {
			respondServiceError(w, r, "Get ledger entries", err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: entries})
	}
}

// HandleGetStats handles GET /stats
func (h *RaffleHandlers) HandleGetStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		periodID, ok := periodIDParam(w, r)
		if !ok {
			return
		}

		stats, err := h.svc.Ledger.PeriodStats(r.Context(), tid, periodID)
		if err != nil {
			respondServiceError(w, r, "Get period stats", err)
			return
		}
		respondJSON(w, http.StatusOK, stats)
	}
}

// HandleAdjustBonus handles POST /admin/bonus
// @Summary Adjust bonus tickets
// @Description Add or remove bonus tickets in the active period. Negative amounts remove tickets.
// @Tags raffle-admin
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param request body BonusRequest true "Adjustment"
// @Success 200 {object} domain.TicketBalance
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /tenants/{tenantID}/raffle/admin/bonus [post]
func (h *RaffleHandlers) HandleAdjustBonus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		var req BonusRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Adjust bonus"); err != nil {
			return
		}

		balance, err := h.svc.Ledger.AdjustBonus(r.Context(), tid, req.AccountID, req.Amount, req.Reason, req.AdminID)
		if err != nil {
			respondServiceError(w, r, "Adjust bonus", err)
			return
		}
		respondJSON(w, http.StatusOK, balance)
	}
}

// HandleAudit handles GET /admin/audit
func (h *RaffleHandlers) HandleAudit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		periodID, ok := periodIDParam(w, r)
		if !ok {
			return
		}

		found, err := h.svc.Ledger.Audit(r.Context(), tid, periodID)
		if err != nil {
			respondServiceError(w, r, "Audit ledger", err)
			return
		}
		respondJSON(w, http.StatusOK, AuditResponse{PeriodID: periodID, Consistent: len(found) == 0, Discrepancies: found})
	}
}
