package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/BrandishRaffle_Go/internal/draw"
)

// DrawRequest is the request body for drawing a winner
type DrawRequest struct {
	PeriodID int64  `json:"period_id" validate:"required,min=1"`
	AdminID  string `json:"admin_id" validate:"required,handle"`
	Prize    string `json:"prize_description" validate:"max=200"`
}

// SimulateRequest is the request body for a fairness simulation
type SimulateRequest struct {
	PeriodID   int64 `json:"period_id" validate:"min=0"`
	Iterations int   `json:"iterations" validate:"min=0"`
}

// ExcludeRequest is the request body for excluding an account from draws
type ExcludeRequest struct {
	AccountID string `json:"account_id" validate:"required,handle"`
	Reason    string `json:"reason" validate:"max=200"`
	AdminID   string `json:"admin_id" validate:"required,handle"`
}

// HandleDraw handles POST /admin/draw
// @Summary Draw winner
// @Description Select a winner for an ended period. The result carries the seeds needed to verify it.
// @Tags raffle-admin
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param request body DrawRequest true "Draw"
// @Success 201 {object} domain.DrawResult
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /tenants/{tenantID}/raffle/admin/draw [post]
func (h *RaffleHandlers) HandleDraw() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		var req DrawRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Draw winner"); err != nil {
			return
		}

		result, err := h.svc.Draws.Draw(r.Context(), tid, req.PeriodID, draw.Options{DrawnBy: req.AdminID, Prize: req.Prize})
		if err != nil {
			respondServiceError(w, r, "Draw winner", err)
			return
		}
		respondJSON(w, http.StatusCreated, result)
	}
}

// HandleGetDraw handles GET /draws/{periodID}
func (h *RaffleHandlers) HandleGetDraw() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		periodID, ok := periodIDParam(w, r)
		if !ok {
			return
		}

		result, err := h.svc.Draws.Result(r.Context(), tid, periodID)
		if err != nil {
			respondServiceError(w, r, "Get draw", err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleVerifyDraw handles GET /draws/{periodID}/verify
// @Summary Verify draw
// @Description Recompute a stored draw from its seeds and ticket ranges
// @Tags raffle
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param periodID path int true "Period ID"
// @Success 200 {object} draw.Verification
// @Failure 404 {object} ErrorResponse
// @Router /tenants/{tenantID}/raffle/draws/{periodID}/verify [get]
func (h *RaffleHandlers) HandleVerifyDraw() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		periodID, ok := periodIDParam(w, r)
		if !ok {
			return
		}

		v, err := h.svc.Draws.Verify(r.Context(), tid, periodID)
		if err != nil {
			respondServiceError(w, r, "Verify draw", err)
			return
		}
		respondJSON(w, http.StatusOK, v)
	}
}

// HandleDrawHistory handles GET /draws
func (h *RaffleHandlers) HandleDrawHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		limit, ok := limitParam(w, r)
		if !ok {
			return
		}

		history, err := h.svc.Draws.History(r.Context(), tid, limit)
		if err != nil {
			respondServiceError(w, r, "Get draw history", err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: history})
	}
}

// HandleWinProbability handles GET /probability?account_id=
func (h *RaffleHandlers) HandleWinProbability() http.HandlerFunc {
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

		p, err := h.svc.Draws.WinProbability(r.Context(), tid, periodID, accountID)
		if err != nil {
			respondServiceError(w, r, "Get win probability", err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

// HandleSimulate handles POST /admin/simulate
func (h *RaffleHandlers) HandleSimulate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		var req SimulateRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Simulate draw"); err != nil {
			return
		}

		sim, err := h.svc.Draws.Simulate(r.Context(), tid, req.PeriodID, req.Iterations)
		if err != nil {
			respondServiceError(w, r, "Simulate draw", err)
			return
		}
		respondJSON(w, http.StatusOK, sim)
	}
}

// HandleExclude handles POST /admin/exclusions
func (h *RaffleHandlers) HandleExclude() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		var req ExcludeRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Exclude account"); err != nil {
			return
		}

		exclusion, err := h.svc.Draws.Exclude(r.Context(), tid, req.AccountID, req.Reason, req.AdminID)
		if err != nil {
			respondServiceError(w, r, "Exclude account", err)
			return
		}
		respondJSON(w, http.StatusCreated, exclusion)
	}
}

// HandleInclude handles DELETE /admin/exclusions/{accountID}
func (h *RaffleHandlers) HandleInclude() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		accountID := chi.URLParam(r, "accountID")

		if err := h.svc.Draws.Include(r.Context(), tid, accountID); err != nil {
			respondServiceError(w, r, "Remove exclusion", err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgExclusionRemoved})
	}
}

// HandleListExclusions handles GET /admin/exclusions
func (h *RaffleHandlers) HandleListExclusions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}

		list, err := h.svc.Draws.Exclusions(r.Context(), tid)
		if err != nil {
			respondServiceError(w, r, "List exclusions", err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: list})
	}
}
