package handler

import (
	"net/http"
	"time"

	"github.com/osse101/BrandishRaffle_Go/internal/logger"
)

// StartPeriodRequest is the request body for opening a period
type StartPeriodRequest struct {
	Restart bool `json:"restart"`
}

// EndPeriodRequest is the request body for ending a period
type EndPeriodRequest struct {
	PeriodID int64  `json:"period_id" validate:"min=0"`
	AdminID  string `json:"admin_id" validate:"required,handle"`
}

// RolloverRequest is the request body for a manual rollover
type RolloverRequest struct {
	AdminID string `json:"admin_id" validate:"required,handle"`
}

// SetEndDateRequest is the request body for moving the active period's end
type SetEndDateRequest struct {
	EndAt string `json:"end_at" validate:"required,rfc3339"`
}

// HandleGetCurrentPeriod handles GET /period
// @Summary Current period
// @Description Get the tenant's active raffle period
// @Tags raffle
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Success 200 {object} domain.RafflePeriod
// @Failure 409 {object} ErrorResponse
// @Router /tenants/{tenantID}/raffle/period [get]
func (h *RaffleHandlers) HandleGetCurrentPeriod() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		p, err := h.svc.Periods.Current(r.Context(), tid)
		if err != nil {
			respondServiceError(w, r, "Get current period", err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

// HandleGetPeriod handles GET /periods/{periodID}
func (h *RaffleHandlers) HandleGetPeriod() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		periodID, ok := periodIDParam(w, r)
		if !ok {
			return
		}
		p, err := h.svc.Periods.Get(r.Context(), tid, periodID)
		if err != nil {
			respondServiceError(w, r, "Get period", err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

// HandleListPeriods handles GET /periods
func (h *RaffleHandlers) HandleListPeriods() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		limit, ok := limitParam(w, r)
		if !ok {
			return
		}
		periods, err := h.svc.Periods.List(r.Context(), tid, limit)
		if err != nil {
			respondServiceError(w, r, "List periods", err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: periods})
	}
}

// HandleStartPeriod handles POST /admin/period/start
// @Summary Start period
// @Description Open the monthly period containing now. With restart, the active period is ended first.
// @Tags raffle-admin
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param request body StartPeriodRequest false "Start options"
// @Success 201 {object} domain.RafflePeriod
// @Failure 409 {object} ErrorResponse
// @Router /tenants/{tenantID}/raffle/admin/period/start [post]
func (h *RaffleHandlers) HandleStartPeriod() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		var req StartPeriodRequest
		if r.ContentLength != 0 {
			if err := DecodeAndValidateRequest(r, w, &req, "Start period"); err != nil {
				return
			}
		}

		p, err := h.svc.Periods.Start(r.Context(), tid, req.Restart)
		if err != nil {
			respondServiceError(w, r, "Start period", err)
			return
		}
		respondJSON(w, http.StatusCreated, p)
	}
}

// HandleEndPeriod handles POST /admin/period/end
func (h *RaffleHandlers) HandleEndPeriod() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		var req EndPeriodRequest
		if err := DecodeAndValidateRequest(r, w, &req, "End period"); err != nil {
			return
		}

		p, err := h.svc.Periods.End(r.Context(), tid, req.PeriodID, req.AdminID)
		if err != nil {
			respondServiceError(w, r, "End period", err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

// HandleRollover handles POST /admin/period/rollover
func (h *RaffleHandlers) HandleRollover() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		var req RolloverRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Rollover"); err != nil {
			return
		}

		p, err := h.svc.Periods.Rollover(r.Context(), tid, req.AdminID)
		if err != nil {
			respondServiceError(w, r, "Rollover", err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Message: MsgRolloverDone, Data: p})
	}
}

// HandleSetEndDate handles POST /admin/period/end-date
func (h *RaffleHandlers) HandleSetEndDate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		var req SetEndDateRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Set end date"); err != nil {
			return
		}
		endAt, err := time.Parse(time.RFC3339, req.EndAt)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidEndDate)
			return
		}

		p, err := h.svc.Periods.SetEndDate(r.Context(), tid, endAt)
		if err != nil {
			respondServiceError(w, r, "Set end date", err)
			return
		}
		logger.FromContext(r.Context()).Info("Period end moved", "tenant_id", tid, "period_id", p.ID, "end_at", p.EndAt)
		respondJSON(w, http.StatusOK, p)
	}
}
