package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
)

// MaxGiftPayloadBytes bounds a single gift notification body
const MaxGiftPayloadBytes = 64 << 10

// WagerLinkRequest is the request body for self-linking an affiliate username
type WagerLinkRequest struct {
	Username  string `json:"username" validate:"required,handle"`
	AccountID string `json:"account_id" validate:"required,handle"`
}

// WagerVerifyRequest is the request body for approving an affiliate link
type WagerVerifyRequest struct {
	Username string `json:"username" validate:"required,handle"`
	AdminID  string `json:"admin_id" validate:"required,handle"`
}

// TenantSettingsRequest replaces a tenant's rates and wager configuration
type TenantSettingsRequest struct {
	DisplayName        string   `json:"display_name" validate:"max=100"`
	WatchtimeRate      int64    `json:"watchtime_rate" validate:"min=0"`
	GiftedSubRate      int64    `json:"gifted_sub_rate" validate:"min=0"`
	WagerRate          int64    `json:"wager_rate" validate:"min=0"`
	WagerUnit          int64    `json:"wager_unit" validate:"required,min=1"`
	WagerEndpointURL   string   `json:"wager_endpoint_url" validate:"omitempty,url"`
	WagerCampaignCodes []string `json:"wager_campaign_codes" validate:"dive,campaign_code"`
	WagerPollEnabled   bool     `json:"wager_poll_enabled"`
	AutoDraw           bool     `json:"auto_draw"`
}

// HandleGiftedSub handles POST /giftsub with the raw feed payload as body
// @Summary Ingest gifted subs
// @Description Record one gifted-sub notification. Replays of the same event id are acknowledged without awarding again.
// @Tags raffle-ingest
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Success 200 {object} giftsub.Result
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /tenants/{tenantID}/raffle/giftsub [post]
func (h *RaffleHandlers) HandleGiftedSub() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxGiftPayloadBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(w, http.StatusRequestEntityTooLarge, ErrMsgPayloadTooLarge)
				return
			}
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}

		result, err := h.svc.GiftSubs.HandleRaw(r.Context(), tid, body)
		if err != nil {
			respondServiceError(w, r, "Ingest gifted sub", err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleUnmatchedGifts handles GET /giftsub/unmatched
func (h *RaffleHandlers) HandleUnmatchedGifts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		limit, ok := limitParam(w, r)
		if !ok {
			return
		}

		events, err := h.svc.GiftSubs.Unmatched(r.Context(), tid, limit)
		if err != nil {
			respondServiceError(w, r, "List unmatched gifts", err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: events})
	}
}

// HandleConvertWatchtime handles POST /admin/watchtime/convert
func (h *RaffleHandlers) HandleConvertWatchtime() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}

		summary, err := h.svc.Watchtime.ConvertTenant(r.Context(), tid)
		if err != nil {
			respondServiceError(w, r, "Convert watch time", err)
			return
		}
		respondJSON(w, http.StatusOK, summary)
	}
}

// HandleWagerLink handles POST /wager/link
// @Summary Link wager account
// @Description Record a self-asserted affiliate username. Wagers only earn tickets after an admin verifies the link.
// @Tags raffle-ingest
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param request body WagerLinkRequest true "Link"
// @Success 201 {object} domain.WagerLink
// @Failure 409 {object} ErrorResponse
// @Router /tenants/{tenantID}/raffle/wager/link [post]
func (h *RaffleHandlers) HandleWagerLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		var req WagerLinkRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Link wager account"); err != nil {
			return
		}

		link, err := h.svc.Wagers.LinkAccount(r.Context(), tid, req.Username, req.AccountID)
		if err != nil {
			respondServiceError(w, r, "Link wager account", err)
			return
		}
		respondJSON(w, http.StatusCreated, link)
	}
}

// HandleWagerVerify handles POST /admin/wager/verify
func (h *RaffleHandlers) HandleWagerVerify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		var req WagerVerifyRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Verify wager account"); err != nil {
			return
		}

		link, err := h.svc.Wagers.Verify(r.Context(), tid, req.Username, req.AdminID)
		if err != nil {
			respondServiceError(w, r, "Verify wager account", err)
			return
		}
		respondJSON(w, http.StatusOK, link)
	}
}

// HandleWagerPoll handles POST /admin/wager/poll
func (h *RaffleHandlers) HandleWagerPoll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}

		result, err := h.svc.Wagers.PollTenant(r.Context(), tid)
		if err != nil {
			respondServiceError(w, r, "Poll wagers", err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Message: MsgPollCompleted, Data: result})
	}
}

// HandleWagerSnapshots handles GET /wager/snapshots
func (h *RaffleHandlers) HandleWagerSnapshots() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		periodID, ok := periodIDParam(w, r)
		if !ok {
			return
		}

		snaps, err := h.svc.Wagers.Snapshots(r.Context(), tid, periodID)
		if err != nil {
			respondServiceError(w, r, "List wager snapshots", err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: snaps})
	}
}

// HandleGetSettings handles GET /admin/settings
func (h *RaffleHandlers) HandleGetSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}

		t, err := h.svc.Tenants.Get(r.Context(), tid)
		if err != nil {
			respondServiceError(w, r, "Get tenant settings", err)
			return
		}
		respondJSON(w, http.StatusOK, t)
	}
}

// HandleUpdateSettings handles PUT /admin/settings
// @Summary Update tenant settings
// @Description Replace earning rates and wager polling configuration
// @Tags raffle-admin
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param request body TenantSettingsRequest true "Settings"
// @Success 200 {object} domain.Tenant
// @Failure 400 {object} ErrorResponse
// @Router /tenants/{tenantID}/raffle/admin/settings [put]
func (h *RaffleHandlers) HandleUpdateSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}
		var req TenantSettingsRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Update tenant settings"); err != nil {
			return
		}

		saved, err := h.svc.Tenants.UpdateSettings(r.Context(), domain.Tenant{
			ID:                 tid,
			DisplayName:        req.DisplayName,
			WatchtimeRate:      req.WatchtimeRate,
			GiftedSubRate:      req.GiftedSubRate,
			WagerRate:          req.WagerRate,
			WagerUnit:          req.WagerUnit,
			WagerEndpointURL:   req.WagerEndpointURL,
			WagerCampaignCodes: req.WagerCampaignCodes,
			WagerPollEnabled:   req.WagerPollEnabled,
			AutoDraw:           req.AutoDraw,
		})
		if err != nil {
			respondServiceError(w, r, "Update tenant settings", err)
			return
		}

		logger.FromContext(r.Context()).Info("Tenant settings updated", "tenant_id", tid)
		respondJSON(w, http.StatusOK, saved)
	}
}
