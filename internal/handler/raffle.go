package handler

import (
	"net/http"

	"github.com/osse101/BrandishRaffle_Go/internal/draw"
	"github.com/osse101/BrandishRaffle_Go/internal/giftsub"
	"github.com/osse101/BrandishRaffle_Go/internal/identity"
	"github.com/osse101/BrandishRaffle_Go/internal/ledger"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/period"
	"github.com/osse101/BrandishRaffle_Go/internal/tenant"
	"github.com/osse101/BrandishRaffle_Go/internal/wager"
	"github.com/osse101/BrandishRaffle_Go/internal/watchtime"
)

// RaffleServices bundles the services behind the raffle API
type RaffleServices struct {
	Tenants   tenant.Service
	Identity  identity.Resolver
	Ledger    ledger.Service
	Periods   period.Service
	Watchtime watchtime.Service
	GiftSubs  giftsub.Service
	Wagers    wager.Service
	Draws     draw.Service
}

// RaffleHandlers serves the tenant-scoped raffle API
type RaffleHandlers struct {
	svc RaffleServices
}

// NewRaffleHandlers creates new raffle handlers
func NewRaffleHandlers(svc RaffleServices) *RaffleHandlers {
	return &RaffleHandlers{svc: svc}
}

// LinkHandleRequest is the request body for linking a chat handle to an account
type LinkHandleRequest struct {
	Platform  string `json:"platform" validate:"required,platform"`
	Handle    string `json:"handle" validate:"required,handle"`
	AccountID string `json:"account_id" validate:"required,handle"`
}

// HandleLinkHandle handles POST /identity/link
// @Summary Link chat handle
// @Description Map a platform handle to an internal account. Called by the account linking flow.
// @Tags raffle
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param request body LinkHandleRequest true "Handle to link"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /tenants/{tenantID}/raffle/identity/link [post]
func (h *RaffleHandlers) HandleLinkHandle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}

		var req LinkHandleRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Link handle"); err != nil {
			return
		}

		if err := h.svc.Identity.Link(r.Context(), tid, req.Platform, req.Handle, req.AccountID); err != nil {
			respondServiceError(w, r, "Link handle", err)
			return
		}

		logger.FromContext(r.Context()).Info("Handle linked", "tenant_id", tid, "platform", req.Platform, "account_id", req.AccountID)
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Handle linked"})
	}
}
