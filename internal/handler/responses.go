package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// Helper functions for responding

// respondJSON sends a JSON response with the given status code and payload.
// The payload is encoded before the status is written so an encoding failure
// can still become a 500.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		http.Error(w, ErrMsgGenericServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError logs a service failure and writes the mapped response
func respondServiceError(w http.ResponseWriter, r *http.Request, opName string, err error) {
	status, msg := mapServiceErrorToUserMessage(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(opName+" failed", "error", err)
	} else {
		log.Warn(opName+" rejected", "error", err, "status", status)
	}
	respondError(w, status, msg)
}

// User-facing error messages for service errors
const (
	// Generic messages
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgUnknownError        = "Unknown error"
	ErrMsgInvalidRequestError = "Invalid request. Please check your inputs."
	ErrMsgAuthFailedError     = "Authentication failed. Please check your API key."
	ErrMsgResourceNotFoundErr = "Resource not found."
	ErrMsgUpstreamError       = "The affiliate endpoint could not be reached. Please try again later."

	// Tenant and period messages
	ErrMsgTenantNotFoundError      = "Tenant not found"
	ErrMsgPeriodNotFoundError      = "Raffle period not found"
	ErrMsgNoActivePeriodError      = "There is no active raffle period"
	ErrMsgPeriodAlreadyActiveError = "A raffle period is already active"
	ErrMsgPeriodClosedError        = "The raffle period is closed"
	ErrMsgPeriodNotEndedError      = "The raffle period has not ended yet"
	ErrMsgPeriodAlreadyDrawnError  = "The raffle period has already been drawn"

	// Ledger messages
	ErrMsgInvalidAmountError       = "Invalid ticket amount"
	ErrMsgInvalidSourceError       = "Invalid ticket source"
	ErrMsgInsufficientTicketsError = "Not enough tickets"
	ErrMsgAccountNotRankedError    = "Account has no tickets in this period"

	// Ingestion messages
	ErrMsgUnparseablePayloadError = "Payload could not be parsed"
	ErrMsgDuplicateEventError     = "Event already processed"
	ErrMsgWagerLinkNotFoundError  = "Wager link not found"
	ErrMsgWagerLinkConflictError  = "That wager username or account is already linked"
	ErrMsgInvalidPlatformError    = "Invalid platform"

	// Draw messages
	ErrMsgNoParticipantsError = "No eligible participants"
	ErrMsgDrawNotFoundError   = "Draw result not found"
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP responses.
// Anything unrecognized becomes a generic 500 so internal details never leak.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidRequestError
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, ErrMsgInvalidAmountError
	case errors.Is(err, domain.ErrInvalidSource):
		return http.StatusBadRequest, ErrMsgInvalidSourceError
	case errors.Is(err, domain.ErrInvalidPlatform):
		return http.StatusBadRequest, ErrMsgInvalidPlatformError

	case errors.Is(err, domain.ErrTenantNotFound):
		return http.StatusNotFound, ErrMsgTenantNotFoundError
	case errors.Is(err, domain.ErrPeriodNotFound):
		return http.StatusNotFound, ErrMsgPeriodNotFoundError
	case errors.Is(err, domain.ErrDrawNotFound):
		return http.StatusNotFound, ErrMsgDrawNotFoundError
	case errors.Is(err, domain.ErrWagerLinkNotFound):
		return http.StatusNotFound, ErrMsgWagerLinkNotFoundError
	case errors.Is(err, domain.ErrAccountNotRanked):
		return http.StatusNotFound, ErrMsgAccountNotRankedError

	case errors.Is(err, domain.ErrNoActivePeriod):
		return http.StatusConflict, ErrMsgNoActivePeriodError
	case errors.Is(err, domain.ErrPeriodAlreadyActive):
		return http.StatusConflict, ErrMsgPeriodAlreadyActiveError
	case errors.Is(err, domain.ErrPeriodClosed):
		return http.StatusConflict, ErrMsgPeriodClosedError
	case errors.Is(err, domain.ErrPeriodNotEnded):
		return http.StatusConflict, ErrMsgPeriodNotEndedError
	case errors.Is(err, domain.ErrPeriodAlreadyDrawn):
		return http.StatusConflict, ErrMsgPeriodAlreadyDrawnError
	case errors.Is(err, domain.ErrWagerLinkConflict):
		return http.StatusConflict, ErrMsgWagerLinkConflictError
	case errors.Is(err, domain.ErrDuplicateEvent):
		return http.StatusConflict, ErrMsgDuplicateEventError

	case errors.Is(err, domain.ErrUnparseablePayload):
		return http.StatusUnprocessableEntity, ErrMsgUnparseablePayloadError
	case errors.Is(err, domain.ErrNoParticipants):
		return http.StatusUnprocessableEntity, ErrMsgNoParticipantsError
	case errors.Is(err, domain.ErrInsufficientTickets):
		return http.StatusUnprocessableEntity, ErrMsgInsufficientTicketsError

	case errors.Is(err, domain.ErrAffiliateFetch):
		return http.StatusBadGateway, ErrMsgUpstreamError
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
