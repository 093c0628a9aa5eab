package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/osse101/BrandishRaffle_Go/internal/database"
	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/period"
	"github.com/osse101/BrandishRaffle_Go/internal/tenant"
)

// HealthResponse represents the response for the liveness endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ReadinessResponse lists the outcome of every readiness check by name
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ReadinessCheck is one dependency the raffle needs before serving traffic.
// A failing critical check takes the instance out of rotation; a failing
// non-critical check only marks it degraded.
type ReadinessCheck struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// Readiness statuses
const (
	ReadyStatusOK          = "ok"
	ReadyStatusDegraded    = "degraded"
	ReadyStatusUnavailable = "unavailable"
)

// Readiness check names
const (
	CheckDatabase      = "database"
	CheckSchema        = "schema"
	CheckActivePeriods = "active_periods"
)

const readinessTimeout = 2 * time.Second

// DatabaseCheck pings the pool
func DatabaseCheck(pool database.Pool) ReadinessCheck {
	return ReadinessCheck{Name: CheckDatabase, Critical: true, Check: pool.Ping}
}

// SchemaCheck fails while the database is behind the migrations embedded in
// this binary.
func SchemaCheck(check func(ctx context.Context) error) ReadinessCheck {
	return ReadinessCheck{Name: CheckSchema, Critical: true, Check: check}
}

// ActivePeriodCheck reports tenants that are between periods. Tickets earned
// then are refused, so this degrades readiness without failing it.
func ActivePeriodCheck(tenants tenant.Service, periods period.Service) ReadinessCheck {
	return ReadinessCheck{
		Name: CheckActivePeriods,
		Check: func(ctx context.Context) error {
			list, err := tenants.List(ctx)
			if err != nil {
				return err
			}
			var missing []string
			for _, t := range list {
				_, err := periods.Current(ctx, t.ID)
				switch {
				case errors.Is(err, domain.ErrNoActivePeriod):
					missing = append(missing, t.ID)
				case err != nil:
					return err
				}
			}
			if len(missing) > 0 {
				return fmt.Errorf("%w for tenants %v", domain.ErrNoActivePeriod, missing)
			}
			return nil
		},
	}
}

// HandleHealthz provides a basic liveness check
// @Summary Liveness check
// @Description Returns OK if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{Status: ReadyStatusOK})
	}
}

// HandleReadyz runs every readiness check and reports each one by name
// @Summary Readiness check
// @Description Checks the database, the schema version and that every tenant has an active raffle period
// @Tags health
// @Produce json
// @Success 200 {object} ReadinessResponse
// @Failure 503 {object} ReadinessResponse
// @Router /readyz [get]
func HandleReadyz(checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		resp := ReadinessResponse{Status: ReadyStatusOK, Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for _, c := range checks {
			err := c.Check(ctx)
			if err == nil {
				resp.Checks[c.Name] = ReadyStatusOK
				continue
			}

			logger.FromContext(ctx).Warn(LogMsgReadinessCheckFailed, "check", c.Name, "critical", c.Critical, "error", err)
			if c.Critical {
				// Connection details stay in the log
				resp.Checks[c.Name] = ReadyStatusUnavailable
				resp.Status = ReadyStatusUnavailable
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = err.Error()
			if resp.Status == ReadyStatusOK {
				resp.Status = ReadyStatusDegraded
			}
		}

		respondJSON(w, status, resp)
	}
}
