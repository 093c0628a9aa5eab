package server

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/metrics"
)

// AuthMiddleware rejects raffle API calls that do not carry the shared API key.
// Health, version, metrics and docs stay public.
func AuthMiddleware(apiKey string, trustedProxies []string, guard *TenantGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get(HeaderAPIKey)
			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
				ip := extractIP(r, trustedProxies)
				target := routeTarget(r.URL.Path)
				guard.RecordFailedAuth(ip, target)
				metrics.RequestsRejected.WithLabelValues(target.scope(), metrics.ReasonUnauthorized).Inc()

				logger.FromContext(r.Context()).Warn(LogMsgAuthFailed,
					"ip", ip,
					"tenant", target.tenantID,
					"admin", target.admin,
					"has_key", providedKey != "")

				http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestSizeLimitMiddleware limits request body size
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// GuardLimits configures the per-client budgets of a TenantGuard.
type GuardLimits struct {
	Window            time.Duration
	RequestsPerTenant int
	AdminPerTenant    int
	FailedAuthAlert   int
}

// DefaultGuardLimits allows a shared bot to feed many channels while keeping
// admin endpoints (draws, settings, bonuses) on a short leash.
var DefaultGuardLimits = GuardLimits{
	Window:            5 * time.Minute,
	RequestsPerTenant: 1000,
	AdminPerTenant:    120,
	FailedAuthAlert:   5,
}

// TenantGuard counts requests per client and tenant within a fixed window.
// One ingestion bot usually serves several channels from the same address, so
// budgets are kept per tenant rather than per address.
type TenantGuard struct {
	mu         sync.Mutex
	limits     GuardLimits
	now        func() time.Time
	windowFrom time.Time
	failedAuth map[string]int
	requests   map[guardKey]int
	admin      map[guardKey]int
}

type guardKey struct {
	ip       string
	tenantID string
}

func NewTenantGuard(limits GuardLimits) *TenantGuard {
	return newTenantGuard(limits, time.Now)
}

func newTenantGuard(limits GuardLimits, now func() time.Time) *TenantGuard {
	return &TenantGuard{
		limits:     limits,
		now:        now,
		windowFrom: now(),
		failedAuth: make(map[string]int),
		requests:   make(map[guardKey]int),
		admin:      make(map[guardKey]int),
	}
}

// RecordFailedAuth counts a rejected key and raises an alert once an address
// keeps guessing.
func (g *TenantGuard) RecordFailedAuth(ip string, target apiTarget) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollWindow()
	g.failedAuth[ip]++

	if g.failedAuth[ip] >= g.limits.FailedAuthAlert {
		slog.Warn(SecurityAlertFailedAuth,
			"ip", ip,
			"tenant", target.tenantID,
			"admin", target.admin,
			"count", g.failedAuth[ip])
	}
}

// Allow records an authenticated request and reports whether it fits the
// budget for its tenant. Admin calls also draw from the smaller admin budget.
func (g *TenantGuard) Allow(ip string, target apiTarget) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollWindow()
	key := guardKey{ip: ip, tenantID: target.tenantID}
	g.requests[key]++

	if g.requests[key] > g.limits.RequestsPerTenant {
		if g.requests[key]%100 == 0 {
			slog.Warn(SecurityAlertHighRate, "ip", ip, "tenant", target.tenantID, "count", g.requests[key])
		}
		return false
	}

	if !target.admin {
		return true
	}
	g.admin[key]++
	if g.admin[key] > g.limits.AdminPerTenant {
		if g.admin[key]%10 == 0 {
			slog.Warn(SecurityAlertAdminRate, "ip", ip, "tenant", target.tenantID, "count", g.admin[key])
		}
		return false
	}
	return true
}

// rollWindow clears the counters once the window has passed. Caller holds mu.
func (g *TenantGuard) rollWindow() {
	now := g.now()
	if now.Sub(g.windowFrom) <= g.limits.Window {
		return
	}
	g.failedAuth = make(map[string]int)
	g.requests = make(map[guardKey]int)
	g.admin = make(map[guardKey]int)
	g.windowFrom = now
}

// RateLimitMiddleware enforces the tenant guard budgets on authenticated calls.
func RateLimitMiddleware(trustedProxies []string, guard *TenantGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target := routeTarget(r.URL.Path)
			if target.tenantID == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !guard.Allow(extractIP(r, trustedProxies), target) {
				metrics.RequestsRejected.WithLabelValues(target.scope(), metrics.ReasonRateLimited).Inc()
				http.Error(w, ErrMsgTooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// apiTarget is what the security layer knows about a raffle route before chi
// has matched it.
type apiTarget struct {
	tenantID string
	admin    bool
}

func (t apiTarget) scope() string {
	if t.admin {
		return metrics.ScopeAdmin
	}
	return metrics.ScopeAPI
}

// routeTarget reads the tenant and admin flag out of
// /api/v1/tenants/{tenantID}/raffle/... paths.
func routeTarget(path string) apiTarget {
	rest, ok := strings.CutPrefix(path, TenantRoutePrefix)
	if !ok {
		return apiTarget{}
	}
	tenantID, rest, _ := strings.Cut(rest, "/")
	return apiTarget{
		tenantID: tenantID,
		admin:    strings.HasPrefix(rest, AdminRouteSegment),
	}
}

func isPublicPath(path string) bool {
	for _, prefix := range PublicPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractIP gets the client IP address from request.
// It only trusts X-Forwarded-For if the request comes from a trusted proxy.
func extractIP(r *http.Request, trustedProxies []string) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}

	for _, proxy := range trustedProxies {
		if proxy != remoteIP {
			continue
		}
		if forwarded := r.Header.Get(HeaderForwardedFor); forwarded != "" {
			// Rightmost hop is the one our proxy saw
			hops := strings.Split(forwarded, ",")
			return strings.TrimSpace(hops[len(hops)-1])
		}
		break
	}

	return remoteIP
}

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(HeaderContentType, HeaderValueNoSniff)
			h.Set(HeaderFrameOptions, HeaderValueDeny)
			h.Set(HeaderReferrerPolicy, HeaderValueNoReferrer)
			// Balances and leaderboards change with every award
			if routeTarget(r.URL.Path).tenantID != "" {
				h.Set(HeaderCacheControl, HeaderValueNoStore)
			}

			next.ServeHTTP(w, r)
		})
	}
}
