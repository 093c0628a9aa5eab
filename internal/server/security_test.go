package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_RaffleRoutes(t *testing.T) {
	const apiKey = "secret-key"
	handler := AuthMiddleware(apiKey, nil, NewTenantGuard(DefaultGuardLimits))(okHandler())

	tests := []struct {
		name string
		key  string
		path string
		want int
	}{
		{"balance with key", apiKey, "/api/v1/tenants/brandish/raffle/balance", http.StatusOK},
		{"draw with wrong key", "wrong-key", "/api/v1/tenants/brandish/raffle/admin/draw", http.StatusUnauthorized},
		{"gift ingestion without key", "", "/api/v1/tenants/brandish/raffle/giftsub", http.StatusUnauthorized},
		{"liveness", "", "/healthz", http.StatusOK},
		{"readiness", "", "/readyz", http.StatusOK},
		{"version", "", "/version", http.StatusOK},
		{"metrics scrape", "", "/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set(HeaderAPIKey, tt.key)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouteTarget(t *testing.T) {
	tests := []struct {
		path string
		want apiTarget
	}{
		{"/api/v1/tenants/brandish/raffle/balance", apiTarget{tenantID: "brandish"}},
		{"/api/v1/tenants/brandish/raffle/admin/draw", apiTarget{tenantID: "brandish", admin: true}},
		{"/api/v1/tenants/other/raffle/admin/exclusions/abc", apiTarget{tenantID: "other", admin: true}},
		{"/api/v1/tenants/brandish", apiTarget{tenantID: "brandish"}},
		{"/healthz", apiTarget{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, routeTarget(tt.path))
		})
	}
}

func TestRateLimitMiddleware_BudgetsArePerTenant(t *testing.T) {
	guard := NewTenantGuard(GuardLimits{Window: time.Minute, RequestsPerTenant: 3, AdminPerTenant: 3, FailedAuthAlert: 5})
	handler := RateLimitMiddleware(nil, guard)(okHandler())

	call := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "10.0.0.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, call("/api/v1/tenants/alpha/raffle/giftsub"), "request %d", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, call("/api/v1/tenants/alpha/raffle/giftsub"))

	// The same bot feeding another channel has its own budget
	assert.Equal(t, http.StatusOK, call("/api/v1/tenants/beta/raffle/giftsub"))

	// Untenanted routes are not counted
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, call("/version"))
	}
}

func TestTenantGuard_AdminBudgetIsTighter(t *testing.T) {
	guard := NewTenantGuard(GuardLimits{Window: time.Minute, RequestsPerTenant: 100, AdminPerTenant: 2, FailedAuthAlert: 5})
	admin := apiTarget{tenantID: "brandish", admin: true}
	reads := apiTarget{tenantID: "brandish"}

	assert.True(t, guard.Allow("1.2.3.4", admin))
	assert.True(t, guard.Allow("1.2.3.4", admin))
	assert.False(t, guard.Allow("1.2.3.4", admin))

	assert.True(t, guard.Allow("1.2.3.4", reads), "leaderboard reads keep working after admin budget is spent")
}

func TestTenantGuard_WindowResets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	guard := newTenantGuard(GuardLimits{Window: 5 * time.Minute, RequestsPerTenant: 1, AdminPerTenant: 1, FailedAuthAlert: 5},
		func() time.Time { return now })
	target := apiTarget{tenantID: "brandish"}

	assert.True(t, guard.Allow("1.2.3.4", target))
	assert.False(t, guard.Allow("1.2.3.4", target))

	now = now.Add(5*time.Minute + time.Second)
	assert.True(t, guard.Allow("1.2.3.4", target))
}

func TestTenantGuard_AlertsOnRepeatedBadKeys(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	guard := NewTenantGuard(GuardLimits{Window: time.Minute, RequestsPerTenant: 10, AdminPerTenant: 10, FailedAuthAlert: 3})
	target := apiTarget{tenantID: "brandish", admin: true}

	guard.RecordFailedAuth("6.6.6.6", target)
	guard.RecordFailedAuth("6.6.6.6", target)
	assert.NotContains(t, buf.String(), SecurityAlertFailedAuth)

	guard.RecordFailedAuth("6.6.6.6", target)
	assert.Contains(t, buf.String(), SecurityAlertFailedAuth)
	assert.Contains(t, buf.String(), "tenant=brandish")
}

func TestExtractIP_TrustsForwardedOnlyFromProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants/brandish/raffle/giftsub", nil)
	req.RemoteAddr = "172.16.0.2:443"
	req.Header.Set(HeaderForwardedFor, "203.0.113.9, 198.51.100.4")

	assert.Equal(t, "172.16.0.2", extractIP(req, nil))
	assert.Equal(t, "198.51.100.4", extractIP(req, []string{"172.16.0.2"}))
}

func TestSecurityHeadersMiddleware_NoStoreOnRaffleData(t *testing.T) {
	handler := SecurityHeadersMiddleware()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tenants/brandish/raffle/leaderboard", nil))
	assert.Equal(t, HeaderValueNoSniff, rec.Header().Get(HeaderContentType))
	assert.Equal(t, HeaderValueDeny, rec.Header().Get(HeaderFrameOptions))
	assert.Equal(t, HeaderValueNoStore, rec.Header().Get(HeaderCacheControl))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Empty(t, rec.Header().Get(HeaderCacheControl))
}

func TestLoggingMiddleware_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants/brandish/raffle/admin/draw", nil)
	req.Header.Set(HeaderAPIKey, "secret-key-123")
	req.Header.Set(HeaderAuthorization, "Bearer mytoken")
	req.Header.Set("User-Agent", "brandish-bot")

	loggingMiddleware(okHandler()).ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	require.Contains(t, out, LogMsgRequestHeaders)
	assert.NotContains(t, out, "secret-key-123")
	assert.NotContains(t, out, "Bearer mytoken")
	assert.Contains(t, out, RedactedValue)
	assert.Contains(t, out, "brandish-bot")
}
