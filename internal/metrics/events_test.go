package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/event"
)

func TestEventMetricsCollector_GiftOutcome(t *testing.T) {
	bus := event.NewMemoryBus()
	require.NoError(t, NewEventMetricsCollector().Register(bus))

	before := testutil.ToFloat64(GiftEvents.WithLabelValues(string(domain.GiftNotLinked)))
	evt := event.NewGiftedSubProcessedEvent(domain.GiftedSubEvent{TenantID: "t1", EventID: "e1", Outcome: domain.GiftNotLinked})
	require.NoError(t, bus.Publish(context.Background(), evt))

	assert.Equal(t, before+1, testutil.ToFloat64(GiftEvents.WithLabelValues(string(domain.GiftNotLinked))))
}

func TestEventMetricsCollector_DrawCompleted(t *testing.T) {
	bus := event.NewMemoryBus()
	require.NoError(t, NewEventMetricsCollector().Register(bus))

	before := testutil.ToFloat64(DrawsCompleted.WithLabelValues("metrics-tenant"))
	require.NoError(t, bus.Publish(context.Background(), event.NewDrawCompletedEvent(domain.DrawResult{TenantID: "metrics-tenant"})))

	assert.Equal(t, before+1, testutil.ToFloat64(DrawsCompleted.WithLabelValues("metrics-tenant")))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/tenants/{tenantID}/balance", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	pattern := "/tenants/{tenantID}/balance"
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, pattern, "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tenants/abc/balance", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, pattern, "418")))
}
