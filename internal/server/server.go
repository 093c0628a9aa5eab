package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/osse101/BrandishRaffle_Go/internal/handler"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/metrics"
)

type Server struct {
	httpServer *http.Server
}

// NewServer creates a new Server instance
func NewServer(port int, apiKey string, trustedProxies []string, services handler.RaffleServices, readiness []handler.ReadinessCheck) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           NewRouter(apiKey, trustedProxies, services, readiness),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// NewRouter builds the HTTP routing tree
func NewRouter(apiKey string, trustedProxies []string, services handler.RaffleServices, readiness []handler.ReadinessCheck) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	// Chi middleware executes in order defined (outermost to innermost)
	guard := NewTenantGuard(DefaultGuardLimits)

	r.Use(SecurityHeadersMiddleware())
	r.Use(AuthMiddleware(apiKey, trustedProxies, guard))
	r.Use(RateLimitMiddleware(trustedProxies, guard))
	r.Use(RequestSizeLimitMiddleware(MaxRequestBodyBytes))
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(readiness...))

	// Version endpoint (public, for deployment verification)
	r.Get("/version", handler.HandleVersion())

	// Metrics endpoint (public, for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	raffle := handler.NewRaffleHandlers(services)

	// API v1 routes
	r.Route(TenantRoutePrefix+"{tenantID}/raffle", func(r chi.Router) {
		r.Post("/identity/link", raffle.HandleLinkHandle())

		// Periods
		r.Get("/period", raffle.HandleGetCurrentPeriod())
		r.Get("/periods", raffle.HandleListPeriods())
		r.Get("/periods/{periodID}", raffle.HandleGetPeriod())

		// Tickets
		r.Get("/balance", raffle.HandleGetBalance())
		r.Get("/leaderboard", raffle.HandleGetLeaderboard())
		r.Get("/rank", raffle.HandleGetRank())
		r.Get("/entries", raffle.HandleGetEntries())
		r.Get("/stats", raffle.HandleGetStats())

		// Ingestion
		r.Post("/giftsub", raffle.HandleGiftedSub())
		r.Get("/giftsub/unmatched", raffle.HandleUnmatchedGifts())
		r.Post("/wager/link", raffle.HandleWagerLink())
		r.Get("/wager/snapshots", raffle.HandleWagerSnapshots())

		// Draws
		r.Get("/draws", raffle.HandleDrawHistory())
		r.Get("/draws/{periodID}", raffle.HandleGetDraw())
		r.Get("/draws/{periodID}/verify", raffle.HandleVerifyDraw())
		r.Get("/probability", raffle.HandleWinProbability())

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Get("/settings", raffle.HandleGetSettings())
			r.Put("/settings", raffle.HandleUpdateSettings())

			r.Route("/period", func(r chi.Router) {
				r.Post("/start", raffle.HandleStartPeriod())
				r.Post("/end", raffle.HandleEndPeriod())
				r.Post("/rollover", raffle.HandleRollover())
				r.Post("/end-date", raffle.HandleSetEndDate())
			})

			r.Post("/bonus", raffle.HandleAdjustBonus())
			r.Get("/audit", raffle.HandleAudit())
			r.Post("/watchtime/convert", raffle.HandleConvertWatchtime())

			r.Post("/wager/verify", raffle.HandleWagerVerify())
			r.Post("/wager/poll", raffle.HandleWagerPoll())

			r.Post("/draw", raffle.HandleDraw())
			r.Post("/simulate", raffle.HandleSimulate())

			r.Route("/exclusions", func(r chi.Router) {
				r.Get("/", raffle.HandleListExclusions())
				r.Post("/", raffle.HandleExclude())
				r.Delete("/{accountID}", raffle.HandleInclude())
			})
		})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // default status
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Health checks and scrapes are too frequent to log
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := logger.GenerateRequestID()
		ctx := logger.WithRequestID(r.Context(), requestID)
		if tenant := routeTarget(r.URL.Path).tenantID; tenant != "" {
			ctx = logger.WithTenant(ctx, tenant)
		}
		r = r.WithContext(ctx)
		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength)

		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAuthorization) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
