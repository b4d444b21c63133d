package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"powerbill/internal/auth"
	"powerbill/internal/log"
	"powerbill/internal/middleware/ratelimit"
	"powerbill/internal/middleware/security"
	"powerbill/internal/middleware/trace"
	"powerbill/internal/services"
	"powerbill/internal/tariff"
)

// Deps are the collaborators the API serves.
type Deps struct {
	Billing *services.BillingService
	Tariff  tariff.Schedule
	Auth    *auth.Authenticator
	Logger  *log.Logger

	// AdminRequestsPerMinute caps admin calls per client IP. Zero uses the limiter default.
	AdminRequestsPerMinute int
}

// Server wraps http.Server and exposes the billing engine as a JSON API.
type Server struct {
	http.Server

	billing *services.BillingService
	tariff  tariff.Schedule
	auth    *auth.Authenticator

	adminLimiter *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		billing: deps.Billing,
		tariff:  deps.Tariff,
		auth:    deps.Auth,
		adminLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.AdminRequestsPerMinute,
		}),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(trace.Middleware)
	r.Use(log.Middleware(logger))
	r.Use(log.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(log.AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/bills", s.handleListBills)
		r.Get("/bills/{id}", s.handleGetBill)
		r.Get("/transactions", s.handleListTransactions)
		r.Get("/summary", s.handleSummary)
		r.Post("/deposits", s.handleRecordDeposit)
		r.Get("/tariff/domestic", s.handleDomesticTariff)
		r.Post("/tariff/commercial", s.handleCommercialTariff)

		r.Group(func(r chi.Router) {
			r.Use(s.adminLimiter.Middleware(clientIP, s.rateLimited))
			r.Use(s.requireAdmin)
			r.Post("/bills", s.handleCreateBill)
			r.Post("/bills/{id}/pay", s.handleMarkPaid)
		})
	})

	s.Handler = r
	return s
}

// Shutdown stops the admin limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.adminLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
