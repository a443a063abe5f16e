// Package http exposes the expense tracker as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"expensetracker/internal/auth"
	"expensetracker/internal/metrics"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/services"
)

const readyTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server. Services, Store and Auth are required.
type Options struct {
	Services *services.Services
	Store    Pinger
	Auth     *auth.JWTManager
	Metrics  *metrics.Metrics
	// Limiter throttles mutating requests; nil disables rate limiting.
	Limiter  *ratelimit.Limiter
	ClientIP *security.ClientIP
}

type Server struct {
	http.Server
	router  *mux.Router
	svc     *services.Services
	store   Pinger
	metrics *metrics.Metrics
	limiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	if opts.ClientIP == nil {
		opts.ClientIP = security.NewClientIP()
	}

	s := &Server{
		router:  mux.NewRouter(),
		svc:     opts.Services,
		store:   opts.Store,
		metrics: opts.Metrics,
		limiter: opts.Limiter,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tracer := trace.NewMiddleware(opts.ClientIP.Extract, s.observe)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.router.Use(headers.Middleware)
	s.router.Use(tracer.Middleware)
	s.router.Use(recoverMiddleware)
	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware(opts.ClientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded, try again later", "")
		}))
	}

	s.router.NotFoundHandler = headers.Middleware(tracer.Middleware(http.HandlerFunc(handleNotFound)))
	s.router.MethodNotAllowedHandler = headers.Middleware(tracer.Middleware(http.HandlerFunc(handleMethodNotAllowed)))

	s.routes(opts.Auth)
	return s
}

func (s *Server) routes(jwt *auth.JWTManager) {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(jwt.Middleware(writeError))

	api.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id}", s.handleGetExpense).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id}", s.handleUpdateExpense).Methods(http.MethodPut)
	api.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)

	// Fixed paths first so they are not captured by {id}.
	api.HandleFunc("/bills/status", s.handleBillStatus).Methods(http.MethodGet)
	api.HandleFunc("/bills/payments", s.handleBillPayments).Methods(http.MethodGet)
	api.HandleFunc("/bills", s.handleListBills).Methods(http.MethodGet)
	api.HandleFunc("/bills", s.handleCreateBill).Methods(http.MethodPost)
	api.HandleFunc("/bills/{id}", s.handleGetBill).Methods(http.MethodGet)
	api.HandleFunc("/bills/{id}", s.handleUpdateBill).Methods(http.MethodPut)
	api.HandleFunc("/bills/{id}", s.handleDeleteBill).Methods(http.MethodDelete)
	api.HandleFunc("/bills/{id}/pay", s.handlePayBill).Methods(http.MethodPost)

	api.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handleUpdateSettings).Methods(http.MethodPut)

	api.HandleFunc("/reports/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/reports/monthly", s.handleMonthlyReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/compare", s.handleCompareReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/trend", s.handleTrendReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/month-end", s.handleMonthEndReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/month-end", s.handleAcknowledgeMonthEnd).Methods(http.MethodDelete)
}

// observe records request metrics under the route template so ids do not
// explode label cardinality.
func (s *Server) observe(r *http.Request, status int, elapsed time.Duration) {
	route := "unmatched"
	if cr := mux.CurrentRoute(r); cr != nil {
		if tpl, err := cr.GetPathTemplate(); err == nil {
			route = tpl
		}
	}
	s.metrics.ObserveRequest(route, r.Method, status, elapsed)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "Readiness check failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "storage unavailable", "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, ErrCodeNotFound, "route not found", "")
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed", "")
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				slog.ErrorContext(r.Context(), "Handler panicked", "panic", v, "path", r.URL.Path)
				respondError(w, http.StatusInternalServerError, ErrCodeInternal, "an internal error occurred", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
