// Package http exposes the invoice API over JSON. All /api routes
// require a bearer token; handlers only ever see the verified identity.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/ai"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/auth"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/services"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/storage"
)

// UserStore is the per-user settings slice of the repository the API
// needs.
type UserStore interface {
	GetUser(ctx context.Context, uid string) (core.User, error)
	UpsertPushToken(ctx context.Context, uid, token string) error
	UpsertMonthlyBudget(ctx context.Context, uid string, cents int64) error
}

// StatsStore aggregates invoice amounts for the budget and chart views.
type StatsStore interface {
	SumBetween(ctx context.Context, ownerID string, start, end time.Time) (int64, error)
	BucketTotals(ctx context.Context, ownerID string, start, end time.Time, bucket storage.Bucket) (map[int]int64, error)
}

// Deps bundles everything the server routes to.
type Deps struct {
	Invoices  *services.InvoiceService
	Analysis  *services.AnalysisService
	Users     UserStore
	Stats     StatsStore
	Verifier  auth.Verifier
	Extractor ai.Extractor // nil when no API key is configured
	Deals     ai.DealFinder
	Logger    *slog.Logger

	UploadMaxBytes int64
}

type Server struct {
	http.Server
	deps         Deps
	log          *slog.Logger
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		deps:        deps,
		log:         deps.Logger,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/invoices", s.api(s.handleListInvoices))
	mux.HandleFunc("POST /api/invoices", s.api(s.handleCreateInvoice))
	mux.HandleFunc("PUT /api/invoices/{id}", s.api(s.handleUpdateInvoice))
	mux.HandleFunc("DELETE /api/invoices/{id}", s.api(s.handleDeleteInvoice))
	mux.HandleFunc("PATCH /api/invoices/{id}/set-recurring", s.api(s.handleSetRecurring))
	mux.HandleFunc("POST /api/upload", s.api(s.handleUpload))
	mux.HandleFunc("GET /api/analysis", s.api(s.handleAnalysis))
	mux.HandleFunc("GET /api/user/budget", s.api(s.handleGetBudget))
	mux.HandleFunc("PUT /api/user/budget", s.api(s.handlePutBudget))
	mux.HandleFunc("POST /api/save-token", s.api(s.handleSaveToken))
	mux.HandleFunc("POST /api/find-deals", s.api(s.handleFindDeals))
	mux.HandleFunc("GET /api/chart-data", s.api(s.handleChartData))

	return s
}

// Shutdown stops the server and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type contextKey string

const identityKey contextKey = "identity"

// identityFrom returns the verified caller. The auth middleware always
// sets it for /api routes.
func identityFrom(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(identityKey).(auth.Identity)
	return id
}

type apiHandler func(w http.ResponseWriter, r *http.Request, caller auth.Identity)

// api chains request logging, security headers, rate limiting and
// bearer auth in front of a handler.
func (s *Server) api(next apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), contextKey("request_id"), requestID)
		r = r.WithContext(ctx)

		s.log.InfoContext(ctx, "request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.log.WarnContext(ctx, "rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		caller, err := s.authenticate(r)
		if err != nil {
			s.log.WarnContext(ctx, "unauthorized request", "request_id", requestID, "error", err)
			writeError(w, http.StatusUnauthorized, "Unauthorized: Invalid token.")
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), identityKey, caller))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r, caller)

		s.log.InfoContext(ctx, "request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"owner_id", caller.UserID)
	}
}

func (s *Server) authenticate(r *http.Request) (auth.Identity, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return s.deps.Verifier.Verify(token)
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
