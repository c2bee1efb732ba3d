// Package web provides the HTTP server and JSON API handlers.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/csvhub/csvhub/internal/auth"
	"github.com/csvhub/csvhub/internal/blob"
	"github.com/csvhub/csvhub/internal/config"
	"github.com/csvhub/csvhub/internal/document"
	"github.com/csvhub/csvhub/internal/ingest"
	"github.com/csvhub/csvhub/internal/organization"
	"github.com/csvhub/csvhub/internal/query"
	"github.com/csvhub/csvhub/internal/upload"
	"github.com/csvhub/csvhub/internal/web/middleware"
)

// Summarizer produces an AI summary of sampled records. Nil disables the
// feature; a failing summarizer never fails an ingestion.
type Summarizer interface {
	Summarize(ctx context.Context, records any, prompt string) (string, error)
}

// Server is the HTTP server for the CSV ingestion API.
type Server struct {
	cfg     *config.Config
	auth    *auth.Service
	orgs    organization.Store
	blobs   blob.Store
	files   upload.Registry
	records document.Store
	pipe    *ingest.Pipeline
	query   *query.Service
	insight Summarizer
	limiter *upload.Limiter

	router *chi.Mux
	server *http.Server
}

// NewServer wires the API over its collaborators. insight may be nil.
func NewServer(
	cfg *config.Config,
	authSvc *auth.Service,
	orgs organization.Store,
	blobs blob.Store,
	files upload.Registry,
	records document.Store,
	insight Summarizer,
) *Server {
	s := &Server{
		cfg:     cfg,
		auth:    authSvc,
		orgs:    orgs,
		blobs:   blobs,
		files:   files,
		records: records,
		insight: insight,
		query:   query.NewService(records),
		limiter: upload.NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		router:  chi.NewRouter(),
	}
	s.pipe = ingest.New(records, ingest.Config{
		BatchSize:     cfg.Upload.BatchSize,
		SampleSize:    cfg.Upload.SampleSize,
		RepairColumns: cfg.Upload.RepairColumns,
	})
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Server.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))

	// Security hardening
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Open: account creation and login
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)

		// Everything else requires a valid session token
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(s.auth))

			r.Get("/auth/current-user", s.handleCurrentUser)

			r.Post("/organisations", s.handleCreateOrganization)
			r.Get("/organisations/{orgID}", s.handleGetOrganization)
			r.Delete("/organisations/{orgID}", s.handleDeleteOrganization)

			r.Post("/files", s.handleUploadFile)
			r.Post("/files/{fileID}/ingest", s.handleIngestFile)
			r.Delete("/files/{fileID}", s.handleDeleteFile)

			r.Get("/records", s.handleQueryRecords)
		})
	})
}

// handleHealth reports liveness plus ingestion slot availability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":           "ok",
		"activeIngestions": s.limiter.ActiveCount(),
		"availableSlots":   s.limiter.Available(),
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, then waits for in-flight
// ingestions to drain.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// JSON API: nothing should ever be rendered as a page
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	// Start cleanup goroutine
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1, // consume one token
			lastReset: time.Now(),
		}
		return true
	}

	// Reset tokens if window has passed
	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// RemoteAddr has already been normalized by TrustedRealIP
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
