package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/backup"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/services"
)

// Server exposes the ledger over a JSON API. Period views are cached
// per (period, offset) selection and purged on every mutation.
type Server struct {
	http.Server
	service *services.LedgerService
	backup  *backup.Service
	locale  core.Locale

	rateLimiter  *rateLimiter
	summaryCache *cache.LRUCache[services.PeriodSummary]
	feedCache    *cache.LRUCache[services.GroupedFeed]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once

	now func() time.Time
}

type Options struct {
	Addr      string
	Backup    *backup.Service
	Locale    core.Locale
	CacheSize int
	CacheTTL  time.Duration
}

// NewServer configures routes and caches, returning a ready-to-run
// http.Server.
func NewServer(service *services.LedgerService, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		service:          service,
		backup:           opts.Backup,
		locale:           opts.Locale,
		rateLimiter:      newRateLimiter(),
		summaryCache:     cache.NewLRUCache[services.PeriodSummary](opts.CacheSize, opts.CacheTTL),
		feedCache:        cache.NewLRUCache[services.GroupedFeed](opts.CacheSize, opts.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
		now:              time.Now,
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/api/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("/api/transactions", s.withMiddleware(s.handleTransactions))
	mux.HandleFunc("/api/transactions/grouped", s.withMiddleware(s.handleGrouped))
	mux.HandleFunc("/api/transactions/", s.withMiddleware(s.handleTransactionByID))
	mux.HandleFunc("/api/settings", s.withMiddleware(s.handleSettings))
	mux.HandleFunc("/api/categories", s.withMiddleware(s.handleCategories))
	mux.HandleFunc("/api/categories/", s.withMiddleware(s.handleCategoryByID))
	mux.HandleFunc("/api/backup", s.withMiddleware(s.handleBackup))
	mux.HandleFunc("/api/restore", s.withMiddleware(s.handleRestore))

	return s
}

// InvalidateCaches drops every cached period view. Any ledger change
// can shift totals in every cached window, so mutations and the
// refresh loop both call this.
func (s *Server) InvalidateCaches() {
	s.summaryCache.Purge()
	s.feedCache.Purge()
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			summaries := s.summaryCache.CleanExpired()
			feeds := s.feedCache.CleanExpired()
			if summaries > 0 || feeds > 0 {
				slog.Debug("Cache cleanup completed",
					"summary_entries_removed", summaries,
					"feed_entries_removed", feeds)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting, request IDs and
// request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

type contextKey string

const requestIDKey contextKey = "request_id"

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

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
