// Package http exposes the ledger over a JSON API.
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

	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/insights"
	"tally/internal/ledger"
)

type Server struct {
	http.Server
	ledger      *ledger.Ledger
	forecaster  *insights.Forecaster
	rateLimiter *rateLimiter

	// Read views are cached briefly; any mutation purges the cache.
	summaryCache *cache.LRU[core.Summary]
	seriesCache  *cache.LRU[[]core.DailyAmount]

	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, l *ledger.Ledger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:       l,
		forecaster:   insights.New(),
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRU[core.Summary](16, 30*time.Second),
		seriesCache:  cache.NewLRU[[]core.DailyAmount](32, 30*time.Second),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /records", s.wrap(s.handleListRecords))
	mux.HandleFunc("POST /records", s.wrap(s.handleAddRecord))
	mux.HandleFunc("PATCH /records/{id}", s.wrap(s.handleUpdateRecord))
	mux.HandleFunc("DELETE /records/{id}", s.wrap(s.handleRemoveRecord))
	mux.HandleFunc("GET /records/recent", s.wrap(s.handleRecentRecords))
	mux.HandleFunc("GET /records/export", s.wrap(s.handleExportCSV))

	mux.HandleFunc("GET /categories", s.wrap(s.handleListCategories))
	mux.HandleFunc("POST /categories", s.wrap(s.handleAddCategory))

	mux.HandleFunc("GET /summary", s.wrap(s.handleSummary))
	mux.HandleFunc("GET /summary/daily", s.wrap(s.handleDailySeries))

	mux.HandleFunc("GET /settings", s.wrap(s.handleGetSettings))
	mux.HandleFunc("PUT /settings/currency", s.wrap(s.handleSetCurrency))
	mux.HandleFunc("PUT /settings/language", s.wrap(s.handleSetLanguage))
	mux.HandleFunc("PATCH /settings/profile", s.wrap(s.handleUpdateProfile))
	mux.HandleFunc("PATCH /settings/theme", s.wrap(s.handleUpdateTheme))
	mux.HandleFunc("POST /settings/notifications/{name}/toggle", s.wrap(s.handleToggleNotification))
	mux.HandleFunc("PUT /settings/budget", s.wrap(s.handleSetBudget))

	mux.HandleFunc("GET /currencies", s.wrap(s.handleCurrencies))
	mux.HandleFunc("GET /convert", s.wrap(s.handleConvert))

	mux.HandleFunc("GET /estimate", s.wrap(s.handleEstimate))
	mux.HandleFunc("GET /estimate/locations", s.wrap(s.handleEstimateLocations))
	mux.HandleFunc("GET /insights/predictions", s.wrap(s.handlePredictions))
	mux.HandleFunc("GET /insights/tips", s.wrap(s.handleSavingsTips))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
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

// wrap adds security headers, rate limiting, and request logging.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		// Rate-limit mutations only; reads are cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			httpError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

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

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// invalidateViews drops cached read views after a mutation.
func (s *Server) invalidateViews() {
	s.summaryCache.Purge()
	s.seriesCache.Purge()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
