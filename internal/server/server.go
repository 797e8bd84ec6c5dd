// Package server exposes the bond vault over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lockboxlabs/bondvault/internal/domain"
	"github.com/lockboxlabs/bondvault/internal/server/handler"
	"github.com/lockboxlabs/bondvault/internal/server/middleware"
	"github.com/lockboxlabs/bondvault/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string

	// APIKeys maps API key strings to the caller each key authenticates.
	// An empty map disables authentication.
	APIKeys map[string]domain.Caller

	// RateLimitPerMin caps requests per client IP per minute. Zero disables
	// rate limiting.
	RateLimitPerMin int
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health *handler.HealthHandler
	Bonds  *handler.BondHandler
	Assets *handler.AssetHandler
}

// Server is the HTTP + WebSocket API server for the bond vault.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer registers all routes on a ServeMux and wires the middleware
// chain (logging, CORS, rate limiting, auth). limiter may be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check is public.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Bond lifecycle.
	mux.HandleFunc("POST /api/bonds", handlers.Bonds.Issue)
	mux.HandleFunc("GET /api/bonds", handlers.Bonds.List)
	mux.HandleFunc("GET /api/bonds/{id}", handlers.Bonds.Get)
	mux.HandleFunc("POST /api/bonds/{id}/redeem", handlers.Bonds.Redeem)
	mux.HandleFunc("POST /api/bonds/{id}/unlock", handlers.Bonds.Unlock)

	// Asset ledger.
	mux.HandleFunc("GET /api/assets/{id}/solvency", handlers.Assets.Solvency)
	mux.HandleFunc("POST /api/assets/{id}/deposit", handlers.Assets.Deposit)
	mux.HandleFunc("GET /api/assets/{id}/balances/{account}", handlers.Assets.Balance)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKeys)(h)
	h = middleware.RateLimit(limiter, cfg.RateLimitPerMin, time.Minute)(h)
	h = middleware.Logging(logger)(h)
	h = corsMiddleware(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// corsMiddleware sets CORS headers for the allowed origins. With no origins
// configured, all origins are allowed.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed := len(allowedOrigins) == 0
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}

				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
