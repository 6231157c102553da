// Package server provides the local preview server for cloned sites.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/site-cloner/internal/clone"
	"github.com/jonathan/site-cloner/internal/db"
	"github.com/jonathan/site-cloner/internal/server/middleware"
	"github.com/jonathan/site-cloner/internal/server/ratelimit"
)

// DefaultPort matches the default local base URL used for comparisons.
const DefaultPort = 5173

// RunStore is the read side of the run database used by the API.
type RunStore interface {
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListRuns(ctx context.Context, filters db.RunFilters) ([]db.Run, error)
	GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error)
	GetTextArtifact(ctx context.Context, runID uuid.UUID, step string) (string, error)
	GetBlobArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error
}

// CloneFunc runs one clone of rawURL, reporting steps through onProgress.
type CloneFunc func(ctx context.Context, rawURL string, onProgress clone.ProgressCallback) (*clone.Result, error)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	outDir      string
	db          *db.DB
	store       RunStore
	clone       CloneFunc
	apiKey      string
	rateLimiter *ratelimit.Limiter
	verbose     bool
}

// Config holds server configuration
type Config struct {
	Port        int
	OutDir      string
	DatabaseURL string
	APIKey      string
	Verbose     bool
	// Clone enables POST /api/clone when set.
	Clone CloneFunc
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	s := &Server{
		outDir:      cfg.OutDir,
		clone:       cfg.Clone,
		apiKey:      cfg.APIKey,
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		verbose:     cfg.Verbose,
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.EnsureSchema(context.Background()); err != nil {
			database.Close()
			return nil, err
		}
		s.db = database
		s.store = database
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second, // Long timeout for streamed clone runs
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler builds the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	guard := middleware.RequireAPIKey(s.apiKey)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/sites", s.handleListSites)
	mux.HandleFunc("GET /api/sites/{slug}/compare", s.handleSiteCompare)
	mux.Handle("POST /api/clone", guard(http.HandlerFunc(s.handleClone)))

	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.Handle("DELETE /api/runs/{id}", guard(http.HandlerFunc(s.handleDeleteRun)))
	mux.HandleFunc("GET /api/runs/{id}/artifacts/{step}", s.handleRunArtifact)

	mux.HandleFunc("GET /{slug}", s.handlePage)
	mux.HandleFunc("GET /{slug}/styles.css", s.handleStyles)
	mux.HandleFunc("GET /{slug}/assets/{path...}", s.handleSiteFile("assets"))
	mux.HandleFunc("GET /{slug}/compare/{path...}", s.handleSiteFile("compare"))

	return s.withLogging(s.withRateLimit(mux))
}

// Start begins listening for requests and blocks until interrupted
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Preview server starting on %s (serving %s)", s.httpServer.Addr, s.outDir)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		s.closeStore()
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// StartBackground listens on the configured address and serves in a goroutine.
// It returns the bound address.
func (s *Server) StartBackground() (string, error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("Preview server error: %v", err)
		}
	}()
	return ln.Addr().String(), nil
}

// Shutdown stops the server and closes the run store
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeStore()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.verbose {
		log.Println("Server stopped")
	}
	return nil
}

func (s *Server) closeStore() {
	if s.db != nil {
		s.db.Close()
	}
}

// withRateLimit throttles expensive endpoints per client IP
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		if !allowed {
			if info.RetryAfter > 0 {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds()+0.5)))
			}
			log.Printf("[rate-limit] %s %s rejected for %s", r.Method, r.URL.Path, clientID(r))
			s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
				"error": "rate_limit_exceeded",
				"limit": info.Limit,
			})
			return
		}
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if s.verbose {
			log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
		}
	})
}

// clientID extracts the client IP from RemoteAddr
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response with the status derived from err
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	s.jsonResponse(w, HTTPStatus(err), map[string]string{"error": err.Error()})
}
