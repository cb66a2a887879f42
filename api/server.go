// Package api provides the HTTP REST API server for nsefolio.
//
// It exposes the quote and ratio provider endpoints, holding commands,
// the computed portfolio views and a WebSocket stream of dashboard
// updates, and serves the embedded dashboard at /.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/nsefolio/internal/apperr"
	"github.com/seenimoa/nsefolio/internal/config"
	"github.com/seenimoa/nsefolio/internal/logger"
	"github.com/seenimoa/nsefolio/internal/refresh"
	"github.com/seenimoa/nsefolio/internal/view"
	"github.com/seenimoa/nsefolio/web"
)

// Version is reported by the health endpoint. Set at build time.
var Version = "dev"

// Deps are the services the server drives. They are constructed once at
// process start and shared with the refresh loop.
type Deps struct {
	Orchestrator *refresh.Orchestrator
	Holdings     refresh.HoldingStore
	Prices       refresh.PriceFetcher
	Ratios       refresh.RatioFetcher
}

// Server is the HTTP API server.
type Server struct {
	router      chi.Router
	cfg         *config.Config
	orch        *refresh.Orchestrator
	holdings    refresh.HoldingStore
	prices      refresh.PriceFetcher
	ratios      refresh.RatioFetcher
	wsHub       *WSHub
	unsubscribe func()
	serveUI     bool // when true, serve the embedded web UI at /
}

// NewServer creates a configured API server with all routes and middleware.
// Every update the orchestrator publishes is pushed to WebSocket clients.
func NewServer(cfg *config.Config, deps Deps) *Server {
	srv := &Server{
		cfg:      cfg,
		orch:     deps.Orchestrator,
		holdings: deps.Holdings,
		prices:   deps.Prices,
		ratios:   deps.Ratios,
		wsHub:    NewWSHub(),
		serveUI:  true,
	}
	srv.unsubscribe = srv.orch.Subscribe(func(u refresh.Update) {
		srv.wsHub.Broadcast(WSMessage{Type: MsgPortfolioUpdate, Data: view.Build(u, view.SortNone, view.Asc)})
	})

	srv.router = srv.buildRouter()
	return srv
}

// SetServeUI controls whether the embedded web UI is served.
// Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server, the WebSocket hub and the periodic
// refresh loop, runs the initial load, and shuts everything down on SIGINT
// or SIGTERM.
func (s *Server) ListenAndServe(addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx, addr)
}

// Serve is ListenAndServe driven by ctx instead of process signals.
func (s *Server) Serve(ctx context.Context, addr string) error {
	log := logger.Get()
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run(ctx)
	go s.orch.Run(ctx, s.cfg.Refresh.Interval())
	go func() {
		if _, err := s.orch.Load(ctx); err != nil {
			log.Errorw("initial portfolio load failed", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Infow("API server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Infow("shutting down server")
	s.unsubscribe()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Provider endpoints
		r.Get("/quote", s.handleQuote)
		r.Get("/ratios", s.handleRatios)

		// Holding commands
		r.Get("/holdings", s.handleListHoldings)
		r.Post("/holdings", s.handleAddHolding)
		r.Delete("/holdings", s.handleClearHoldings)
		r.Patch("/holdings/{id}", s.handleUpdateHolding)
		r.Delete("/holdings/{id}", s.handleRemoveHolding)

		// Computed portfolio
		r.Get("/portfolio", s.handlePortfolio)
		r.Get("/portfolio/sectors", s.handleSectors)
		r.Get("/portfolio/stats", s.handleStats)
		r.Post("/portfolio/refresh", s.handleRefresh)
		r.Delete("/portfolio/warnings", s.handleDismissWarnings)
		r.Delete("/portfolio/error", s.handleDismissError)

		// Configuration (read-only)
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/secrets", s.handleGetSecrets)

		r.Get("/ws", s.handleWebSocket)
	})

	if s.serveUI {
		s.mountSPA(r, web.DistFS())
	}

	return r
}

// mountSPA serves the embedded dashboard. Unknown paths fall back to
// index.html.
func (s *Server) mountSPA(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServerFS(distFS)

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}

		f, err := distFS.Open(rPath)
		if err != nil {
			serveIndexHTML(w, distFS)
			return
		}
		f.Close()

		if strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		fileServer.ServeHTTP(w, r)
	})
}

// serveIndexHTML reads and serves the embedded index.html for SPA fallback.
func serveIndexHTML(w http.ResponseWriter, distFS fs.FS) {
	data, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		http.Error(w, "web UI not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// RemoveResponse is returned by DELETE /api/v1/holdings/{id}.
type RemoveResponse struct {
	ID string `json:"id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Warnw("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// writeAppError maps err to its status code and user-facing message.
// Errors that are not AppErrors are reported as internal errors.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		appErr = apperr.ErrInternal
	}
	if status >= http.StatusInternalServerError {
		logger.Get().Errorw("request failed",
			"request_id", RequestIDFrom(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   appErr.Message,
		Code:    appErr.Code,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.WithMessage(apperr.ErrValidation, "invalid request body: %v", err)
	}
	return nil
}
