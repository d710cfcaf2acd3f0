// Package server exposes the helpdesk workflow over HTTP: chat, the approval
// review inbox, per-user request status and conversation history.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/workflow"
	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// Config carries the HTTP listener settings.
type Config struct {
	Addr           string        `envconfig:"SERVER_ADDR" default:":8080"`
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// WorkflowEngine is the part of the workflow engine the HTTP layer needs.
type WorkflowEngine interface {
	Invoke(ctx context.Context, threadID string, in workflow.TurnInput) (*workflow.TurnResult, error)
	Resume(ctx context.Context, threadID string, decision workflow.Decision) (*workflow.ResumeResult, error)
	ApprovalStatus(ctx context.Context, threadID string) (workflow.ApprovalStatus, error)
	PendingApprovals(ctx context.Context) ([]workflow.PendingApproval, error)
	UserRequests(ctx context.Context, threadID string) ([]workflow.RequestStatus, error)
	History(ctx context.Context, threadID string) ([]workflow.TurnRecord, error)
	Reset(ctx context.Context, threadID string) error
}

// Server provides the HTTP REST endpoints for the helpdesk.
type Server struct {
	router chi.Router
	engine WorkflowEngine
}

// NewServer creates the API server around a workflow engine.
func NewServer(engine WorkflowEngine, cfg Config) *Server {
	s := &Server{engine: engine}
	s.router = s.setupRouter(cfg)
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter(cfg Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(loggingMiddleware)

	// CORS for the frontend
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/pending-approvals", s.handlePendingApprovals)
		r.Post("/approve-update/{threadID}", s.handleApproveUpdate)
		r.Get("/approval-status/{threadID}", s.handleApprovalStatus)
		r.Get("/user-requests/{userID}", s.handleUserRequests)
		r.Get("/chat/history/{userID}", s.handleChatHistory)
		r.Post("/reset/{userID}", s.handleReset)
	})

	return r
}

// loggingMiddleware logs HTTP requests through the shared logger.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logx.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Int("bytes", ww.BytesWritten()).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logx.Error().Err(err).Msg("failed to encode response")
		}
	}
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logx.Info().Str("addr", addr).Msg("starting API server")
	return srv.ListenAndServe()
}
