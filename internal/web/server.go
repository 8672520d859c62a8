// Package web provides the HTTP API server for village portal comments.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/villagegov/portal/internal/auth"
	"github.com/villagegov/portal/internal/comment"
	"github.com/villagegov/portal/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Server is the comment API HTTP server.
type Server struct {
	comments *comment.Repository
	apiKeys  *auth.APIKeyStore
	validate *validator.Validate
	router   chi.Router
	handler  http.Handler
}

// NewServer creates an API server backed by the given database.
func NewServer(db *sql.DB) (*Server, error) {
	v, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("configuring validator: %w", err)
	}

	s := &Server{
		comments: comment.NewRepository(db),
		apiKeys:  auth.NewAPIKeyStore(db),
		validate: v,
		router:   chi.NewRouter(),
	}
	s.routes()
	s.handler = logging.RequestLogger(s.router)

	return s, nil
}

func (s *Server) routes() {
	requireKey := auth.RequireAPIKey(s.apiKeys)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "not found", http.StatusNotFound)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	s.router.Get("/health", s.handleHealth)
	s.router.With(requireKey).Get("/me", s.handleMe)

	s.router.Route("/comments", func(r chi.Router) {
		r.Get("/{id}", s.handleListComments)
		r.With(requireKey).Post("/create/{id}", s.handleCreateComment)
		r.With(requireKey).Patch("/{id}", s.handleUpdateComment)
		r.With(requireKey).Delete("/{id}", s.handleDeleteComment)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting comment API", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("shutting down comment API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		apiError(w, "authorization required", http.StatusUnauthorized)
		return
	}
	apiJSON(w, p, http.StatusOK)
}
