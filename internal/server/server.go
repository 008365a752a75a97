// Package server exposes the teaching pipeline over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bodhibot/bodhibot-go/internal/metrics"
	"github.com/bodhibot/bodhibot-go/internal/models"
	"github.com/bodhibot/bodhibot-go/internal/service"
)

// TurnService is the pipeline surface the transport needs.
// *service.Orchestrator satisfies this.
type TurnService interface {
	Turn(ctx context.Context, userID, text string) (service.TurnResult, error)
	TurnObserved(ctx context.Context, userID, text string, observe func(service.TurnState)) (service.TurnResult, error)
	Reset(ctx context.Context, userID string) error
}

// Suggesting lists quick-reply options outside a turn.
// *service.Suggester satisfies this.
type Suggesting interface {
	Root() []models.QuickReplyOption
	Category(name string) ([]models.QuickReplyOption, error)
}

// Server wires the pipeline to HTTP routes with lifecycle management.
type Server struct {
	turns     TurnService
	suggester Suggesting
	metrics   *metrics.Collector
	logger    *slog.Logger
	addr      string
}

// New creates a server listening on addr.
func New(addr string, turns TurnService, suggester Suggesting, collector *metrics.Collector, logger *slog.Logger) *Server {
	return &Server{
		turns:     turns,
		suggester: suggester,
		metrics:   collector,
		logger:    logger,
		addr:      addr,
	}
}

// Handler returns the routed handler with logging middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/turn", s.handleTurn)
	mux.HandleFunc("GET /v1/chat", s.handleChat)
	mux.HandleFunc("DELETE /v1/context/{user_id}", s.handleDeleteContext)
	mux.HandleFunc("GET /v1/suggestions", s.handleSuggestions)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return LoggingMiddleware(s.logger)(mux)
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type turnRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	result, err := s.turns.Turn(r.Context(), req.UserID, req.Text)
	if err != nil {
		writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteContext(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if err := s.turns.Reset(r.Context(), userID); err != nil {
		writeTurnError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	var (
		options []models.QuickReplyOption
		err     error
	)
	if category == "" {
		options = s.suggester.Root()
	} else {
		options, err = s.suggester.Category(category)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": options})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrContextStore):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
