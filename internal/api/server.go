package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/quarry/internal/history"
)

// HistoryStore is the persistence the history routes are served from.
// *store.Store implements it.
type HistoryStore interface {
	List(ctx context.Context, limit int, search string) ([]history.Item, error)
	Get(ctx context.Context, id string) (*history.Item, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteAll(ctx context.Context) error
	Ping(ctx context.Context) error
}

type Server struct {
	router *chi.Mux
	http   *http.Server
	store  HistoryStore
	logger *slog.Logger
}

func NewServer(port int, db HistoryStore, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	s := &Server{
		router: router,
		store:  db,
		logger: logger,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	router.Get("/api/health", s.health)
	router.Route("/api/history", func(r chi.Router) {
		r.Get("/", s.listHistory)
		r.Delete("/", s.clearHistory)
		r.Get("/{id}", s.getHistory)
		r.Delete("/{id}", s.deleteHistory)
	})

	return s
}

// Start serves until Shutdown is called, in which case it returns nil.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"message": "history store unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Search History API is running",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
