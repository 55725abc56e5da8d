package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/quarry/internal/history"
	"github.com/MikeSquared-Agency/quarry/internal/store"
)

// defaultListLimit applies when the limit query parameter is missing or invalid.
const defaultListLimit = 20

// listHistory handles GET /api/history?limit=&search=
func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	search := r.URL.Query().Get("search")

	items, err := s.store.List(r.Context(), limit, search)
	if err != nil {
		s.logger.Error("list history failed", "search", search, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
		return
	}
	writeJSON(w, http.StatusOK, history.ListResponse{Histories: items, Total: len(items)})
}

// getHistory handles GET /api/history/{id}
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history item not found"})
		return
	}
	if err != nil {
		s.logger.Error("get history failed", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load history item"})
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// deleteHistory handles DELETE /api/history/{id}
func (s *Server) deleteHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := s.store.Delete(r.Context(), id)
	if err != nil {
		s.logger.Error("delete history failed", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, history.DeleteResponse{Success: false, Message: "failed to delete history item"})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusOK, history.DeleteResponse{Success: false, Message: "history item not found"})
		return
	}
	s.logger.Info("history item deleted", "id", id)
	writeJSON(w, http.StatusOK, history.DeleteResponse{Success: true, Message: "history item deleted"})
}

// clearHistory handles DELETE /api/history
func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAll(r.Context()); err != nil {
		s.logger.Error("clear history failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, history.DeleteResponse{Success: false, Message: "failed to clear history"})
		return
	}
	s.logger.Info("history cleared")
	writeJSON(w, http.StatusOK, history.DeleteResponse{Success: true, Message: "all history deleted"})
}
