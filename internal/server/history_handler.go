package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"snaplvd/internal/history"
	"snaplvd/pkg/httpx"
)

// HistoryHandler exposes the recorded operation history.
type HistoryHandler struct {
	store *history.Store
}

func NewHistoryHandler(store *history.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

func (h *HistoryHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Recent)

	return r
}

// Recent returns the newest operations, newest first.
// GET /api/v1/history?limit=N
func (h *HistoryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := h.store.Recent(limit)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, entries)
}
