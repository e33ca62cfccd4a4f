package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"snaplvd/internal/scheduler"
	"snaplvd/internal/snapset"
	"snaplvd/pkg/httpx"
)

// SchedulesHandler manages recurring snapshot schedules.
type SchedulesHandler struct {
	scheduler *scheduler.Scheduler
}

func NewSchedulesHandler(s *scheduler.Scheduler) *SchedulesHandler {
	return &SchedulesHandler{scheduler: s}
}

func (h *SchedulesHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)

	return r
}

type createScheduleRequest struct {
	Cron    string      `json:"cron"`
	Enabled *bool       `json:"enabled,omitempty"`
	Set     snapset.Set `json:"set"`
}

// List returns all schedules.
// GET /api/v1/schedules
func (h *SchedulesHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.scheduler.List())
}

// Create registers a new schedule.
// POST /api/v1/schedules
func (h *SchedulesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Cron == "" {
		httpx.WriteError(w, http.StatusBadRequest, "cron expression required")
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	schedule, err := h.scheduler.Add(req.Cron, req.Set, enabled)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, schedule)
}

// Get returns one schedule.
// GET /api/v1/schedules/{id}
func (h *SchedulesHandler) Get(w http.ResponseWriter, r *http.Request) {
	schedule, found := h.scheduler.Get(chi.URLParam(r, "id"))
	if !found {
		httpx.WriteError(w, http.StatusNotFound, "schedule not found")
		return
	}
	writeJSON(w, schedule)
}

// Delete removes a schedule.
// DELETE /api/v1/schedules/{id}
func (h *SchedulesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.Remove(chi.URLParam(r, "id")); err != nil {
		httpx.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
