package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"snaplvd/internal/config"
	"snaplvd/internal/engine"
	"snaplvd/internal/history"
	"snaplvd/internal/snapset"
	"snaplvd/pkg/httpx"
)

// SnapsetsHandler exposes the snapshot-set operations over HTTP.
type SnapsetsHandler struct {
	cfg  config.Config
	deps Deps
}

func NewSnapsetsHandler(cfg config.Config, deps Deps) *SnapsetsHandler {
	return &SnapsetsHandler{cfg: cfg, deps: deps}
}

func (h *SnapsetsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListDefined)
	r.Post("/{action}", h.RunAction)

	return r
}

// runRequest is the body of POST /api/v1/snapsets/{action}. Either an
// inline set or the name of a set file from the snapset directory.
type runRequest struct {
	Set        json.RawMessage `json:"set,omitempty"`
	Snapset    string          `json:"snapset,omitempty"`
	VerifyOnly bool            `json:"verify_only,omitempty"`
	CheckMode  bool            `json:"check_mode,omitempty"`
}

// ListDefined returns the snapshot sets defined in the snapset directory.
// GET /api/v1/snapsets
func (h *SnapsetsHandler) ListDefined(w http.ResponseWriter, r *http.Request) {
	sets, err := snapset.LoadDir(h.cfg.SnapsetDir)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sets == nil {
		sets = []snapset.Set{}
	}
	writeJSON(w, sets)
}

// RunAction validates the request, runs the action and reports the Result.
// POST /api/v1/snapsets/{action}
func (h *SnapsetsHandler) RunAction(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	var req runRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	set, err := h.resolveSet(action, req)
	if err != nil {
		var verr *snapset.ValidationError
		if errors.As(err, &verr) {
			httpx.WriteErrorWithDetails(w, http.StatusBadRequest, "invalid_snapset",
				"snapshot set failed validation", map[string]any{"problems": verr.Problems})
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	flags := engine.Flags{VerifyOnly: req.VerifyOnly, CheckMode: req.CheckMode}
	started := time.Now()
	res := h.deps.Engine.Run(r.Context(), action, set, flags)
	elapsed := time.Since(started)

	if res.Code == engine.ErrInvalidAction {
		httpx.WriteError(w, http.StatusNotFound, res.Message)
		return
	}

	if h.deps.Metrics != nil {
		h.deps.Metrics.ObserveOperation(action, int(res.Code), elapsed)
	}
	if h.deps.History != nil {
		_, err := h.deps.History.Record(history.Entry{
			StartedAt:  started,
			Action:     action,
			SetName:    set.Name,
			ReturnCode: int(res.Code),
			Errors:     res.Message,
			Changed:    res.Changed,
			Duration:   elapsed,
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to record operation")
		}
	}

	writeJSON(w, res)
}

// resolveSet loads the named set file or parses the inline set. The list
// action may run without a set and then covers every volume.
func (h *SnapsetsHandler) resolveSet(action string, req runRequest) (snapset.Set, error) {
	if req.Snapset != "" {
		// The name must be a bare file name inside the snapset directory.
		if req.Snapset != filepath.Base(req.Snapset) {
			return snapset.Set{}, errors.New("invalid snapset name: " + req.Snapset)
		}
		return snapset.LoadFile(filepath.Join(h.cfg.SnapsetDir, req.Snapset+".yaml"))
	}
	if len(req.Set) == 0 {
		if action == engine.ActionList {
			return snapset.Set{}, nil
		}
		return snapset.Set{}, errors.New("request requires a set or a snapset name")
	}
	if err := snapset.ValidateJSON(req.Set); err != nil {
		return snapset.Set{}, err
	}
	var set snapset.Set
	if err := json.Unmarshal(req.Set, &set); err != nil {
		return snapset.Set{}, err
	}
	return set, set.Validate()
}

// ListVolumes reports every logical volume with its mounts.
// GET /api/v1/volumes
func (h *SnapsetsHandler) ListVolumes(w http.ResponseWriter, r *http.Request) {
	res := h.deps.Engine.Run(r.Context(), engine.ActionList, snapset.Set{}, engine.Flags{})
	if res.Code != engine.StatusOK {
		httpx.WriteError(w, http.StatusInternalServerError, res.Message)
		return
	}
	writeJSON(w, res.Data)
}
