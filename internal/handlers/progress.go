package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/datableed/decision-engine/internal/tracker"
)

// ProgressHandler exposes per-character story progress.
//
// Routes:
//
//	GET    /v1/progress/{character}       - Read progress
//	DELETE /v1/progress/{character}       - Reset progress
//	POST   /v1/progress/{character}/visit - Record an area visit
//	POST   /v1/progress/{character}/state - Update one story state key
type ProgressHandler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewProgressHandler(trk *tracker.Tracker, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{tracker: trk, logger: logger}
}

// VisitRequest records the player entering an area.
type VisitRequest struct {
	AreaNumber int            `json:"area_number"`
	EventData  map[string]any `json:"event_data,omitempty"`
}

// StateUpdateRequest sets or increments one story state key.
type StateUpdateRequest struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Increment bool    `json:"increment,omitempty"`
}

func (h *ProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/progress/")
	character, action, _ := strings.Cut(strings.Trim(path, "/"), "/")
	if character == "" {
		badRequest(w, h.logger, "Character name is required")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleRead(w, character)
	case action == "" && r.Method == http.MethodDelete:
		h.handleReset(w, r, character)
	case action == "visit" && r.Method == http.MethodPost:
		h.handleVisit(w, r, character)
	case action == "state" && r.Method == http.MethodPost:
		h.handleStateUpdate(w, r, character)
	default:
		methodNotAllowed(w, h.logger, "GET, DELETE, POST")
	}
}

func (h *ProgressHandler) handleRead(w http.ResponseWriter, character string) {
	p, err := h.tracker.GetProgress(character)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}

func (h *ProgressHandler) handleReset(w http.ResponseWriter, r *http.Request, character string) {
	if err := h.tracker.ResetProgress(r.Context(), character); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Debug("Progress reset", "character", character)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProgressHandler) handleVisit(w http.ResponseWriter, r *http.Request, character string) {
	var req VisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, h.logger, "Invalid JSON in request body")
		return
	}
	if req.AreaNumber < 0 {
		badRequest(w, h.logger, "area_number must not be negative")
		return
	}

	h.tracker.TrackAreaVisit(r.Context(), character, req.AreaNumber, req.EventData)

	p, err := h.tracker.GetProgress(character)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}

func (h *ProgressHandler) handleStateUpdate(w http.ResponseWriter, r *http.Request, character string) {
	var req StateUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, h.logger, "Invalid JSON in request body")
		return
	}
	if req.Key == "" {
		badRequest(w, h.logger, "key is required")
		return
	}

	h.tracker.UpdateStoryState(r.Context(), character, req.Key, req.Value, req.Increment)

	p, err := h.tracker.GetProgress(character)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}
