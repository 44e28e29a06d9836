package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/datableed/decision-engine/internal/engine"
)

// RealtimeHandler drives active timed scenarios.
//
// Routes:
//
//	GET  /v1/realtime/{id}          - Session snapshot
//	GET  /v1/realtime/{id}/phase    - Current phase prompt and options
//	POST /v1/realtime/{id}/decision - Submit a phase decision
//	POST /v1/realtime/{id}/timeout  - Force the current phase to time out
//	POST /v1/realtime/{id}/abandon  - Abandon the session
//	GET  /v1/realtime/{id}/outcome  - Aggregate performance feedback
type RealtimeHandler struct {
	engine *engine.RealtimeEngine
	logger *slog.Logger
}

func NewRealtimeHandler(e *engine.RealtimeEngine, logger *slog.Logger) *RealtimeHandler {
	return &RealtimeHandler{engine: e, logger: logger}
}

// RealtimeDecisionRequest submits the player's pick for the current phase.
// TimeRemaining is reported by the client, in seconds.
type RealtimeDecisionRequest struct {
	DecisionID    string  `json:"decision_id"`
	TimeRemaining float64 `json:"time_remaining"`
}

func (h *RealtimeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/realtime/")
	idStr, action, _ := strings.Cut(strings.Trim(path, "/"), "/")
	sessionID, err := uuid.Parse(idStr)
	if err != nil {
		badRequest(w, h.logger, "Invalid session ID format")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleSession(w, sessionID)
	case action == "phase" && r.Method == http.MethodGet:
		h.handlePhase(w, sessionID)
	case action == "decision" && r.Method == http.MethodPost:
		h.handleDecision(w, r, sessionID)
	case action == "timeout" && r.Method == http.MethodPost:
		h.handleTimeout(w, r, sessionID)
	case action == "abandon" && r.Method == http.MethodPost:
		h.handleAbandon(w, r, sessionID)
	case action == "outcome" && r.Method == http.MethodGet:
		h.handleOutcome(w, sessionID)
	default:
		methodNotAllowed(w, h.logger, "GET, POST")
	}
}

func (h *RealtimeHandler) handleSession(w http.ResponseWriter, sessionID uuid.UUID) {
	session, err := h.engine.Session(sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, session)
}

func (h *RealtimeHandler) handlePhase(w http.ResponseWriter, sessionID uuid.UUID) {
	phase, err := h.engine.CurrentPhase(sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, phase)
}

func (h *RealtimeHandler) handleDecision(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	var req RealtimeDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, h.logger, "Invalid JSON in request body")
		return
	}
	if req.DecisionID == "" {
		badRequest(w, h.logger, "decision_id is required")
		return
	}
	if req.TimeRemaining < 0 {
		badRequest(w, h.logger, "time_remaining must not be negative")
		return
	}

	result, err := h.engine.ProcessDecision(r.Context(), sessionID, req.DecisionID, req.TimeRemaining)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

func (h *RealtimeHandler) handleTimeout(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	result, err := h.engine.HandleTimeout(r.Context(), sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

func (h *RealtimeHandler) handleAbandon(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	if err := h.engine.Abandon(r.Context(), sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RealtimeHandler) handleOutcome(w http.ResponseWriter, sessionID uuid.UUID) {
	outcome, err := h.engine.Outcome(sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, outcome)
}
