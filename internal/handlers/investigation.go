package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/datableed/decision-engine/internal/engine"
	"github.com/datableed/decision-engine/pkg/investigation"
)

// InvestigationHandler drives evidence-analysis sessions.
//
// Routes:
//
//	GET  /v1/investigations/{id}         - Session snapshot
//	POST /v1/investigations/{id}/analyze - Run a tool against one evidence item
//	POST /v1/investigations/{id}/compile - Compile findings and finish
//	POST /v1/investigations/{id}/abandon - Abandon the session
type InvestigationHandler struct {
	engine *engine.InvestigationEngine
	logger *slog.Logger
}

func NewInvestigationHandler(e *engine.InvestigationEngine, logger *slog.Logger) *InvestigationHandler {
	return &InvestigationHandler{engine: e, logger: logger}
}

// AnalyzeRequest applies one tool to one evidence item.
type AnalyzeRequest struct {
	EvidenceID string `json:"evidence_id"`
	ToolID     string `json:"tool_id"`
}

// CompileRequest submits the player's conclusions for grading.
type CompileRequest struct {
	Findings []investigation.Finding `json:"findings"`
}

func (h *InvestigationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/investigations/")
	idStr, action, _ := strings.Cut(strings.Trim(path, "/"), "/")
	sessionID, err := uuid.Parse(idStr)
	if err != nil {
		badRequest(w, h.logger, "Invalid session ID format")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleSession(w, sessionID)
	case action == "analyze" && r.Method == http.MethodPost:
		h.handleAnalyze(w, r, sessionID)
	case action == "compile" && r.Method == http.MethodPost:
		h.handleCompile(w, r, sessionID)
	case action == "abandon" && r.Method == http.MethodPost:
		h.handleAbandon(w, r, sessionID)
	default:
		methodNotAllowed(w, h.logger, "GET, POST")
	}
}

func (h *InvestigationHandler) handleSession(w http.ResponseWriter, sessionID uuid.UUID) {
	session, err := h.engine.InvestigationSession(sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, session)
}

func (h *InvestigationHandler) handleAnalyze(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, h.logger, "Invalid JSON in request body")
		return
	}
	if req.EvidenceID == "" || req.ToolID == "" {
		badRequest(w, h.logger, "evidence_id and tool_id are required")
		return
	}

	outcome, err := h.engine.AnalyzeEvidence(r.Context(), sessionID, req.EvidenceID, req.ToolID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, outcome)
}

func (h *InvestigationHandler) handleCompile(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	var req CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, h.logger, "Invalid JSON in request body")
		return
	}

	compilation, err := h.engine.CompileFindings(r.Context(), sessionID, req.Findings)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, compilation)
}

func (h *InvestigationHandler) handleAbandon(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	if err := h.engine.AbandonInvestigation(r.Context(), sessionID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
