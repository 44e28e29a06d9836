package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/datableed/decision-engine/internal/engine"
)

// DecisionsHandler presents decisions and dispatches choices to mechanics.
//
// Routes:
//
//	GET  /v1/decisions/{character}?area=N   - Decisions available in an area
//	POST /v1/decisions/{character}/choose   - Choose a decision
//	GET  /v1/decisions/{character}/history  - Decision history
type DecisionsHandler struct {
	router *engine.Router
	logger *slog.Logger
}

func NewDecisionsHandler(router *engine.Router, logger *slog.Logger) *DecisionsHandler {
	return &DecisionsHandler{router: router, logger: logger}
}

// ChooseRequest selects one of the presented decisions.
type ChooseRequest struct {
	DecisionID  string `json:"decision_id"`
	ChoiceIndex int    `json:"choice_index"`
}

func (h *DecisionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/decisions/")
	character, action, _ := strings.Cut(strings.Trim(path, "/"), "/")
	if character == "" {
		badRequest(w, h.logger, "Character name is required")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handlePresent(w, r, character)
	case action == "choose" && r.Method == http.MethodPost:
		h.handleChoose(w, r, character)
	case action == "history" && r.Method == http.MethodGet:
		writeJSON(w, h.logger, http.StatusOK, h.router.History(character))
	default:
		methodNotAllowed(w, h.logger, "GET, POST")
	}
}

func (h *DecisionsHandler) handlePresent(w http.ResponseWriter, r *http.Request, character string) {
	areaStr := r.URL.Query().Get("area")
	if areaStr == "" {
		badRequest(w, h.logger, "area query parameter is required")
		return
	}
	area, err := strconv.Atoi(areaStr)
	if err != nil {
		badRequest(w, h.logger, "area must be an integer")
		return
	}

	presented, err := h.router.PresentDecisions(r.Context(), character, area)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, presented)
}

func (h *DecisionsHandler) handleChoose(w http.ResponseWriter, r *http.Request, character string) {
	var req ChooseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, h.logger, "Invalid JSON in request body")
		return
	}
	if req.DecisionID == "" {
		badRequest(w, h.logger, "decision_id is required")
		return
	}

	dispatch, err := h.router.Choose(r.Context(), character, req.DecisionID, req.ChoiceIndex)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Debug("Decision dispatched",
		"character", character,
		"decision_id", req.DecisionID,
		"mechanic", dispatch.Mechanic)
	writeJSON(w, h.logger, http.StatusOK, dispatch)
}
