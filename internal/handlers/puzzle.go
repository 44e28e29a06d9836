package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/datableed/decision-engine/internal/engine"
	"github.com/datableed/decision-engine/pkg/puzzle"
)

// PuzzleHandler drives recognition puzzles.
//
// Routes:
//
//	GET  /v1/puzzles/stats       - Aggregate puzzle statistics
//	GET  /v1/puzzles/{id}        - Puzzle snapshot
//	POST /v1/puzzles/{id}/answer - Submit a solution
//	POST /v1/puzzles/{id}/hint   - Request the next hint
type PuzzleHandler struct {
	engine *engine.PuzzleEngine
	logger *slog.Logger
}

func NewPuzzleHandler(e *engine.PuzzleEngine, logger *slog.Logger) *PuzzleHandler {
	return &PuzzleHandler{engine: e, logger: logger}
}

func (h *PuzzleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/puzzles/")
	idStr, action, _ := strings.Cut(strings.Trim(path, "/"), "/")

	if idStr == "stats" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, h.logger, "GET")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, h.engine.GetStatistics())
		return
	}

	puzzleID, err := uuid.Parse(idStr)
	if err != nil {
		badRequest(w, h.logger, "Invalid puzzle ID format")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handlePuzzle(w, puzzleID)
	case action == "answer" && r.Method == http.MethodPost:
		h.handleAnswer(w, r, puzzleID)
	case action == "hint" && r.Method == http.MethodPost:
		h.handleHint(w, puzzleID)
	default:
		methodNotAllowed(w, h.logger, "GET, POST")
	}
}

func (h *PuzzleHandler) handlePuzzle(w http.ResponseWriter, puzzleID uuid.UUID) {
	p, err := h.engine.Puzzle(puzzleID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}

func (h *PuzzleHandler) handleAnswer(w http.ResponseWriter, r *http.Request, puzzleID uuid.UUID) {
	var req puzzle.Response
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, h.logger, "Invalid JSON in request body")
		return
	}
	if len(req.Answers) == 0 {
		badRequest(w, h.logger, "answers are required")
		return
	}

	eval, err := h.engine.EvaluateSolution(r.Context(), puzzleID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, eval)
}

func (h *PuzzleHandler) handleHint(w http.ResponseWriter, puzzleID uuid.UUID) {
	hint, err := h.engine.RequestHint(puzzleID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, hint)
}
