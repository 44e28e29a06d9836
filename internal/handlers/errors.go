// Package handlers exposes the engine over HTTP. Each handler is an
// http.Handler that parses its own sub-path, in the /v1 namespace.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/datableed/decision-engine/pkg/gameerror"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status. Encoding failures
// are logged; by then the status line is already on the wire.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps engine errors onto HTTP statuses: missing resources are
// 404, lifecycle violations 409, bad input 400, everything else 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case gameerror.IsNotFound(err):
		writeJSON(w, logger, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case gameerror.IsInvalidState(err):
		writeJSON(w, logger, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case gameerror.IsValidation(err):
		writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		logger.Error("Unhandled error", "error", err)
		writeJSON(w, logger, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

func methodNotAllowed(w http.ResponseWriter, logger *slog.Logger, allowed string) {
	writeJSON(w, logger, http.StatusMethodNotAllowed, ErrorResponse{
		Error: "Method not allowed. Supported methods: " + allowed,
	})
}

func badRequest(w http.ResponseWriter, logger *slog.Logger, msg string) {
	writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Error: msg})
}
