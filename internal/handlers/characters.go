package handlers

import (
	"log/slog"
	"net/http"

	"github.com/datableed/decision-engine/internal/storage"
)

// CharacterSummary is the catalog entry for one playable character.
type CharacterSummary struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	ScamDomain string `json:"scam_domain"`
}

// CharactersHandler serves the playable character catalog.
//
// GET /v1/characters
type CharactersHandler struct {
	content *storage.ContentStore
	logger  *slog.Logger
}

func NewCharactersHandler(content *storage.ContentStore, logger *slog.Logger) *CharactersHandler {
	return &CharactersHandler{content: content, logger: logger}
}

func (h *CharactersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, "GET")
		return
	}

	names := h.content.ListCharacters()
	summaries := make([]CharacterSummary, 0, len(names))
	for _, name := range names {
		c, err := h.content.Character(name)
		if err != nil {
			continue
		}
		summaries = append(summaries, CharacterSummary{
			Name:       c.Name,
			Title:      c.Title,
			ScamDomain: c.ScamDomain,
		})
	}
	writeJSON(w, h.logger, http.StatusOK, summaries)
}
