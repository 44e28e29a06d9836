package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datableed/decision-engine/internal/engine"
	"github.com/datableed/decision-engine/pkg/puzzle"
)

func TestPuzzleAnswerAndStats(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewPuzzleHandler(f.pz, f.logger)

	p, err := f.pz.GeneratePuzzle(context.Background(), "eddie", puzzle.DifficultyBeginner, puzzle.TacticAuthority, "")
	require.NoError(t, err)

	answers := make(map[string]int, len(p.Challenges))
	for _, ch := range p.Challenges {
		answers[ch.ID] = ch.CorrectAnswer
	}
	body, _ := json.Marshal(puzzle.Response{Answers: answers})
	req := httptest.NewRequest(http.MethodPost, "/v1/puzzles/"+p.ID.String()+"/answer", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var eval puzzle.Evaluation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&eval))
	assert.Equal(t, 1.0, eval.Score)
	assert.True(t, eval.Completed)

	// Answering a completed puzzle conflicts.
	req = httptest.NewRequest(http.MethodPost, "/v1/puzzles/"+p.ID.String()+"/answer", bytes.NewReader(body))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/puzzles/stats", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var stats engine.Statistics
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 1, stats.PuzzlesGenerated)
	assert.Equal(t, 1, stats.PuzzlesCompleted)
}

func TestPuzzleHints(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewPuzzleHandler(f.pz, f.logger)

	p, err := f.pz.GeneratePuzzle(context.Background(), "eddie", puzzle.DifficultyBeginner, puzzle.TacticAuthority, "")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/puzzles/"+p.ID.String()+"/hint", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var hint puzzle.HintResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&hint))
		assert.True(t, hint.Available)
		assert.Equal(t, i, hint.HintNumber)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/puzzles/"+p.ID.String()+"/hint", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var hint puzzle.HintResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&hint))
	assert.False(t, hint.Available)
}
