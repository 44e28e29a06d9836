package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datableed/decision-engine/internal/engine"
	"github.com/datableed/decision-engine/pkg/decision"
)

func TestDecisionsPresent(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewDecisionsHandler(f.router, f.logger)

	req := httptest.NewRequest(http.MethodGet, "/v1/decisions/eddie?area=1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var presented []engine.PresentedDecision
	require.NoError(t, json.NewDecoder(w.Body).Decode(&presented))
	require.Len(t, presented, 2)
	assert.Equal(t, "shred_letter", presented[0].ID)
	assert.Equal(t, "take_call", presented[1].ID)
}

func TestDecisionsPresentRequiresArea(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewDecisionsHandler(f.router, f.logger)

	req := httptest.NewRequest(http.MethodGet, "/v1/decisions/eddie", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/decisions/eddie?area=two", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecisionsChooseAction(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewDecisionsHandler(f.router, f.logger)

	body, _ := json.Marshal(ChooseRequest{DecisionID: "shred_letter"})
	req := httptest.NewRequest(http.MethodPost, "/v1/decisions/eddie/choose", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var dispatch engine.Dispatch
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dispatch))
	assert.Equal(t, decision.MechanicAction, dispatch.Mechanic)
	assert.True(t, dispatch.Applied)

	p, err := f.tracker.GetProgress("eddie")
	require.NoError(t, err)
	assert.Equal(t, 3.0, p.StoryState["caution"])
}

func TestDecisionsChooseDispatchesRealtime(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewDecisionsHandler(f.router, f.logger)

	body, _ := json.Marshal(ChooseRequest{DecisionID: "take_call"})
	req := httptest.NewRequest(http.MethodPost, "/v1/decisions/eddie/choose", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var dispatch engine.Dispatch
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dispatch))
	assert.Equal(t, decision.MechanicRealtime, dispatch.Mechanic)
	assert.False(t, dispatch.Applied)
	require.NotNil(t, dispatch.Realtime)
	assert.Equal(t, "agency_call_1", dispatch.Realtime.ScenarioID)
}

func TestDecisionsChooseUnknown(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewDecisionsHandler(f.router, f.logger)

	body, _ := json.Marshal(ChooseRequest{DecisionID: "no_such_decision"})
	req := httptest.NewRequest(http.MethodPost, "/v1/decisions/eddie/choose", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDecisionsHistory(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewDecisionsHandler(f.router, f.logger)

	body, _ := json.Marshal(ChooseRequest{DecisionID: "shred_letter"})
	req := httptest.NewRequest(http.MethodPost, "/v1/decisions/eddie/choose", bytes.NewReader(body))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/v1/decisions/eddie/history", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var history []decision.Record
	require.NoError(t, json.NewDecoder(w.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, "shred_letter", history[0].DecisionID)
}
