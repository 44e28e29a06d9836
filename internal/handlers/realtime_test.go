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
	"github.com/datableed/decision-engine/pkg/realtime"
)

func TestRealtimeDecisionFlow(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewRealtimeHandler(f.rt, f.logger)

	session, err := f.rt.StartScenario(context.Background(), "agency_call", "eddie", "", "take_call")
	require.NoError(t, err)

	body, _ := json.Marshal(RealtimeDecisionRequest{DecisionID: "hang_up", TimeRemaining: 12})
	req := httptest.NewRequest(http.MethodPost, "/v1/realtime/"+session.ID.String()+"/decision", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result engine.RealtimeResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, 1.0, result.Record.TimingScore)
	assert.Equal(t, realtime.StatusCompleted, result.Status)

	// Terminal session: further decisions conflict.
	req = httptest.NewRequest(http.MethodPost, "/v1/realtime/"+session.ID.String()+"/decision", bytes.NewReader(body))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/realtime/"+session.ID.String()+"/outcome", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var outcome realtime.Outcome
	require.NoError(t, json.NewDecoder(w.Body).Decode(&outcome))
	assert.Equal(t, realtime.PerformanceExcellent, outcome.Performance)
}

func TestRealtimeInvalidSessionID(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewRealtimeHandler(f.rt, f.logger)

	req := httptest.NewRequest(http.MethodGet, "/v1/realtime/not-a-uuid", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRealtimeForcedTimeout(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewRealtimeHandler(f.rt, f.logger)

	session, err := f.rt.StartScenario(context.Background(), "agency_call", "eddie", "", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/realtime/"+session.ID.String()+"/timeout", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result engine.RealtimeResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.True(t, result.Record.TimedOut)
	assert.Equal(t, realtime.StatusTimedOut, result.Status)
}
