package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/datableed/decision-engine/internal/engine"
	"github.com/datableed/decision-engine/pkg/investigation"
	"github.com/datableed/decision-engine/pkg/progress"
	"github.com/datableed/decision-engine/pkg/puzzle"
	"github.com/datableed/decision-engine/pkg/realtime"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// CharacterSummary mirrors the catalog entry served by the API.
type CharacterSummary struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	ScamDomain string `json:"scam_domain"`
}

func decodeResponse(resp *http.Response, v any) error {
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *apiClient) get(path string, v any) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return decodeResponse(resp, v)
}

func (c *apiClient) post(path string, reqBody, v any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	resp, err := c.client.Post(c.baseURL+path, "application/json", body)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return decodeResponse(resp, v)
}

// apiClient wraps the decision engine HTTP API.
type apiClient struct {
	client  *http.Client
	baseURL string
}

func (c *apiClient) listCharacters() ([]CharacterSummary, error) {
	var characters []CharacterSummary
	if err := c.get("/v1/characters", &characters); err != nil {
		return nil, err
	}
	return characters, nil
}

func (c *apiClient) getProgress(character string) (*progress.SessionProgress, error) {
	var p progress.SessionProgress
	if err := c.get("/v1/progress/"+character, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *apiClient) visitArea(character string, area int) (*progress.SessionProgress, error) {
	var p progress.SessionProgress
	req := map[string]any{"area_number": area}
	if err := c.post("/v1/progress/"+character+"/visit", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *apiClient) presentDecisions(character string, area int) ([]engine.PresentedDecision, error) {
	var presented []engine.PresentedDecision
	path := fmt.Sprintf("/v1/decisions/%s?area=%d", character, area)
	if err := c.get(path, &presented); err != nil {
		return nil, err
	}
	return presented, nil
}

func (c *apiClient) choose(character, decisionID string) (*engine.Dispatch, error) {
	var dispatch engine.Dispatch
	req := map[string]any{"decision_id": decisionID}
	if err := c.post("/v1/decisions/"+character+"/choose", req, &dispatch); err != nil {
		return nil, err
	}
	return &dispatch, nil
}

func (c *apiClient) currentPhase(sessionID uuid.UUID) (*engine.PhaseView, error) {
	var phase engine.PhaseView
	if err := c.get(fmt.Sprintf("/v1/realtime/%s/phase", sessionID), &phase); err != nil {
		return nil, err
	}
	return &phase, nil
}

func (c *apiClient) realtimeDecision(sessionID uuid.UUID, decisionID string, timeRemaining float64) (*engine.RealtimeResult, error) {
	var result engine.RealtimeResult
	req := map[string]any{"decision_id": decisionID, "time_remaining": timeRemaining}
	if err := c.post(fmt.Sprintf("/v1/realtime/%s/decision", sessionID), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *apiClient) realtimeTimeout(sessionID uuid.UUID) (*engine.RealtimeResult, error) {
	var result engine.RealtimeResult
	if err := c.post(fmt.Sprintf("/v1/realtime/%s/timeout", sessionID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *apiClient) realtimeOutcome(sessionID uuid.UUID) (*realtime.Outcome, error) {
	var outcome realtime.Outcome
	if err := c.get(fmt.Sprintf("/v1/realtime/%s/outcome", sessionID), &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (c *apiClient) analyzeEvidence(sessionID uuid.UUID, evidenceID, toolID string) (*engine.AnalysisOutcome, error) {
	var outcome engine.AnalysisOutcome
	req := map[string]any{"evidence_id": evidenceID, "tool_id": toolID}
	if err := c.post(fmt.Sprintf("/v1/investigations/%s/analyze", sessionID), req, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (c *apiClient) compileFindings(sessionID uuid.UUID, findings []investigation.Finding) (*engine.Compilation, error) {
	var compilation engine.Compilation
	req := map[string]any{"findings": findings}
	if err := c.post(fmt.Sprintf("/v1/investigations/%s/compile", sessionID), req, &compilation); err != nil {
		return nil, err
	}
	return &compilation, nil
}

func (c *apiClient) answerPuzzle(puzzleID uuid.UUID, answers map[string]int) (*puzzle.Evaluation, error) {
	var eval puzzle.Evaluation
	req := map[string]any{"answers": answers}
	if err := c.post(fmt.Sprintf("/v1/puzzles/%s/answer", puzzleID), req, &eval); err != nil {
		return nil, err
	}
	return &eval, nil
}

func (c *apiClient) requestHint(puzzleID uuid.UUID) (*puzzle.HintResult, error) {
	var hint puzzle.HintResult
	if err := c.post(fmt.Sprintf("/v1/puzzles/%s/hint", puzzleID), nil, &hint); err != nil {
		return nil, err
	}
	return &hint, nil
}
