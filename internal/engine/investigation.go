package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/datableed/decision-engine/internal/events"
	"github.com/datableed/decision-engine/internal/storage"
	"github.com/datableed/decision-engine/internal/tracker"
	"github.com/datableed/decision-engine/pkg/clock"
	"github.com/datableed/decision-engine/pkg/content"
	"github.com/datableed/decision-engine/pkg/gameerror"
	"github.com/datableed/decision-engine/pkg/investigation"
)

// InvestigationEngine runs evidence-analysis sessions: tool-based analysis
// of evidence items graded against scenario objectives.
type InvestigationEngine struct {
	mu       sync.Mutex
	content  *storage.ContentStore
	tracker  *tracker.Tracker
	bus      *events.Bus
	clk      clock.Clock
	logger   *slog.Logger
	sessions map[uuid.UUID]*investigation.Session
}

// NewInvestigationEngine creates the investigation engine.
func NewInvestigationEngine(contentStore *storage.ContentStore, trk *tracker.Tracker, bus *events.Bus, clk clock.Clock, logger *slog.Logger) *InvestigationEngine {
	return &InvestigationEngine{
		content:  contentStore,
		tracker:  trk,
		bus:      bus,
		clk:      clk,
		logger:   logger,
		sessions: make(map[uuid.UUID]*investigation.Session),
	}
}

// AnalysisOutcome is returned for each evidence analysis call.
type AnalysisOutcome struct {
	Result   investigation.AnalysisResult `json:"result"`
	Feedback string                       `json:"feedback"`
	Progress investigation.Progress       `json:"progress"`
}

// Compilation is the terminal result of an investigation.
type Compilation struct {
	AccuracyScore   float64  `json:"accuracy_score"`
	Recommendations []string `json:"recommendations"`
}

// Start registers an investigation session from the character's declarative
// scenario config and returns it alongside the tools available to the
// character.
func (e *InvestigationEngine) Start(ctx context.Context, character, scenarioID, decisionID string) (*investigation.Session, []investigation.Tool, error) {
	c, err := e.content.Character(character)
	if err != nil {
		return nil, nil, err
	}
	cfg := c.InvestigationByID(scenarioID)
	if cfg == nil {
		return nil, nil, gameerror.NewNotFound("investigation scenario", scenarioID)
	}

	session := &investigation.Session{
		ID:         uuid.New(),
		ScenarioID: cfg.ID,
		Character:  character,
		DecisionID: decisionID,
		Objectives: cfg.Objectives,
		Progress: investigation.Progress{
			EvidenceAnalyzed: make([]string, 0, len(cfg.Evidence)),
			ToolsUsed:        make([]string, 0),
		},
		Status:    investigation.SessionActive,
		StartedAt: e.clk.Now(),
	}
	// Deep-copy evidence: session state (access counts, analysis marks) must
	// not leak into the immutable content bundle.
	for i := range cfg.Evidence {
		item := cfg.Evidence[i]
		item.AnalyzedBy = make([]string, 0)
		session.Evidence = append(session.Evidence, &item)
	}

	e.mu.Lock()
	e.sessions[session.ID] = session
	e.mu.Unlock()

	tools, err := e.AvailableTools(character)
	if err != nil {
		return nil, nil, err
	}

	e.bus.Publish(events.Event{
		Type:      events.TypeSessionStarted,
		Character: character,
		Data: map[string]any{
			"mechanic":    "investigation",
			"session_id":  session.ID.String(),
			"scenario_id": cfg.ID,
		},
	})
	return session, tools, nil
}

// AvailableTools merges the universal tool set with the character's own.
func (e *InvestigationEngine) AvailableTools(character string) ([]investigation.Tool, error) {
	c, err := e.content.Character(character)
	if err != nil {
		return nil, err
	}
	tools := make([]investigation.Tool, 0, len(universalTools)+len(c.Tools))
	tools = append(tools, universalTools...)
	tools = append(tools, c.Tools...)
	return tools, nil
}

func (e *InvestigationEngine) toolByID(character, toolID string) (*investigation.Tool, error) {
	tools, err := e.AvailableTools(character)
	if err != nil {
		return nil, err
	}
	for i := range tools {
		if tools[i].ID == toolID {
			return &tools[i], nil
		}
	}
	return nil, gameerror.NewNotFound("tool", toolID)
}

// AnalyzeEvidence runs a tool against one evidence item, marks it analyzed
// and returns findings with character-voiced feedback.
func (e *InvestigationEngine) AnalyzeEvidence(ctx context.Context, sessionID uuid.UUID, evidenceID, toolID string) (*AnalysisOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[sessionID]
	if !ok {
		return nil, gameerror.NewNotFound("investigation session", sessionID.String())
	}
	if session.Status != investigation.SessionActive {
		return nil, gameerror.NewInvalidState("investigation session", sessionID.String(), string(session.Status))
	}

	item := session.EvidenceByID(evidenceID)
	if item == nil {
		return nil, gameerror.NewNotFound("evidence", evidenceID)
	}
	tool, err := e.toolByID(session.Character, toolID)
	if err != nil {
		return nil, err
	}
	if !tool.Supports(item.Type) {
		return nil, gameerror.NewNotFound("tool for evidence type", fmt.Sprintf("%s/%s", toolID, item.Type))
	}

	item.AccessCount++
	result := runTool(toolID, item)
	item.MarkAnalyzed(toolID)
	session.RecordAnalysis(evidenceID, toolID)

	e.tracker.UpdateStoryState(ctx, session.Character, "evidence_analyzed", 1, true)

	c, _ := e.content.Character(session.Character)
	feedback := e.feedbackFor(c, result)

	e.logger.Debug("Evidence analyzed",
		"session_id", sessionID,
		"evidence", evidenceID,
		"tool", toolID,
		"risk_indicators", len(result.RiskIndicators))

	return &AnalysisOutcome{
		Result:   result,
		Feedback: feedback,
		Progress: session.Progress,
	}, nil
}

// CompileFindings grades submitted findings against the scenario objectives
// and completes the session. Compiling is the terminal action: completion
// percentage is forced to 100 regardless of evidence coverage.
func (e *InvestigationEngine) CompileFindings(ctx context.Context, sessionID uuid.UUID, findings []investigation.Finding) (*Compilation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[sessionID]
	if !ok {
		return nil, gameerror.NewNotFound("investigation session", sessionID.String())
	}
	if session.Status != investigation.SessionActive {
		return nil, gameerror.NewInvalidState("investigation session", sessionID.String(), string(session.Status))
	}

	matched := make(map[string]bool)
	for _, f := range findings {
		if !f.Correct {
			continue
		}
		for _, o := range session.Objectives {
			if o.ID == f.ObjectiveID {
				matched[o.ID] = true
			}
		}
	}

	accuracy := float64(len(matched)) / float64(len(session.Objectives)) * 100

	var recommendations []string
	for _, o := range session.Objectives {
		if !matched[o.ID] {
			recommendations = append(recommendations, "Revisit: "+o.Description)
		}
	}
	if len(recommendations) == 0 {
		recommendations = []string{"Every objective substantiated. Trust the process that got you here."}
	}

	session.Status = investigation.SessionCompleted
	session.Progress.CompletionPercentage = 100
	session.EndedAt = e.clk.Now()

	e.tracker.UpdateStoryState(ctx, session.Character, "investigation_accuracy", accuracy, false)
	if accuracy < 50 {
		e.tracker.RecordMistake(ctx, session.Character)
	}

	e.bus.Publish(events.Event{
		Type:      events.TypeSessionCompleted,
		Character: session.Character,
		Data: map[string]any{
			"mechanic":       "investigation",
			"session_id":     session.ID.String(),
			"decision_id":    session.DecisionID,
			"status":         string(session.Status),
			"accuracy_score": accuracy,
		},
	})

	return &Compilation{
		AccuracyScore:   accuracy,
		Recommendations: recommendations,
	}, nil
}

// AbandonInvestigation stops further analysis against the session.
func (e *InvestigationEngine) AbandonInvestigation(ctx context.Context, sessionID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[sessionID]
	if !ok {
		return gameerror.NewNotFound("investigation session", sessionID.String())
	}
	if session.Status != investigation.SessionActive {
		return nil
	}
	session.Status = investigation.SessionAbandoned
	session.EndedAt = e.clk.Now()
	return nil
}

// InvestigationSession returns a session in any state.
func (e *InvestigationEngine) InvestigationSession(sessionID uuid.UUID) (*investigation.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[sessionID]
	if !ok {
		return nil, gameerror.NewNotFound("investigation session", sessionID.String())
	}
	return session, nil
}

func (e *InvestigationEngine) feedbackFor(c *content.Character, result investigation.AnalysisResult) string {
	if len(result.RiskIndicators) > 0 {
		return c.Voice("analysis_risk", "That's a red flag. File it, and keep digging before you act on it.")
	}
	return c.Voice("analysis_clean", "Nothing suspicious from that angle. Absence of evidence isn't proof, try another tool.")
}
