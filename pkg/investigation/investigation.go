// Package investigation defines evidence items, analysis tools and the
// investigation session model.
package investigation

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/datableed/decision-engine/pkg/gameerror"
)

// Clue is a single fact a tool can surface from an evidence item. Clues are
// declarative content: each names the tool that reveals it and whether it is
// a risk indicator.
type Clue struct {
	Tool    string `json:"tool"`
	Finding string `json:"finding"`
	Risk    bool   `json:"risk,omitempty"`
}

// EvidenceItem is one piece of evidence available in a scenario.
type EvidenceItem struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"` // e.g. "image", "document", "message_thread"
	Title       string            `json:"title"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Content     string            `json:"content,omitempty"`
	Clues       []Clue            `json:"clues,omitempty"`
	AnalyzedBy  []string          `json:"analyzed_by"`
	AccessCount int               `json:"access_count"`
}

// MarkAnalyzed records that a tool has been applied to this item.
func (e *EvidenceItem) MarkAnalyzed(toolID string) {
	if !slices.Contains(e.AnalyzedBy, toolID) {
		e.AnalyzedBy = append(e.AnalyzedBy, toolID)
	}
}

// Tool is an analysis tool. Tools are keyed by the evidence types they
// support; universal tools apply to every character, others are
// character-specific.
type Tool struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	EvidenceTypes []string `json:"evidence_types"`
}

// Supports reports whether the tool can analyze the given evidence type.
func (t *Tool) Supports(evidenceType string) bool {
	return slices.Contains(t.EvidenceTypes, evidenceType)
}

// AnalysisResult is what a tool reports after inspecting one evidence item.
type AnalysisResult struct {
	Success        bool     `json:"success"`
	Findings       []string `json:"findings"`
	RiskIndicators []string `json:"risk_indicators"`
}

// Objective is one investigation goal the player should substantiate.
type Objective struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Finding is one conclusion the player submits when compiling results.
// Correct findings are matched against objectives for the accuracy score.
type Finding struct {
	ObjectiveID string `json:"objective_id"`
	Description string `json:"description"`
	Correct     bool   `json:"correct"`
}

// ScenarioConfig is the declarative setup for an investigation: the evidence
// to present and the objectives to grade against.
type ScenarioConfig struct {
	ID         string         `json:"id"`
	Character  string         `json:"character"`
	Briefing   string         `json:"briefing,omitempty"`
	Evidence   []EvidenceItem `json:"evidence"`
	Objectives []Objective    `json:"objectives"`
}

// Validate checks the config for authoring mistakes.
func (c *ScenarioConfig) Validate() error {
	if c.ID == "" {
		return gameerror.NewValidation("id", "investigation scenario id is required")
	}
	if len(c.Evidence) == 0 {
		return gameerror.NewValidation("evidence", "at least one evidence item is required")
	}
	if len(c.Objectives) == 0 {
		return gameerror.NewValidation("objectives", "at least one objective is required")
	}
	for i, e := range c.Evidence {
		if e.ID == "" || e.Type == "" {
			return gameerror.NewValidation(fmt.Sprintf("evidence[%d]", i), "id and type are required")
		}
	}
	for i, o := range c.Objectives {
		if o.ID == "" {
			return gameerror.NewValidation(fmt.Sprintf("objectives[%d].id", i), "objective id is required")
		}
	}
	return nil
}

// SessionStatus is the lifecycle state of an investigation session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// Progress tracks how much of the evidence has been worked through.
type Progress struct {
	EvidenceAnalyzed     []string `json:"evidence_analyzed"`
	ToolsUsed            []string `json:"tools_used"`
	CompletionPercentage float64  `json:"completion_percentage"`
}

// Session is a running (or finished) investigation.
type Session struct {
	ID         uuid.UUID       `json:"id"`
	ScenarioID string          `json:"scenario_id"`
	Character  string          `json:"character"`
	DecisionID string          `json:"decision_id,omitempty"`
	Evidence   []*EvidenceItem `json:"evidence"`
	Objectives []Objective     `json:"objectives"`
	Progress   Progress        `json:"progress"`
	Status     SessionStatus   `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	EndedAt    time.Time       `json:"ended_at,omitzero"`
}

// EvidenceByID returns the evidence item with the given id, or nil.
func (s *Session) EvidenceByID(id string) *EvidenceItem {
	for _, e := range s.Evidence {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// RecordAnalysis marks evidence as analyzed with the given tool and
// recomputes the completion percentage.
func (s *Session) RecordAnalysis(evidenceID, toolID string) {
	if !slices.Contains(s.Progress.EvidenceAnalyzed, evidenceID) {
		s.Progress.EvidenceAnalyzed = append(s.Progress.EvidenceAnalyzed, evidenceID)
	}
	if !slices.Contains(s.Progress.ToolsUsed, toolID) {
		s.Progress.ToolsUsed = append(s.Progress.ToolsUsed, toolID)
	}
	s.Progress.CompletionPercentage = float64(len(s.Progress.EvidenceAnalyzed)) / float64(len(s.Evidence)) * 100
}
