// Package realtime defines the timed decision scenarios and the timing-score
// formula used to grade them.
package realtime

import (
	"fmt"

	"github.com/datableed/decision-engine/pkg/gameerror"
)

// Phase time bounds, in seconds. Content outside this range is rejected at
// validation time so the pressure curve stays playable.
const (
	MinPhaseSeconds = 15
	MaxPhaseSeconds = 90
)

// CorrectnessTier is the qualitative grading attached to a timed decision.
type CorrectnessTier string

const (
	TierOptimal    CorrectnessTier = "optimal"
	TierAcceptable CorrectnessTier = "acceptable"
	TierPoor       CorrectnessTier = "poor"
	TierDangerous  CorrectnessTier = "dangerous"
)

// Valid reports whether the tier is recognized.
func (c CorrectnessTier) Valid() bool {
	switch c {
	case TierOptimal, TierAcceptable, TierPoor, TierDangerous:
		return true
	}
	return false
}

// TimedDecision is one selectable answer within a phase.
type TimedDecision struct {
	ID           string             `json:"id"`
	Text         string             `json:"text"`
	Correctness  CorrectnessTier    `json:"correctness"`
	Consequences map[string]float64 `json:"consequences,omitempty"`
	Lesson       string             `json:"lesson,omitempty"` // shown in outcome feedback for poor/dangerous picks
}

// Phase is one timed step of a scenario.
type Phase struct {
	ID                 string          `json:"id"`
	Prompt             string          `json:"prompt"`
	TimeAllowedSeconds float64         `json:"time_allowed_seconds"`
	Decisions          []TimedDecision `json:"decisions"`
}

// Decision returns the decision with the given id, or nil.
func (p *Phase) Decision(id string) *TimedDecision {
	for i := range p.Decisions {
		if p.Decisions[i].ID == id {
			return &p.Decisions[i]
		}
	}
	return nil
}

// Scenario is a timed multi-phase decision scenario for one character.
type Scenario struct {
	ID               string   `json:"id"`
	Character        string   `json:"character"`
	Type             string   `json:"type"`
	UrgencyLevel     string   `json:"urgency_level"`
	TimeLimitSeconds float64  `json:"time_limit_seconds"`
	Phases           []Phase  `json:"phases"`
	LearningGoals    []string `json:"learning_goals,omitempty"`
	Statistic        string   `json:"statistic,omitempty"` // real-world statistic quoted in feedback
}

// Validate checks the scenario for authoring mistakes.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return gameerror.NewValidation("id", "scenario id is required")
	}
	if s.Character == "" {
		return gameerror.NewValidation("character", "scenario character is required")
	}
	if len(s.Phases) == 0 {
		return gameerror.NewValidation("phases", "scenario must have at least one phase")
	}
	for i, phase := range s.Phases {
		field := fmt.Sprintf("phases[%d]", i)
		if phase.ID == "" {
			return gameerror.NewValidation(field+".id", "phase id is required")
		}
		if phase.TimeAllowedSeconds < MinPhaseSeconds || phase.TimeAllowedSeconds > MaxPhaseSeconds {
			return gameerror.NewValidation(field+".time_allowed_seconds",
				fmt.Sprintf("must be between %d and %d seconds", MinPhaseSeconds, MaxPhaseSeconds))
		}
		if len(phase.Decisions) == 0 {
			return gameerror.NewValidation(field+".decisions", "phase must have at least one decision")
		}
		for j, d := range phase.Decisions {
			dfield := fmt.Sprintf("%s.decisions[%d]", field, j)
			if d.ID == "" {
				return gameerror.NewValidation(dfield+".id", "decision id is required")
			}
			if !d.Correctness.Valid() {
				return gameerror.NewValidation(dfield+".correctness", "unknown correctness tier: "+string(d.Correctness))
			}
		}
	}
	return nil
}
