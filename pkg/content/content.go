// Package content defines the authored per-character content bundle:
// triggers, decisions, realtime scenarios, investigations and puzzle
// blueprints. Content is immutable at runtime and loaded from data/.
package content

import (
	"fmt"

	"github.com/datableed/decision-engine/pkg/decision"
	"github.com/datableed/decision-engine/pkg/gameerror"
	"github.com/datableed/decision-engine/pkg/investigation"
	"github.com/datableed/decision-engine/pkg/progress"
	"github.com/datableed/decision-engine/pkg/puzzle"
	"github.com/datableed/decision-engine/pkg/realtime"
)

// Thresholds control the wrong-count escalation: crossing WarnAfter bumps
// the corruption stage, crossing FailAfter maxes it out.
type Thresholds struct {
	WarnAfter int `json:"warn_after"`
	FailAfter int `json:"fail_after"`
}

// Character is the full content bundle for one playable character.
type Character struct {
	Name           string                          `json:"name"`
	Title          string                          `json:"title"`
	ScamDomain     string                          `json:"scam_domain"` // e.g. "romance_scams", "elder_fraud"
	Persona        string                          `json:"persona"`     // dialogue system prompt material
	Thresholds     Thresholds                      `json:"thresholds"`
	Triggers       []progress.TriggerDefinition    `json:"triggers"`
	Decisions      []decision.Option               `json:"decisions"`
	Scenarios      []realtime.Scenario             `json:"scenarios"`
	Investigations []investigation.ScenarioConfig  `json:"investigations"`
	Tools          []investigation.Tool            `json:"tools,omitempty"` // character-specific tools
	Puzzles        []puzzle.Blueprint              `json:"puzzles"`
	FeedbackVoice  map[string]string               `json:"feedback_voice,omitempty"` // keyed feedback lines in the character's voice
}

// Validate checks the whole bundle for authoring mistakes, reporting the
// first failure with enough context to locate it.
func (c *Character) Validate() error {
	if c.Name == "" {
		return gameerror.NewValidation("name", "character name is required")
	}
	if c.Thresholds.WarnAfter < 0 || c.Thresholds.FailAfter < c.Thresholds.WarnAfter {
		return gameerror.NewValidation("thresholds", "fail_after must be >= warn_after >= 0")
	}

	seen := make(map[string]bool)
	for i := range c.Triggers {
		t := &c.Triggers[i]
		if err := t.Validate(); err != nil {
			return fmt.Errorf("triggers[%d]: %w", i, err)
		}
		if seen[t.ID] {
			return gameerror.NewValidation(fmt.Sprintf("triggers[%d].id", i), "duplicate trigger id: "+t.ID)
		}
		seen[t.ID] = true
	}

	for i := range c.Decisions {
		d := &c.Decisions[i]
		if err := d.Validate(); err != nil {
			return fmt.Errorf("decisions[%d]: %w", i, err)
		}
	}

	for i := range c.Scenarios {
		if err := c.Scenarios[i].Validate(); err != nil {
			return fmt.Errorf("scenarios[%d]: %w", i, err)
		}
	}

	for i := range c.Investigations {
		if err := c.Investigations[i].Validate(); err != nil {
			return fmt.Errorf("investigations[%d]: %w", i, err)
		}
	}

	for i := range c.Puzzles {
		if err := c.Puzzles[i].Validate(); err != nil {
			return fmt.Errorf("puzzles[%d]: %w", i, err)
		}
	}

	return nil
}

// DecisionByID returns the decision option with the given id, or nil.
func (c *Character) DecisionByID(id string) *decision.Option {
	for i := range c.Decisions {
		if c.Decisions[i].ID == id {
			return &c.Decisions[i]
		}
	}
	return nil
}

// DecisionsForArea returns the options placed in the given area, in
// definition order.
func (c *Character) DecisionsForArea(area int) []decision.Option {
	var options []decision.Option
	for _, d := range c.Decisions {
		if d.Area == area {
			options = append(options, d)
		}
	}
	return options
}

// ScenarioByType returns the first realtime scenario of the given type, or
// the first scenario at all when type is empty, or nil.
func (c *Character) ScenarioByType(scenarioType string) *realtime.Scenario {
	for i := range c.Scenarios {
		if scenarioType == "" || c.Scenarios[i].Type == scenarioType {
			return &c.Scenarios[i]
		}
	}
	return nil
}

// InvestigationByID returns the investigation scenario config, or nil.
func (c *Character) InvestigationByID(id string) *investigation.ScenarioConfig {
	for i := range c.Investigations {
		if c.Investigations[i].ID == id {
			return &c.Investigations[i]
		}
	}
	return nil
}

// PuzzleByTactic returns the blueprint for the given tactic, or nil.
func (c *Character) PuzzleByTactic(tactic puzzle.Tactic) *puzzle.Blueprint {
	for i := range c.Puzzles {
		if c.Puzzles[i].Tactic == tactic {
			return &c.Puzzles[i]
		}
	}
	return nil
}

// Voice returns a feedback line in the character's voice for the given key,
// falling back to the provided default.
func (c *Character) Voice(key, fallback string) string {
	if line, ok := c.FeedbackVoice[key]; ok {
		return line
	}
	return fallback
}
