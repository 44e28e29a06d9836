package progress

import (
	"github.com/datableed/decision-engine/pkg/gameerror"
)

// TriggerDefinition is a declarative condition over story progress, supplied
// by the cinematic/story content and immutable at runtime. All present
// conditions must hold for the trigger to be satisfied. A trigger fires at
// most once per character; completion is tracked in SessionProgress.
type TriggerDefinition struct {
	ID              string             `json:"id"`
	RequiredArea    *int               `json:"required_area,omitempty"`
	RequiredVisits  *int               `json:"required_visits,omitempty"`
	StateConditions map[string]float64 `json:"state_conditions,omitempty"`
}

// Validate checks the definition for authoring mistakes.
func (t *TriggerDefinition) Validate() error {
	if t.ID == "" {
		return gameerror.NewValidation("id", "trigger id is required")
	}
	if t.RequiredArea != nil && *t.RequiredArea < 0 {
		return gameerror.NewValidation("required_area", "must not be negative")
	}
	if t.RequiredVisits != nil && *t.RequiredVisits < 0 {
		return gameerror.NewValidation("required_visits", "must not be negative")
	}
	for key := range t.StateConditions {
		if key == "" {
			return gameerror.NewValidation("state_conditions", "empty state key")
		}
	}
	return nil
}

// Satisfied reports whether the trigger's conditions hold against the given
// progress. Conditions left unset always pass; state conditions compare with
// >= against the threshold, with missing keys treated as zero.
func (t *TriggerDefinition) Satisfied(p *SessionProgress) bool {
	if t.RequiredArea != nil && p.CurrentArea < *t.RequiredArea {
		return false
	}
	if t.RequiredVisits != nil && p.VisitCount() < *t.RequiredVisits {
		return false
	}
	for key, threshold := range t.StateConditions {
		if p.StateValue(key) < threshold {
			return false
		}
	}
	return true
}
