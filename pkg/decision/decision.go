// Package decision defines the decision options presented to the player and
// the mechanic routing metadata attached to them.
package decision

import (
	"time"

	"github.com/datableed/decision-engine/pkg/gameerror"
)

// MechanicType is the closed set of sub-mechanics a decision can route to.
type MechanicType string

const (
	MechanicInvestigation MechanicType = "investigation"
	MechanicRealtime      MechanicType = "realtime"
	MechanicPuzzle        MechanicType = "puzzle"
	MechanicAction        MechanicType = "action"
)

// Valid reports whether m is a recognized mechanic type.
func (m MechanicType) Valid() bool {
	switch m {
	case MechanicInvestigation, MechanicRealtime, MechanicPuzzle, MechanicAction:
		return true
	}
	return false
}

// Option is a single decision presented to the player. Consequences are
// additive deltas applied to story state after the routed mechanic finishes.
type Option struct {
	ID           string             `json:"id"`
	Text         string             `json:"text"`
	Area         int                `json:"area"`
	MechanicType MechanicType       `json:"mechanic_type"`
	Consequences map[string]float64 `json:"consequences,omitempty"`

	// Mechanic parameters, used by the router when dispatching.
	ScenarioType string `json:"scenario_type,omitempty"` // realtime scenario type
	Urgency      string `json:"urgency,omitempty"`       // realtime urgency level
	Tactic       string `json:"tactic,omitempty"`        // puzzle tactic
	Difficulty   string `json:"difficulty,omitempty"`    // puzzle difficulty
	ScenarioID   string `json:"scenario_id,omitempty"`   // investigation scenario
}

// Validate checks the option for authoring mistakes.
func (o *Option) Validate() error {
	if o.ID == "" {
		return gameerror.NewValidation("id", "decision id is required")
	}
	if o.Text == "" {
		return gameerror.NewValidation("text", "decision text is required")
	}
	if !o.MechanicType.Valid() {
		return gameerror.NewValidation("mechanic_type", "unknown mechanic type: "+string(o.MechanicType))
	}
	return nil
}

// Record is one entry in the decision history. Analytics only; it has no
// behavioral effect on scoring.
type Record struct {
	DecisionID  string    `json:"decision_id"`
	ChoiceIndex int       `json:"choice_index"`
	Character   string    `json:"character"`
	Area        int       `json:"area"`
	Timestamp   time.Time `json:"timestamp"`
}
