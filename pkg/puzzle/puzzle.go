// Package puzzle defines the social-engineering recognition puzzles: tactic
// taxonomy, challenge banks and the puzzle instance model.
package puzzle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/datableed/decision-engine/pkg/gameerror"
)

// Tactic is a recognized manipulation tactic.
type Tactic string

const (
	TacticAuthority   Tactic = "authority"
	TacticTrust       Tactic = "trust"
	TacticUrgency     Tactic = "urgency"
	TacticReciprocity Tactic = "reciprocity"
	TacticSocialProof Tactic = "social_proof"
	TacticScarcity    Tactic = "scarcity"
	TacticFear        Tactic = "fear"
)

// Valid reports whether t is a recognized manipulation tactic.
func (t Tactic) Valid() bool {
	switch t {
	case TacticAuthority, TacticTrust, TacticUrgency, TacticReciprocity,
		TacticSocialProof, TacticScarcity, TacticFear:
		return true
	}
	return false
}

// Difficulty scales the challenge count of a generated puzzle.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is a recognized difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// ChallengeCount returns how many challenges a puzzle at this difficulty
// presents: beginner capped at 2, intermediate 3, advanced everything the
// blueprint has (at least 4).
func (d Difficulty) ChallengeCount(available int) int {
	switch d {
	case DifficultyBeginner:
		return min(2, available)
	case DifficultyIntermediate:
		return min(3, available)
	default:
		return available
	}
}

// OptionCount is the fixed number of answer options per challenge.
const OptionCount = 4

// Challenge is one multiple-choice question within a puzzle.
type Challenge struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"` // index into Options
	Explanation   string   `json:"explanation"`
	Tactic        Tactic   `json:"tactic"` // the tactic this challenge probes
}

// Blueprint is the authored scenario bank entry a puzzle is generated from,
// keyed by character and tactic.
type Blueprint struct {
	ID            string      `json:"id"`
	Character     string      `json:"character"`
	Tactic        Tactic      `json:"tactic"`
	Setup         string      `json:"setup"`
	Challenges    []Challenge `json:"challenges"`
	Hints         []string    `json:"hints"` // ordered: recognition, warning signs, psychology
	Principle     string      `json:"principle"`
	Guidance      string      `json:"guidance"`
	RealWorld     string      `json:"real_world"` // character-specific real-world mapping
	PassThreshold float64     `json:"pass_threshold,omitempty"`
}

// DefaultPassThreshold applies when the blueprint does not set one.
const DefaultPassThreshold = 0.7

// Validate checks the blueprint for authoring mistakes.
func (b *Blueprint) Validate() error {
	if b.ID == "" {
		return gameerror.NewValidation("id", "puzzle blueprint id is required")
	}
	if !b.Tactic.Valid() {
		return gameerror.NewValidation("tactic", "unknown manipulation tactic: "+string(b.Tactic))
	}
	if len(b.Challenges) < 4 {
		return gameerror.NewValidation("challenges", "blueprint needs at least 4 challenges to cover all difficulties")
	}
	for i, c := range b.Challenges {
		field := fmt.Sprintf("challenges[%d]", i)
		if c.ID == "" {
			return gameerror.NewValidation(field+".id", "challenge id is required")
		}
		if len(c.Options) != OptionCount {
			return gameerror.NewValidation(field+".options", fmt.Sprintf("exactly %d options required", OptionCount))
		}
		if c.CorrectAnswer < 0 || c.CorrectAnswer >= OptionCount {
			return gameerror.NewValidation(field+".correct_answer", "must index into options")
		}
		if !c.Tactic.Valid() {
			return gameerror.NewValidation(field+".tactic", "unknown manipulation tactic: "+string(c.Tactic))
		}
	}
	if b.PassThreshold < 0 || b.PassThreshold > 1 {
		return gameerror.NewValidation("pass_threshold", "must be within [0, 1]")
	}
	return nil
}

// Puzzle is a generated puzzle instance for one character.
type Puzzle struct {
	ID            uuid.UUID   `json:"id"`
	BlueprintID   string      `json:"blueprint_id"`
	Character     string      `json:"character"`
	DecisionID    string      `json:"decision_id,omitempty"`
	Difficulty    Difficulty  `json:"difficulty"`
	Tactic        Tactic      `json:"tactic"`
	Setup         string      `json:"setup"`
	Challenges    []Challenge `json:"challenges"`
	Hints         []string    `json:"-"` // never serialized to the client wholesale
	HintsGiven    int         `json:"hints_given"`
	Attempts      int         `json:"attempts"`
	PassThreshold float64     `json:"pass_threshold"`
	Principle     string      `json:"-"`
	Guidance      string      `json:"-"`
	RealWorld     string      `json:"-"`
	Completed     bool        `json:"completed"`
	CreatedAt     time.Time   `json:"created_at"`
}

// ChallengeByID returns the challenge with the given id, or nil.
func (p *Puzzle) ChallengeByID(id string) *Challenge {
	for i := range p.Challenges {
		if p.Challenges[i].ID == id {
			return &p.Challenges[i]
		}
	}
	return nil
}

// Response carries the player's submitted answers, keyed by challenge id.
type Response struct {
	Answers map[string]int `json:"answers"`
}

// Analysis breaks down an evaluated solution.
type Analysis struct {
	TacticRecognition bool     `json:"tactic_recognition"`
	CorrectCount      int      `json:"correct_count"`
	TotalChallenges   int      `json:"total_challenges"`
	MissedChallenges  []string `json:"missed_challenges,omitempty"`
}

// Feedback is the educational response to an evaluated solution. High scores
// get an affirming summary with no improvement items; low scores get the full
// breakdown of the tactic, the psychology behind it and protective guidance.
type Feedback struct {
	Summary           string   `json:"summary"`
	TacticExplanation string   `json:"tactic_explanation,omitempty"`
	Principle         string   `json:"principle,omitempty"`
	Guidance          string   `json:"guidance,omitempty"`
	RealWorld         string   `json:"real_world"`
	Improvements      []string `json:"improvements,omitempty"`
}

// Evaluation is the result of scoring a submitted solution.
type Evaluation struct {
	Score     float64  `json:"score"`
	Analysis  Analysis `json:"analysis"`
	Feedback  Feedback `json:"feedback"`
	Completed bool     `json:"completed"`
}

// HintResult is the response to a hint request. Requests beyond the
// configured maximum return Available false without error.
type HintResult struct {
	Available  bool   `json:"available"`
	HintNumber int    `json:"hint_number,omitempty"`
	Hint       string `json:"hint,omitempty"`
}
