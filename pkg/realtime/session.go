package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a realtime session.
// idle -> active -> {completed | timed_out | abandoned}
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusTimedOut  Status = "timed_out"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether the session can no longer accept decisions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusTimedOut || s == StatusAbandoned
}

// DecisionRecord is one decision made (or missed) during a session.
// A timed-out phase records an empty DecisionID with a zero timing score.
type DecisionRecord struct {
	DecisionID    string             `json:"decision_id"`
	PhaseID       string             `json:"phase_id"`
	TimeRemaining float64            `json:"time_remaining"`
	TimingScore   float64            `json:"timing_score"`
	Correctness   CorrectnessTier    `json:"correctness"`
	Consequences  map[string]float64 `json:"consequences,omitempty"`
	TimedOut      bool               `json:"timed_out,omitempty"`
}

// Session is a running (or finished) playthrough of a scenario. At most one
// session may be active per character.
type Session struct {
	ID                uuid.UUID        `json:"id"`
	ScenarioID        string           `json:"scenario_id"`
	Character         string           `json:"character"`
	DecisionID        string           `json:"decision_id,omitempty"` // router decision that started this session
	CurrentPhaseIndex int              `json:"current_phase_index"`
	PhaseStartedAt    time.Time        `json:"phase_started_at"`
	DecisionsMade     []DecisionRecord `json:"decisions_made"`
	Status            Status           `json:"status"`
	StartedAt         time.Time        `json:"started_at"`
	EndedAt           time.Time        `json:"ended_at,omitzero"`
}

// Performance tiers aggregate a whole session.
const (
	PerformanceExcellent = "excellent"
	PerformanceGood      = "good"
	PerformanceFair      = "fair"
	PerformancePoor      = "poor"
)

// Outcome is the aggregate result of a finished session, used to select
// feedback for the player.
type Outcome struct {
	Performance        string                  `json:"performance"`
	AverageTimingScore float64                 `json:"average_timing_score"`
	TierCounts         map[CorrectnessTier]int `json:"tier_counts"`
	Strengths          []string                `json:"strengths"`
	Lessons            []string                `json:"lessons"`
	LearningGoals      []string                `json:"learning_goals,omitempty"`
	Statistic          string                  `json:"statistic,omitempty"`
}

// AverageTimingScore computes the mean timing score across all recorded
// decisions, zero when none were made.
func (s *Session) AverageTimingScore() float64 {
	if len(s.DecisionsMade) == 0 {
		return 0
	}
	var sum float64
	for _, d := range s.DecisionsMade {
		sum += d.TimingScore
	}
	return sum / float64(len(s.DecisionsMade))
}

// TierCounts tallies decisions by correctness tier.
func (s *Session) TierCounts() map[CorrectnessTier]int {
	counts := make(map[CorrectnessTier]int)
	for _, d := range s.DecisionsMade {
		counts[d.Correctness]++
	}
	return counts
}
