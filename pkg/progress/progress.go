// Package progress holds per-character story progress and the trigger
// definitions evaluated against it.
package progress

import (
	"slices"
	"time"
)

// EventKind identifies the mutation that prompted a trigger evaluation pass.
type EventKind string

const (
	EventAreaVisit   EventKind = "area_visit"
	EventStateUpdate EventKind = "state_update"
)

// SessionProgress is the durable story progress for one character within a
// play session. Persisted as a JSON document keyed by character name.
// VisitedAreas and CompletedTriggers carry set semantics but serialize as
// arrays for forward compatibility with the web front end.
type SessionProgress struct {
	Character          string             `json:"character"`
	CurrentArea        int                `json:"current_area"`
	VisitedAreas       []int              `json:"visited_areas"`
	CompletedTriggers  []string           `json:"completed_triggers"`
	StoryState         map[string]float64 `json:"story_state"`
	LastVisitTimestamp time.Time          `json:"last_visit_timestamp,omitzero"`
}

// NewSessionProgress creates progress with all-default values for a character.
func NewSessionProgress(character string) *SessionProgress {
	return &SessionProgress{
		Character:         character,
		VisitedAreas:      make([]int, 0),
		CompletedTriggers: make([]string, 0),
		StoryState:        make(map[string]float64),
	}
}

// Normalize backfills nil collections after loading from storage, so a
// document written by an older schema behaves like a fresh one.
func (p *SessionProgress) Normalize() {
	if p.VisitedAreas == nil {
		p.VisitedAreas = make([]int, 0)
	}
	if p.CompletedTriggers == nil {
		p.CompletedTriggers = make([]string, 0)
	}
	if p.StoryState == nil {
		p.StoryState = make(map[string]float64)
	}
}

// HasVisited reports whether the character has visited the given area.
func (p *SessionProgress) HasVisited(area int) bool {
	return slices.Contains(p.VisitedAreas, area)
}

// MarkVisited adds area to the visited set. Returns true if the area was
// newly added. CurrentArea never regresses on a lower revisit.
func (p *SessionProgress) MarkVisited(area int) bool {
	if area > p.CurrentArea {
		p.CurrentArea = area
	}
	if p.HasVisited(area) {
		return false
	}
	p.VisitedAreas = append(p.VisitedAreas, area)
	return true
}

// VisitCount returns the number of distinct visited areas.
func (p *SessionProgress) VisitCount() int {
	return len(p.VisitedAreas)
}

// HasCompleted reports whether the trigger has already fired for this character.
func (p *SessionProgress) HasCompleted(triggerID string) bool {
	return slices.Contains(p.CompletedTriggers, triggerID)
}

// MarkCompleted records a trigger as fired. Returns false if it was already
// recorded, so callers can enforce the fire-at-most-once invariant.
func (p *SessionProgress) MarkCompleted(triggerID string) bool {
	if p.HasCompleted(triggerID) {
		return false
	}
	p.CompletedTriggers = append(p.CompletedTriggers, triggerID)
	return true
}

// StateValue returns the story state value for key, with missing keys
// treated as zero.
func (p *SessionProgress) StateValue(key string) float64 {
	return p.StoryState[key]
}

// Clone returns a deep copy, used for event payloads so consumers never
// observe later mutations.
func (p *SessionProgress) Clone() *SessionProgress {
	c := &SessionProgress{
		Character:          p.Character,
		CurrentArea:        p.CurrentArea,
		VisitedAreas:       slices.Clone(p.VisitedAreas),
		CompletedTriggers:  slices.Clone(p.CompletedTriggers),
		StoryState:         make(map[string]float64, len(p.StoryState)),
		LastVisitTimestamp: p.LastVisitTimestamp,
	}
	for k, v := range p.StoryState {
		c.StoryState[k] = v
	}
	return c
}
