// Package engine implements the mechanic router and the three scored
// sub-mechanics: realtime decision scenarios, evidence investigations and
// social-engineering puzzles. All story state mutations go through the
// tracker; engines own only their session state.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datableed/decision-engine/internal/events"
	"github.com/datableed/decision-engine/internal/storage"
	"github.com/datableed/decision-engine/internal/tracker"
	"github.com/datableed/decision-engine/pkg/clock"
	"github.com/datableed/decision-engine/pkg/gameerror"
	"github.com/datableed/decision-engine/pkg/realtime"
)

// Timeout consequences applied when a phase elapses with no decision.
var timeoutConsequences = map[string]float64{
	"timeout_penalty":    -5,
	"missed_opportunity": -3,
}

// decisivenessWeight scales the timing bonus/penalty applied alongside a
// decision's own consequences: score 1.0 grants +2, score 0 costs -2.
const decisivenessWeight = 4

// excellentTimingBar is the average timing score that earns the aggregate
// completion bonus.
const excellentTimingBar = 0.8

// RealtimeEngine runs timed multi-phase decision scenarios. At most one
// session is active per character; starting a new one force-abandons the
// previous session.
type RealtimeEngine struct {
	mu       sync.Mutex
	content  *storage.ContentStore
	tracker  *tracker.Tracker
	bus      *events.Bus
	sched    clock.Scheduler
	logger   *slog.Logger
	sessions map[uuid.UUID]*rtSession
	active   map[string]uuid.UUID
}

type rtSession struct {
	session     *realtime.Session
	scenario    *realtime.Scenario
	cancelTimer clock.CancelFunc
}

// NewRealtimeEngine creates the realtime decision engine.
func NewRealtimeEngine(contentStore *storage.ContentStore, trk *tracker.Tracker, bus *events.Bus, sched clock.Scheduler, logger *slog.Logger) *RealtimeEngine {
	return &RealtimeEngine{
		content:  contentStore,
		tracker:  trk,
		bus:      bus,
		sched:    sched,
		logger:   logger,
		sessions: make(map[uuid.UUID]*rtSession),
		active:   make(map[string]uuid.UUID),
	}
}

// RealtimeResult is returned for every processed decision or timeout.
type RealtimeResult struct {
	Record     realtime.DecisionRecord `json:"record"`
	Status     realtime.Status         `json:"status"`
	PhaseIndex int                     `json:"phase_index"`
	PhaseCount int                     `json:"phase_count"`
	NextPrompt string                  `json:"next_prompt,omitempty"`
}

// StartScenario begins a scenario of the given type for a character. An
// already active session for the character is forcibly abandoned first, with
// no graceful drain.
func (e *RealtimeEngine) StartScenario(ctx context.Context, scenarioType, character, urgency, decisionID string) (*realtime.Session, error) {
	c, err := e.content.Character(character)
	if err != nil {
		return nil, err
	}
	scenario := c.ScenarioByType(scenarioType)
	if scenario == nil {
		return nil, gameerror.NewNotFound("scenario", scenarioType)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if prevID, ok := e.active[character]; ok {
		if prev, ok := e.sessions[prevID]; ok && !prev.session.Status.Terminal() {
			e.logger.Warn("Force-abandoning active realtime session",
				"character", character, "session_id", prevID)
			e.completeLocked(ctx, prev, realtime.StatusAbandoned)
		}
	}

	now := e.sched.Now()
	session := &realtime.Session{
		ID:             uuid.New(),
		ScenarioID:     scenario.ID,
		Character:      character,
		DecisionID:     decisionID,
		PhaseStartedAt: now,
		DecisionsMade:  make([]realtime.DecisionRecord, 0, len(scenario.Phases)),
		Status:         realtime.StatusActive,
		StartedAt:      now,
	}
	if urgency != "" {
		// Urgency override from the routing decision wins over content.
		scenarioCopy := *scenario
		scenarioCopy.UrgencyLevel = urgency
		scenario = &scenarioCopy
	}

	rs := &rtSession{session: session, scenario: scenario}
	e.sessions[session.ID] = rs
	e.active[character] = session.ID
	e.schedulePhaseTimeoutLocked(rs)

	e.bus.Publish(events.Event{
		Type:      events.TypeSessionStarted,
		Character: character,
		Data: map[string]any{
			"mechanic":    "realtime",
			"session_id":  session.ID.String(),
			"scenario_id": scenario.ID,
			"urgency":     scenario.UrgencyLevel,
		},
	})

	snapshot := *session
	return &snapshot, nil
}

// ProcessDecision records the player's choice for the current phase,
// applies its consequences plus the timing bonus, and advances the session.
func (e *RealtimeEngine) ProcessDecision(ctx context.Context, sessionID uuid.UUID, decisionID string, timeRemaining float64) (*RealtimeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rs, ok := e.sessions[sessionID]
	if !ok {
		return nil, gameerror.NewNotFound("realtime session", sessionID.String())
	}
	if rs.session.Status.Terminal() {
		return nil, gameerror.NewInvalidState("realtime session", sessionID.String(), string(rs.session.Status))
	}

	phase := &rs.scenario.Phases[rs.session.CurrentPhaseIndex]
	d := phase.Decision(decisionID)
	if d == nil {
		return nil, gameerror.NewNotFound("decision", decisionID)
	}

	if rs.cancelTimer != nil {
		rs.cancelTimer()
		rs.cancelTimer = nil
	}

	score := realtime.TimingScore(phase.TimeAllowedSeconds, timeRemaining)
	consequences := make(map[string]float64, len(d.Consequences)+1)
	for k, v := range d.Consequences {
		consequences[k] = v
	}
	consequences["decisiveness"] = (score - 0.5) * decisivenessWeight

	record := realtime.DecisionRecord{
		DecisionID:    d.ID,
		PhaseID:       phase.ID,
		TimeRemaining: timeRemaining,
		TimingScore:   score,
		Correctness:   d.Correctness,
		Consequences:  consequences,
	}
	rs.session.DecisionsMade = append(rs.session.DecisionsMade, record)

	e.tracker.ApplyConsequences(ctx, rs.session.Character, consequences)
	if d.Correctness == realtime.TierPoor || d.Correctness == realtime.TierDangerous {
		e.tracker.RecordMistake(ctx, rs.session.Character)
	}

	e.advanceLocked(ctx, rs, realtime.StatusCompleted)
	return e.resultLocked(rs, record), nil
}

// HandleTimeout synthesizes a "no decision" outcome for the current phase:
// zero timing score, poor correctness and the timeout penalties. The session
// then advances exactly as a normal decision would. Invoked by the phase
// timer; safe to call manually from an external scheduler as well.
func (e *RealtimeEngine) HandleTimeout(ctx context.Context, sessionID uuid.UUID) (*RealtimeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rs, ok := e.sessions[sessionID]
	if !ok {
		return nil, gameerror.NewNotFound("realtime session", sessionID.String())
	}
	if rs.session.Status.Terminal() {
		return nil, gameerror.NewInvalidState("realtime session", sessionID.String(), string(rs.session.Status))
	}
	return e.timeoutLocked(ctx, rs), nil
}

func (e *RealtimeEngine) timeoutLocked(ctx context.Context, rs *rtSession) *RealtimeResult {
	if rs.cancelTimer != nil {
		rs.cancelTimer()
		rs.cancelTimer = nil
	}

	phase := &rs.scenario.Phases[rs.session.CurrentPhaseIndex]
	consequences := make(map[string]float64, len(timeoutConsequences))
	for k, v := range timeoutConsequences {
		consequences[k] = v
	}

	record := realtime.DecisionRecord{
		PhaseID:      phase.ID,
		TimingScore:  0,
		Correctness:  realtime.TierPoor,
		Consequences: consequences,
		TimedOut:     true,
	}
	rs.session.DecisionsMade = append(rs.session.DecisionsMade, record)

	e.tracker.ApplyConsequences(ctx, rs.session.Character, consequences)
	e.tracker.RecordMistake(ctx, rs.session.Character)

	e.advanceLocked(ctx, rs, realtime.StatusTimedOut)
	return e.resultLocked(rs, record)
}

// Abandon terminates a session without finishing it. Idempotent on
// already-terminal sessions.
func (e *RealtimeEngine) Abandon(ctx context.Context, sessionID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rs, ok := e.sessions[sessionID]
	if !ok {
		return gameerror.NewNotFound("realtime session", sessionID.String())
	}
	e.completeLocked(ctx, rs, realtime.StatusAbandoned)
	return nil
}

// Session returns a snapshot of a session in any state.
func (e *RealtimeEngine) Session(sessionID uuid.UUID) (*realtime.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rs, ok := e.sessions[sessionID]
	if !ok {
		return nil, gameerror.NewNotFound("realtime session", sessionID.String())
	}
	snapshot := *rs.session
	return &snapshot, nil
}

// PhaseView is the client-facing view of the current phase: the prompt and
// the selectable options, without grading metadata.
type PhaseView struct {
	PhaseID            string        `json:"phase_id"`
	Prompt             string        `json:"prompt"`
	TimeAllowedSeconds float64       `json:"time_allowed_seconds"`
	Options            []PhaseOption `json:"options"`
}

type PhaseOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// CurrentPhase returns the phase the session is waiting on. Terminal
// sessions have no current phase.
func (e *RealtimeEngine) CurrentPhase(sessionID uuid.UUID) (*PhaseView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rs, ok := e.sessions[sessionID]
	if !ok {
		return nil, gameerror.NewNotFound("realtime session", sessionID.String())
	}
	if rs.session.Status.Terminal() {
		return nil, gameerror.NewInvalidState("realtime session", sessionID.String(), string(rs.session.Status))
	}

	phase := &rs.scenario.Phases[rs.session.CurrentPhaseIndex]
	view := &PhaseView{
		PhaseID:            phase.ID,
		Prompt:             phase.Prompt,
		TimeAllowedSeconds: phase.TimeAllowedSeconds,
		Options:            make([]PhaseOption, 0, len(phase.Decisions)),
	}
	for _, d := range phase.Decisions {
		view.Options = append(view.Options, PhaseOption{ID: d.ID, Text: d.Text})
	}
	return view, nil
}

// Outcome aggregates a session into performance feedback. Valid for any
// session with at least one recorded decision.
func (e *RealtimeEngine) Outcome(sessionID uuid.UUID) (*realtime.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rs, ok := e.sessions[sessionID]
	if !ok {
		return nil, gameerror.NewNotFound("realtime session", sessionID.String())
	}

	s := rs.session
	avg := s.AverageTimingScore()
	counts := s.TierCounts()

	outcome := &realtime.Outcome{
		Performance:        performanceFor(avg, counts, len(s.DecisionsMade)),
		AverageTimingScore: avg,
		TierCounts:         counts,
		LearningGoals:      rs.scenario.LearningGoals,
		Statistic:          rs.scenario.Statistic,
	}

	for _, rec := range s.DecisionsMade {
		if rec.TimedOut {
			outcome.Lessons = append(outcome.Lessons, "Freezing is a decision too: scammers count on hesitation to keep you on the line.")
			continue
		}
		d := e.decisionText(rs, rec)
		if d == nil {
			continue
		}
		switch rec.Correctness {
		case realtime.TierOptimal, realtime.TierAcceptable:
			outcome.Strengths = append(outcome.Strengths, d.Text)
		case realtime.TierPoor, realtime.TierDangerous:
			if d.Lesson != "" {
				outcome.Lessons = append(outcome.Lessons, d.Lesson)
			}
		}
	}
	return outcome, nil
}

func (e *RealtimeEngine) decisionText(rs *rtSession, rec realtime.DecisionRecord) *realtime.TimedDecision {
	for i := range rs.scenario.Phases {
		if rs.scenario.Phases[i].ID == rec.PhaseID {
			return rs.scenario.Phases[i].Decision(rec.DecisionID)
		}
	}
	return nil
}

// performanceFor grades the whole session. Excellent demands good timing and
// a solid majority of optimal or acceptable picks.
func performanceFor(avgTiming float64, counts map[realtime.CorrectnessTier]int, total int) string {
	if total == 0 {
		return realtime.PerformancePoor
	}
	good := counts[realtime.TierOptimal] + counts[realtime.TierAcceptable]
	goodShare := float64(good) / float64(total)

	switch {
	case goodShare >= 0.75 && avgTiming >= excellentTimingBar:
		return realtime.PerformanceExcellent
	case goodShare >= 0.5 && avgTiming >= 0.5:
		return realtime.PerformanceGood
	case goodShare >= 0.25:
		return realtime.PerformanceFair
	default:
		return realtime.PerformancePoor
	}
}

// advanceLocked moves to the next phase, or completes the session with the
// given terminal status when the last phase has been answered.
func (e *RealtimeEngine) advanceLocked(ctx context.Context, rs *rtSession, completionStatus realtime.Status) {
	if rs.session.CurrentPhaseIndex+1 >= len(rs.scenario.Phases) {
		e.completeLocked(ctx, rs, completionStatus)
		return
	}
	rs.session.CurrentPhaseIndex++
	rs.session.PhaseStartedAt = e.sched.Now()
	e.schedulePhaseTimeoutLocked(rs)
}

// completeLocked marks the session terminal. Idempotent: a second call on
// the same session has no additional effect.
func (e *RealtimeEngine) completeLocked(ctx context.Context, rs *rtSession, status realtime.Status) {
	if rs.session.Status.Terminal() {
		return
	}
	if rs.cancelTimer != nil {
		rs.cancelTimer()
		rs.cancelTimer = nil
	}

	rs.session.Status = status
	rs.session.EndedAt = e.sched.Now()
	if e.active[rs.session.Character] == rs.session.ID {
		delete(e.active, rs.session.Character)
	}

	if status == realtime.StatusCompleted && rs.session.AverageTimingScore() >= excellentTimingBar {
		e.tracker.ApplyConsequences(ctx, rs.session.Character, map[string]float64{"confidence": 5})
	}

	e.bus.Publish(events.Event{
		Type:      events.TypeSessionCompleted,
		Character: rs.session.Character,
		Data: map[string]any{
			"mechanic":             "realtime",
			"session_id":           rs.session.ID.String(),
			"decision_id":          rs.session.DecisionID,
			"status":               string(status),
			"average_timing_score": rs.session.AverageTimingScore(),
		},
	})
}

func (e *RealtimeEngine) schedulePhaseTimeoutLocked(rs *rtSession) {
	sessionID := rs.session.ID
	phaseIndex := rs.session.CurrentPhaseIndex
	phase := &rs.scenario.Phases[phaseIndex]

	rs.cancelTimer = e.sched.Schedule(time.Duration(phase.TimeAllowedSeconds*float64(time.Second)), func() {
		e.onPhaseTimer(sessionID, phaseIndex)
	})
}

// onPhaseTimer guards against a timer racing a just-processed decision: the
// stale check and the timeout share one critical section, so a decision that
// advances the session cannot slip in between and get double-graded.
func (e *RealtimeEngine) onPhaseTimer(sessionID uuid.UUID, phaseIndex int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rs, ok := e.sessions[sessionID]
	if !ok || rs.session.Status.Terminal() || rs.session.CurrentPhaseIndex != phaseIndex {
		return
	}
	e.timeoutLocked(context.Background(), rs)
}

func (e *RealtimeEngine) resultLocked(rs *rtSession, record realtime.DecisionRecord) *RealtimeResult {
	result := &RealtimeResult{
		Record:     record,
		Status:     rs.session.Status,
		PhaseIndex: rs.session.CurrentPhaseIndex,
		PhaseCount: len(rs.scenario.Phases),
	}
	if !rs.session.Status.Terminal() {
		result.NextPrompt = rs.scenario.Phases[rs.session.CurrentPhaseIndex].Prompt
	}
	return result
}
