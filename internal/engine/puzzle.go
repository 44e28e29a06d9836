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
	"github.com/datableed/decision-engine/pkg/gameerror"
	"github.com/datableed/decision-engine/pkg/puzzle"
)

// MaxHints caps how many hints one puzzle instance can hand out.
const MaxHints = 3

// attemptPenalty multiplies the score for each attempt past the first,
// floored at attemptFloor. Repeated guessing converges on a low pass.
const (
	attemptPenalty = 0.75
	attemptFloor   = 0.25
)

// TacticStats aggregates attempts per manipulation tactic.
type TacticStats struct {
	Attempts    int     `json:"attempts"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"`
}

// Statistics is read-only puzzle telemetry; it has no effect on scoring.
type Statistics struct {
	PuzzlesGenerated int                           `json:"puzzles_generated"`
	PuzzlesCompleted int                           `json:"puzzles_completed"`
	PerTactic        map[puzzle.Tactic]TacticStats `json:"per_tactic"`
}

// PuzzleEngine generates and scores social-engineering recognition puzzles.
type PuzzleEngine struct {
	mu        sync.Mutex
	content   *storage.ContentStore
	tracker   *tracker.Tracker
	bus       *events.Bus
	clk       clock.Clock
	logger    *slog.Logger
	puzzles   map[uuid.UUID]*puzzle.Puzzle
	generated int
	completed int
	perTactic map[puzzle.Tactic]*TacticStats
}

// NewPuzzleEngine creates the puzzle engine.
func NewPuzzleEngine(contentStore *storage.ContentStore, trk *tracker.Tracker, bus *events.Bus, clk clock.Clock, logger *slog.Logger) *PuzzleEngine {
	return &PuzzleEngine{
		content:   contentStore,
		tracker:   trk,
		bus:       bus,
		clk:       clk,
		logger:    logger,
		puzzles:   make(map[uuid.UUID]*puzzle.Puzzle),
		perTactic: make(map[puzzle.Tactic]*TacticStats),
	}
}

// GeneratePuzzle builds a puzzle instance from the character's scenario bank
// for the given tactic. Challenge count scales with difficulty; the primary
// tactic is always represented among the selected challenges.
func (e *PuzzleEngine) GeneratePuzzle(ctx context.Context, character string, difficulty puzzle.Difficulty, tactic puzzle.Tactic, decisionID string) (*puzzle.Puzzle, error) {
	if !tactic.Valid() {
		return nil, gameerror.NewValidation("tactic", "unknown manipulation tactic: "+string(tactic))
	}
	if !difficulty.Valid() {
		return nil, gameerror.NewValidation("difficulty", "unknown difficulty: "+string(difficulty))
	}
	c, err := e.content.Character(character)
	if err != nil {
		return nil, err
	}
	bp := c.PuzzleByTactic(tactic)
	if bp == nil {
		return nil, gameerror.NewNotFound("puzzle blueprint", fmt.Sprintf("%s/%s", character, tactic))
	}

	challenges := selectChallenges(bp, difficulty)
	threshold := bp.PassThreshold
	if threshold == 0 {
		threshold = puzzle.DefaultPassThreshold
	}

	p := &puzzle.Puzzle{
		ID:            uuid.New(),
		BlueprintID:   bp.ID,
		Character:     character,
		DecisionID:    decisionID,
		Difficulty:    difficulty,
		Tactic:        tactic,
		Setup:         bp.Setup,
		Challenges:    challenges,
		Hints:         bp.Hints,
		PassThreshold: threshold,
		Principle:     bp.Principle,
		Guidance:      bp.Guidance,
		RealWorld:     bp.RealWorld,
		CreatedAt:     e.clk.Now(),
	}

	e.mu.Lock()
	e.puzzles[p.ID] = p
	e.generated++
	e.mu.Unlock()

	e.bus.Publish(events.Event{
		Type:      events.TypeSessionStarted,
		Character: character,
		Data: map[string]any{
			"mechanic":   "puzzle",
			"session_id": p.ID.String(),
			"tactic":     string(tactic),
			"difficulty": string(difficulty),
		},
	})
	return p, nil
}

// selectChallenges takes the difficulty-scaled prefix of the blueprint's
// challenges, swapping a primary-tactic challenge into the selection when
// the prefix would otherwise miss it.
func selectChallenges(bp *puzzle.Blueprint, difficulty puzzle.Difficulty) []puzzle.Challenge {
	count := difficulty.ChallengeCount(len(bp.Challenges))
	selected := make([]puzzle.Challenge, count)
	copy(selected, bp.Challenges[:count])

	for _, ch := range selected {
		if ch.Tactic == bp.Tactic {
			return selected
		}
	}
	for _, ch := range bp.Challenges[count:] {
		if ch.Tactic == bp.Tactic {
			selected[len(selected)-1] = ch
			break
		}
	}
	return selected
}

// EvaluateSolution scores the submitted answers. The score is the fraction
// of correct challenges, weighted down for repeated attempts, bounded to
// [0, 1]. Completion requires meeting the puzzle's pass threshold.
func (e *PuzzleEngine) EvaluateSolution(ctx context.Context, puzzleID uuid.UUID, resp puzzle.Response) (*puzzle.Evaluation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.puzzles[puzzleID]
	if !ok {
		return nil, gameerror.NewNotFound("puzzle", puzzleID.String())
	}
	if p.Completed {
		return nil, gameerror.NewInvalidState("puzzle", puzzleID.String(), "completed")
	}

	p.Attempts++

	analysis := puzzle.Analysis{TotalChallenges: len(p.Challenges)}
	for _, ch := range p.Challenges {
		answer, answered := resp.Answers[ch.ID]
		if answered && answer == ch.CorrectAnswer {
			analysis.CorrectCount++
			if ch.Tactic == p.Tactic {
				analysis.TacticRecognition = true
			}
		} else {
			analysis.MissedChallenges = append(analysis.MissedChallenges, ch.ID)
		}
	}

	score := float64(analysis.CorrectCount) / float64(analysis.TotalChallenges)
	score *= attemptWeight(p.Attempts)
	completed := score >= p.PassThreshold
	p.Completed = completed

	c, err := e.content.Character(p.Character)
	if err != nil {
		return nil, err
	}
	feedback := e.buildFeedback(c.Voice, p, analysis, completed)

	stats := e.tacticStatsLocked(p.Tactic)
	stats.Attempts++
	if completed {
		stats.Successes++
		e.completed++
	}

	if completed {
		e.tracker.UpdateStoryState(ctx, p.Character, "puzzles_solved", 1, true)
		e.bus.Publish(events.Event{
			Type:      events.TypeSessionCompleted,
			Character: p.Character,
			Data: map[string]any{
				"mechanic":    "puzzle",
				"session_id":  p.ID.String(),
				"decision_id": p.DecisionID,
				"status":      "completed",
				"score":       score,
			},
		})
	} else {
		e.tracker.RecordMistake(ctx, p.Character)
	}

	return &puzzle.Evaluation{
		Score:     score,
		Analysis:  analysis,
		Feedback:  feedback,
		Completed: completed,
	}, nil
}

func attemptWeight(attempts int) float64 {
	weight := 1.0
	for i := 1; i < attempts; i++ {
		weight *= attemptPenalty
	}
	if weight < attemptFloor {
		return attemptFloor
	}
	return weight
}

// buildFeedback is tiered: a pass gets an affirming summary with no
// improvement items; a miss gets the full breakdown of the tactic, the
// psychology behind it and protective guidance. The character's real-world
// mapping is always included.
func (e *PuzzleEngine) buildFeedback(voice func(key, fallback string) string, p *puzzle.Puzzle, analysis puzzle.Analysis, completed bool) puzzle.Feedback {
	fb := puzzle.Feedback{RealWorld: p.RealWorld}
	if completed {
		fb.Summary = voice("puzzle_pass", fmt.Sprintf("You saw through the %s play. That instinct is the whole game.", p.Tactic))
		return fb
	}

	fb.Summary = voice("puzzle_fail", fmt.Sprintf("The %s tactic got past you this time. Here's how it works.", p.Tactic))
	fb.TacticExplanation = tacticExplanation(p.Tactic)
	fb.Principle = p.Principle
	fb.Guidance = p.Guidance
	for _, id := range analysis.MissedChallenges {
		if ch := p.ChallengeByID(id); ch != nil && ch.Explanation != "" {
			fb.Improvements = append(fb.Improvements, ch.Explanation)
		}
	}
	return fb
}

func tacticExplanation(t puzzle.Tactic) string {
	switch t {
	case puzzle.TacticAuthority:
		return "Authority pressure borrows a uniform: badges, agencies and job titles that short-circuit your scrutiny."
	case puzzle.TacticTrust:
		return "Trust-building invests weeks of warmth before the ask, so refusal feels like betraying a friend."
	case puzzle.TacticUrgency:
		return "Manufactured urgency compresses your decision window until checking feels impossible."
	case puzzle.TacticReciprocity:
		return "A small unsolicited favor creates a debt the scammer collects on later, at a markup."
	case puzzle.TacticSocialProof:
		return "Fake reviews, testimonials and 'everyone is doing it' signals outsource your judgment to a crowd that doesn't exist."
	case puzzle.TacticScarcity:
		return "Limited spots and expiring offers make the loss of a fake opportunity feel worse than the loss of real money."
	case puzzle.TacticFear:
		return "Threats of arrest, exposure or account closure put you in a defensive state where compliance feels like safety."
	default:
		return "Manipulation works by replacing deliberation with emotion."
	}
}

// RequestHint hands out the next hint in order: recognition, warning signs,
// then the underlying psychology. Requests past the maximum return
// Available false without error.
func (e *PuzzleEngine) RequestHint(puzzleID uuid.UUID) (*puzzle.HintResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.puzzles[puzzleID]
	if !ok {
		return nil, gameerror.NewNotFound("puzzle", puzzleID.String())
	}

	limit := min(MaxHints, len(p.Hints))
	if p.HintsGiven >= limit {
		return &puzzle.HintResult{Available: false}, nil
	}

	hint := p.Hints[p.HintsGiven]
	p.HintsGiven++
	return &puzzle.HintResult{
		Available:  true,
		HintNumber: p.HintsGiven,
		Hint:       hint,
	}, nil
}

// Puzzle returns a puzzle instance in any state.
func (e *PuzzleEngine) Puzzle(puzzleID uuid.UUID) (*puzzle.Puzzle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.puzzles[puzzleID]
	if !ok {
		return nil, gameerror.NewNotFound("puzzle", puzzleID.String())
	}
	return p, nil
}

// GetStatistics returns aggregate puzzle telemetry.
func (e *PuzzleEngine) GetStatistics() Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := Statistics{
		PuzzlesGenerated: e.generated,
		PuzzlesCompleted: e.completed,
		PerTactic:        make(map[puzzle.Tactic]TacticStats, len(e.perTactic)),
	}
	for tactic, ts := range e.perTactic {
		snapshot := *ts
		if snapshot.Attempts > 0 {
			snapshot.SuccessRate = float64(snapshot.Successes) / float64(snapshot.Attempts)
		}
		stats.PerTactic[tactic] = snapshot
	}
	return stats
}

func (e *PuzzleEngine) tacticStatsLocked(t puzzle.Tactic) *TacticStats {
	ts, ok := e.perTactic[t]
	if !ok {
		ts = &TacticStats{}
		e.perTactic[t] = ts
	}
	return ts
}
