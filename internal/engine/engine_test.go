package engine

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datableed/decision-engine/internal/events"
	"github.com/datableed/decision-engine/internal/services"
	"github.com/datableed/decision-engine/internal/storage"
	"github.com/datableed/decision-engine/internal/tracker"
	"github.com/datableed/decision-engine/pkg/clock"
	"github.com/datableed/decision-engine/pkg/content"
	"github.com/datableed/decision-engine/pkg/decision"
	"github.com/datableed/decision-engine/pkg/investigation"
	"github.com/datableed/decision-engine/pkg/puzzle"
	"github.com/datableed/decision-engine/pkg/realtime"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func testCharacter() *content.Character {
	return &content.Character{
		Name:       "aria",
		Title:      "Aria",
		ScamDomain: "romance_scams",
		Thresholds: content.Thresholds{WarnAfter: 2, FailAfter: 4},
		Decisions: []decision.Option{
			{ID: "walk_away", Text: "Walk away from the conversation.", Area: 1,
				MechanicType: decision.MechanicAction,
				Consequences: map[string]float64{"trust": 2}},
			{ID: "answer_call", Text: "Answer the unknown number.", Area: 1,
				MechanicType: decision.MechanicRealtime, ScenarioType: "phone_scam",
				Consequences: map[string]float64{"awareness": 3}},
			{ID: "check_profile", Text: "Dig into the dating profile.", Area: 2,
				MechanicType: decision.MechanicInvestigation, ScenarioID: "profile_check",
				Consequences: map[string]float64{"caution": 2}},
			{ID: "spot_pressure", Text: "Break down the pressure tactics.", Area: 2,
				MechanicType: decision.MechanicPuzzle, Tactic: "urgency", Difficulty: "beginner",
				Consequences: map[string]float64{"insight": 1}},
		},
		Scenarios: []realtime.Scenario{{
			ID:        "phone_scam_call",
			Character: "aria",
			Type:      "phone_scam",
			Phases: []realtime.Phase{
				{ID: "phase_1", Prompt: "The caller says your account is compromised.", TimeAllowedSeconds: 20,
					Decisions: []realtime.TimedDecision{
						{ID: "hang_up", Text: "Hang up and call the bank directly.",
							Correctness: realtime.TierOptimal, Consequences: map[string]float64{"safety": 5}},
						{ID: "share_code", Text: "Read back the verification code.",
							Correctness:  realtime.TierDangerous,
							Consequences: map[string]float64{"safety": -10},
							Lesson:       "A real bank never asks for the code it just sent you."},
					}},
				{ID: "phase_2", Prompt: "The number calls again an hour later.", TimeAllowedSeconds: 20,
					Decisions: []realtime.TimedDecision{
						{ID: "report", Text: "Report the number to the carrier.", Correctness: realtime.TierOptimal},
						{ID: "ignore", Text: "Let it ring out.", Correctness: realtime.TierAcceptable},
					}},
			},
			LearningGoals: []string{"Verify callers through a channel you initiate."},
			Statistic:     "Imposter scams were the most reported fraud category last year.",
		}},
		Investigations: []investigation.ScenarioConfig{{
			ID:        "profile_check",
			Character: "aria",
			Briefing:  "Something about this profile feels off.",
			Evidence: []investigation.EvidenceItem{{
				ID:    "profile_photo",
				Type:  "image",
				Title: "Profile photo",
				Clues: []investigation.Clue{
					{Tool: "metadata_inspector", Finding: "Photo was taken eight years ago in another country.", Risk: true},
				},
			}},
			Objectives: []investigation.Objective{
				{ID: "obj_stolen_photo", Description: "Establish the profile photo is not original."},
			},
		}},
		Puzzles: []puzzle.Blueprint{{
			ID:        "urgency_drill",
			Character: "aria",
			Tactic:    puzzle.TacticUrgency,
			Setup:     "Three messages arrived in the last hour, each pushier than the last.",
			Challenges: []puzzle.Challenge{
				{ID: "c1", Question: "Why the countdown timer?",
					Options:       []string{"It compresses your decision window", "It is a courtesy", "Timers are legally required", "It proves legitimacy"},
					CorrectAnswer: 0, Tactic: puzzle.TacticUrgency,
					Explanation: "Countdowns exist to stop you from checking."},
				{ID: "c2", Question: "What does 'act now or lose everything' do?",
					Options:       []string{"Informs you", "Shrinks deliberation time", "Offers a discount", "Builds trust"},
					CorrectAnswer: 1, Tactic: puzzle.TacticUrgency,
					Explanation: "Urgency language swaps thinking for reacting."},
				{ID: "c3", Question: "Why claim 'only 2 spots left'?",
					Options:       []string{"Inventory is real", "Scarcity makes fake value feel real", "Regulation", "Transparency"},
					CorrectAnswer: 1, Tactic: puzzle.TacticScarcity,
					Explanation: "Scarcity is manufactured to force a snap decision."},
				{ID: "c4", Question: "Why threaten account closure?",
					Options:       []string{"Policy", "Fear keeps you compliant", "Routine notice", "A favor"},
					CorrectAnswer: 1, Tactic: puzzle.TacticFear,
					Explanation: "Fear narrows your options to the one the scammer wants."},
			},
			Hints:     []string{"Look at what the message wants you to skip.", "Count the deadline words.", "Pressure is the tell, not the offer."},
			Principle: "Legitimate organizations survive you taking an hour to think.",
			Guidance:  "Name the pressure out loud, then verify through a channel you choose.",
			RealWorld: "Romance scammers manufacture emergencies to rush money transfers.",
		}},
		FeedbackVoice: map[string]string{
			"analysis_risk": "That detail doesn't add up. Keep pulling the thread.",
		},
	}
}

type engineFixture struct {
	content *storage.ContentStore
	store   *storage.MockStore
	tracker *tracker.Tracker
	bus     *events.Bus
	clk     *clock.Fake
	rt      *RealtimeEngine
	inv     *InvestigationEngine
	pz      *PuzzleEngine
	router  *Router
}

func newEngineFixture(t *testing.T, dialogue services.DialogueService) *engineFixture {
	t.Helper()
	logger := testLogger()
	contentStore, err := storage.NewStaticContentStore(logger, testCharacter())
	require.NoError(t, err)

	store := storage.NewMockStore()
	bus := events.NewBus()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	trk := tracker.New(store, contentStore, bus, clk, logger)

	rt := NewRealtimeEngine(contentStore, trk, bus, clk, logger)
	inv := NewInvestigationEngine(contentStore, trk, bus, clk, logger)
	pz := NewPuzzleEngine(contentStore, trk, bus, clk, logger)
	router := NewRouter(contentStore, trk, bus, rt, inv, pz, dialogue, clk, logger)

	return &engineFixture{
		content: contentStore,
		store:   store,
		tracker: trk,
		bus:     bus,
		clk:     clk,
		rt:      rt,
		inv:     inv,
		pz:      pz,
		router:  router,
	}
}

// stateValue reads one story state key for the test character.
func (f *engineFixture) stateValue(t *testing.T, key string) float64 {
	t.Helper()
	p, err := f.tracker.GetProgress("aria")
	require.NoError(t, err)
	return p.StoryState[key]
}
