package handlers

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datableed/decision-engine/internal/engine"
	"github.com/datableed/decision-engine/internal/events"
	"github.com/datableed/decision-engine/internal/storage"
	"github.com/datableed/decision-engine/internal/tracker"
	"github.com/datableed/decision-engine/pkg/clock"
	"github.com/datableed/decision-engine/pkg/content"
	"github.com/datableed/decision-engine/pkg/decision"
	"github.com/datableed/decision-engine/pkg/investigation"
	"github.com/datableed/decision-engine/pkg/progress"
	"github.com/datableed/decision-engine/pkg/puzzle"
	"github.com/datableed/decision-engine/pkg/realtime"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func intPtr(i int) *int { return &i }

func testCharacter() *content.Character {
	return &content.Character{
		Name:       "eddie",
		Title:      "Eddie",
		ScamDomain: "elder_fraud",
		Thresholds: content.Thresholds{WarnAfter: 2, FailAfter: 4},
		Triggers: []progress.TriggerDefinition{
			{ID: "reached_back_office", RequiredArea: intPtr(3), RequiredVisits: intPtr(1)},
		},
		Decisions: []decision.Option{
			{ID: "shred_letter", Text: "Shred the prize letter.", Area: 1,
				MechanicType: decision.MechanicAction,
				Consequences: map[string]float64{"caution": 3}},
			{ID: "take_call", Text: "Take the call from the 'agency'.", Area: 1,
				MechanicType: decision.MechanicRealtime, ScenarioType: "agency_call",
				Consequences: map[string]float64{"awareness": 2}},
			{ID: "inspect_letter", Text: "Look closer at the letter.", Area: 2,
				MechanicType: decision.MechanicInvestigation, ScenarioID: "prize_letter",
				Consequences: map[string]float64{"caution": 1}},
			{ID: "name_the_pressure", Text: "Name the pressure tactic.", Area: 2,
				MechanicType: decision.MechanicPuzzle, Tactic: "authority", Difficulty: "beginner",
				Consequences: map[string]float64{"insight": 1}},
		},
		Scenarios: []realtime.Scenario{{
			ID:        "agency_call_1",
			Character: "eddie",
			Type:      "agency_call",
			Phases: []realtime.Phase{
				{ID: "phase_1", Prompt: "The caller claims to be from a federal agency.", TimeAllowedSeconds: 30,
					Decisions: []realtime.TimedDecision{
						{ID: "hang_up", Text: "Hang up and look up the agency's real number.",
							Correctness: realtime.TierOptimal, Consequences: map[string]float64{"safety": 4}},
						{ID: "pay_fee", Text: "Pay the processing fee.",
							Correctness: realtime.TierDangerous, Lesson: "Agencies never collect fees by gift card."},
					}},
			},
		}},
		Investigations: []investigation.ScenarioConfig{{
			ID:        "prize_letter",
			Character: "eddie",
			Evidence: []investigation.EvidenceItem{{
				ID:   "letter",
				Type: "document",
				Clues: []investigation.Clue{
					{Tool: "metadata_inspector", Finding: "Return address is a vacant lot.", Risk: true},
				},
			}},
			Objectives: []investigation.Objective{
				{ID: "obj_fake_letter", Description: "Show the prize letter is fraudulent."},
			},
		}},
		Puzzles: []puzzle.Blueprint{{
			ID:        "authority_drill",
			Character: "eddie",
			Tactic:    puzzle.TacticAuthority,
			Setup:     "The letter is stamped with three official-looking seals.",
			Challenges: []puzzle.Challenge{
				{ID: "c1", Question: "Why the seals?",
					Options:       []string{"Decoration", "Borrowed authority", "Legal requirement", "Printing test"},
					CorrectAnswer: 1, Tactic: puzzle.TacticAuthority, Explanation: "Seals borrow authority the sender doesn't have."},
				{ID: "c2", Question: "Why cite a case number?",
					Options:       []string{"To look procedural", "Record keeping", "Courtesy", "Tax rules"},
					CorrectAnswer: 0, Tactic: puzzle.TacticAuthority, Explanation: "Fake case numbers mimic bureaucracy."},
				{ID: "c3", Question: "Why a deadline of 48 hours?",
					Options:       []string{"Logistics", "Urgency pressure", "Postal rules", "Goodwill"},
					CorrectAnswer: 1, Tactic: puzzle.TacticUrgency, Explanation: "Deadlines stop you from asking family."},
				{ID: "c4", Question: "Why mention 'other winners claimed already'?",
					Options:       []string{"Transparency", "Social proof", "Accounting", "Legal notice"},
					CorrectAnswer: 1, Tactic: puzzle.TacticSocialProof, Explanation: "Invented winners make it feel normal."},
			},
			Hints:     []string{"Who benefits from you believing the seals?", "Count the pressure words.", "Real agencies put everything in writing, twice."},
			Principle: "Authority you cannot verify is not authority.",
			Guidance:  "Look up the agency yourself and call the number you find.",
			RealWorld: "Elder-fraud rings impersonate agencies because the uniform does the work.",
		}},
	}
}

type handlerFixture struct {
	store   *storage.MockStore
	content *storage.ContentStore
	tracker *tracker.Tracker
	bus     *events.Bus
	clk     *clock.Fake
	rt      *engine.RealtimeEngine
	inv     *engine.InvestigationEngine
	pz      *engine.PuzzleEngine
	router  *engine.Router
	logger  *slog.Logger
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	logger := testLogger()
	contentStore, err := storage.NewStaticContentStore(logger, testCharacter())
	require.NoError(t, err)

	store := storage.NewMockStore()
	bus := events.NewBus()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	trk := tracker.New(store, contentStore, bus, clk, logger)

	rt := engine.NewRealtimeEngine(contentStore, trk, bus, clk, logger)
	inv := engine.NewInvestigationEngine(contentStore, trk, bus, clk, logger)
	pz := engine.NewPuzzleEngine(contentStore, trk, bus, clk, logger)
	router := engine.NewRouter(contentStore, trk, bus, rt, inv, pz, nil, clk, logger)

	return &handlerFixture{
		store:   store,
		content: contentStore,
		tracker: trk,
		bus:     bus,
		clk:     clk,
		rt:      rt,
		inv:     inv,
		pz:      pz,
		router:  router,
		logger:  logger,
	}
}
