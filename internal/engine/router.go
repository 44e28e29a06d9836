package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/datableed/decision-engine/internal/events"
	"github.com/datableed/decision-engine/internal/services"
	"github.com/datableed/decision-engine/internal/storage"
	"github.com/datableed/decision-engine/internal/tracker"
	"github.com/datableed/decision-engine/pkg/clock"
	"github.com/datableed/decision-engine/pkg/decision"
	"github.com/datableed/decision-engine/pkg/gameerror"
	"github.com/datableed/decision-engine/pkg/investigation"
	"github.com/datableed/decision-engine/pkg/puzzle"
	"github.com/datableed/decision-engine/pkg/realtime"
)

// Router is the single entry point for player choices. It presents the
// decisions available in an area, dispatches a chosen decision to the
// mechanic engine it names, and applies the decision's consequences once
// the mechanic session finishes.
type Router struct {
	mu            sync.Mutex
	content       *storage.ContentStore
	tracker       *tracker.Tracker
	realtime      *RealtimeEngine
	investigation *InvestigationEngine
	puzzle        *PuzzleEngine
	dialogue      services.DialogueService
	clk           clock.Clock
	logger        *slog.Logger
	history       map[string][]decision.Record
}

// NewRouter wires the router to the mechanic engines and subscribes it to
// session completions so deferred consequences get applied.
func NewRouter(contentStore *storage.ContentStore, trk *tracker.Tracker, bus *events.Bus, rt *RealtimeEngine, inv *InvestigationEngine, pz *PuzzleEngine, dialogue services.DialogueService, clk clock.Clock, logger *slog.Logger) *Router {
	r := &Router{
		content:       contentStore,
		tracker:       trk,
		realtime:      rt,
		investigation: inv,
		puzzle:        pz,
		dialogue:      dialogue,
		clk:           clk,
		logger:        logger,
		history:       make(map[string][]decision.Record),
	}
	bus.Subscribe(events.TypeSessionCompleted, r.onSessionCompleted)
	return r
}

// onSessionCompleted applies the originating decision's consequences after
// a mechanic session ends. Abandoned sessions carry no consequences.
func (r *Router) onSessionCompleted(e events.Event) {
	if status, _ := e.Data["status"].(string); status == string(realtime.StatusAbandoned) {
		return
	}
	decisionID, _ := e.Data["decision_id"].(string)
	if decisionID == "" {
		return
	}
	c, err := r.content.Character(e.Character)
	if err != nil {
		r.logger.Warn("Session completed for unknown character", "character", e.Character)
		return
	}
	opt := c.DecisionByID(decisionID)
	if opt == nil {
		r.logger.Warn("Session completed for unknown decision", "character", e.Character, "decision_id", decisionID)
		return
	}
	r.tracker.ApplyConsequences(context.Background(), e.Character, opt.Consequences)
}

// PresentedDecision is one decision offered to the player, optionally
// framed by in-character dialogue.
type PresentedDecision struct {
	decision.Option
	Framing string `json:"framing,omitempty"`
}

// PresentDecisions returns the decisions available to the character in the
// given area. Presenting is a pure query; nothing about the session changes.
// When a dialogue service is configured, each decision is framed in the
// character's voice.
func (r *Router) PresentDecisions(ctx context.Context, character string, area int) ([]PresentedDecision, error) {
	c, err := r.content.Character(character)
	if err != nil {
		return nil, err
	}

	options := c.DecisionsForArea(area)
	presented := make([]PresentedDecision, 0, len(options))
	for _, opt := range options {
		pd := PresentedDecision{Option: opt}
		if r.dialogue != nil {
			framing, err := r.dialogue.FrameDecision(ctx, c, opt)
			if err != nil {
				r.logger.Warn("Dialogue framing failed", "character", character, "decision_id", opt.ID, "error", err)
			} else {
				pd.Framing = framing
			}
		}
		presented = append(presented, pd)
	}
	return presented, nil
}

// RouteToMechanic returns the mechanic a decision dispatches to.
func (r *Router) RouteToMechanic(character, decisionID string) (decision.MechanicType, error) {
	c, err := r.content.Character(character)
	if err != nil {
		return "", err
	}
	opt := c.DecisionByID(decisionID)
	if opt == nil {
		return "", gameerror.NewNotFound("decision", decisionID)
	}
	return opt.MechanicType, nil
}

// Dispatch is the result of choosing a decision. Exactly one of the
// mechanic fields is populated, matching Mechanic. Applied reports whether
// consequences took effect immediately (actions only; mechanic decisions
// defer consequences until their session completes).
type Dispatch struct {
	Mechanic      decision.MechanicType  `json:"mechanic"`
	Applied       bool                   `json:"applied"`
	Realtime      *realtime.Session      `json:"realtime,omitempty"`
	Investigation *investigation.Session `json:"investigation,omitempty"`
	Tools         []investigation.Tool   `json:"tools,omitempty"`
	Puzzle        *puzzle.Puzzle         `json:"puzzle,omitempty"`
}

// Choose records the decision and dispatches it to its mechanic. Plain
// actions apply their consequences immediately; the other mechanics start
// a session and defer consequences to completion.
func (r *Router) Choose(ctx context.Context, character, decisionID string, choiceIndex int) (*Dispatch, error) {
	c, err := r.content.Character(character)
	if err != nil {
		return nil, err
	}
	opt := c.DecisionByID(decisionID)
	if opt == nil {
		return nil, gameerror.NewNotFound("decision", decisionID)
	}

	r.TrackDecision(decision.Record{
		DecisionID:  opt.ID,
		ChoiceIndex: choiceIndex,
		Character:   character,
		Area:        opt.Area,
		Timestamp:   r.clk.Now(),
	})

	switch opt.MechanicType {
	case decision.MechanicAction:
		r.tracker.ApplyConsequences(ctx, character, opt.Consequences)
		return &Dispatch{Mechanic: opt.MechanicType, Applied: true}, nil

	case decision.MechanicRealtime:
		session, err := r.realtime.StartScenario(ctx, opt.ScenarioType, character, opt.Urgency, opt.ID)
		if err != nil {
			return nil, err
		}
		return &Dispatch{Mechanic: opt.MechanicType, Realtime: session}, nil

	case decision.MechanicInvestigation:
		session, tools, err := r.investigation.Start(ctx, character, opt.ScenarioID, opt.ID)
		if err != nil {
			return nil, err
		}
		return &Dispatch{Mechanic: opt.MechanicType, Investigation: session, Tools: tools}, nil

	case decision.MechanicPuzzle:
		difficulty := puzzle.Difficulty(opt.Difficulty)
		if difficulty == "" {
			difficulty = puzzle.DifficultyBeginner
		}
		p, err := r.puzzle.GeneratePuzzle(ctx, character, difficulty, puzzle.Tactic(opt.Tactic), opt.ID)
		if err != nil {
			return nil, err
		}
		return &Dispatch{Mechanic: opt.MechanicType, Puzzle: p}, nil

	default:
		return nil, gameerror.NewValidation("mechanic_type", "unknown mechanic: "+string(opt.MechanicType))
	}
}

// TrackDecision appends a decision to the character's history.
func (r *Router) TrackDecision(rec decision.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[rec.Character] = append(r.history[rec.Character], rec)
}

// History returns the decisions a character has made, in order.
func (r *Router) History(character string) []decision.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := make([]decision.Record, len(r.history[character]))
	copy(records, r.history[character])
	return records
}
