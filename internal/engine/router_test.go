package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datableed/decision-engine/internal/services"
	"github.com/datableed/decision-engine/pkg/decision"
	"github.com/datableed/decision-engine/pkg/gameerror"
	"github.com/datableed/decision-engine/pkg/investigation"
	"github.com/datableed/decision-engine/pkg/puzzle"
	"github.com/datableed/decision-engine/pkg/realtime"
)

func TestPresentDecisionsByArea(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	presented, err := f.router.PresentDecisions(ctx, "aria", 1)
	require.NoError(t, err)
	require.Len(t, presented, 2)
	assert.Equal(t, "walk_away", presented[0].ID)
	assert.Equal(t, "answer_call", presented[1].ID)
	assert.Empty(t, presented[0].Framing)

	presented, err = f.router.PresentDecisions(ctx, "aria", 9)
	require.NoError(t, err)
	assert.Empty(t, presented)

	_, err = f.router.PresentDecisions(ctx, "nobody", 1)
	assert.True(t, gameerror.IsNotFound(err))
}

func TestPresentDecisionsWithDialogueFraming(t *testing.T) {
	f := newEngineFixture(t, services.NewMockDialogue())
	ctx := context.Background()

	presented, err := f.router.PresentDecisions(ctx, "aria", 1)
	require.NoError(t, err)
	require.Len(t, presented, 2)
	assert.Contains(t, presented[0].Framing, "Aria")
}

func TestRouteToMechanic(t *testing.T) {
	f := newEngineFixture(t, nil)

	tests := []struct {
		decisionID string
		want       decision.MechanicType
	}{
		{"walk_away", decision.MechanicAction},
		{"answer_call", decision.MechanicRealtime},
		{"check_profile", decision.MechanicInvestigation},
		{"spot_pressure", decision.MechanicPuzzle},
	}
	for _, tc := range tests {
		mechanic, err := f.router.RouteToMechanic("aria", tc.decisionID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, mechanic)
	}

	_, err := f.router.RouteToMechanic("aria", "no_such_decision")
	assert.True(t, gameerror.IsNotFound(err))
}

func TestChooseActionAppliesImmediately(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	dispatch, err := f.router.Choose(ctx, "aria", "walk_away", 0)
	require.NoError(t, err)
	assert.Equal(t, decision.MechanicAction, dispatch.Mechanic)
	assert.True(t, dispatch.Applied)
	assert.Equal(t, 2.0, f.stateValue(t, "trust"))

	// Choosing again stacks the consequences.
	_, err = f.router.Choose(ctx, "aria", "walk_away", 0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, f.stateValue(t, "trust"))

	history := f.router.History("aria")
	require.Len(t, history, 2)
	assert.Equal(t, "walk_away", history[0].DecisionID)
	assert.Equal(t, f.clk.Now(), history[0].Timestamp)
}

func TestChooseRealtimeDefersConsequencesUntilCompletion(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	dispatch, err := f.router.Choose(ctx, "aria", "answer_call", 1)
	require.NoError(t, err)
	assert.Equal(t, decision.MechanicRealtime, dispatch.Mechanic)
	assert.False(t, dispatch.Applied)
	require.NotNil(t, dispatch.Realtime)

	// The routing decision's consequences wait for the session to finish.
	assert.Equal(t, 0.0, f.stateValue(t, "awareness"))

	_, err = f.rt.ProcessDecision(ctx, dispatch.Realtime.ID, "hang_up", 8)
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.stateValue(t, "awareness"))

	_, err = f.rt.ProcessDecision(ctx, dispatch.Realtime.ID, "report", 8)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f.stateValue(t, "awareness"))
}

func TestAbandonedSessionSkipsDecisionConsequences(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	dispatch, err := f.router.Choose(ctx, "aria", "answer_call", 1)
	require.NoError(t, err)
	require.NoError(t, f.rt.Abandon(ctx, dispatch.Realtime.ID))

	got, err := f.rt.Session(dispatch.Realtime.ID)
	require.NoError(t, err)
	assert.Equal(t, realtime.StatusAbandoned, got.Status)
	assert.Equal(t, 0.0, f.stateValue(t, "awareness"))
}

func TestChooseInvestigationDispatchesWithTools(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	dispatch, err := f.router.Choose(ctx, "aria", "check_profile", 0)
	require.NoError(t, err)
	assert.Equal(t, decision.MechanicInvestigation, dispatch.Mechanic)
	require.NotNil(t, dispatch.Investigation)
	assert.NotEmpty(t, dispatch.Tools)
	assert.Equal(t, 0.0, f.stateValue(t, "caution"))

	_, err = f.inv.CompileFindings(ctx, dispatch.Investigation.ID, []investigation.Finding{
		{ObjectiveID: "obj_stolen_photo", Correct: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, f.stateValue(t, "caution"))
}

func TestChoosePuzzleDispatches(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	dispatch, err := f.router.Choose(ctx, "aria", "spot_pressure", 0)
	require.NoError(t, err)
	assert.Equal(t, decision.MechanicPuzzle, dispatch.Mechanic)
	require.NotNil(t, dispatch.Puzzle)
	assert.Len(t, dispatch.Puzzle.Challenges, 2) // beginner difficulty from the option

	answers := make(map[string]int, len(dispatch.Puzzle.Challenges))
	for _, ch := range dispatch.Puzzle.Challenges {
		answers[ch.ID] = ch.CorrectAnswer
	}
	eval, err := f.pz.EvaluateSolution(ctx, dispatch.Puzzle.ID, puzzle.Response{Answers: answers})
	require.NoError(t, err)
	assert.True(t, eval.Completed)
	assert.Equal(t, 1.0, f.stateValue(t, "insight"))
}

func TestChooseUnknownDecision(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	_, err := f.router.Choose(ctx, "aria", "no_such_decision", 0)
	assert.True(t, gameerror.IsNotFound(err))

	_, err = f.router.Choose(ctx, "nobody", "walk_away", 0)
	assert.True(t, gameerror.IsNotFound(err))
}
