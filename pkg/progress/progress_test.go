package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkVisited(t *testing.T) {
	p := NewSessionProgress("aria")

	assert.True(t, p.MarkVisited(1))
	assert.False(t, p.MarkVisited(1), "revisit should not add a duplicate")
	assert.Equal(t, 1, p.VisitCount())
	assert.Equal(t, 1, p.CurrentArea)
}

func TestMarkVisitedCurrentAreaMonotonic(t *testing.T) {
	p := NewSessionProgress("aria")

	p.MarkVisited(3)
	assert.Equal(t, 3, p.CurrentArea)

	// Revisiting a lower area must not regress the current area.
	p.MarkVisited(1)
	assert.Equal(t, 3, p.CurrentArea)
	assert.Equal(t, 2, p.VisitCount())
}

func TestMarkCompleted(t *testing.T) {
	p := NewSessionProgress("eddie")

	assert.True(t, p.MarkCompleted("intro_call"))
	assert.False(t, p.MarkCompleted("intro_call"), "second completion must report false")
	assert.True(t, p.HasCompleted("intro_call"))
}

func TestStateValueMissingKeyIsZero(t *testing.T) {
	p := NewSessionProgress("juno")
	assert.Equal(t, 0.0, p.StateValue("trust"))
}

func TestNormalizeBackfillsNilCollections(t *testing.T) {
	p := &SessionProgress{Character: "aria"}
	p.Normalize()

	require.NotNil(t, p.VisitedAreas)
	require.NotNil(t, p.CompletedTriggers)
	require.NotNil(t, p.StoryState)
}

func TestCloneIsIndependent(t *testing.T) {
	p := NewSessionProgress("aria")
	p.MarkVisited(2)
	p.StoryState["trust"] = 5

	c := p.Clone()
	c.MarkVisited(7)
	c.StoryState["trust"] = -10

	assert.Equal(t, 2, p.CurrentArea)
	assert.Equal(t, 5.0, p.StoryState["trust"])
}
