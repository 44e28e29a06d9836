package investigation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolSupports(t *testing.T) {
	tool := Tool{ID: "reverse_image_search", EvidenceTypes: []string{"image"}}
	assert.True(t, tool.Supports("image"))
	assert.False(t, tool.Supports("document"))
}

func TestRecordAnalysisCompletion(t *testing.T) {
	s := &Session{
		ID: uuid.New(),
		Evidence: []*EvidenceItem{
			{ID: "profile_photo", Type: "image"},
			{ID: "chat_log", Type: "message_thread"},
		},
		Status: SessionActive,
	}

	s.RecordAnalysis("profile_photo", "reverse_image_search")
	assert.InDelta(t, 50.0, s.Progress.CompletionPercentage, 1e-9)

	// Re-analyzing the same item does not inflate completion.
	s.RecordAnalysis("profile_photo", "metadata_inspector")
	assert.InDelta(t, 50.0, s.Progress.CompletionPercentage, 1e-9)
	assert.Len(t, s.Progress.ToolsUsed, 2)

	s.RecordAnalysis("chat_log", "pattern_analyzer")
	assert.InDelta(t, 100.0, s.Progress.CompletionPercentage, 1e-9)
}

func TestScenarioConfigValidate(t *testing.T) {
	valid := ScenarioConfig{
		ID:        "fake_profile",
		Character: "aria",
		Evidence: []EvidenceItem{
			{ID: "profile_photo", Type: "image"},
		},
		Objectives: []Objective{
			{ID: "identify_stolen_photo", Description: "Show the photo is stolen"},
		},
	}
	require.NoError(t, valid.Validate())

	noEvidence := valid
	noEvidence.Evidence = nil
	assert.Error(t, noEvidence.Validate())

	noObjectives := valid
	noObjectives.Objectives = nil
	assert.Error(t, noObjectives.Validate())

	badEvidence := valid
	badEvidence.Evidence = []EvidenceItem{{ID: "x"}}
	assert.Error(t, badEvidence.Validate())
}

func TestMarkAnalyzedIdempotent(t *testing.T) {
	e := &EvidenceItem{ID: "chat_log", Type: "message_thread"}
	e.MarkAnalyzed("pattern_analyzer")
	e.MarkAnalyzed("pattern_analyzer")
	assert.Len(t, e.AnalyzedBy, 1)
}
