package engine

import "github.com/datableed/decision-engine/pkg/investigation"

// universalTools are available to every character. Character-specific tools
// (reverse image search for the dating-safety story, document verification
// for the elder-fraud story) come from the character's content bundle.
var universalTools = []investigation.Tool{
	{
		ID:            "metadata_inspector",
		Name:          "Metadata Inspector",
		Description:   "Inspects file and message metadata: timestamps, origins, editing software.",
		EvidenceTypes: []string{"image", "document", "email"},
	},
	{
		ID:            "web_search",
		Name:          "Web Search",
		Description:   "Searches the open web for names, phrases and listings.",
		EvidenceTypes: []string{"profile", "listing", "message_thread"},
	},
	{
		ID:            "pattern_analyzer",
		Name:          "Communication Pattern Analyzer",
		Description:   "Flags scripted language, urgency cues and isolation tactics in conversations.",
		EvidenceTypes: []string{"message_thread", "email", "call_transcript"},
	},
}

// UniversalTools returns the character-independent tool set. Content
// validation uses it to check that authored clues are reachable.
func UniversalTools() []investigation.Tool {
	tools := make([]investigation.Tool, len(universalTools))
	copy(tools, universalTools)
	return tools
}

// runTool applies a tool to an evidence item. Analysis is content-driven:
// each clue on the item names the tool that surfaces it. A tool that
// surfaces nothing still succeeds, with an empty-handed finding.
func runTool(toolID string, e *investigation.EvidenceItem) investigation.AnalysisResult {
	result := investigation.AnalysisResult{
		Success:        true,
		Findings:       []string{},
		RiskIndicators: []string{},
	}
	for _, clue := range e.Clues {
		if clue.Tool != toolID {
			continue
		}
		result.Findings = append(result.Findings, clue.Finding)
		if clue.Risk {
			result.RiskIndicators = append(result.RiskIndicators, clue.Finding)
		}
	}
	if len(result.Findings) == 0 {
		result.Findings = append(result.Findings, "No anomalies surfaced by this tool.")
	}
	return result
}
