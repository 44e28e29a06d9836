// Command validate checks character content files for authoring mistakes
// before they ship: structural validation plus cross-reference checks the
// engine would otherwise only hit at runtime.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/datableed/decision-engine/internal/engine"
	"github.com/datableed/decision-engine/internal/storage"
	"github.com/datableed/decision-engine/pkg/content"
	"github.com/datableed/decision-engine/pkg/decision"
	"github.com/datableed/decision-engine/pkg/puzzle"
)

var snakeCase = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <character.json> [more.json ...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		if err := validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

func validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("character file must have .json extension: %s", baseName)
	}
	name := strings.TrimSuffix(baseName, ".json")
	if !snakeCase.MatchString(name) {
		return fmt.Errorf("character filename %q must be lowercase snake_case", baseName)
	}

	c, err := storage.LoadCharacterFile(filename)
	if err != nil {
		return err
	}

	if errs := crossCheck(c); len(errs) > 0 {
		return fmt.Errorf("validation errors in %s:\n  %s", filename, strings.Join(errs, "\n  "))
	}
	return nil
}

// crossCheck verifies that every decision's mechanic parameters resolve to
// authored content, so no choice dead-ends at runtime.
func crossCheck(c *content.Character) []string {
	var errs []string

	for _, d := range c.Decisions {
		switch d.MechanicType {
		case decision.MechanicRealtime:
			if c.ScenarioByType(d.ScenarioType) == nil {
				errs = append(errs, fmt.Sprintf("decision %q references missing realtime scenario type %q", d.ID, d.ScenarioType))
			}
		case decision.MechanicInvestigation:
			if c.InvestigationByID(d.ScenarioID) == nil {
				errs = append(errs, fmt.Sprintf("decision %q references missing investigation %q", d.ID, d.ScenarioID))
			}
		case decision.MechanicPuzzle:
			tactic := puzzle.Tactic(d.Tactic)
			if !tactic.Valid() {
				errs = append(errs, fmt.Sprintf("decision %q has unknown puzzle tactic %q", d.ID, d.Tactic))
			} else if c.PuzzleByTactic(tactic) == nil {
				errs = append(errs, fmt.Sprintf("decision %q references missing puzzle blueprint for tactic %q", d.ID, d.Tactic))
			}
		}
	}

	// Evidence clues must name a tool that can actually reach them: either a
	// character tool or one of the universal tools, supporting the evidence type.
	for _, inv := range c.Investigations {
		for _, e := range inv.Evidence {
			for _, clue := range e.Clues {
				if !toolExists(c, clue.Tool) {
					errs = append(errs, fmt.Sprintf("investigation %q evidence %q names unknown tool %q", inv.ID, e.ID, clue.Tool))
				}
			}
		}
	}

	return errs
}

func toolExists(c *content.Character, toolID string) bool {
	for _, t := range engine.UniversalTools() {
		if t.ID == toolID {
			return true
		}
	}
	for _, t := range c.Tools {
		if t.ID == toolID {
			return true
		}
	}
	return false
}
