package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/datableed/decision-engine/pkg/content"
	"github.com/datableed/decision-engine/pkg/gameerror"
)

// ContentStore loads authored character content from the filesystem
// (data/characters/<name>.json) and validates it on load. Content is
// immutable at runtime, so everything is read once and cached.
type ContentStore struct {
	dataDir    string
	logger     *slog.Logger
	characters map[string]*content.Character
}

// NewContentStore reads and validates every character bundle under
// dataDir/characters.
func NewContentStore(dataDir string, logger *slog.Logger) (*ContentStore, error) {
	if dataDir == "" {
		dataDir = "./data"
	}
	s := &ContentStore{
		dataDir:    dataDir,
		logger:     logger,
		characters: make(map[string]*content.Character),
	}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ContentStore) loadAll() error {
	charactersDir := filepath.Join(s.dataDir, "characters")
	entries, err := os.ReadDir(charactersDir)
	if err != nil {
		return fmt.Errorf("failed to read characters directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(charactersDir, entry.Name())
		c, err := LoadCharacterFile(path)
		if err != nil {
			return fmt.Errorf("character file %s: %w", entry.Name(), err)
		}
		s.characters[c.Name] = c
		s.logger.Info("Loaded character content",
			"character", c.Name,
			"triggers", len(c.Triggers),
			"decisions", len(c.Decisions),
			"scenarios", len(c.Scenarios),
			"puzzles", len(c.Puzzles))
	}

	if len(s.characters) == 0 {
		return fmt.Errorf("no character content found in %s", charactersDir)
	}
	return nil
}

// LoadCharacterFile reads and validates a single character content file.
// The filename (without extension) overrides any name in the JSON, the same
// way the scenario filename is authoritative elsewhere in the data layout.
func LoadCharacterFile(path string) (*content.Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var c content.Character
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal character: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), ".json")
	c.Name = name

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// NewStaticContentStore builds a content store from in-memory bundles,
// validating each. Used by tests and embedded deployments.
func NewStaticContentStore(logger *slog.Logger, characters ...*content.Character) (*ContentStore, error) {
	s := &ContentStore{
		logger:     logger,
		characters: make(map[string]*content.Character, len(characters)),
	}
	for _, c := range characters {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("character %s: %w", c.Name, err)
		}
		s.characters[c.Name] = c
	}
	return s, nil
}

// HasCharacter reports whether content exists for the named character.
func (s *ContentStore) HasCharacter(name string) bool {
	_, ok := s.characters[name]
	return ok
}

// Character returns the content bundle for the named character.
func (s *ContentStore) Character(name string) (*content.Character, error) {
	c, ok := s.characters[name]
	if !ok {
		return nil, gameerror.NewNotFound("character", name)
	}
	return c, nil
}

// ListCharacters returns the loaded character names, sorted.
func (s *ContentStore) ListCharacters() []string {
	names := make([]string, 0, len(s.characters))
	for name := range s.characters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
