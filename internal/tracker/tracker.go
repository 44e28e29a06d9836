// Package tracker implements the story progression tracker: the single
// writer of per-character story state, area visits and completed triggers.
// Every mutation re-evaluates trigger conditions synchronously before the
// call returns.
package tracker

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/datableed/decision-engine/internal/events"
	"github.com/datableed/decision-engine/internal/storage"
	"github.com/datableed/decision-engine/pkg/clock"
	"github.com/datableed/decision-engine/pkg/content"
	"github.com/datableed/decision-engine/pkg/gameerror"
	"github.com/datableed/decision-engine/pkg/progress"
)

// Story state keys owned by the escalation mechanic.
const (
	StateWrongCount = "wrong_count"
	StateLogoStage  = "logo_stage"
)

// Tracker owns all SessionProgress documents. Other engines read progress
// through it and mutate story state only through its API, which prevents
// lost updates and keeps trigger evaluation ordered after each mutation.
type Tracker struct {
	mu       sync.Mutex
	store    storage.ProgressStore
	content  *storage.ContentStore
	bus      *events.Bus
	clk      clock.Clock
	logger   *slog.Logger
	sessions map[string]*progress.SessionProgress
	saveWG   sync.WaitGroup
}

// New creates a tracker. The content store supplies the trigger definitions
// and the set of known characters.
func New(store storage.ProgressStore, contentStore *storage.ContentStore, bus *events.Bus, clk clock.Clock, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:    store,
		content:  contentStore,
		bus:      bus,
		clk:      clk,
		logger:   logger,
		sessions: make(map[string]*progress.SessionProgress),
	}
}

// Hydrate loads persisted progress documents into memory. Documents for
// characters without content are skipped with a warning.
func (t *Tracker) Hydrate(ctx context.Context) error {
	all, err := t.store.LoadAllProgress(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for character, p := range all {
		if !t.content.HasCharacter(character) {
			t.logger.Warn("Skipping progress for unknown character", "character", character)
			continue
		}
		p.Normalize()
		t.sessions[character] = p
	}
	t.logger.Info("Hydrated progress", "characters", len(t.sessions))
	return nil
}

// TrackAreaVisit records a visit to an area. Idempotent on the visited set;
// the current area never regresses on a lower revisit. Unknown characters
// are a warning and a no-op.
func (t *Tracker) TrackAreaVisit(ctx context.Context, character string, areaNumber int, eventData map[string]any) {
	if !t.content.HasCharacter(character) {
		t.logger.Warn("Area visit for unknown character", "character", character, "area", areaNumber)
		return
	}

	t.mu.Lock()
	p := t.getOrCreateLocked(character)
	p.MarkVisited(areaNumber)
	p.LastVisitTimestamp = t.clk.Now()
	t.persistAsync(ctx, character, p)

	evs := []events.Event{{
		Type:       events.TypeAreaVisited,
		Character:  character,
		AreaNumber: areaNumber,
		EventData:  eventData,
		Progress:   p.Clone(),
	}}
	t.evaluateTriggersLocked(ctx, character, p, progress.EventAreaVisit, areaNumber, eventData, &evs)
	t.mu.Unlock()

	t.publish(evs)
}

// UpdateStoryState sets or increments one story state key. With increment
// true, a missing key is treated as zero. Unknown characters are a warning
// and a no-op.
func (t *Tracker) UpdateStoryState(ctx context.Context, character, key string, value float64, increment bool) {
	if !t.content.HasCharacter(character) {
		t.logger.Warn("State update for unknown character", "character", character, "key", key)
		return
	}

	t.mu.Lock()
	var evs []events.Event
	t.updateStateLocked(ctx, character, key, value, increment, &evs)
	t.mu.Unlock()

	t.publish(evs)
}

func (t *Tracker) updateStateLocked(ctx context.Context, character, key string, value float64, increment bool, evs *[]events.Event) {
	p := t.getOrCreateLocked(character)
	if increment {
		p.StoryState[key] += value
	} else {
		p.StoryState[key] = value
	}
	t.persistAsync(ctx, character, p)

	*evs = append(*evs, events.Event{
		Type:      events.TypeStateUpdated,
		Character: character,
		EventData: map[string]any{"key": key, "value": p.StoryState[key]},
		Progress:  p.Clone(),
	})

	t.evaluateTriggersLocked(ctx, character, p, progress.EventStateUpdate, p.CurrentArea, nil, evs)
}

// ApplyConsequences applies additive deltas to story state, one key at a
// time so every mutation gets its own trigger evaluation pass. Keys are
// applied in sorted order for determinism.
func (t *Tracker) ApplyConsequences(ctx context.Context, character string, consequences map[string]float64) {
	if len(consequences) == 0 {
		return
	}
	if !t.content.HasCharacter(character) {
		t.logger.Warn("Consequences for unknown character", "character", character)
		return
	}

	keys := make([]string, 0, len(consequences))
	for k := range consequences {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t.mu.Lock()
	var evs []events.Event
	for _, k := range keys {
		t.updateStateLocked(ctx, character, k, consequences[k], true, &evs)
	}
	t.mu.Unlock()

	t.publish(evs)
}

// RecordMistake increments the character's wrong count and recomputes the
// corruption stage from the character's thresholds, publishing a
// corruption.stage event when the stage advances.
func (t *Tracker) RecordMistake(ctx context.Context, character string) {
	c, err := t.content.Character(character)
	if err != nil {
		t.logger.Warn("Mistake for unknown character", "character", character)
		return
	}

	t.mu.Lock()
	p := t.getOrCreateLocked(character)
	prevStage := int(p.StateValue(StateLogoStage))

	var evs []events.Event
	t.updateStateLocked(ctx, character, StateWrongCount, 1, true, &evs)

	stage := stageFor(int(p.StateValue(StateWrongCount)), c.Thresholds)
	if stage != prevStage {
		t.updateStateLocked(ctx, character, StateLogoStage, float64(stage), false, &evs)
		evs = append(evs, events.Event{
			Type:      events.TypeCorruptionStage,
			Character: character,
			Data:      map[string]any{"stage": stage, "previous": prevStage},
			Progress:  p.Clone(),
		})
	}
	t.mu.Unlock()

	t.publish(evs)
}

// stageFor maps a wrong count onto the 1..5 corruption stage using the
// character's warn/fail thresholds.
func stageFor(wrong int, th content.Thresholds) int {
	switch {
	case wrong <= 0:
		return 1
	case wrong < th.WarnAfter:
		return 2
	case wrong < th.FailAfter:
		return 3
	case wrong == th.FailAfter:
		return 4
	default:
		return 5
	}
}

// GetProgress returns a snapshot of a character's progress, creating a
// default document on first reference.
func (t *Tracker) GetProgress(character string) (*progress.SessionProgress, error) {
	if !t.content.HasCharacter(character) {
		return nil, gameerror.NewNotFound("character", character)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getOrCreateLocked(character).Clone(), nil
}

// GetAllProgress returns snapshots of every tracked character.
func (t *Tracker) GetAllProgress() map[string]*progress.SessionProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	all := make(map[string]*progress.SessionProgress, len(t.sessions))
	for character, p := range t.sessions {
		all[character] = p.Clone()
	}
	return all
}

// ResetProgress returns a character to all-default values.
func (t *Tracker) ResetProgress(ctx context.Context, character string) error {
	if !t.content.HasCharacter(character) {
		return gameerror.NewNotFound("character", character)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	p := progress.NewSessionProgress(character)
	t.sessions[character] = p
	t.persistAsync(ctx, character, p)
	return nil
}

// Flush waits for in-flight persistence writes. Called on shutdown.
func (t *Tracker) Flush() {
	t.saveWG.Wait()
}

func (t *Tracker) getOrCreateLocked(character string) *progress.SessionProgress {
	p, ok := t.sessions[character]
	if !ok {
		p = progress.NewSessionProgress(character)
		t.sessions[character] = p
	}
	return p
}

// persistAsync saves a snapshot without blocking the mutation. A failed save
// is logged; in-memory state stays authoritative.
func (t *Tracker) persistAsync(ctx context.Context, character string, p *progress.SessionProgress) {
	snapshot := p.Clone()
	saveCtx := context.WithoutCancel(ctx)

	t.saveWG.Add(1)
	go func() {
		defer t.saveWG.Done()
		if err := t.store.SaveProgress(saveCtx, character, snapshot); err != nil {
			t.logger.Error("Failed to persist progress", "character", character, "error", err)
		}
	}()
}

// evaluateTriggersLocked checks every not-yet-completed trigger for the
// character in definition order and appends a fire event for each newly
// satisfied one. Completion is marked here under the lock, but events are
// published by the caller after releasing it, so a subscriber that calls
// back into the tracker neither deadlocks nor double-fires.
func (t *Tracker) evaluateTriggersLocked(ctx context.Context, character string, p *progress.SessionProgress, kind progress.EventKind, areaNumber int, eventData map[string]any, evs *[]events.Event) {
	c, err := t.content.Character(character)
	if err != nil {
		return
	}

	for i := range c.Triggers {
		trigger := &c.Triggers[i]
		if p.HasCompleted(trigger.ID) {
			continue
		}
		if !trigger.Satisfied(p) {
			continue
		}

		p.MarkCompleted(trigger.ID)
		t.persistAsync(ctx, character, p)

		t.logger.Info("Trigger fired",
			"character", character,
			"trigger", trigger.ID,
			"event_kind", string(kind))

		*evs = append(*evs, events.Event{
			Type:       events.TypeTriggerFired,
			Character:  character,
			TriggerID:  trigger.ID,
			AreaNumber: areaNumber,
			EventData:  eventData,
			Progress:   p.Clone(),
		})
	}
}

// publish delivers buffered events in order, outside the tracker lock.
func (t *Tracker) publish(evs []events.Event) {
	for _, e := range evs {
		t.bus.Publish(e)
	}
}
