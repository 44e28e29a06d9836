// Package storage persists per-character progress (Redis) and loads authored
// character content (filesystem).
package storage

import (
	"context"

	"github.com/datableed/decision-engine/pkg/progress"
)

// HealthChecker defines basic health check capabilities.
type HealthChecker interface {
	// Ping tests the service connection.
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities.
type Closer interface {
	// Close closes the service connection.
	Close() error
}

// ProgressStore defines the interface for progress persistence. Writes are
// best-effort: the tracker keeps in-memory state authoritative and treats
// save failures as non-fatal.
type ProgressStore interface {
	HealthChecker
	Closer

	// SaveProgress saves progress for a character.
	SaveProgress(ctx context.Context, character string, p *progress.SessionProgress) error

	// LoadProgress retrieves progress for a character.
	// Returns nil if no document exists.
	LoadProgress(ctx context.Context, character string) (*progress.SessionProgress, error)

	// LoadAllProgress retrieves every stored progress document, keyed by
	// character name.
	LoadAllProgress(ctx context.Context) (map[string]*progress.SessionProgress, error)

	// DeleteProgress removes a character's progress document.
	DeleteProgress(ctx context.Context, character string) error
}
