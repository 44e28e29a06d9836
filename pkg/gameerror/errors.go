// Package gameerror defines the error taxonomy shared by all engines.
// Handlers map these onto HTTP status codes; engines return them as-is.
package gameerror

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a lookup against an unknown character, scenario,
// evidence item, tool, decision or puzzle.
type NotFoundError struct {
	Resource string // e.g. "character", "scenario", "decision"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFound creates a NotFoundError for the given resource and id.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// InvalidStateError indicates an operation attempted against a session that
// is terminal or otherwise not in a state that allows the operation.
type InvalidStateError struct {
	Resource string
	ID       string
	State    string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s is in state %q and cannot accept this operation", e.Resource, e.ID, e.State)
}

// NewInvalidState creates an InvalidStateError.
func NewInvalidState(resource, id, state string) *InvalidStateError {
	return &InvalidStateError{Resource: resource, ID: id, State: state}
}

// IsInvalidState reports whether err is (or wraps) an InvalidStateError.
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// ValidationError indicates malformed content supplied by authors:
// trigger definitions, decisions, scenarios or puzzle blueprints.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation creates a ValidationError for the given field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
