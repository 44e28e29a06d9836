// Package services holds external service clients, currently the dialogue
// generation backends.
package services

import (
	"context"
	"fmt"

	"github.com/datableed/decision-engine/pkg/content"
	"github.com/datableed/decision-engine/pkg/decision"
)

// DialogueService generates in-character narrative text. The engine never
// depends on dialogue for correctness; a nil or failing service degrades to
// unframed content.
type DialogueService interface {
	// FrameDecision wraps a decision option in the character's voice.
	FrameDecision(ctx context.Context, c *content.Character, opt decision.Option) (string, error)

	// Respond produces an in-character reply to a player message.
	Respond(ctx context.Context, c *content.Character, playerMessage string) (string, error)
}

// MockDialogue is a deterministic DialogueService for tests and local
// development without an API key.
type MockDialogue struct{}

// NewMockDialogue creates the mock dialogue service.
func NewMockDialogue() *MockDialogue {
	return &MockDialogue{}
}

func (m *MockDialogue) FrameDecision(ctx context.Context, c *content.Character, opt decision.Option) (string, error) {
	return fmt.Sprintf("%s weighs the option: %q", c.Title, opt.Text), nil
}

func (m *MockDialogue) Respond(ctx context.Context, c *content.Character, playerMessage string) (string, error) {
	return fmt.Sprintf("%s considers your words carefully before answering.", c.Title), nil
}
