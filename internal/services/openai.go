package services

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/datableed/decision-engine/pkg/content"
	"github.com/datableed/decision-engine/pkg/decision"
)

// OpenAIDialogue generates character dialogue through the OpenAI chat API.
type OpenAIDialogue struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIDialogue creates an OpenAI-backed dialogue service.
func NewOpenAIDialogue(apiKey, model string, logger *slog.Logger) *OpenAIDialogue {
	return &OpenAIDialogue{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// systemPrompt keeps the model in character and on the educational rails.
func systemPrompt(c *content.Character) string {
	return fmt.Sprintf(`You are %s, a character in the interactive scam-awareness story Data_Bleed. %s
Your domain is %s. Stay in character, keep replies under three sentences, and always nudge the player toward recognizing manipulation tactics rather than telling them answers outright. Never break the fourth wall.`,
		c.Title, c.Persona, c.ScamDomain)
}

func (s *OpenAIDialogue) complete(ctx context.Context, c *content.Character, userContent string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: 200,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(c)},
			{Role: openai.ChatMessageRoleUser, Content: userContent},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAIDialogue) FrameDecision(ctx context.Context, c *content.Character, opt decision.Option) (string, error) {
	prompt := fmt.Sprintf("In one or two sentences, present this choice to the player in your voice: %q", opt.Text)
	return s.complete(ctx, c, prompt)
}

func (s *OpenAIDialogue) Respond(ctx context.Context, c *content.Character, playerMessage string) (string, error) {
	return s.complete(ctx, c, playerMessage)
}
