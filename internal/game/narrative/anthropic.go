package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemPrompt = "You are the combat narrator for a fantasy tabletop " +
	"campaign. Given a mechanical combat result, reply with one vivid " +
	"sentence describing it. Never contradict the mechanical outcome. " +
	"Reply with the sentence only."

// AnthropicNarrator generates narration with the Anthropic Messages API.
type AnthropicNarrator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicNarrator creates a narrator for the given API key and model.
//
// Precondition: apiKey and model must be non-empty.
func NewAnthropicNarrator(apiKey, model string, maxTokens int64) *AnthropicNarrator {
	return &AnthropicNarrator{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
	}
}

// Narrate renders scene into a prompt and returns the model's single-sentence
// narration.
//
// Postcondition: Returns a non-empty line or a non-nil error.
func (n *AnthropicNarrator) Narrate(ctx context.Context, scene Scene) (string, error) {
	msg, err := n.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     n.model,
		MaxTokens: n.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt(scene))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrating action: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		b.WriteString(block.Text)
	}
	line := strings.TrimSpace(b.String())
	if line == "" {
		return "", fmt.Errorf("narrator returned empty response")
	}
	return line, nil
}
