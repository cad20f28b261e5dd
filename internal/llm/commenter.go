// Package llm generates the short end-of-session commentary attached to
// confirmed game-ended notifications.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultPrompt is used when no template is configured. Placeholders:
// {display_name}, {game_name}, {duration_text}.
const DefaultPrompt = "You are a casual announcer in a gaming group chat. " +
	"{display_name} just finished playing {game_name}; {duration_text}. " +
	"Reply with one short, natural remark about it, at most 20 words. " +
	"No emoji, no quotation marks."

// Commenter produces one line of commentary for a finished play session.
type Commenter interface {
	Comment(ctx context.Context, displayName, gameName, durationText string) (string, error)
}

// OpenAICommenter generates commentary through an OpenAI-compatible API.
type OpenAICommenter struct {
	client   *openai.Client
	model    string
	template string
}

// NewOpenAICommenter builds a commenter. baseURL and template may be empty.
func NewOpenAICommenter(apiKey, baseURL, model, template string) *OpenAICommenter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAICommenter{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		template: template,
	}
}

// Comment renders the prompt template and asks the model for one remark.
func (c *OpenAICommenter) Comment(ctx context.Context, displayName, gameName, durationText string) (string, error) {
	prompt := BuildPrompt(c.template, displayName, gameName, durationText)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildPrompt fills the placeholder template, falling back to DefaultPrompt
// when the template is empty.
func BuildPrompt(template, displayName, gameName, durationText string) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultPrompt
	}
	return strings.NewReplacer(
		"{display_name}", displayName,
		"{game_name}", gameName,
		"{duration_text}", durationText,
	).Replace(template)
}
