// Package llm generates explanations for reviewed questions with an
// OpenAI-compatible chat model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/neetmock/internal/llm/prompts"
	"github.com/pavelanni/neetmock/internal/model"
)

// ErrEmptyResponse is returned when the model produces no text.
var ErrEmptyResponse = errors.New("LLM returned no content")

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
	style prompts.Style
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName, style string) (*Client, error) {
	if !prompts.IsValidStyle(style) {
		return nil, fmt.Errorf("invalid explanation style %q", style)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
		style: prompts.Style(style),
	}, nil
}

// Ping checks that the endpoint answers a model listing.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// Explain returns the stored explanation when the question has one and
// asks the model otherwise. selected is the student's option or nil.
func (c *Client) Explain(ctx context.Context, q model.Question, selected *int) (string, error) {
	if q.Explanation != "" {
		return q.Explanation, nil
	}

	prompt, err := prompts.BuildExplainPrompt(c.style, q, selected)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	slog.Debug("LLM explanation", "question", q.ID, "style", c.style, "tokens", resp.Usage.TotalTokens)
	return text, nil
}
