// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// OpenAIGenerator produces text through OpenAI's chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    types.LLMConfig
}

// NewOpenAIGenerator builds an OpenAI backend. An API key is required;
// BaseURL may point at a compatible proxy or a test server.
func NewOpenAIGenerator(cfg types.LLMConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Name returns the backend identifier.
func (g *OpenAIGenerator) Name() string { return "openai" }

// Generate sends the prompt as a single user message and returns the
// first choice's content.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	model := g.cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	if maxTokens <= 0 {
		maxTokens = g.cfg.MaxTokens
	}

	timeout := g.cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You draft short, non-prescriptive research synthesis summaries. Outputs are labelled as unreviewed model drafts.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
