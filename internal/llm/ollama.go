// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// defaultOllamaBase is the standard local Ollama endpoint.
const defaultOllamaBase = "http://localhost:11434"

// OllamaGenerator produces text through a local Ollama server.
type OllamaGenerator struct {
	baseURL string
	client  *http.Client
	cfg     types.LLMConfig
}

// Ollama API structures (non-streaming generate).
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaGenerator builds an Ollama backend. Local models can be slow to
// load, so the default timeout is generous.
func NewOllamaGenerator(cfg types.LLMConfig) *OllamaGenerator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaGenerator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cfg:     cfg,
	}
}

// Name returns the backend identifier.
func (g *OllamaGenerator) Name() string { return "ollama" }

// Generate calls /api/generate and returns the full response text.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = g.cfg.MaxTokens
	}

	body, err := json.Marshal(ollamaRequest{
		Model:  g.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: 0.2,
			NumPredict:  maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling Ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating Ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Ollama request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading Ollama response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("Ollama returned HTTP %d: %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("Ollama returned HTTP %d", resp.StatusCode)
	}

	var or ollamaResponse
	if err := json.Unmarshal(data, &or); err != nil {
		return "", fmt.Errorf("parsing Ollama response: %w", err)
	}
	return strings.TrimSpace(or.Response), nil
}
