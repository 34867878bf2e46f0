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

// defaultHuggingFaceBase is the hosted Inference API endpoint.
const defaultHuggingFaceBase = "https://api-inference.huggingface.co"

// HuggingFaceGenerator produces text through the Hugging Face Inference
// API text-generation task.
type HuggingFaceGenerator struct {
	baseURL string
	client  *http.Client
	cfg     types.LLMConfig
}

// Inference API structures.
type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters,omitempty"`
}

type hfParameters struct {
	MaxNewTokens   int  `json:"max_new_tokens,omitempty"`
	ReturnFullText bool `json:"return_full_text"`
	DoSample       bool `json:"do_sample"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

// NewHuggingFaceGenerator builds a Hugging Face backend. A model name is
// required because it selects the endpoint path.
func NewHuggingFaceGenerator(cfg types.LLMConfig) (*HuggingFaceGenerator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("Hugging Face model name is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultHuggingFaceBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HuggingFaceGenerator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cfg:     cfg,
	}, nil
}

// Name returns the backend identifier.
func (g *HuggingFaceGenerator) Name() string { return "huggingface" }

// Generate posts the prompt to models/<model> and returns the first
// generation, with the prompt itself excluded from the output.
func (g *HuggingFaceGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = g.cfg.MaxTokens
	}

	body, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens:   maxTokens,
			ReturnFullText: false,
			DoSample:       false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling Hugging Face request: %w", err)
	}

	url := g.baseURL + "/models/" + g.cfg.Model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating Hugging Face request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Hugging Face request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading Hugging Face response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("Hugging Face returned HTTP %d: %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("Hugging Face returned HTTP %d", resp.StatusCode)
	}

	var generations []hfGeneration
	if err := json.Unmarshal(data, &generations); err != nil {
		return "", fmt.Errorf("parsing Hugging Face response: %w", err)
	}
	if len(generations) == 0 {
		return "", fmt.Errorf("empty generation list from Hugging Face")
	}
	return strings.TrimSpace(generations[0].GeneratedText), nil
}
