// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides text-generation backends behind a single Generator
// interface. Each backend adapts its API to the one
// (prompt, token budget) -> text signature at the boundary, so callers
// never juggle provider-specific calling conventions.
// Implements: prd012-model-draft (R1-R3).
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Generator produces text from a prompt within a token budget. Backends
// treat maxTokens <= 0 as their configured default.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// NewGenerator selects a backend from cfg.Provider: "stub" (or empty),
// "openai", "ollama", or "huggingface". Unknown providers are an error.
func NewGenerator(cfg types.LLMConfig) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "stub":
		return &StubGenerator{}, nil
	case "openai":
		return NewOpenAIGenerator(cfg)
	case "ollama":
		return NewOllamaGenerator(cfg), nil
	case "huggingface", "hf":
		return NewHuggingFaceGenerator(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (supported: stub, openai, ollama, huggingface)", cfg.Provider)
	}
}
