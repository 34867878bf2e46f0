// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"
)

// StubGenerator is the deterministic local backend used when no model
// provider is configured. It never touches the network, so pipelines stay
// runnable without credentials.
type StubGenerator struct{}

// Name returns the backend identifier.
func (g *StubGenerator) Name() string { return "stub" }

// Generate returns a fixed-form reply that echoes a short prompt excerpt.
func (g *StubGenerator) Generate(_ context.Context, prompt string, _ int) (string, error) {
	excerpt := strings.TrimSpace(prompt)
	if r := []rune(excerpt); len(r) > 80 {
		excerpt = string(r[:80]) + "..."
	}
	return fmt.Sprintf("[local-stub] Received prompt: %q. Configure an LLM provider (openai, ollama, huggingface) to generate real text.", excerpt), nil
}
