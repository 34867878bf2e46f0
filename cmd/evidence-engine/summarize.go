// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/llm"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Run a prompt through a text-generation backend",
	Long: `Summarize sends the contents of a prompt file to the configured
text-generation backend and writes the prompt and output as JSON. With no
provider configured the deterministic local stub replies, which makes the
subcommand usable for smoke tests without network access.`,
	RunE: runSummarize,
}

// summaryOutput is the JSON shape written by summarize.
type summaryOutput struct {
	Prompt string `json:"prompt"`
	Output string `json:"output"`
}

func runSummarize(cmd *cobra.Command, args []string) error {
	promptPath, _ := cmd.Flags().GetString("prompt")
	if promptPath == "" {
		return fmt.Errorf("prompt file required: use --prompt")
	}
	outPath, _ := cmd.Flags().GetString("out")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")

	data, err := os.ReadFile(promptPath)
	if err != nil {
		return fmt.Errorf("reading prompt file: %w", err)
	}
	prompt := string(data)

	gen, err := llm.NewGenerator(llmConfigFromFlags(cmd))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	output, err := gen.Generate(ctx, prompt, maxTokens)
	if err != nil {
		return fmt.Errorf("%s backend: %w", gen.Name(), err)
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	encoded, err := json.MarshalIndent(summaryOutput{Prompt: prompt, Output: output}, "", "  ")
	if err != nil {
		return err
	}
	encoded = append(encoded, '\n')
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	fmt.Printf("Wrote %s summary to %s\n", gen.Name(), outPath)
	return nil
}

func init() {
	summarizeCmd.Flags().String("prompt", "", "path to the prompt text file")
	summarizeCmd.Flags().StringP("out", "o", "outputs/summary.json", "output JSON path")
	summarizeCmd.Flags().Int("max-tokens", 0, "generation token budget (default 512)")
	addLLMFlags(summarizeCmd)

	rootCmd.AddCommand(summarizeCmd)
}
