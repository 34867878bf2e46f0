// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/archive"
	"github.com/pdiddy/evidence-engine/internal/llm"
	"github.com/pdiddy/evidence-engine/internal/report"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a Markdown research report from structured evidence",
	Long: `Report reads a structured evidence JSON file and renders a Markdown
report: executive summary, methods, results, an optional model-draft
synthesis section, and a provenance appendix. A Markdown template with
named placeholders can shape the layout; without one a default layout
is used.

The report is informational only and every section says so. A missing
evidence file is fatal.`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	evidencePath, _ := cmd.Flags().GetString("evidence")
	templatePath, _ := cmd.Flags().GetString("template")
	outPath, _ := cmd.Flags().GetString("out")
	htmlPath, _ := cmd.Flags().GetString("html")
	useLLM, _ := cmd.Flags().GetBool("use-llm")

	entries, err := report.LoadEvidenceFile(evidencePath)
	if err != nil {
		return err
	}
	template, err := report.LoadTemplate(templatePath)
	if err != nil {
		return err
	}

	cfg := types.DefaultReportConfig()
	cfg.UseLLM = useLLM
	if maxTokens, _ := cmd.Flags().GetInt("max-llm-tokens"); maxTokens > 0 {
		cfg.MaxLLMTokens = maxTokens
	}
	if topN, _ := cmd.Flags().GetInt("top"); topN > 0 {
		cfg.TopN = topN
	}
	if samples, _ := cmd.Flags().GetInt("samples"); samples > 0 {
		cfg.SampleEntries = samples
	}

	var gen llm.Generator
	if useLLM {
		gen, err = llm.NewGenerator(llmConfigFromFlags(cmd))
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	builder := report.NewBuilder(cfg, gen)
	markdown := builder.Build(ctx, entries, template)

	if err := report.WriteFile(outPath, []byte(markdown)); err != nil {
		return err
	}
	fmt.Printf("Wrote report with %d evidence entries to %s\n", len(entries), outPath)

	if htmlPath != "" {
		html, err := report.RenderHTML(markdown)
		if err != nil {
			return err
		}
		if err := report.WriteFile(htmlPath, html); err != nil {
			return err
		}
		fmt.Printf("Wrote HTML report to %s\n", htmlPath)
	}

	return recordRun(cmd, archive.Run{
		Kind:        archive.KindReport,
		RecordCount: len(entries),
		OutputPath:  outPath,
	})
}

// llmConfigFromFlags assembles a backend configuration from command flags,
// falling back to .secrets/ for the API key.
func llmConfigFromFlags(cmd *cobra.Command) types.LLMConfig {
	cfg := types.DefaultLLMConfig()
	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		cfg.Provider = provider
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Model = model
	}
	if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	apiKey, _ := cmd.Flags().GetString("api-key")
	switch cfg.Provider {
	case "huggingface", "hf":
		cfg.APIKey = secretDefault("huggingface-api-key", apiKey)
	default:
		cfg.APIKey = secretDefault("openai-api-key", apiKey)
	}
	return cfg
}

// addLLMFlags registers the backend-selection flags shared by report and
// summarize.
func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "text-generation backend: stub, openai, ollama, or huggingface")
	cmd.Flags().String("model", "", `backend model identifier (e.g. "gpt-4o-mini", "llama3")`)
	cmd.Flags().String("api-key", "", "API key (default: .secrets/openai-api-key or .secrets/huggingface-api-key)")
	cmd.Flags().String("base-url", "", "override the backend endpoint URL")
}

func init() {
	reportCmd.Flags().String("evidence", "outputs/structured_evidence.json", "structured evidence JSON input")
	reportCmd.Flags().String("template", "report_template.md", "Markdown template with named placeholders (optional)")
	reportCmd.Flags().StringP("out", "o", "outputs/final_report.md", "Markdown report output path")
	reportCmd.Flags().String("html", "", "also render the report to HTML at this path")
	reportCmd.Flags().Bool("use-llm", false, "generate the model-draft section with a text-generation backend")
	reportCmd.Flags().Int("max-llm-tokens", 0, "token budget for the model draft (default 200)")
	reportCmd.Flags().Int("top", 0, "intervention phrases shown per section (default 10)")
	reportCmd.Flags().Int("samples", 0, "evidence items listed in the results section (default 5)")
	reportCmd.Flags().Bool("archive", false, "journal this run in the archive database")
	reportCmd.Flags().String("archive-dir", "archive", "directory holding the archive database")
	addLLMFlags(reportCmd)

	rootCmd.AddCommand(reportCmd)
}
