// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/evidence-engine/internal/llm"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Disclaimer is the fixed safety text that must appear in every report.
const Disclaimer = "Safety disclaimer: This report is informational only. It is NOT clinical guidance. " +
	"All model-generated text or automated summaries are labelled as model-drafts and " +
	"require human review and verification of identifiers (DOI, NCT) and outcome measures."

// Template placeholder tokens, in the fixed append order used when a
// template omits some of them.
const (
	PlaceholderExecutiveSummary = "{{EXECUTIVE_SUMMARY}}"
	PlaceholderMethods          = "{{METHODS}}"
	PlaceholderResults          = "{{RESULTS}}"
	PlaceholderModelDraft       = "{{MODEL_DRAFT}}"
	PlaceholderAppendix         = "{{APPENDIX}}"
)

var placeholderOrder = []string{
	PlaceholderExecutiveSummary,
	PlaceholderMethods,
	PlaceholderResults,
	PlaceholderModelDraft,
	PlaceholderAppendix,
}

// Builder assembles a Markdown report from evidence entries. All knobs are
// explicit so that two runs over the same input produce byte-identical
// section bodies; only the footer timestamp varies.
type Builder struct {
	// Generator produces the model-draft synthesis. Nil selects the
	// deterministic fallback paragraph.
	Generator llm.Generator

	// MaxTokens is the token budget passed to the generator.
	MaxTokens int

	// TopN is the number of tallied interventions shown per section.
	TopN int

	// SampleEntries is the number of evidence items listed in results.
	SampleEntries int

	// SnippetLimit is the maximum snippet length before ellipsis.
	SnippetLimit int

	// Now supplies the footer timestamp. Tests override it.
	Now func() time.Time
}

// NewBuilder returns a Builder configured from cfg, with zero values
// replaced by the documented defaults.
func NewBuilder(cfg types.ReportConfig, gen llm.Generator) *Builder {
	b := &Builder{
		Generator:     gen,
		MaxTokens:     cfg.MaxLLMTokens,
		TopN:          cfg.TopN,
		SampleEntries: cfg.SampleEntries,
		SnippetLimit:  cfg.SnippetLimit,
		Now:           time.Now,
	}
	if b.MaxTokens <= 0 {
		b.MaxTokens = 200
	}
	if b.TopN <= 0 {
		b.TopN = 10
	}
	if b.SampleEntries <= 0 {
		b.SampleEntries = 5
	}
	if b.SnippetLimit <= 0 {
		b.SnippetLimit = 400
	}
	return b
}

// Build renders the report. When template is non-empty, each placeholder
// token is substituted wherever it occurs and the bodies of any absent
// placeholders are appended after the template content in fixed order.
// When template is empty the sections are concatenated under headings. The
// UTC generation footer is always appended last.
func (b *Builder) Build(ctx context.Context, entries []Entry, template string) string {
	top := TopInterventions(entries, b.TopN)

	sections := map[string]string{
		PlaceholderExecutiveSummary: b.executiveSummary(entries, top),
		PlaceholderMethods:          methodsSection,
		PlaceholderResults:          b.resultsSection(entries, top),
		PlaceholderModelDraft:       b.modelDraft(ctx, len(entries), top),
		PlaceholderAppendix:         b.appendix(entries),
	}

	var report string
	if template != "" {
		report = template
		var missing []string
		for _, token := range placeholderOrder {
			if strings.Contains(template, token) {
				report = strings.ReplaceAll(report, token, sections[token])
			} else {
				missing = append(missing, sections[token])
			}
		}
		if len(missing) > 0 {
			report = strings.TrimRight(report, " \t\n") + "\n\n" + strings.Join(missing, "\n\n")
		}
	} else {
		report = strings.Join([]string{
			"# Research Synthesis — Model Draft (Informational Only)",
			"## Executive summary",
			sections[PlaceholderExecutiveSummary],
			"## Methods",
			sections[PlaceholderMethods],
			"## Results",
			sections[PlaceholderResults],
			"## Model-draft synthesis",
			sections[PlaceholderModelDraft],
			"## Appendix",
			sections[PlaceholderAppendix],
		}, "\n\n")
	}

	now := b.Now
	if now == nil {
		now = time.Now
	}
	generatedAt := now().UTC().Format(time.RFC3339)
	return report + fmt.Sprintf("\n\n---\nReport generated by evidence-engine on %s (UTC).", generatedAt)
}

// executiveSummary renders the disclaimer, entry count, and top tally.
func (b *Builder) executiveSummary(entries []Entry, top []types.InterventionCount) string {
	lines := []string{
		Disclaimer,
		"",
		fmt.Sprintf("Number of evidence items processed: %d", len(entries)),
	}
	if len(top) > 0 {
		lines = append(lines, "", "Top interventions / topics (automatically extracted):")
		for _, t := range top {
			lines = append(lines, fmt.Sprintf("- %s — %d source(s)", t.Name, t.Count))
		}
	}
	return strings.Join(lines, "\n")
}

// methodsSection is fixed boilerplate; only the data-source names are
// specific to this pipeline.
const methodsSection = `Methods
-------
Data sources:
- ClinicalTrials.gov Study Fields API (if used)
- NCBI PubMed E-utilities (esearch + efetch) (if used)
- Heuristic evidence extraction performed by the extract stage
- Optional LLM draft synthesis (labelled)

Processing:
- Entries were parsed from a structured JSON produced by the extract stage.
- Interventions/topics were heuristically extracted from known fields and short text snippets.
- No clinical recommendations are produced by this tool.`

// resultsSection renders the total count, the bold top tally, and a short
// sample of entries with provenance and truncated snippets.
func (b *Builder) resultsSection(entries []Entry, top []types.InterventionCount) string {
	lines := []string{
		"Results",
		"-------",
		fmt.Sprintf("Total entries: %d", len(entries)),
		"",
	}
	if len(top) > 0 {
		lines = append(lines, "Top interventions (summary):")
		for _, t := range top {
			lines = append(lines, fmt.Sprintf("- **%s** — %d evidence item(s)", t.Name, t.Count))
		}
		lines = append(lines, "")
	}

	lines = append(lines, fmt.Sprintf("Sample evidence (first %d items):", b.SampleEntries))
	for i, e := range entries {
		if i >= b.SampleEntries {
			break
		}
		title := e.Title()
		if title == "" {
			title = "<no title>"
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, title))
		if src := e.ProvenanceKey(); src != "" {
			lines = append(lines, fmt.Sprintf("   - provenance: %s", src))
		}
		if snippet := e.Snippet(); snippet != "" {
			if utf8.RuneCountInString(snippet) > b.SnippetLimit {
				snippet = string([]rune(snippet)[:b.SnippetLimit]) + "..."
			}
			lines = append(lines, fmt.Sprintf("   - snippet: %s", snippet))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// modelDraft produces the synthesis section: generated text when a backend
// is configured, a labeled failure section when the call errors, and a
// deterministic fallback paragraph otherwise. A generator failure never
// fails the report.
func (b *Builder) modelDraft(ctx context.Context, nEntries int, top []types.InterventionCount) string {
	if b.Generator != nil {
		prompt := b.buildPrompt(nEntries, top)
		text, err := b.Generator.Generate(ctx, prompt, b.MaxTokens)
		if err != nil {
			return strings.Join([]string{
				"Model-draft synthesis (failed to call LLM)",
				"------------------------------------------",
				fmt.Sprintf("LLM call failed with error: %v", err),
				"A deterministic summary is provided instead.",
			}, "\n")
		}
		return strings.Join([]string{
			"Model-draft synthesis (automated and unreviewed)",
			"-----------------------------------------------",
			strings.TrimSpace(text),
		}, "\n")
	}

	var names []string
	for i, t := range top {
		if i >= 5 {
			break
		}
		names = append(names, t.Name)
	}
	topNames := strings.Join(names, ", ")
	if topNames == "" {
		topNames = "no clear interventions"
	}

	return strings.Join([]string{
		"Model-draft synthesis (deterministic fallback)",
		"---------------------------------------------",
		fmt.Sprintf("Automated (deterministic) summary: The collected evidence contains %d items. "+
			"Automatically extracted top topics include: %s. Outputs are draft-level "+
			"and require human review for interpretation, validation of identifiers, and to avoid "+
			"clinical recommendations.", nEntries, topNames),
	}, "\n")
}

// buildPrompt constructs the deterministic synthesis prompt.
func (b *Builder) buildPrompt(nEntries int, top []types.InterventionCount) string {
	lines := []string{
		"You are asked to produce a concise, non-actionable research synthesis summary.",
		"Label the output as a model-draft and avoid giving prescriptive or clinical advice.",
		"",
		"Context:",
		fmt.Sprintf("- Evidence items processed: %d", nEntries),
		"- Top interventions (auto-extracted):",
	}
	for i, t := range top {
		if i >= 10 {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s — %d source(s)", t.Name, t.Count))
	}
	lines = append(lines, "", "Produce a short executive-style paragraph (3-6 sentences) summarizing the landscape.")
	return strings.Join(lines, "\n")
}

// appendix renders entry counts grouped by provenance key, largest first.
func (b *Builder) appendix(entries []Entry) string {
	counts := make(map[string]int)
	var order []string
	for _, e := range entries {
		key := e.ProvenanceKey()
		if key == "" {
			key = "unknown"
		}
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}

	groups := make([]types.InterventionCount, 0, len(order))
	for _, key := range order {
		groups = append(groups, types.InterventionCount{Name: key, Count: counts[key]})
	}
	sortByCountDesc(groups)

	lines := []string{"Appendix", "--------", "Provenance summary:"}
	for i, g := range groups {
		if i >= 10 {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s: %d", g.Name, g.Count))
	}
	lines = append(lines, "", "Full structured evidence is available in the JSON used to render this report.")
	return strings.Join(lines, "\n")
}
