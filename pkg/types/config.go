// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "evidence-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// TrialsConfig holds settings for the ClinicalTrials.gov collector.
type TrialsConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of studies to fetch (default 200).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// BatchSize is the number of studies requested per API call
	// (default 100, the Study Fields API maximum).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// RequestInterval is the minimum delay between consecutive API
	// requests (default 100ms).
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval"`

	// Fields lists the study fields to request. Empty means the default
	// twelve-field vocabulary (DefaultTrialFields).
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// DefaultTrialsConfig returns the documented defaults for the trials collector.
func DefaultTrialsConfig() TrialsConfig {
	return TrialsConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   60 * time.Second,
			UserAgent: "evidence-engine/0.1",
		},
		MaxResults:      200,
		BatchSize:       100,
		RequestInterval: 100 * time.Millisecond,
	}
}

// PubmedConfig holds settings for the PubMed E-utilities collector.
type PubmedConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of articles to fetch (default 200).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// BatchSize is the esearch/efetch page size (default 100).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// RequestInterval is the minimum delay between E-utilities requests.
	// NCBI permits at most 3 requests per second without an API key, so
	// the default is 334ms.
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval"`

	// Email is the contact address included with requests, as NCBI
	// recommends. Optional.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// DefaultPubmedConfig returns the documented defaults for the PubMed collector.
func DefaultPubmedConfig() PubmedConfig {
	return PubmedConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   60 * time.Second,
			UserAgent: "evidence-engine/0.1",
		},
		MaxResults:      200,
		BatchSize:       100,
		RequestInterval: 334 * time.Millisecond,
	}
}

// ExtractionConfig holds settings for the evidence extraction stage.
type ExtractionConfig struct {
	// TrialsPath is the collected trials JSON. A missing file means no
	// trial input, not an error.
	TrialsPath string `json:"trials_path" yaml:"trials_path"`

	// PubmedPath is the collected PubMed JSON. A missing file means no
	// article input, not an error.
	PubmedPath string `json:"pubmed_path" yaml:"pubmed_path"`

	// OutPath is where the structured evidence JSON is written.
	OutPath string `json:"out_path" yaml:"out_path"`

	// TopN is the number of intervention phrases kept in the structured
	// evidence summary (default 50).
	TopN int `json:"top_n" yaml:"top_n"`
}

// DefaultExtractionConfig returns the documented defaults for extraction.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		TrialsPath: "outputs/trials.json",
		PubmedPath: "outputs/pubmed.json",
		OutPath:    "outputs/structured_evidence.json",
		TopN:       50,
	}
}

// ReportConfig holds settings for the report builder.
type ReportConfig struct {
	// EvidencePath is the structured evidence JSON input. A missing file
	// is fatal for the report run.
	EvidencePath string `json:"evidence_path" yaml:"evidence_path"`

	// TemplatePath is an optional Markdown template with named
	// placeholders. A missing template is not an error; the default
	// section layout is used instead.
	TemplatePath string `json:"template_path" yaml:"template_path"`

	// OutPath is where the Markdown report is written.
	OutPath string `json:"out_path" yaml:"out_path"`

	// HTMLPath, when set, additionally renders the report to HTML.
	HTMLPath string `json:"html_path,omitempty" yaml:"html_path,omitempty"`

	// UseLLM enables model-draft synthesis through a configured backend.
	UseLLM bool `json:"use_llm" yaml:"use_llm"`

	// MaxLLMTokens is the token budget for the model draft (default 200).
	MaxLLMTokens int `json:"max_llm_tokens" yaml:"max_llm_tokens"`

	// TopN is the number of intervention phrases shown per section (default 10).
	TopN int `json:"top_n" yaml:"top_n"`

	// SampleEntries is the number of evidence items listed in the results
	// section (default 5).
	SampleEntries int `json:"sample_entries" yaml:"sample_entries"`

	// SnippetLimit is the maximum snippet length in the results section
	// before truncation with an ellipsis (default 400).
	SnippetLimit int `json:"snippet_limit" yaml:"snippet_limit"`
}

// DefaultReportConfig returns the documented defaults for report generation.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		EvidencePath:  "outputs/structured_evidence.json",
		TemplatePath:  "report_template.md",
		OutPath:       "outputs/final_report.md",
		MaxLLMTokens:  200,
		TopN:          10,
		SampleEntries: 5,
		SnippetLimit:  400,
	}
}

// LLMConfig holds settings for the text-generation backends.
type LLMConfig struct {
	// Provider selects the backend: "stub", "openai", "ollama", or
	// "huggingface". Empty selects the stub.
	Provider string `json:"provider" yaml:"provider"`

	// Model is the backend-specific model identifier
	// (e.g. "gpt-4o-mini", "llama3", "distilgpt2").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against OpenAI or Hugging Face.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the backend endpoint (Ollama hosts, proxies, tests).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Timeout is the per-request timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxTokens is the generation budget used when the caller does not
	// supply one (default 512).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// DefaultLLMConfig returns the documented defaults for text generation.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:  "stub",
		Timeout:   60 * time.Second,
		MaxTokens: 512,
	}
}

// ArchiveConfig holds settings for the run archive.
type ArchiveConfig struct {
	// Dir is the directory holding the archive database (default "archive").
	Dir string `json:"dir" yaml:"dir"`

	// Enabled turns run archiving on. Off by default; pipeline outputs
	// themselves always remain flat JSON/Markdown files.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// DefaultArchiveConfig returns the documented defaults for the run archive.
func DefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{Dir: "archive"}
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Trials     TrialsConfig     `json:"trials" yaml:"trials"`
	Pubmed     PubmedConfig     `json:"pubmed" yaml:"pubmed"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Report     ReportConfig     `json:"report" yaml:"report"`
	LLM        LLMConfig        `json:"llm" yaml:"llm"`
	Archive    ArchiveConfig    `json:"archive" yaml:"archive"`
}
