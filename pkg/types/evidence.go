// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
)

// Source identifiers for evidence entries.
const (
	SourceClinicalTrials = "clinicaltrials.gov"
	SourcePubmed         = "pubmed"
)

// TrialRecord is one ClinicalTrials.gov Study Fields record: a mapping from
// field name to a list of string values. The API returns every field as a
// list even when semantically scalar.
type TrialRecord map[string][]string

// UnmarshalJSON decodes a study fields record tolerantly: list-of-string
// fields are kept as-is, bare strings become single-element lists, and
// non-string fields (such as the numeric Rank the API includes) are dropped.
func (r *TrialRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing trial record: %w", err)
	}

	out := make(TrialRecord, len(raw))
	for field, v := range raw {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			out[field] = list
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[field] = []string{s}
		}
	}
	*r = out
	return nil
}

// First returns the first value of a field, or "" when the field is absent
// or empty.
func (r TrialRecord) First(field string) string {
	vals := r[field]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// All returns every value of a field.
func (r TrialRecord) All(field string) []string {
	return r[field]
}

// TrialsFile is the on-disk shape produced by the trials collector:
// provenance metadata plus the raw study records.
type TrialsFile struct {
	Provenance CollectionProvenance `json:"provenance,omitempty"`
	Studies    []TrialRecord        `json:"studies"`
}

// PubmedArticle is one PubMed article record as parsed from efetch XML.
type PubmedArticle struct {
	PMID     string   `json:"pmid,omitempty"`
	Title    string   `json:"title,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	PubDate  string   `json:"pub_date,omitempty"`
	Authors  []string `json:"authors"`
	DOI      string   `json:"doi,omitempty"`
}

// PubmedFile is the on-disk shape produced by the PubMed collector.
type PubmedFile struct {
	Provenance CollectionProvenance `json:"provenance,omitempty"`
	Articles   []PubmedArticle      `json:"articles"`
}

// CollectionProvenance records how a collection file was produced. The
// endpoint fields are populated by whichever collector wrote the file.
type CollectionProvenance struct {
	Source       string `json:"source,omitempty"`
	APIURL       string `json:"api_url,omitempty"`
	EsearchURL   string `json:"esearch_url,omitempty"`
	EfetchURL    string `json:"efetch_url,omitempty"`
	Query        string `json:"query,omitempty"`
	Fields       string `json:"fields,omitempty"`
	RequestedMax int    `json:"requested_max,omitempty"`
	FetchedCount int    `json:"fetched_count"`
	GeneratedAt  string `json:"generated_at,omitempty"`
}

// EvidenceEntry is the normalized unit of evidence: one trial or article
// with heuristically extracted fields plus the original record for audit.
// Source and ID together identify provenance when ID is present; an absent
// ID means the source data was incomplete and is tolerated.
type EvidenceEntry struct {
	Source          string `json:"source"`
	ID              string `json:"id,omitempty"`
	Title           string `json:"title,omitempty"`
	Intervention    string `json:"intervention,omitempty"`
	Condition       string `json:"condition,omitempty"`
	Status          string `json:"status,omitempty"`
	StudyType       string `json:"study_type,omitempty"`
	Phase           string `json:"phase,omitempty"`
	SampleSize      int    `json:"sample_size,omitempty"`
	StartDate       string `json:"start_date,omitempty"`
	CompletionDate  string `json:"completion_date,omitempty"`
	LocationCountry string `json:"location_country,omitempty"`
	DOI             string `json:"doi,omitempty"`
	OutcomeSnippet  string `json:"outcome_snippet,omitempty"`
	Raw             any    `json:"raw,omitempty"`
}

// InterventionCount is one tallied intervention phrase. It serializes as a
// two-element [phrase, count] array for compatibility with the structured
// evidence file format.
type InterventionCount struct {
	Name  string
	Count int
}

// MarshalJSON encodes the pair as ["phrase", count].
func (c InterventionCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Name, c.Count})
}

// UnmarshalJSON decodes ["phrase", count].
func (c *InterventionCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("parsing intervention count: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("intervention count: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.Name); err != nil {
		return fmt.Errorf("parsing intervention name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &c.Count); err != nil {
		return fmt.Errorf("parsing intervention occurrence count: %w", err)
	}
	return nil
}

// EvidenceProvenance records how a structured evidence file was produced.
type EvidenceProvenance struct {
	GeneratedAt      string `json:"generated_at"`
	TrialsInputCount int    `json:"trials_input_count"`
	PubmedInputCount int    `json:"pubmed_input_count"`
}

// StructuredEvidence is the merged, extracted evidence collection plus
// summary statistics, persisted as JSON.
type StructuredEvidence struct {
	Provenance       EvidenceProvenance  `json:"provenance"`
	TopInterventions []InterventionCount `json:"top_interventions"`
	Evidence         []EvidenceEntry     `json:"evidence"`
}
