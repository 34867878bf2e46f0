// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders structured evidence into a Markdown report.
// Implements: prd011-report-generation (R1-R6).
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Schema identifies which producer an evidence entry came from. Entries are
// classified once at load time; all field access goes through schema-aware
// accessors rather than per-field key guessing.
type Schema string

const (
	SchemaTrials  Schema = "trials"
	SchemaPubmed  Schema = "pubmed"
	SchemaGeneric Schema = "generic"
	SchemaUnknown Schema = "unknown"
)

// Entry is one evidence item as read from a structured evidence file. The
// report builder accepts files written by other tooling, so fields are kept
// as decoded JSON and accessed through the schema variant.
type Entry struct {
	Schema Schema
	Fields map[string]any
}

// genericKeys are keys that mark an otherwise unclassified object as an
// evidence-like entry.
var genericKeys = []string{
	"title", "BriefTitle", "brief_title", "name",
	"intervention", "outcome_snippet", "abstract", "summary",
	"nct_id", "pmid", "source_url", "provenance",
}

// NewEntry classifies a decoded object into a schema variant.
func NewEntry(fields map[string]any) Entry {
	return Entry{Schema: classify(fields), Fields: fields}
}

func classify(fields map[string]any) Schema {
	switch fields["source"] {
	case "clinicaltrials.gov":
		return SchemaTrials
	case "pubmed":
		return SchemaPubmed
	}
	for _, k := range genericKeys {
		if _, ok := fields[k]; ok {
			return SchemaGeneric
		}
	}
	return SchemaUnknown
}

// LoadEvidenceFile reads and decodes a structured evidence JSON file. A
// missing or unreadable file is an error: the report run must stop before
// any output is written.
func LoadEvidenceFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading evidence file %s: %w", path, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing evidence file %s: %w", path, err)
	}
	return Entries(doc), nil
}

// entryListKeys are the wrapper keys accepted for the entry list, checked
// in order.
var entryListKeys = []string{"entries", "evidence", "items", "results"}

// Entries extracts the entry list from a decoded evidence document. It
// accepts a wrapper object keyed by entries/evidence/items/results, a bare
// list, or (as a fallback) the first object value that is a list of
// objects, checked in sorted key order for determinism.
func Entries(doc any) []Entry {
	switch v := doc.(type) {
	case map[string]any:
		for _, key := range entryListKeys {
			if list, ok := v[key].([]any); ok {
				return toEntries(list)
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			list, ok := v[k].([]any)
			if ok && allObjects(list) {
				return toEntries(list)
			}
		}
		return nil
	case []any:
		return toEntries(v)
	default:
		return nil
	}
}

func allObjects(list []any) bool {
	if len(list) == 0 {
		return false
	}
	for _, item := range list {
		if _, ok := item.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func toEntries(list []any) []Entry {
	entries := make([]Entry, 0, len(list))
	for _, item := range list {
		if fields, ok := item.(map[string]any); ok {
			entries = append(entries, NewEntry(fields))
		}
	}
	return entries
}

// titleKeys per schema variant. Normalized producers write "title"; generic
// files may still carry raw registry field names.
var titleKeysBySchema = map[Schema][]string{
	SchemaTrials:  {"title", "BriefTitle", "brief_title"},
	SchemaPubmed:  {"title"},
	SchemaGeneric: {"title", "BriefTitle", "brief_title", "name"},
	SchemaUnknown: {"title", "BriefTitle", "brief_title", "name"},
}

// Title returns the entry's display title, or "" when none is present.
func (e Entry) Title() string {
	for _, key := range titleKeysBySchema[e.Schema] {
		if s := e.str(key); s != "" {
			return s
		}
	}
	return ""
}

// provenanceKeys is the resolution order for the appendix grouping key.
var provenanceKeys = []string{"source", "provenance", "source_url", "nct_id", "pmid"}

// ProvenanceKey returns the entry's provenance grouping key, or "" when no
// provenance-like field is present.
func (e Entry) ProvenanceKey() string {
	for _, key := range provenanceKeys {
		v, ok := e.Fields[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val
			}
		case []any:
			if len(val) > 0 {
				if s, ok := val[0].(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// snippetKeys is the resolution order for the sample snippet text.
var snippetKeys = []string{"outcome_snippet", "abstract", "summary"}

// Snippet returns the entry's free-text excerpt, or "".
func (e Entry) Snippet() string {
	for _, key := range snippetKeys {
		if s := e.str(key); s != "" {
			return s
		}
	}
	return ""
}

// structuredInterventionKeys lists the field names checked for explicit
// intervention values in generic entries.
var structuredInterventionKeys = []string{
	"intervention", "interventions", "intervention_name",
	"interventionNames", "intervention_names",
	"treatment", "treatments", "name", "names",
}

// freeTextKeys lists the fields scanned for keyword-bearing segments.
var freeTextKeys = []string{"summary", "outcome_snippet", "abstract", "description", "title"}

// tallyKeywords marks a free-text segment as intervention-like.
var tallyKeywords = []string{
	"metformin", "rapamycin", "senolytic", "diet", "exercise",
	"supplement", "resveratrol", "nicotinamide", "sirtuin",
	"caloric", "fasting",
}

// maxCandidatesPerEntry caps the phrases one entry can contribute.
const maxCandidatesPerEntry = 5

// InterventionCandidates derives candidate intervention phrases for the
// tally: explicit intervention fields first, then semicolon-delimited
// free-text segments containing a keyword token. Candidates are deduped
// case-sensitively per entry and capped at maxCandidatesPerEntry.
func (e Entry) InterventionCandidates() []string {
	var candidates []string

	structuredKeys := structuredInterventionKeys
	if e.Schema == SchemaTrials || e.Schema == SchemaPubmed {
		// Normalized entries carry a single canonical field.
		structuredKeys = []string{"intervention"}
	}

	for _, key := range structuredKeys {
		v, ok := e.Fields[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				candidates = append(candidates, s)
			}
		case []any:
			for _, item := range val {
				if s, ok := item.(string); ok {
					if s = strings.TrimSpace(s); s != "" {
						candidates = append(candidates, s)
					}
				}
			}
		}
	}

	for _, key := range freeTextKeys {
		text := e.str(key)
		if text == "" {
			continue
		}
		for _, part := range strings.Split(text, ";") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			lowered := strings.ToLower(p)
			for _, tok := range tallyKeywords {
				if strings.Contains(lowered, tok) {
					candidates = append(candidates, p)
					break
				}
			}
		}
	}

	seen := make(map[string]bool)
	var unique []string
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		unique = append(unique, c)
		if len(unique) >= maxCandidatesPerEntry {
			break
		}
	}
	return unique
}

// str returns a string field value, or "" when absent or not a string.
func (e Entry) str(key string) string {
	s, _ := e.Fields[key].(string)
	return s
}
