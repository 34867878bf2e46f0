// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns raw trial and article records into normalized
// evidence entries using field mapping and regex heuristics.
// Implements: prd010-evidence-extraction (R1-R4).
//
// Outputs are informational only and must not be interpreted as clinical
// advice; human curation is required before any downstream use.
package extract

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// sampleSizeRE matches participant-count phrases such as "120 participants".
var sampleSizeRE = regexp.MustCompile(`(?i)\b(\d{1,5})\b\s+(?:participants|subjects|people|patients|volunteers)`)

// outcomeLabelRE matches explicit outcome/endpoint labels in titles.
var outcomeLabelRE = regexp.MustCompile(`(?i)(primary outcomes?:|primary endpoints?:|secondary outcomes?:|secondary endpoints?:|outcome measures?:)`)

// interventionKeywords is the fixed vocabulary scanned for in article text.
var interventionKeywords = []string{
	"supplement", "drug", "senolytic", "metformin", "rapamycin",
	"diet", "exercise", "caloric", "fasting", "resveratrol",
	"nicotinamide", "NAD", "senescence",
}

// FromTrial normalizes one ClinicalTrials.gov study record. Every
// fixed-vocabulary field is reduced to its first value except Condition,
// which is joined across all values with "; " (R1.2).
func FromTrial(trial types.TrialRecord) (types.EvidenceEntry, error) {
	if len(trial) == 0 {
		return types.EvidenceEntry{}, fmt.Errorf("empty trial record")
	}

	title := trial.First("BriefTitle")
	if title == "" {
		title = trial.First("OfficialTitle")
	}

	entry := types.EvidenceEntry{
		Source:          types.SourceClinicalTrials,
		ID:              trial.First("NCTId"),
		Title:           title,
		Intervention:    trial.First("InterventionName"),
		Condition:       strings.Join(trial.All("Condition"), "; "),
		Status:          trial.First("OverallStatus"),
		StudyType:       trial.First("StudyType"),
		Phase:           trial.First("Phase"),
		StartDate:       trial.First("StartDate"),
		CompletionDate:  trial.First("CompletionDate"),
		LocationCountry: trial.First("LocationCountry"),
		Raw:             trial,
	}

	// Sample size: a parseable EnrollmentCount wins over any
	// participant-count phrase in the title (R1.3).
	if n, err := strconv.Atoi(strings.TrimSpace(trial.First("EnrollmentCount"))); err == nil && n > 0 {
		entry.SampleSize = n
	} else if n := findSampleSize(title); n > 0 {
		entry.SampleSize = n
	}

	// The Study Fields API does not return outcome text; keep the whole
	// title when it carries an explicit outcome label (R1.4).
	if outcomeLabelRE.MatchString(title) {
		entry.OutcomeSnippet = title
	}

	return entry, nil
}

// FromArticle normalizes one PubMed article record (R2).
func FromArticle(article types.PubmedArticle) (types.EvidenceEntry, error) {
	entry := types.EvidenceEntry{
		Source: types.SourcePubmed,
		ID:     article.PMID,
		Title:  article.Title,
		DOI:    article.DOI,
		Raw:    article,
	}

	entry.SampleSize = findSampleSize(article.Abstract)

	// Keyword scan over title and abstract, case-insensitive; matches are
	// reported comma-joined in vocabulary order (R2.2).
	text := strings.ToLower(article.Title + "\n" + article.Abstract)
	var found []string
	for _, kw := range interventionKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	entry.Intervention = strings.Join(found, ", ")

	if article.Abstract != "" {
		entry.OutcomeSnippet = truncate(article.Abstract, 500)
	}

	return entry, nil
}

// MergeSummary holds counts from a merge run.
type MergeSummary struct {
	Trials   int
	Articles int
	Skipped  int
}

// Total returns the number of entries produced.
func (s MergeSummary) Total() int {
	return s.Trials + s.Articles
}

// Merge extracts and concatenates evidence: all trial entries first, then
// all article entries, each list in its original order. Records from both
// sources are never deduplicated against each other; the same study
// appearing in the registry and in a paper yields two entries (R3.2, a
// documented limitation). A failure on one record is reported to w and the
// batch continues (R3.1).
func Merge(trials []types.TrialRecord, articles []types.PubmedArticle, w io.Writer) ([]types.EvidenceEntry, MergeSummary) {
	evidence := make([]types.EvidenceEntry, 0, len(trials)+len(articles))
	var summary MergeSummary

	for i, t := range trials {
		entry, err := FromTrial(t)
		if err != nil {
			fmt.Fprintf(w, "warning: skipping trial record %d: %v\n", i, err)
			summary.Skipped++
			continue
		}
		evidence = append(evidence, entry)
		summary.Trials++
	}

	for i, a := range articles {
		entry, err := FromArticle(a)
		if err != nil {
			fmt.Fprintf(w, "warning: skipping article record %d: %v\n", i, err)
			summary.Skipped++
			continue
		}
		evidence = append(evidence, entry)
		summary.Articles++
	}

	return evidence, summary
}

// TopInterventions tallies comma-separated intervention phrases across
// entries, case-insensitively, and returns the topN most frequent. Ties
// keep first-encountered order (R4).
func TopInterventions(entries []types.EvidenceEntry, topN int) []types.InterventionCount {
	counts := make(map[string]int)
	var order []string

	for _, e := range entries {
		for _, part := range strings.Split(e.Intervention, ",") {
			phrase := strings.ToLower(strings.TrimSpace(part))
			if phrase == "" {
				continue
			}
			if counts[phrase] == 0 {
				order = append(order, phrase)
			}
			counts[phrase]++
		}
	}

	return rankCounts(counts, order, topN)
}

// rankCounts orders tallied phrases by descending count, preserving
// first-encountered order among equal counts.
func rankCounts(counts map[string]int, order []string, topN int) []types.InterventionCount {
	ranked := make([]types.InterventionCount, 0, len(order))
	for _, phrase := range order {
		ranked = append(ranked, types.InterventionCount{Name: phrase, Count: counts[phrase]})
	}
	// Stable sort keeps first-encountered order among equal counts.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// findSampleSize returns the integer from the first participant-count
// phrase in text, or 0 when there is none.
func findSampleSize(text string) int {
	m := sampleSizeRE.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// truncate limits s to max characters, never splitting a multi-byte rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
