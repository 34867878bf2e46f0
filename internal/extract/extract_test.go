// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func TestFromTrial(t *testing.T) {
	tests := []struct {
		name    string
		trial   types.TrialRecord
		want    types.EvidenceEntry
		wantErr bool
	}{
		{
			name: "full record with first-value reduction",
			trial: types.TrialRecord{
				"NCTId":            {"NCT01234567"},
				"BriefTitle":       {"Metformin in Healthy Aging"},
				"OfficialTitle":    {"A Trial of Metformin"},
				"Condition":        {"Aging", "Frailty"},
				"InterventionName": {"Metformin", "Placebo"},
				"OverallStatus":    {"Recruiting"},
				"StudyType":        {"Interventional"},
				"Phase":            {"Phase 2"},
				"EnrollmentCount":  {"3000"},
				"StartDate":        {"January 2025"},
				"CompletionDate":   {"December 2029"},
				"LocationCountry":  {"United States", "Canada"},
			},
			want: types.EvidenceEntry{
				Source:          types.SourceClinicalTrials,
				ID:              "NCT01234567",
				Title:           "Metformin in Healthy Aging",
				Intervention:    "Metformin",
				Condition:       "Aging; Frailty",
				Status:          "Recruiting",
				StudyType:       "Interventional",
				Phase:           "Phase 2",
				SampleSize:      3000,
				StartDate:       "January 2025",
				CompletionDate:  "December 2029",
				LocationCountry: "United States",
			},
		},
		{
			name: "official title fallback",
			trial: types.TrialRecord{
				"NCTId":         {"NCT00000001"},
				"OfficialTitle": {"Official Only"},
			},
			want: types.EvidenceEntry{
				Source: types.SourceClinicalTrials,
				ID:     "NCT00000001",
				Title:  "Official Only",
			},
		},
		{
			name: "title sample size used when enrollment missing",
			trial: types.TrialRecord{
				"NCTId":      {"NCT00000002"},
				"BriefTitle": {"Resistance Exercise in 47 participants with Sarcopenia"},
			},
			want: types.EvidenceEntry{
				Source:     types.SourceClinicalTrials,
				ID:         "NCT00000002",
				Title:      "Resistance Exercise in 47 participants with Sarcopenia",
				SampleSize: 47,
			},
		},
		{
			name: "enrollment count wins over title phrase",
			trial: types.TrialRecord{
				"NCTId":           {"NCT00000003"},
				"BriefTitle":      {"A Study of 47 participants"},
				"EnrollmentCount": {"200"},
			},
			want: types.EvidenceEntry{
				Source:     types.SourceClinicalTrials,
				ID:         "NCT00000003",
				Title:      "A Study of 47 participants",
				SampleSize: 200,
			},
		},
		{
			name: "unparseable enrollment falls back to title",
			trial: types.TrialRecord{
				"NCTId":           {"NCT00000004"},
				"BriefTitle":      {"Fasting in 12 subjects"},
				"EnrollmentCount": {"unknown"},
			},
			want: types.EvidenceEntry{
				Source:     types.SourceClinicalTrials,
				ID:         "NCT00000004",
				Title:      "Fasting in 12 subjects",
				SampleSize: 12,
			},
		},
		{
			name: "outcome label keeps title as snippet",
			trial: types.TrialRecord{
				"NCTId":      {"NCT00000005"},
				"BriefTitle": {"Primary outcome: grip strength at 12 weeks"},
			},
			want: types.EvidenceEntry{
				Source:         types.SourceClinicalTrials,
				ID:             "NCT00000005",
				Title:          "Primary outcome: grip strength at 12 weeks",
				OutcomeSnippet: "Primary outcome: grip strength at 12 weeks",
			},
		},
		{
			name:    "empty record is an error",
			trial:   types.TrialRecord{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromTrial(tt.trial)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got.Raw = nil
			if got != tt.want {
				t.Errorf("FromTrial() = %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestFromArticle(t *testing.T) {
	article := types.PubmedArticle{
		PMID:     "38000001",
		Title:    "Metformin and Caloric Restriction in Aging",
		Abstract: "A randomized trial of 120 participants receiving metformin. Senescence markers declined.",
		DOI:      "10.1000/test.1",
	}

	got, err := FromArticle(article)
	if err != nil {
		t.Fatal(err)
	}

	if got.Source != types.SourcePubmed {
		t.Errorf("Source = %q", got.Source)
	}
	if got.ID != "38000001" {
		t.Errorf("ID = %q", got.ID)
	}
	if got.SampleSize != 120 {
		t.Errorf("SampleSize = %d, want 120", got.SampleSize)
	}
	// Keyword matches reported in vocabulary order, not text order.
	if got.Intervention != "metformin, caloric, senescence" {
		t.Errorf("Intervention = %q", got.Intervention)
	}
	if got.DOI != "10.1000/test.1" {
		t.Errorf("DOI = %q", got.DOI)
	}
	if got.OutcomeSnippet != article.Abstract {
		t.Errorf("OutcomeSnippet = %q", got.OutcomeSnippet)
	}
}

func TestFromArticleKeywordScanIsCaseInsensitive(t *testing.T) {
	got, err := FromArticle(types.PubmedArticle{
		PMID:  "38000002",
		Title: "NAD Precursors and EXERCISE",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Intervention != "exercise, NAD" {
		t.Errorf("Intervention = %q, want %q", got.Intervention, "exercise, NAD")
	}
}

func TestFromArticleSnippetTruncation(t *testing.T) {
	long := strings.Repeat("a", 600)
	got, err := FromArticle(types.PubmedArticle{PMID: "38000003", Title: "T", Abstract: long})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.OutcomeSnippet) != 500 {
		t.Errorf("snippet length = %d, want 500", len(got.OutcomeSnippet))
	}
}

func TestFromArticleSnippetTruncationMultiByte(t *testing.T) {
	// Dose units like "µg" are common in abstracts; the limit counts
	// characters, so a rune straddling byte 500 must not be split.
	long := strings.Repeat("a", 499) + strings.Repeat("µ", 10)
	got, err := FromArticle(types.PubmedArticle{PMID: "38000004", Title: "T", Abstract: long})
	if err != nil {
		t.Fatal(err)
	}
	if !utf8.ValidString(got.OutcomeSnippet) {
		t.Fatal("snippet is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(got.OutcomeSnippet); n != 500 {
		t.Errorf("snippet rune count = %d, want 500", n)
	}
	if !strings.HasSuffix(got.OutcomeSnippet, "µ") {
		t.Error("snippet should end on a whole rune")
	}
}

func TestMergeOrderAndNoDedup(t *testing.T) {
	trials := []types.TrialRecord{
		{"NCTId": {"NCT1"}, "BriefTitle": {"Metformin Trial"}},
		{"NCTId": {"NCT2"}, "BriefTitle": {"Exercise Trial"}},
	}
	// Same study reported in a paper: both entries survive.
	articles := []types.PubmedArticle{
		{PMID: "P1", Title: "Metformin Trial"},
	}

	var buf bytes.Buffer
	evidence, summary := Merge(trials, articles, &buf)

	if summary.Trials != 2 || summary.Articles != 1 || summary.Skipped != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Total() != 3 {
		t.Errorf("Total() = %d", summary.Total())
	}
	wantIDs := []string{"NCT1", "NCT2", "P1"}
	for i, want := range wantIDs {
		if evidence[i].ID != want {
			t.Errorf("evidence[%d].ID = %q, want %q", i, evidence[i].ID, want)
		}
	}
}

func TestMergeSkipsBadRecordsAndContinues(t *testing.T) {
	trials := []types.TrialRecord{
		{},
		{"NCTId": {"NCT1"}, "BriefTitle": {"Good Trial"}},
	}

	var buf bytes.Buffer
	evidence, summary := Merge(trials, nil, &buf)

	if summary.Trials != 1 || summary.Skipped != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(evidence) != 1 || evidence[0].ID != "NCT1" {
		t.Fatalf("evidence = %+v", evidence)
	}
	if !strings.Contains(buf.String(), "warning: skipping trial record 0") {
		t.Errorf("warning not reported: %q", buf.String())
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	var buf bytes.Buffer
	evidence, summary := Merge(nil, nil, &buf)
	if len(evidence) != 0 {
		t.Errorf("evidence = %+v, want empty", evidence)
	}
	if summary.Total() != 0 {
		t.Errorf("Total() = %d", summary.Total())
	}
}

func TestTopInterventions(t *testing.T) {
	entries := []types.EvidenceEntry{
		{Intervention: "Metformin, Exercise"},
		{Intervention: "metformin"},
		{Intervention: "exercise, metformin"},
		{Intervention: "Rapamycin"},
		{Intervention: ""},
	}

	got := TopInterventions(entries, 2)

	want := []types.InterventionCount{
		{Name: "metformin", Count: 3},
		{Name: "exercise", Count: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d phrases, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTopInterventionsTieOrder(t *testing.T) {
	entries := []types.EvidenceEntry{
		{Intervention: "zinc"},
		{Intervention: "aspirin"},
		{Intervention: "zinc, aspirin"},
	}

	got := TopInterventions(entries, 0)
	// Equal counts keep first-encountered order.
	if got[0].Name != "zinc" || got[1].Name != "aspirin" {
		t.Errorf("tie order = [%s, %s], want [zinc, aspirin]", got[0].Name, got[1].Name)
	}
}

func TestFindSampleSize(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"a study of 120 participants", 120},
		{"enrolled 45 patients with diabetes", 45},
		{"12 healthy volunteers completed", 12},
		{"300 Subjects were randomized", 300},
		{"no counts here", 0},
		{"999999 participants", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := findSampleSize(tt.text); got != tt.want {
			t.Errorf("findSampleSize(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
