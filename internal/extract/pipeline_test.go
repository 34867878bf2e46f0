// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func TestLoadTrialsFileMissingIsEmpty(t *testing.T) {
	tf, err := LoadTrialsFile(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(tf.Studies) != 0 {
		t.Errorf("Studies = %+v, want empty", tf.Studies)
	}
}

func TestLoadTrialsFileTolerantRecordDecoding(t *testing.T) {
	// Rank is numeric and scalar fields appear as bare strings in some
	// dumps; both shapes must decode.
	raw := `{
		"provenance": {"source": "clinicaltrials.gov", "query": "aging"},
		"studies": [
			{"Rank": 1, "NCTId": ["NCT1"], "BriefTitle": "Bare String Title", "Condition": ["Aging", "Frailty"]}
		]
	}`
	path := filepath.Join(t.TempDir(), "trials.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	tf, err := LoadTrialsFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(tf.Studies) != 1 {
		t.Fatalf("Studies = %+v", tf.Studies)
	}
	s := tf.Studies[0]
	if s.First("BriefTitle") != "Bare String Title" {
		t.Errorf("BriefTitle = %q", s.First("BriefTitle"))
	}
	if len(s.All("Condition")) != 2 {
		t.Errorf("Condition = %+v", s.All("Condition"))
	}
	if _, ok := s["Rank"]; ok {
		t.Error("numeric Rank field should be dropped")
	}
	if tf.Provenance.Query != "aging" {
		t.Errorf("Provenance.Query = %q", tf.Provenance.Query)
	}
}

func TestLoadPubmedFileMissingIsEmpty(t *testing.T) {
	pf, err := LoadPubmedFile(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(pf.Articles) != 0 {
		t.Errorf("Articles = %+v, want empty", pf.Articles)
	}
}

func TestLoadFilesMalformedJSONIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTrialsFile(path); err == nil {
		t.Error("LoadTrialsFile: want error for malformed JSON")
	}
	if _, err := LoadPubmedFile(path); err == nil {
		t.Error("LoadPubmedFile: want error for malformed JSON")
	}
}

func TestBuildStructuredEvidence(t *testing.T) {
	oldNow := nowUTC
	nowUTC = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	defer func() { nowUTC = oldNow }()

	trials := []types.TrialRecord{
		{"NCTId": {"NCT1"}, "BriefTitle": {"T1"}, "InterventionName": {"Metformin"}},
	}
	articles := []types.PubmedArticle{
		{PMID: "P1", Title: "Metformin in aging"},
	}

	var buf bytes.Buffer
	se := BuildStructuredEvidence(trials, articles, 0, &buf)

	if se.Provenance.GeneratedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("GeneratedAt = %q", se.Provenance.GeneratedAt)
	}
	if se.Provenance.TrialsInputCount != 1 || se.Provenance.PubmedInputCount != 1 {
		t.Errorf("provenance counts = %+v", se.Provenance)
	}
	if len(se.Evidence) != 2 {
		t.Fatalf("Evidence = %+v", se.Evidence)
	}
	if len(se.TopInterventions) == 0 || se.TopInterventions[0].Name != "metformin" {
		t.Errorf("TopInterventions = %+v", se.TopInterventions)
	}
}

func TestBuildStructuredEvidenceEmptyInputsMarshalAsLists(t *testing.T) {
	var buf bytes.Buffer
	se := BuildStructuredEvidence(nil, nil, 0, &buf)

	data, err := json.Marshal(se)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc["evidence"].([]any); !ok {
		t.Errorf("evidence is %T, want JSON list", doc["evidence"])
	}
	if _, ok := doc["top_interventions"].([]any); !ok {
		t.Errorf("top_interventions is %T, want JSON list", doc["top_interventions"])
	}
}

func TestWriteStructuredEvidenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "structured_evidence.json")

	se := types.StructuredEvidence{
		Provenance:       types.EvidenceProvenance{GeneratedAt: "2026-03-01T12:00:00Z", TrialsInputCount: 1},
		TopInterventions: []types.InterventionCount{{Name: "metformin", Count: 2}},
		Evidence: []types.EvidenceEntry{
			{Source: types.SourceClinicalTrials, ID: "NCT1", Title: "T1"},
		},
	}
	if err := WriteStructuredEvidence(path, se); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// The tally serializes as [phrase, count] pairs.
	var doc struct {
		TopInterventions [][]any `json:"top_interventions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.TopInterventions) != 1 || doc.TopInterventions[0][0] != "metformin" {
		t.Errorf("top_interventions = %+v", doc.TopInterventions)
	}

	var got types.StructuredEvidence
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.TopInterventions[0] != (types.InterventionCount{Name: "metformin", Count: 2}) {
		t.Errorf("round-tripped tally = %+v", got.TopInterventions)
	}
	if got.Evidence[0].ID != "NCT1" {
		t.Errorf("round-tripped evidence = %+v", got.Evidence)
	}
}
