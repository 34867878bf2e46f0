// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// nowUTC returns the current UTC time. Tests override this for
// deterministic provenance timestamps.
var nowUTC = func() time.Time { return time.Now().UTC() }

// LoadTrialsFile reads a collected trials JSON file. A missing file is not
// an error: it yields an empty study list, matching a collection run that
// found nothing.
func LoadTrialsFile(path string) (types.TrialsFile, error) {
	var tf types.TrialsFile
	if path == "" {
		return tf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tf, nil
		}
		return tf, fmt.Errorf("reading trials file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &tf); err != nil {
		return tf, fmt.Errorf("parsing trials file %s: %w", path, err)
	}
	return tf, nil
}

// LoadPubmedFile reads a collected PubMed JSON file. A missing file yields
// an empty article list.
func LoadPubmedFile(path string) (types.PubmedFile, error) {
	var pf types.PubmedFile
	if path == "" {
		return pf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return pf, nil
		}
		return pf, fmt.Errorf("reading pubmed file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &pf); err != nil {
		return pf, fmt.Errorf("parsing pubmed file %s: %w", path, err)
	}
	return pf, nil
}

// BuildStructuredEvidence extracts, merges, and tallies evidence from the
// collected inputs. Empty inputs produce empty (not null) evidence and
// tally lists.
func BuildStructuredEvidence(trials []types.TrialRecord, articles []types.PubmedArticle, topN int, w io.Writer) types.StructuredEvidence {
	if topN <= 0 {
		topN = 50
	}

	evidence, _ := Merge(trials, articles, w)

	top := TopInterventions(evidence, topN)
	if top == nil {
		top = []types.InterventionCount{}
	}

	return types.StructuredEvidence{
		Provenance: types.EvidenceProvenance{
			GeneratedAt:      nowUTC().Format(time.RFC3339),
			TrialsInputCount: len(trials),
			PubmedInputCount: len(articles),
		},
		TopInterventions: top,
		Evidence:         evidence,
	}
}

// WriteStructuredEvidence writes the structured evidence JSON, creating
// parent directories as needed.
func WriteStructuredEvidence(path string, se types.StructuredEvidence) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(se, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling structured evidence: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
