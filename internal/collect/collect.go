// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect fetches bibliographic and clinical-trial metadata from
// public registries. It collects publicly available metadata only and makes
// no clinical judgments; everything it writes requires human verification
// before use in any decision-making context.
//
// Implements: prd009-evidence-collection (R1-R3)
package collect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// nowUTC returns the current UTC time. Declared as a var so tests can pin
// the provenance timestamp.
var nowUTC = func() time.Time { return time.Now().UTC() }

// WriteTrialsFile persists a collected trials file as indented JSON,
// creating parent directories as needed.
func WriteTrialsFile(path string, f types.TrialsFile) error {
	return writeJSON(path, f)
}

// WritePubmedFile persists a collected PubMed file as indented JSON,
// creating parent directories as needed.
func WritePubmedFile(path string, f types.PubmedFile) error {
	return writeJSON(path, f)
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
