// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunExtractUsesConfigDefaults(t *testing.T) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Fatal(err)
		}
	})

	// No input files and no flags: missing inputs contribute zero records
	// and the output lands at the documented default path.
	if err := runExtract(extractCmd, nil); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join("outputs", "structured_evidence.json"))
	if err != nil {
		t.Fatalf("output not written to the default path: %v", err)
	}
	if len(data) == 0 {
		t.Error("structured evidence file is empty")
	}
}
