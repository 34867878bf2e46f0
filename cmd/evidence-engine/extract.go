// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/archive"
	"github.com/pdiddy/evidence-engine/internal/extract"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured evidence from collected study files",
	Long: `Extract reads collected trials and PubMed JSON files, reduces each
record to a normalized evidence entry with heuristic field extraction,
and writes a structured evidence file with an intervention tally and
provenance. A missing input file contributes zero records; it is not an
error.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := types.DefaultExtractionConfig()
	if trialsPath, _ := cmd.Flags().GetString("trials"); trialsPath != "" {
		cfg.TrialsPath = trialsPath
	}
	if pubmedPath, _ := cmd.Flags().GetString("pubmed"); pubmedPath != "" {
		cfg.PubmedPath = pubmedPath
	}
	if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
		cfg.OutPath = outPath
	}
	if topN, _ := cmd.Flags().GetInt("top"); topN > 0 {
		cfg.TopN = topN
	}

	trialsFile, err := extract.LoadTrialsFile(cfg.TrialsPath)
	if err != nil {
		return err
	}
	pubmedFile, err := extract.LoadPubmedFile(cfg.PubmedPath)
	if err != nil {
		return err
	}

	se := extract.BuildStructuredEvidence(trialsFile.Studies, pubmedFile.Articles, cfg.TopN, os.Stdout)
	if err := extract.WriteStructuredEvidence(cfg.OutPath, se); err != nil {
		return err
	}
	fmt.Printf("Wrote %d evidence entries to %s\n", len(se.Evidence), cfg.OutPath)

	return recordRun(cmd, archive.Run{
		Kind:        archive.KindExtract,
		RecordCount: len(se.Evidence),
		OutputPath:  cfg.OutPath,
	})
}

func init() {
	extractCmd.Flags().String("trials", "", "collected trials JSON input (default outputs/trials.json)")
	extractCmd.Flags().String("pubmed", "", "collected PubMed JSON input (default outputs/pubmed.json)")
	extractCmd.Flags().StringP("out", "o", "", "structured evidence output path (default outputs/structured_evidence.json)")
	extractCmd.Flags().Int("top", 0, "intervention phrases kept in the summary (default 50)")
	extractCmd.Flags().Bool("archive", false, "journal this run in the archive database")
	extractCmd.Flags().String("archive-dir", "archive", "directory holding the archive database")

	rootCmd.AddCommand(extractCmd)
}
