// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/archive"
	"github.com/pdiddy/evidence-engine/internal/collect"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect study metadata from public registries",
	Long: `Collect fetches publicly available study metadata and writes it as JSON
with provenance. Use the trials subcommand for ClinicalTrials.gov and the
pubmed subcommand for NCBI PubMed.`,
}

// --- trials subcommand ---

var collectTrialsCmd = &cobra.Command{
	Use:   "trials",
	Short: "Fetch ClinicalTrials.gov study fields",
	Long: `Trials queries the ClinicalTrials.gov Study Fields API for studies
matching a search expression and writes the raw field records plus
provenance to a JSON file.`,
	RunE: runCollectTrials,
}

func runCollectTrials(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		return fmt.Errorf("search expression required: use --query")
	}
	outPath, _ := cmd.Flags().GetString("out")

	cfg := types.DefaultTrialsConfig()
	if maxResults, _ := cmd.Flags().GetInt("max"); maxResults > 0 {
		cfg.MaxResults = maxResults
	}
	if batch, _ := cmd.Flags().GetInt("batch"); batch > 0 {
		cfg.BatchSize = batch
	}

	client := collect.NewTrialsClient(cfg)
	f, err := client.Fetch(context.Background(), query, os.Stdout)
	if err != nil {
		return err
	}
	if err := collect.WriteTrialsFile(outPath, f); err != nil {
		return err
	}
	fmt.Printf("Wrote %d studies to %s\n", len(f.Studies), outPath)

	return recordRun(cmd, archive.Run{
		Kind:        archive.KindCollectTrials,
		Query:       query,
		RecordCount: len(f.Studies),
		OutputPath:  outPath,
	})
}

// --- pubmed subcommand ---

var collectPubmedCmd = &cobra.Command{
	Use:   "pubmed",
	Short: "Fetch PubMed article metadata and abstracts",
	Long: `Pubmed searches NCBI E-utilities (esearch + efetch) for articles
matching a search term and writes parsed metadata plus provenance to a
JSON file. With --csl it additionally exports a CSL-YAML bibliography
for reference managers.`,
	RunE: runCollectPubmed,
}

func runCollectPubmed(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		return fmt.Errorf("search term required: use --query")
	}
	outPath, _ := cmd.Flags().GetString("out")

	cfg := types.DefaultPubmedConfig()
	if maxResults, _ := cmd.Flags().GetInt("max"); maxResults > 0 {
		cfg.MaxResults = maxResults
	}
	if batch, _ := cmd.Flags().GetInt("batch"); batch > 0 {
		cfg.BatchSize = batch
	}
	email, _ := cmd.Flags().GetString("email")
	cfg.Email = secretDefault("ncbi-email", email)

	client := collect.NewPubmedClient(cfg)
	f, err := client.Fetch(context.Background(), query, os.Stdout)
	if err != nil {
		return err
	}
	if err := collect.WritePubmedFile(outPath, f); err != nil {
		return err
	}
	fmt.Printf("Wrote %d PubMed articles to %s\n", len(f.Articles), outPath)

	if cslPath, _ := cmd.Flags().GetString("csl"); cslPath != "" {
		out, err := os.Create(cslPath)
		if err != nil {
			return fmt.Errorf("creating CSL file: %w", err)
		}
		defer out.Close()
		if err := collect.FormatCSL(f.Articles, out); err != nil {
			return fmt.Errorf("writing CSL export: %w", err)
		}
		fmt.Printf("Wrote CSL bibliography to %s\n", cslPath)
	}

	return recordRun(cmd, archive.Run{
		Kind:        archive.KindCollectPubmed,
		Query:       query,
		RecordCount: len(f.Articles),
		OutputPath:  outPath,
	})
}

// --- shared helpers ---

// recordRun journals the invocation when --archive is set. Archiving is
// best-effort: the output file is already on disk by the time this runs, so
// journal failures warn on stderr without failing the command.
func recordRun(cmd *cobra.Command, r archive.Run) error {
	enabled, _ := cmd.Flags().GetBool("archive")
	if !enabled {
		return nil
	}
	dir, _ := cmd.Flags().GetString("archive-dir")

	store, err := archive.NewStore(types.ArchiveConfig{Dir: dir, Enabled: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open run archive: %v\n", err)
		return nil
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := store.RecordRun(ctx, r); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not archive %s run: %v\n", r.Kind, err)
		return nil
	}
	fmt.Printf("Archived %s run\n", r.Kind)
	return nil
}

func init() {
	collectTrialsCmd.Flags().StringP("query", "q", "", `search expression (e.g. "aging OR longevity")`)
	collectTrialsCmd.Flags().IntP("max", "m", 0, "maximum number of studies to fetch (default 200)")
	collectTrialsCmd.Flags().Int("batch", 0, "studies per API call (max 100)")
	collectTrialsCmd.Flags().StringP("out", "o", "outputs/trials.json", "output JSON path")

	collectPubmedCmd.Flags().StringP("query", "q", "", `search term (e.g. "aging interventions")`)
	collectPubmedCmd.Flags().IntP("max", "m", 0, "maximum number of articles to fetch (default 200)")
	collectPubmedCmd.Flags().Int("batch", 0, "esearch/efetch page size (max 100)")
	collectPubmedCmd.Flags().StringP("out", "o", "outputs/pubmed.json", "output JSON path")
	collectPubmedCmd.Flags().String("email", "", "contact email sent with requests (NCBI recommendation)")
	collectPubmedCmd.Flags().String("csl", "", "also export a CSL-YAML bibliography to this path")

	// Archive flags shared by both collectors.
	collectCmd.PersistentFlags().Bool("archive", false, "journal this run in the archive database")
	collectCmd.PersistentFlags().String("archive-dir", "archive", "directory holding the archive database")

	collectCmd.AddCommand(collectTrialsCmd)
	collectCmd.AddCommand(collectPubmedCmd)

	rootCmd.AddCommand(collectCmd)
}
