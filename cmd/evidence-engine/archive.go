// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/archive"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect the run journal (list, export)",
	Long: `Archive reads the optional run journal written by collect, extract,
and report when invoked with --archive. Use subcommands to list runs or
export the journal as YAML.`,
}

// --- list subcommand ---

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE:  runArchiveList,
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")

	runs, err := store.ListRuns(context.Background(), kind, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}
	return archive.FormatTable(runs, os.Stdout)
}

// --- export subcommand ---

var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run journal as YAML",
	RunE:  runArchiveExport,
}

func runArchiveExport(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		return store.ExportYAML(context.Background(), os.Stdout)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if err := store.ExportYAML(context.Background(), f); err != nil {
		return err
	}
	fmt.Printf("Exported run journal to %s\n", outPath)
	return nil
}

func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	dir, _ := cmd.Flags().GetString("archive-dir")
	return archive.NewStore(types.ArchiveConfig{Dir: dir})
}

func init() {
	archiveCmd.PersistentFlags().String("archive-dir", "archive", "directory holding the archive database")

	archiveListCmd.Flags().String("kind", "", "filter by run kind: collect-trials, collect-pubmed, extract, report")
	archiveListCmd.Flags().Int("limit", 0, "maximum runs to list (0 = all)")

	archiveExportCmd.Flags().StringP("out", "o", "", "output path (default: stdout)")

	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveExportCmd)

	rootCmd.AddCommand(archiveCmd)
}
