// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes the full run journal to w as a YAML list, newest first.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	runs, err := s.ListRuns(ctx, "", 0)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(runs)
}

// FormatTable writes runs as an aligned text table to w.
func FormatTable(runs []Run, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tRECORDS\tOUTPUT\tCREATED\tQUERY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.Kind, r.RecordCount, r.OutputPath, r.CreatedAt, r.Query)
	}
	return tw.Flush()
}
