package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-table/internal/store"
	"github.com/pdiddy/arxiv-table/internal/tableio"
	"github.com/pdiddy/arxiv-table/pkg/types"
)

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "write the table to a .yaml, .json, or .csv file")
	cmd.Flags().String("db", "", "SQLite database for table snapshots")
	cmd.Flags().String("snapshot", "", "snapshot name in --db")
}

// emitTable writes t to --out (or a summary on stdout) and saves it to the
// store when one is configured.
func emitTable(cmd *cobra.Command, t types.Table, defaultSnapshot string) error {
	out, _ := cmd.Flags().GetString("out")
	if out != "" {
		if err := tableio.WriteFile(out, t); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", t.Len(), out)
	} else {
		tableio.FormatSummary(cmd.OutOrStdout(), t)
	}

	if appConfig.Store.Path == "" {
		return nil
	}
	name := snapshotName(cmd, defaultSnapshot)
	if name == "" {
		return fmt.Errorf("--snapshot is required to save to %s", appConfig.Store.Path)
	}
	s, err := store.Open(appConfig.Store)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Save(cmd.Context(), name, t); err != nil {
		return fmt.Errorf("saving snapshot %q: %w", name, err)
	}
	logger.Info("saved snapshot", zap.String("db", appConfig.Store.Path), zap.String("snapshot", name), zap.Int("rows", t.Len()))
	return nil
}

func snapshotName(cmd *cobra.Command, fallback string) string {
	if name, _ := cmd.Flags().GetString("snapshot"); name != "" {
		return name
	}
	return fallback
}
