package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-table/internal/download"
	"github.com/pdiddy/arxiv-table/internal/store"
	"github.com/pdiddy/arxiv-table/internal/tableio"
	"github.com/pdiddy/arxiv-table/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the PDFs of a saved table",
	Long: `Download reads a table from a YAML file (--table) or a snapshot in a SQLite
database (--db and --snapshot), downloads the PDF of each of the first
--max-pdfs rows into --dest as [author](year)title.pdf, and writes the table
with a path_to_pdf column added.

Rows whose download fails keep no path and are listed at the end. The
destination directory must already exist.`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("table", "", "YAML table file written by fetch")
	addDownloadFlags(downloadCmd)
	addOutputFlags(downloadCmd)
	rootCmd.AddCommand(downloadCmd)
}

func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().String("dest", "papers/", "existing destination directory (prefix of every PDF path)")
	cmd.Flags().Int("max-pdfs", 0, "download at most this many rows from the top (0 = all)")
	cmd.Flags().Int("workers", 1, "parallel downloads (1 = sequential)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	in, err := loadTable(cmd)
	if err != nil {
		return err
	}
	out, report, err := downloadTable(cmd, in)
	if err != nil {
		return err
	}
	if err := emitTable(cmd, out, ""); err != nil {
		return err
	}
	return allFailed(report)
}

func loadTable(cmd *cobra.Command) (types.Table, error) {
	if path, _ := cmd.Flags().GetString("table"); path != "" {
		return tableio.ReadFile(path)
	}
	if appConfig.Store.Path == "" {
		return types.Table{}, fmt.Errorf("provide --table or --db with --snapshot")
	}
	name := snapshotName(cmd, "")
	if name == "" {
		return types.Table{}, fmt.Errorf("--snapshot is required with --db")
	}
	s, err := store.Open(appConfig.Store)
	if err != nil {
		return types.Table{}, err
	}
	defer s.Close()
	return s.Load(cmd.Context(), name)
}

func downloadTable(cmd *cobra.Command, in types.Table) (types.Table, download.Report, error) {
	cfg := appConfig.Download
	d := download.New(newHTTPClient(cfg.Timeout), cfg, logger, cmd.ErrOrStderr())

	out, report, err := d.Download(cmd.Context(), in, download.OptionsFromConfig(cfg))
	if err != nil {
		return types.Table{}, download.Report{}, fmt.Errorf("download: %w", err)
	}
	if report.HasFailures() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d paper(s) failed: rows %v\n", len(report.Failed), report.Processed, report.Failed)
	}
	return out, report, nil
}

// allFailed turns a download where no processed row succeeded into a
// non-zero exit. The table is written before this is checked.
func allFailed(report download.Report) error {
	if report.Processed > 0 && len(report.Failed) == report.Processed {
		return fmt.Errorf("all %d download(s) failed", report.Processed)
	}
	return nil
}
