package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <query...>",
	Short: "Fetch results and download their PDFs in one step",
	Long: `Run combines fetch and download: it queries arXiv, downloads the PDFs of
the first --max-pdfs rows into --dest, and writes the table with the
path_to_pdf column.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := fetchTable(cmd, args)
		if err != nil {
			return err
		}
		t, report, err := downloadTable(cmd, t)
		if err != nil {
			return err
		}
		if err := emitTable(cmd, t, strings.Join(args, " ")); err != nil {
			return err
		}
		return allFailed(report)
	},
}

func init() {
	addFetchFlags(runCmd)
	addDownloadFlags(runCmd)
	addOutputFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
