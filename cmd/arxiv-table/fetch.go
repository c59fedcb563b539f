package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-table/internal/fetch"
	"github.com/pdiddy/arxiv-table/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <query...>",
	Short: "Query arXiv and write the results as a table",
	Long: `Fetch searches arXiv for the query words, pages through the results in
lastUpdatedDate descending order, and flattens each entry into a table row.

Without --out a summary table is printed. With --db the table is also saved
as a snapshot named by --snapshot (default: the query text).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	addFetchFlags(fetchCmd)
	addOutputFlags(fetchCmd)
	rootCmd.AddCommand(fetchCmd)
}

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-results", 100, "maximum number of results to fetch")
	cmd.Flags().Int("first", 0, "zero-based offset of the first result")
	cmd.Flags().StringSlice("fields", nil, "entry fields to keep (default: id,updated,published,title,summary,author,link,category)")
	cmd.Flags().Bool("no-clean", false, "keep the abstract text as returned by the API")
	cmd.Flags().Int("page-size", fetch.DefaultPageSize, "results requested per API call")
	cmd.Flags().String("base-url", fetch.DefaultBaseURL, "arXiv API query endpoint")
}

func runFetch(cmd *cobra.Command, args []string) error {
	t, err := fetchTable(cmd, args)
	if err != nil {
		return err
	}
	return emitTable(cmd, t, strings.Join(args, " "))
}

func fetchTable(cmd *cobra.Command, args []string) (types.Table, error) {
	cfg := appConfig.Fetch
	f := fetch.New(newHTTPClient(cfg.Timeout), cfg, logger)
	q := fetch.QueryFromConfig(strings.Join(args, " "), cfg)

	logger.Info("fetching", zap.String("query", q.Text), zap.Int("max_results", q.MaxResults), zap.Int("first", q.FirstResult))
	t, err := f.Fetch(cmd.Context(), q)
	if err != nil {
		return types.Table{}, fmt.Errorf("fetch: %w", err)
	}
	logger.Info("fetched", zap.Int("rows", t.Len()))
	return t, nil
}
