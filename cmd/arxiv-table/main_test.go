// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-table/internal/store"
	"github.com/pdiddy/arxiv-table/internal/tableio"
	"github.com/pdiddy/arxiv-table/pkg/types"
)

const cliFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.00001v1</id>
    <published>2023-01-02T00:00:00Z</published>
    <title>First Paper</title>
    <author><name>Alice Smith</name></author>
    <link title="pdf" href="http://arxiv.org/pdf/2301.00001v1" rel="related"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2212.00002v1</id>
    <published>2022-12-30T00:00:00Z</published>
    <title>Second Paper</title>
    <author><name>Bob Jones</name></author>
    <author><name>Carol White</name></author>
    <link title="pdf" href="http://arxiv.org/pdf/2212.00002v1" rel="related"/>
  </entry>
</feed>`

// arxivStub answers both the query endpoint and PDF downloads. Every host
// the CLI dials is routed to it.
func arxivStub(t *testing.T, pdfStatus int) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cliFeed)
	})
	mux.HandleFunc("/pdf/", func(w http.ResponseWriter, r *http.Request) {
		if pdfStatus != http.StatusOK {
			w.WriteHeader(pdfStatus)
			return
		}
		fmt.Fprintf(w, "%%PDF-1.4 %s", r.URL.Path)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	orig := newHTTPClient
	newHTTPClient = func(timeout time.Duration) *http.Client {
		return &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, network, srv.Listener.Addr().String())
				},
			},
		}
	}
	t.Cleanup(func() { newHTTPClient = orig })
}

// resetFlags restores every flag to its default so values set by one
// execution do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "arxiv-table dev")
}

func TestFetchWritesTable(t *testing.T) {
	arxivStub(t, http.StatusOK)
	dir := t.TempDir()
	outPath := filepath.Join(dir, "results.yaml")

	_, err := execute(t, "fetch",
		"--base-url", "http://arxiv.test/api/query",
		"--max-results", "2",
		"--log-level", "error",
		"--out", outPath,
		"neural", "nets")
	require.NoError(t, err)

	table, err := tableio.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "First Paper", table.Records[0].Title)
	assert.Equal(t, "http://export.arxiv.org/pdf/2301.00001v1", table.Records[0].PDFLink)
	assert.Equal(t, []string{"Bob Jones", "Carol White"}, table.Records[1].Authors)
	assert.False(t, table.HasColumn(types.ColPathToPDF))
}

func TestRunDownloadsAndSaves(t *testing.T) {
	arxivStub(t, http.StatusOK)
	dir := t.TempDir()
	dest := filepath.Join(dir, "papers") + string(os.PathSeparator)
	require.NoError(t, os.Mkdir(dest, 0o755))
	dbPath := filepath.Join(dir, "tables.db")

	out, err := execute(t, "run",
		"--base-url", "http://arxiv.test/api/query",
		"--max-results", "2",
		"--max-pdfs", "1",
		"--dest", dest,
		"--db", dbPath,
		"--snapshot", "nets",
		"--log-level", "error",
		"neural", "nets")
	require.NoError(t, err)
	assert.Contains(t, out, "1/1 papers downloaded at "+dest+". No errors.")

	want := dest + "[Alice Smith](2023)First Paper.pdf"
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))

	s, err := store.Open(types.StoreConfig{Path: dbPath})
	require.NoError(t, err)
	defer s.Close()
	table, err := s.Load(context.Background(), "nets")
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, want, table.Records[0].PathToPDF)
	assert.False(t, table.Records[1].Has(types.ColPathToPDF))
}

func TestDownloadRequiresInput(t *testing.T) {
	_, err := execute(t, "download", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--table")
}

func TestDownloadMissingDestination(t *testing.T) {
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "t.yaml")
	var r types.Record
	r.Set(types.ColTitle, "x")
	require.NoError(t, tableio.WriteFile(tablePath, types.NewTable([]types.Record{r})))

	_, err := execute(t, "download",
		"--table", tablePath,
		"--dest", filepath.Join(dir, "missing")+"/",
		"--log-level", "error")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunWritesTableWhenAllDownloadsFail(t *testing.T) {
	arxivStub(t, http.StatusNotFound)
	dir := t.TempDir()
	dest := filepath.Join(dir, "papers") + string(os.PathSeparator)
	require.NoError(t, os.Mkdir(dest, 0o755))
	outPath := filepath.Join(dir, "results.yaml")

	_, err := execute(t, "run",
		"--base-url", "http://arxiv.test/api/query",
		"--max-results", "2",
		"--dest", dest,
		"--out", outPath,
		"--log-level", "error",
		"neural", "nets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 download(s) failed")

	table, err := tableio.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "First Paper", table.Records[0].Title)
	assert.False(t, table.Records[0].Has(types.ColPathToPDF))
}

func TestFlagsDoNotLeakBetweenRuns(t *testing.T) {
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "t.yaml")
	require.NoError(t, tableio.WriteFile(tablePath, types.Table{}))

	_, err := execute(t, "download", "--table", tablePath, "--dest", dir+"/", "--log-level", "error")
	require.NoError(t, err)

	_, err = execute(t, "download", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--table")
}
