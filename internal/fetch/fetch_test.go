// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-table/pkg/types"
)

func TestPages(t *testing.T) {
	tests := []struct {
		name  string
		first int
		total int
		size  int
		want  []Page
	}{
		{"three pages", 0, 2500, 1000, []Page{{0, 1000}, {1000, 1000}, {2000, 500}}},
		{"offset", 5, 2500, 1000, []Page{{5, 1000}, {1005, 1000}, {2005, 500}}},
		{"exact multiple", 0, 2000, 1000, []Page{{0, 1000}, {1000, 1000}}},
		{"single small page", 10, 7, 1000, []Page{{10, 7}}},
		{"zero total", 0, 0, 1000, nil},
		{"negative total", 0, -3, 1000, nil},
		{"default size", 0, 1500, 0, []Page{{0, 1000}, {1000, 500}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pages(tt.first, tt.total, tt.size)
			assert.Equal(t, tt.want, got)

			sum := 0
			for _, p := range got {
				sum += p.Count
			}
			if tt.total > 0 {
				assert.Equal(t, tt.total, sum)
			}
		})
	}
}

func TestSearchTerms(t *testing.T) {
	assert.Equal(t, "quantum+computing", searchTerms("  quantum   computing "))
	assert.Equal(t, "a%26b", searchTerms("a&b"))
	assert.Equal(t, "", searchTerms("   "))
}

// feedServer serves synthetic feeds. Entry i of the result ordering has
// title "paper-i"; at most available entries exist.
type feedServer struct {
	mu        sync.Mutex
	requests  []Page
	rawQuery  []string
	userAgent string
	available int
	failStart int // start offset that returns failWith; -1 disables
	failWith  func(w http.ResponseWriter)
}

func newFeedServer(t *testing.T, available int) (*feedServer, *httptest.Server) {
	t.Helper()
	fs := &feedServer{available: available, failStart: -1}
	ts := httptest.NewServer(fs)
	t.Cleanup(ts.Close)
	return fs, ts
}

func (fs *feedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, _ := strconv.Atoi(q.Get("start"))
	count, _ := strconv.Atoi(q.Get("max_results"))

	fs.mu.Lock()
	fs.requests = append(fs.requests, Page{Start: start, Count: count})
	fs.rawQuery = append(fs.rawQuery, r.URL.RawQuery)
	fs.userAgent = r.Header.Get("User-Agent")
	fail := fs.failWith != nil && start == fs.failStart
	fs.mu.Unlock()

	if fail {
		fs.failWith(w)
		return
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title type="html">ArXiv Query</title>
`)
	for i := start; i < start+count && i < fs.available; i++ {
		fmt.Fprintf(&b, `  <entry>
    <id>http://arxiv.org/abs/%[1]d</id>
    <published>2020-05-01T00:00:00Z</published>
    <title>paper-%[1]d</title>
    <author><name>Author %[1]d</name></author>
    <link title="pdf" href="http://arxiv.org/pdf/%[1]d"/>
  </entry>
`, i)
	}
	b.WriteString("</feed>\n")
	w.Header().Set("Content-Type", "application/atom+xml")
	fmt.Fprint(w, b.String())
}

func testFetcher(ts *httptest.Server, pageSize int) *Fetcher {
	return &Fetcher{
		Client:    ts.Client(),
		BaseURL:   ts.URL + "/api/query",
		PageSize:  pageSize,
		UserAgent: "arxiv-table-test/0.1",
	}
}

func TestFetch_Paginates(t *testing.T) {
	srv, ts := newFeedServer(t, 100)
	f := testFetcher(ts, 2)

	table, err := f.Fetch(context.Background(), Query{Text: "quantum computing", MaxResults: 5, CleanAbstract: true})
	require.NoError(t, err)

	assert.Equal(t, []Page{{0, 2}, {2, 2}, {4, 1}}, srv.requests)
	require.Equal(t, 5, table.Len())
	for i, r := range table.Records {
		assert.Equal(t, fmt.Sprintf("paper-%d", i), r.Title, "row order follows request order")
		assert.Equal(t, fmt.Sprintf("http://export.arxiv.org/pdf/%d", i), r.PDFLink)
	}
	assert.Equal(t, []types.Column{
		types.ColID, types.ColPublished, types.ColTitle, types.ColAuthors, types.ColPDFLink,
	}, table.Columns)
	assert.Equal(t, "arxiv-table-test/0.1", srv.userAgent)
}

func TestFetch_QueryParameters(t *testing.T) {
	srv, ts := newFeedServer(t, 10)
	f := testFetcher(ts, 1000)

	_, err := f.Fetch(context.Background(), Query{Text: "quantum computing", MaxResults: 3, FirstResult: 4})
	require.NoError(t, err)

	require.Len(t, srv.rawQuery, 1)
	assert.Equal(t,
		"search_query=all:quantum+computing&start=4&max_results=3&sortBy=lastUpdatedDate&sortOrder=descending",
		srv.rawQuery[0])
}

func TestFetch_FirstResultOffset(t *testing.T) {
	_, ts := newFeedServer(t, 100)
	f := testFetcher(ts, 3)

	table, err := f.Fetch(context.Background(), Query{Text: "x", MaxResults: 4, FirstResult: 10})
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())
	assert.Equal(t, "paper-10", table.Records[0].Title)
	assert.Equal(t, "paper-13", table.Records[3].Title)
}

func TestFetch_FewerResultsThanRequested(t *testing.T) {
	_, ts := newFeedServer(t, 3)
	f := testFetcher(ts, 2)

	table, err := f.Fetch(context.Background(), Query{Text: "x", MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestFetch_NonPositiveMaxResults(t *testing.T) {
	srv, ts := newFeedServer(t, 10)
	f := testFetcher(ts, 2)

	for _, n := range []int{0, -1} {
		table, err := f.Fetch(context.Background(), Query{Text: "x", MaxResults: n})
		require.NoError(t, err)
		assert.Equal(t, 0, table.Len())
	}
	assert.Empty(t, srv.requests)
}

func TestFetch_InvalidQuery(t *testing.T) {
	srv, ts := newFeedServer(t, 10)
	f := testFetcher(ts, 2)

	_, err := f.Fetch(context.Background(), Query{Text: "x", MaxResults: 3, FirstResult: -1})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = f.Fetch(context.Background(), Query{Text: "  ", MaxResults: 3})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	assert.Empty(t, srv.requests)
}

func TestFetch_ParseErrorMidSequence(t *testing.T) {
	srv, ts := newFeedServer(t, 100)
	srv.failStart = 2
	srv.failWith = func(w http.ResponseWriter) {
		fmt.Fprint(w, `<feed xmlns="http://www.w3.org/2005/Atom"><entry><title>broken`)
	}
	f := testFetcher(ts, 2)

	table, err := f.Fetch(context.Background(), Query{Text: "x", MaxResults: 6})
	require.Error(t, err)
	assert.Equal(t, 0, table.Len(), "no partial table")
	assert.ErrorIs(t, err, ErrParse)

	var pe *PageError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, Page{Start: 2, Count: 2}, pe.Page)
	assert.Len(t, srv.requests, 2, "no request after the failing page and no retry")
}

func TestFetch_HTTPErrorIsTransport(t *testing.T) {
	srv, ts := newFeedServer(t, 100)
	srv.failStart = 0
	srv.failWith = func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	f := testFetcher(ts, 2)

	_, err := f.Fetch(context.Background(), Query{Text: "x", MaxResults: 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrParse)
	assert.Len(t, srv.requests, 1)
}

func TestFetch_DroppedConnectionNotRetried(t *testing.T) {
	srv, ts := newFeedServer(t, 100)
	srv.failStart = 2
	srv.failWith = func(w http.ResponseWriter) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}
	f := testFetcher(ts, 2)

	table, err := f.Fetch(context.Background(), Query{Text: "x", MaxResults: 6})
	require.Error(t, err)
	assert.Equal(t, 0, table.Len())
	assert.ErrorIs(t, err, ErrTransport)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, []Page{{0, 2}, {2, 2}}, srv.requests, "failed page requested once")
}

func TestFetch_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	f := testFetcher(ts, 2)
	ts.Close()

	_, err := f.Fetch(context.Background(), Query{Text: "x", MaxResults: 1})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestFetch_TruncatesOversizedPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<feed xmlns="http://www.w3.org/2005/Atom">
			<entry><title>a</title></entry>
			<entry><title>b</title></entry>
			<entry><title>c</title></entry>
		</feed>`)
	}))
	defer ts.Close()
	f := testFetcher(ts, 1000)

	table, err := f.Fetch(context.Background(), Query{Text: "x", MaxResults: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestQueryFromConfig(t *testing.T) {
	cfg := types.FetchConfig{
		MaxResults:    50,
		FirstResult:   3,
		Fields:        []string{"title", "author"},
		CleanAbstract: true,
	}
	q := QueryFromConfig("graph neural networks", cfg)
	assert.Equal(t, "graph neural networks", q.Text)
	assert.Equal(t, 50, q.MaxResults)
	assert.Equal(t, 3, q.FirstResult)
	assert.True(t, q.CleanAbstract)
	assert.Equal(t, []string{"author", "title"}, q.Fields.Names())

	assert.Nil(t, QueryFromConfig("x", types.FetchConfig{}).Fields)
}
