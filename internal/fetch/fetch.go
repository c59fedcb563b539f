// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch queries the arXiv search API and flattens the Atom feed
// into a types.Table. Large requests are split into bounded pages that are
// fetched sequentially by increasing offset.
package fetch

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-table/internal/httputil"
	"github.com/pdiddy/arxiv-table/pkg/types"
)

// DefaultBaseURL is the arXiv query endpoint.
const DefaultBaseURL = "https://export.arxiv.org/api/query"

// DefaultPageSize bounds the entries requested per API call. It is a policy
// limit on memory and request size, not an API constant.
const DefaultPageSize = 1000

var (
	// ErrTransport marks failures to obtain a page: connection errors,
	// non-200 responses, or truncated bodies.
	ErrTransport = errors.New("arXiv request failed")

	// ErrParse marks a page whose body is not a well-formed feed.
	ErrParse = errors.New("parsing arXiv response")

	// ErrInvalidQuery marks a query rejected before any request is made.
	ErrInvalidQuery = errors.New("invalid query")
)

// PageError reports which page of a fetch failed. It unwraps to both the
// error kind (ErrTransport or ErrParse) and the underlying cause.
type PageError struct {
	Page Page
	Kind error
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("results %d-%d: %v: %v", e.Page.Start, e.Page.Start+e.Page.Count, e.Kind, e.Err)
}

func (e *PageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Query holds the parameters of one fetch.
type Query struct {
	// Text is searched across all fields ("all:<text>").
	Text string

	// MaxResults is the total number of entries to request. Values <= 0
	// yield an empty table.
	MaxResults int

	// Fields selects the entry elements to keep. Nil means DefaultFieldSet.
	Fields types.FieldSet

	// CleanAbstract lower-cases the summary and folds its newlines.
	CleanAbstract bool

	// FirstResult skips this many most-recently-updated results.
	FirstResult int
}

// Page is one bounded API request covering results [Start, Start+Count).
type Page struct {
	Start int
	Count int
}

// Pages splits a request for total results beginning at first into pages
// of at most size entries. The counts always sum to total.
func Pages(first, total, size int) []Page {
	if total <= 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	end := first + total
	pages := make([]Page, 0, (total+size-1)/size)
	for start := first; start < end; start += size {
		pages = append(pages, Page{Start: start, Count: min(size, end-start)})
	}
	return pages
}

// Fetcher retrieves search results from the arXiv API.
type Fetcher struct {
	Client    *http.Client
	BaseURL   string
	PageSize  int
	UserAgent string
	Logger    *zap.Logger
}

// New builds a Fetcher from cfg. A nil logger discards log output.
func New(client *http.Client, cfg types.FetchConfig, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		Client:    client,
		BaseURL:   cfg.BaseURL,
		PageSize:  cfg.PageSize,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	}
}

// QueryFromConfig builds a Query for text using the fetch settings in cfg.
func QueryFromConfig(text string, cfg types.FetchConfig) Query {
	q := Query{
		Text:          text,
		MaxResults:    cfg.MaxResults,
		CleanAbstract: cfg.CleanAbstract,
		FirstResult:   cfg.FirstResult,
	}
	if len(cfg.Fields) > 0 {
		q.Fields = types.NewFieldSet(cfg.Fields...)
	}
	return q
}

// Fetch runs the query page by page and returns the concatenated table.
// Any page failure aborts the fetch; no partial table is returned.
func (f *Fetcher) Fetch(ctx context.Context, q Query) (types.Table, error) {
	if q.MaxResults <= 0 {
		return types.Table{}, nil
	}
	if q.FirstResult < 0 {
		return types.Table{}, fmt.Errorf("%w: negative first result %d", ErrInvalidQuery, q.FirstResult)
	}
	terms := searchTerms(q.Text)
	if terms == "" {
		return types.Table{}, fmt.Errorf("%w: empty search text", ErrInvalidQuery)
	}

	fields := q.Fields
	if len(fields) == 0 {
		fields = types.DefaultFieldSet()
	}

	var records []types.Record
	for _, p := range Pages(q.FirstResult, q.MaxResults, f.PageSize) {
		page, err := f.fetchPage(ctx, terms, p, fields, q.CleanAbstract)
		if err != nil {
			return types.Table{}, err
		}
		records = append(records, page...)
	}
	return types.NewTable(records), nil
}

func (f *Fetcher) fetchPage(ctx context.Context, terms string, p Page, fields types.FieldSet, clean bool) ([]types.Record, error) {
	started := time.Now()
	pageURL := f.pageURL(terms, p)

	resp, err := httputil.Get(ctx, f.Client, pageURL, f.UserAgent, "application/atom+xml")
	if err != nil {
		return nil, &PageError{Page: p, Kind: ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &PageError{Page: p, Kind: ErrTransport, Err: err}
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, &PageError{Page: p, Kind: ErrParse, Err: err}
	}

	entries := feed.Entries
	if len(entries) > p.Count {
		entries = entries[:p.Count]
	}
	records := make([]types.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, flattenEntry(e, fields, clean))
	}

	f.logger().Debug("fetched page",
		zap.Int("start", p.Start),
		zap.Int("count", p.Count),
		zap.Int("entries", len(records)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return records, nil
}

func (f *Fetcher) pageURL(terms string, p Page) string {
	base := f.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return fmt.Sprintf("%s?search_query=all:%s&start=%d&max_results=%d&sortBy=lastUpdatedDate&sortOrder=descending",
		base, terms, p.Start, p.Count)
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

// searchTerms escapes each whitespace-separated term and joins them with
// "+", the arXiv encoding of a space.
func searchTerms(text string) string {
	terms := strings.Fields(text)
	for i, t := range terms {
		terms[i] = url.QueryEscape(t)
	}
	return strings.Join(terms, "+")
}
