// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tableio

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/arxiv-table/pkg/types"
)

// FormatSummary writes a human-readable overview of t to w: one line per
// row with title, first author, year, and whether a PDF link or local path
// is present.
func FormatSummary(w io.Writer, t types.Table) {
	if t.Len() == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %s\n", "Row", "Title", "Authors", "Year", "PDF")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, r := range t.Records {
		title := strings.Join(strings.Fields(r.Title), " ")
		year := r.Published
		if len(year) > 4 {
			year = year[:4]
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %s\n",
			i, truncate(title, 60), formatAuthors(r.Authors), year, pdfStatus(r))
	}

	fmt.Fprintf(w, "\n%d rows\n", t.Len())
}

func pdfStatus(r types.Record) string {
	switch {
	case r.Has(types.ColPathToPDF):
		return r.PathToPDF
	case r.Has(types.ColPDFLink):
		return "link"
	default:
		return "-"
	}
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

// truncate shortens s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max-3 {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
