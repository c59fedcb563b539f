// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tableio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pdiddy/arxiv-table/pkg/types"
)

// ListSeparator joins list values (authors, categories) in a CSV cell.
const ListSeparator = "; "

// WriteCSV writes t with a header row of column names. Absent values are
// empty cells.
func WriteCSV(w io.Writer, t types.Table) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = string(c)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for i, r := range t.Records {
		cells := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			cells[j] = r.String(c, ListSeparator)
		}
		if err := cw.Write(cells); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
