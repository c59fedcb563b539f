// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tableio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pdiddy/arxiv-table/pkg/types"
)

// orderedRow marshals a record's present columns in table column order.
type orderedRow struct {
	record  types.Record
	columns []types.Column
}

func (o orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, c := range o.columns {
		v, ok := o.record.Value(c)
		if !ok {
			continue
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(string(c))
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteJSON writes t as an indented JSON array of objects.
func WriteJSON(w io.Writer, t types.Table) error {
	rows := make([]orderedRow, len(t.Records))
	for i, r := range t.Records {
		rows[i] = orderedRow{record: r, columns: t.Columns}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
