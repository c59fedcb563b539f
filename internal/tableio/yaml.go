// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tableio reads and writes types.Table values as YAML, JSON, and
// CSV files, and renders them as a human-readable summary.
package tableio

import (
	"errors"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-table/pkg/types"
)

// WriteYAML writes t as a sequence of mappings. Each mapping lists the
// record's present columns in table column order; absent values are omitted.
func WriteYAML(w io.Writer, t types.Table) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for i, r := range t.Records {
		row, err := recordNode(r, t.Columns)
		if err != nil {
			return fmt.Errorf("encoding row %d: %w", i, err)
		}
		doc.Content = append(doc.Content, row)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

func recordNode(r types.Record, cols []types.Column) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, c := range cols {
		v, ok := r.Value(c)
		if !ok {
			continue
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(c)}
		val := &yaml.Node{}
		if err := val.Encode(v); err != nil {
			return nil, err
		}
		m.Content = append(m.Content, key, val)
	}
	return m, nil
}

// ReadYAML parses a table written by WriteYAML. Unknown column names are
// an error; null values are treated as absent.
func ReadYAML(r io.Reader) (types.Table, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return types.Table{}, nil
		}
		return types.Table{}, fmt.Errorf("parsing YAML: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode {
		return types.Table{}, fmt.Errorf("parsing YAML: expected a sequence of rows at line %d", root.Line)
	}

	records := make([]types.Record, 0, len(root.Content))
	for i, item := range root.Content {
		rec, err := decodeRecord(item)
		if err != nil {
			return types.Table{}, fmt.Errorf("row %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return types.NewTable(records), nil
}

func decodeRecord(n *yaml.Node) (types.Record, error) {
	var rec types.Record
	if n.Kind != yaml.MappingNode {
		return rec, fmt.Errorf("expected a mapping at line %d", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		c := types.Column(key.Value)
		if !c.Known() {
			return rec, fmt.Errorf("unknown column %q at line %d", key.Value, key.Line)
		}
		if val.Tag == "!!null" {
			continue
		}
		if c.IsList() {
			var vs []string
			if err := val.Decode(&vs); err != nil {
				return rec, fmt.Errorf("column %s: %w", c, err)
			}
			rec.SetList(c, vs)
			continue
		}
		var s string
		if err := val.Decode(&s); err != nil {
			return rec, fmt.Errorf("column %s: %w", c, err)
		}
		rec.Set(c, s)
	}
	return rec, nil
}
