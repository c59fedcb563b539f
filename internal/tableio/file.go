// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tableio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/arxiv-table/pkg/types"
)

// Format names a table file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported table file %q: use .yaml, .json, or .csv", path)
	}
}

// Write encodes t to w in the given format.
func Write(w io.Writer, format Format, t types.Table) error {
	switch format {
	case FormatYAML:
		return WriteYAML(w, t)
	case FormatJSON:
		return WriteJSON(w, t)
	case FormatCSV:
		return WriteCSV(w, t)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// WriteFile writes t to path in the format implied by its extension.
func WriteFile(path string, t types.Table) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, format, t); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ReadFile loads a table from a YAML file.
func ReadFile(path string) (types.Table, error) {
	format, err := FormatFor(path)
	if err != nil {
		return types.Table{}, err
	}
	if format != FormatYAML {
		return types.Table{}, fmt.Errorf("reading %s: only YAML tables can be read back", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return types.Table{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadYAML(f)
	if err != nil {
		return types.Table{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}
