// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures for arxiv-table: the
// Record and Table produced by the fetch stage and extended by the download
// stage, plus the stage configuration structs.
package types

import "strings"

// Column names a field of a Record as it appears in a Table.
type Column string

const (
	ColID              Column = "id"
	ColUpdated         Column = "updated"
	ColPublished       Column = "published"
	ColTitle           Column = "title"
	ColSummary         Column = "summary"
	ColAuthors         Column = "authors"
	ColCategory        Column = "category"
	ColPDFLink         Column = "pdf_link"
	ColComment         Column = "comment"
	ColJournalRef      Column = "journal_ref"
	ColDOI             Column = "doi"
	ColPrimaryCategory Column = "primary_category"
	ColPathToPDF       Column = "path_to_pdf"
)

// AllColumns lists every known column in canonical order, which follows
// the element order of an arXiv Atom entry.
var AllColumns = []Column{
	ColID, ColUpdated, ColPublished, ColTitle, ColSummary, ColAuthors,
	ColDOI, ColPDFLink, ColComment, ColJournalRef, ColPrimaryCategory,
	ColCategory, ColPathToPDF,
}

// IsList reports whether the column holds an ordered list of strings.
func (c Column) IsList() bool {
	return c == ColAuthors || c == ColCategory
}

// Known reports whether c is one of AllColumns.
func (c Column) Known() bool {
	for _, k := range AllColumns {
		if k == c {
			return true
		}
	}
	return false
}

// Record holds the metadata of one paper. Only columns that were requested
// and found in the source entry are present; see Has.
type Record struct {
	ID              string
	Updated         string
	Published       string
	Title           string
	Summary         string
	Authors         []string
	Categories      []string
	PDFLink         string
	Comment         string
	JournalRef      string
	DOI             string
	PrimaryCategory string
	PathToPDF       string

	present map[Column]bool
}

// Has reports whether the column is present in the record.
func (r Record) Has(c Column) bool {
	return r.present[c]
}

// Columns returns the present columns in canonical order.
func (r Record) Columns() []Column {
	var cols []Column
	for _, c := range AllColumns {
		if r.present[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// Set stores a scalar value, overwriting any previous value. Setting a list
// column replaces the list with a single element.
func (r *Record) Set(c Column, v string) {
	if p := r.scalar(c); p != nil {
		*p = v
	} else if l := r.list(c); l != nil {
		*l = []string{v}
	} else {
		return
	}
	r.mark(c)
}

// Append adds v to a list column. For scalar columns it behaves like Set.
func (r *Record) Append(c Column, v string) {
	l := r.list(c)
	if l == nil {
		r.Set(c, v)
		return
	}
	*l = append(*l, v)
	r.mark(c)
}

// SetList replaces a list column.
func (r *Record) SetList(c Column, vs []string) {
	l := r.list(c)
	if l == nil {
		return
	}
	*l = append([]string(nil), vs...)
	r.mark(c)
}

// Unset removes the column from the record.
func (r *Record) Unset(c Column) {
	if p := r.scalar(c); p != nil {
		*p = ""
	} else if l := r.list(c); l != nil {
		*l = nil
	}
	delete(r.present, c)
}

// Value returns the column value: a string for scalar columns, a []string
// for list columns. ok is false when the column is absent.
func (r Record) Value(c Column) (v any, ok bool) {
	if !r.present[c] {
		return nil, false
	}
	if c.IsList() {
		return append([]string(nil), *r.list(c)...), true
	}
	return *r.scalar(c), true
}

// String returns the column value as a string. List columns are joined
// with sep. Absent columns yield "".
func (r Record) String(c Column, sep string) string {
	if !r.present[c] {
		return ""
	}
	if c.IsList() {
		return strings.Join(*r.list(c), sep)
	}
	return *r.scalar(c)
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Authors = append([]string(nil), r.Authors...)
	out.Categories = append([]string(nil), r.Categories...)
	if r.present != nil {
		out.present = make(map[Column]bool, len(r.present))
		for c, ok := range r.present {
			out.present[c] = ok
		}
	}
	return out
}

func (r *Record) mark(c Column) {
	if r.present == nil {
		r.present = make(map[Column]bool)
	}
	r.present[c] = true
}

func (r *Record) scalar(c Column) *string {
	switch c {
	case ColID:
		return &r.ID
	case ColUpdated:
		return &r.Updated
	case ColPublished:
		return &r.Published
	case ColTitle:
		return &r.Title
	case ColSummary:
		return &r.Summary
	case ColPDFLink:
		return &r.PDFLink
	case ColComment:
		return &r.Comment
	case ColJournalRef:
		return &r.JournalRef
	case ColDOI:
		return &r.DOI
	case ColPrimaryCategory:
		return &r.PrimaryCategory
	case ColPathToPDF:
		return &r.PathToPDF
	}
	return nil
}

func (r *Record) list(c Column) *[]string {
	switch c {
	case ColAuthors:
		return &r.Authors
	case ColCategory:
		return &r.Categories
	}
	return nil
}
