// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"strings"
)

// Field names are the bare XML tag names of an arXiv Atom entry.
const (
	FieldID              = "id"
	FieldUpdated         = "updated"
	FieldPublished       = "published"
	FieldTitle           = "title"
	FieldSummary         = "summary"
	FieldAuthor          = "author"
	FieldLink            = "link"
	FieldCategory        = "category"
	FieldComment         = "comment"
	FieldJournalRef      = "journal_ref"
	FieldDOI             = "doi"
	FieldPrimaryCategory = "primary_category"
)

// DefaultFields is the field selection used when none is requested.
var DefaultFields = []string{
	FieldID, FieldUpdated, FieldPublished, FieldTitle,
	FieldSummary, FieldAuthor, FieldLink, FieldCategory,
}

// FieldSet selects which entry elements are flattened into a Record.
type FieldSet map[string]bool

// NewFieldSet returns a set of the given names. Names are trimmed; empty
// names are ignored. Unrecognized names are kept but never match an element
// rule, so they are dropped silently during flattening.
func NewFieldSet(names ...string) FieldSet {
	fs := make(FieldSet, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			fs[n] = true
		}
	}
	return fs
}

// DefaultFieldSet returns a fresh set holding DefaultFields.
func DefaultFieldSet() FieldSet {
	return NewFieldSet(DefaultFields...)
}

// Contains reports whether name is selected.
func (fs FieldSet) Contains(name string) bool {
	return fs[name]
}

// Names returns the selected names sorted.
func (fs FieldSet) Names() []string {
	names := make([]string, 0, len(fs))
	for n := range fs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
