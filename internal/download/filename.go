// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"errors"
	"fmt"

	"github.com/pdiddy/arxiv-table/pkg/types"
)

const (
	yearLen  = 4
	titleLen = 60
)

// ErrNoAuthors is returned by Filename for a record without authors.
var ErrNoAuthors = errors.New("record has no authors")

// AuthorLabel formats the author list for a filename: one author verbatim,
// two as "a, b", three or more as "a, et. al".
func AuthorLabel(authors []string) (string, error) {
	switch len(authors) {
	case 0:
		return "", ErrNoAuthors
	case 1:
		return authors[0], nil
	case 2:
		return authors[0] + ", " + authors[1], nil
	default:
		return authors[0] + ", et. al", nil
	}
}

// Filename derives "[authors](year)title.pdf" from a record, where year is
// the first four characters of Published and title the first sixty
// characters of Title.
func Filename(r types.Record) (string, error) {
	label, err := AuthorLabel(r.Authors)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("[%s](%s)%s.pdf", label, prefix(r.Published, yearLen), prefix(r.Title, titleLen)), nil
}

// prefix returns the first n characters (runes) of s.
func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
