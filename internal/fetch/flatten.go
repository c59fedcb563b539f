// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"encoding/xml"
	"strings"

	"github.com/pdiddy/arxiv-table/pkg/types"
)

const (
	atomNS  = "http://www.w3.org/2005/Atom"
	arxivNS = "http://arxiv.org/schemas/atom"
)

// atomFeed captures the root's direct Atom entries. Entries are decoded as
// generic nodes so their children can be walked in document order.
type atomFeed struct {
	XMLName xml.Name
	Entries []node `xml:"http://www.w3.org/2005/Atom entry"`
}

type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// merge names how an element's value is folded into a Record.
type merge int

const (
	overwriteText     merge = iota // store the text, last element wins
	overwriteTerm                  // store the term attribute, last element wins
	appendNameText                 // append the first child's text
	appendTerm                     // append the term attribute
	exportPDFLink                  // keep title="pdf" links, rewritten to the export host
	abstractText                   // like overwriteText, optionally cleaned
)

type rule struct {
	column types.Column
	merge  merge
}

// rules maps a bare element name to its column and merge strategy.
var rules = map[string]rule{
	types.FieldID:              {types.ColID, overwriteText},
	types.FieldUpdated:         {types.ColUpdated, overwriteText},
	types.FieldPublished:       {types.ColPublished, overwriteText},
	types.FieldTitle:           {types.ColTitle, overwriteText},
	types.FieldSummary:         {types.ColSummary, abstractText},
	types.FieldAuthor:          {types.ColAuthors, appendNameText},
	types.FieldCategory:        {types.ColCategory, appendTerm},
	types.FieldLink:            {types.ColPDFLink, exportPDFLink},
	types.FieldComment:         {types.ColComment, overwriteText},
	types.FieldJournalRef:      {types.ColJournalRef, overwriteText},
	types.FieldDOI:             {types.ColDOI, overwriteText},
	types.FieldPrimaryCategory: {types.ColPrimaryCategory, overwriteTerm},
}

// flattenEntry folds the selected children of one entry into a Record.
func flattenEntry(entry node, fields types.FieldSet, clean bool) types.Record {
	var rec types.Record
	for _, el := range entry.Children {
		if el.XMLName.Space != atomNS && el.XMLName.Space != arxivNS {
			continue
		}
		tag := el.XMLName.Local
		if !fields.Contains(tag) {
			continue
		}
		r, ok := rules[tag]
		if !ok {
			continue
		}
		r.apply(&rec, el, clean)
	}
	return rec
}

func (r rule) apply(rec *types.Record, el node, clean bool) {
	switch r.merge {
	case overwriteText:
		rec.Set(r.column, el.Text)
	case overwriteTerm:
		if term, ok := el.attr("term"); ok {
			rec.Set(r.column, term)
		}
	case appendNameText:
		if len(el.Children) > 0 {
			rec.Append(r.column, el.Children[0].Text)
		}
	case appendTerm:
		if term, ok := el.attr("term"); ok {
			rec.Append(r.column, term)
		}
	case exportPDFLink:
		if title, ok := el.attr("title"); ok && title == "pdf" {
			href, _ := el.attr("href")
			rec.Set(r.column, exportLink(href))
		}
	case abstractText:
		text := el.Text
		if clean {
			text = cleanAbstract(text)
		}
		rec.Set(r.column, text)
	}
}

// cleanAbstract lower-cases s, turns each newline into a space, and drops
// exactly two leading characters when they are both spaces.
func cleanAbstract(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "\n", " ")
	return strings.TrimPrefix(s, "  ")
}

// exportLink inserts "export." right after the scheme separator, so
// "http://arxiv.org/pdf/1234" becomes "http://export.arxiv.org/pdf/1234".
// An href without "://" is returned unchanged.
func exportLink(href string) string {
	i := strings.Index(href, "://")
	if i < 0 {
		return href
	}
	i += len("://")
	return href[:i] + "export." + href[i:]
}
