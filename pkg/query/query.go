// Package query assembles the query string of a catalogue search.
package query

import (
	"net/url"
	"strings"
)

// PageSize is the number of results requested per page
const PageSize = "1000"

const (
	defaultCategory = "keyword"
	defaultOperator = "AND"
)

// Categories are the accepted simple search categories
var Categories = []string{"keyword", "publication", "collection", "provenience", "period", "transliteration", "translation", "id"}

// Operators are the accepted simple search operators
var Operators = []string{"AND", "OR"}

// Options holds the parallel lists a search is built from. Values at the
// same index belong together.
type Options struct {
	FilterFields []string
	FilterValues []string

	Queries    []string
	Categories []string
	Operators  []string

	AdvancedFields []string
	AdvancedValues []string
}

type pair struct {
	key, value string
}

// Build returns the encoded query string for opts. Parameters always come
// out in the same order: limit, filters, simple search, advanced search.
func Build(opts Options) string {
	parts := []pair{{"limit", PageSize}}

	for i := range min(len(opts.FilterFields), len(opts.FilterValues)) {
		parts = append(parts, pair{"f[" + opts.FilterFields[i] + "][]", opts.FilterValues[i]})
	}

	for i, q := range opts.Queries {
		parts = append(parts,
			pair{"simple-field[]", at(opts.Categories, i, defaultCategory)},
			pair{"simple-value[]", q},
			pair{"simple-op[]", at(opts.Operators, i, defaultOperator)},
		)
	}

	for i := range min(len(opts.AdvancedFields), len(opts.AdvancedValues)) {
		parts = append(parts, pair{opts.AdvancedFields[i], opts.AdvancedValues[i]})
	}

	encoded := make([]string, len(parts))
	for i, p := range parts {
		encoded[i] = Escape(p.key) + "=" + Escape(p.value)
	}
	return strings.Join(encoded, "&")
}

// at returns list[i], or fallback when the list is too short or the entry empty
func at(list []string, i int, fallback string) string {
	if i < len(list) && list[i] != "" {
		return list[i]
	}
	return fallback
}

// keep lists the characters url.QueryEscape encodes but a URI component keeps
var keep = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// Escape percent-encodes s as a single URI component. Only letters, digits
// and -_.!~*'() are left as is.
func Escape(s string) string {
	return keep.Replace(url.QueryEscape(s))
}

// Valid reports whether value is one of choices
func Valid(value string, choices []string) bool {
	for _, c := range choices {
		if c == value {
			return true
		}
	}
	return false
}
