package catalogue

import (
	"slices"
	"strings"

	errs "cdli/pkg/errors"
)

// Format is an export format understood by the catalogue
type Format string

const (
	FormatNDJSON   Format = "ndjson"
	FormatCSV      Format = "csv"
	FormatTSV      Format = "tsv"
	FormatNTriples Format = "ntriples"
	FormatTurtle   Format = "ttl"
	FormatBibTeX   Format = "bibtex"
	FormatATF      Format = "atf"
)

var mimeTypes = map[Format]string{
	FormatNDJSON:   "application/x-ndjson",
	FormatCSV:      "text/csv",
	FormatTSV:      "text/tab-separated-values",
	FormatNTriples: "application/n-triples",
	FormatTurtle:   "text/turtle",
	FormatBibTeX:   "application/x-bibtex",
	FormatATF:      "text/x-c-atf",
}

// MIMEType returns the media type requested for format
func MIMEType(format string) (string, error) {
	mimeType, ok := mimeTypes[Format(format)]
	if !ok {
		return "", errs.UnsupportedFormat(format)
	}
	return mimeType, nil
}

// Formats lists every supported format name, sorted
func Formats() []string {
	names := make([]string, 0, len(mimeTypes))
	for f := range mimeTypes {
		names = append(names, string(f))
	}
	slices.Sort(names)
	return names
}

// Tabular reports whether pages of this format start with a header row
func (f Format) Tabular() bool {
	return f == FormatCSV || f == FormatTSV
}

// mediaType strips parameters such as charset from a Content-Type value
func mediaType(contentType string) string {
	value, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(value)
}

// stripHeader drops everything up to and including the first newline.
// A body without a newline is returned unchanged.
func stripHeader(body []byte) []byte {
	i := slices.Index(body, '\n')
	if i < 0 {
		return body
	}
	return body[i+1:]
}
