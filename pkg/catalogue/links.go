package catalogue

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/tomnomnom/linkheader"
)

// PaginationLinks holds the relations of a Link header, resolved to absolute URLs
type PaginationLinks struct {
	Next    string
	Prev    string
	Current string
	Last    string
}

// ParseLinks parses a Link header. Relative references resolve against base.
func ParseLinks(header string, base *url.URL) PaginationLinks {
	var links PaginationLinks
	if header == "" {
		return links
	}

	for _, link := range linkheader.Parse(header) {
		target := resolve(base, link.URL)
		// rel may list several relation types, compared case-insensitively
		for _, rel := range strings.Fields(strings.ToLower(link.Rel)) {
			switch rel {
			case "next":
				links.Next = target
			case "prev", "previous":
				links.Prev = target
			case "current", "self":
				links.Current = target
			case "last":
				links.Last = target
			}
		}
	}

	return links
}

// Pages derives the current and last page numbers from the "page" query
// parameter of the links. last is 0 when the server did not advertise it.
func (l PaginationLinks) Pages() (current, last int) {
	last = pageParam(l.Last)

	switch {
	case pageParam(l.Current) > 0:
		current = pageParam(l.Current)
	case pageParam(l.Prev) > 0:
		current = pageParam(l.Prev) + 1
	case l.Prev != "":
		// prev without a page number points at the unnumbered first page
		current = 2
	case pageParam(l.Next) > 1:
		current = pageParam(l.Next) - 1
	default:
		current = 1
	}

	return current, last
}

func pageParam(rawURL string) int {
	if rawURL == "" {
		return 0
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	page, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil || page < 0 {
		return 0
	}
	return page
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
