package catalogue

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdli/internal/catalogtest"
	"cdli/pkg/progress"
)

func TestParseLinks(t *testing.T) {
	base, err := url.Parse("https://cdli.earth/periods")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		expected PaginationLinks
	}{
		{"empty", "", PaginationLinks{}},
		{
			"single relations",
			`<https://cdli.earth/periods?page=3>; rel="next", <https://cdli.earth/periods?page=1>; rel="prev"`,
			PaginationLinks{Next: "https://cdli.earth/periods?page=3", Prev: "https://cdli.earth/periods?page=1"},
		},
		{
			"unquoted relation",
			`<https://x/p?page=2>; rel=next`,
			PaginationLinks{Next: "https://x/p?page=2"},
		},
		{
			"relation list",
			`<https://x/p?page=2>; rel="next last"`,
			PaginationLinks{Next: "https://x/p?page=2", Last: "https://x/p?page=2"},
		},
		{
			"mixed case",
			`<https://x/p?page=2>; rel="Next", <https://x/p?page=9>; rel="LAST"`,
			PaginationLinks{Next: "https://x/p?page=2", Last: "https://x/p?page=9"},
		},
		{
			"self and previous aliases",
			`<https://x/p?page=4>; rel="self", <https://x/p?page=3>; rel="previous"`,
			PaginationLinks{Current: "https://x/p?page=4", Prev: "https://x/p?page=3"},
		},
		{
			"relative targets resolve against base",
			`</periods?page=2>; rel="next"`,
			PaginationLinks{Next: "https://cdli.earth/periods?page=2"},
		},
		{
			"unknown relations ignored",
			`<https://x/p?page=1>; rel="first", <https://x/p?page=2>; rel="alternate next"`,
			PaginationLinks{Next: "https://x/p?page=2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLinks(tt.header, base))
		})
	}
}

func TestPaginationLinksPages(t *testing.T) {
	tests := []struct {
		name    string
		links   PaginationLinks
		current int
		last    int
	}{
		{"no links", PaginationLinks{}, 1, 0},
		{"first page", PaginationLinks{Next: "https://x/p?page=2", Last: "https://x/p?page=5"}, 1, 5},
		{"from prev", PaginationLinks{Prev: "https://x/p?page=2", Last: "https://x/p?page=5"}, 3, 5},
		{"unnumbered prev", PaginationLinks{Prev: "https://x/p"}, 2, 0},
		{"from next", PaginationLinks{Next: "https://x/p?page=4"}, 3, 0},
		{"current wins", PaginationLinks{Current: "https://x/p?page=7", Prev: "https://x/p?page=2"}, 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, last := tt.links.Pages()
			assert.Equal(t, tt.current, current)
			assert.Equal(t, tt.last, last)
		})
	}
}

func TestPagesFollowsRelationList(t *testing.T) {
	srv := catalogtest.NewServer(t)
	srv.Handle("/rulers", catalogtest.Response{
		ContentType: "application/x-ndjson",
		Body:        "1\n",
		LinkHeader:  fmt.Sprintf(`<%s/rulers?page=2>; rel="Next", <%s/rulers?page=3>; rel="last"`, srv.URL, srv.URL),
	})
	srv.Handle("/rulers?page=2", catalogtest.Response{
		ContentType: "application/x-ndjson",
		Body:        "2\n",
		LinkHeader:  fmt.Sprintf(`<%s/rulers?page=1>; rel="prev", <%s/rulers?page=3>; rel="next last"`, srv.URL, srv.URL),
	})
	srv.Handle("/rulers?page=3", catalogtest.Response{
		ContentType: "application/x-ndjson",
		Body:        "3\n",
		LinkHeader:  fmt.Sprintf(`<%s/rulers?page=2>; rel="prev"`, srv.URL),
	})
	client, events := newTestClient(t, srv)

	bodies, err := collect(t, client, "rulers", "ndjson", "rulers")
	require.NoError(t, err)
	assert.Equal(t, []string{"1\n", "2\n", "3\n"}, bodies)
	assert.Equal(t, 1, srv.Hits("/rulers?page=3"))

	var pagesSeen [][2]int
	for _, e := range events.ofKind(progress.KindPages) {
		pagesSeen = append(pagesSeen, [2]int{e.Page, e.LastPage})
	}
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 0}}, pagesSeen)
	assert.Equal(t, progress.KindDone, events.last().Kind)
}
