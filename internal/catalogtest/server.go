// Package catalogtest provides a scriptable fake catalogue server for tests.
package catalogtest

import (
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Response is one scripted reply
type Response struct {
	Status      int
	ContentType string
	Body        string
	// Links maps a relation to a target; targets starting with "/" are made
	// absolute against the server URL
	Links    map[string]string
	Cookies  []string
	Location string
	Delay    time.Duration

	// LinkHeader, when set, is sent verbatim instead of Links
	LinkHeader string
}

// Request is a recorded incoming request
type Request struct {
	Method string
	URI    string
	Header http.Header
	Form   map[string]string
}

// Server simulates the catalogue. Each URI replays its scripted responses in
// order and keeps repeating the last one.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	routes    map[string][]Response
	hits      map[string]int
	requests  []Request
	inflight  atomic.Int32
	maxFlight atomic.Int32
}

// NewServer starts a server that is closed when the test ends
func NewServer(t testing.TB) *Server {
	s := &Server{
		routes: make(map[string][]Response),
		hits:   make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func key(uri string) string {
	return "/" + strings.TrimPrefix(uri, "/")
}

// Handle scripts the responses for a request URI (path plus raw query)
func (s *Server) Handle(uri string, responses ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[key(uri)] = responses
}

// Paginate serves bodies as consecutive pages of path. Page 1 lives at path
// itself, page N at path?page=N. Each page links to its neighbours and to
// the last page.
func (s *Server) Paginate(path, contentType string, bodies ...string) {
	n := len(bodies)
	pageURI := func(i int) string {
		if i == 1 {
			return key(path)
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return fmt.Sprintf("%s%spage=%d", key(path), sep, i)
	}

	for i, body := range bodies {
		page := i + 1
		links := map[string]string{"last": pageURI(n) + lastSuffix(n, path)}
		if page < n {
			links["next"] = pageURI(page + 1)
		}
		if page > 1 {
			links["prev"] = pageURI(page - 1)
		}
		s.Handle(pageURI(page), Response{
			Status:      http.StatusOK,
			ContentType: contentType,
			Body:        body,
			Links:       links,
		})
	}
}

// lastSuffix makes a one-page "last" link carry an explicit page number
func lastSuffix(n int, path string) string {
	if n != 1 {
		return ""
	}
	if strings.Contains(path, "?") {
		return "&page=1"
	}
	return "?page=1"
}

// Hits returns how often uri was requested
func (s *Server) Hits(uri string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key(uri)]
}

// Requests returns every recorded request
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// TotalRequests returns the number of requests received
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// MaxConcurrent returns the highest number of requests served at once
func (s *Server) MaxConcurrent() int {
	return int(s.maxFlight.Load())
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	current := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		seen := s.maxFlight.Load()
		if current <= seen || s.maxFlight.CompareAndSwap(seen, current) {
			break
		}
	}

	uri := key(r.URL.RequestURI())
	recorded := Request{
		Method: r.Method,
		URI:    uri,
		Header: r.Header.Clone(),
		Form:   readForm(r),
	}

	s.mu.Lock()
	s.requests = append(s.requests, recorded)
	responses, ok := s.routes[uri]
	hit := s.hits[uri]
	s.hits[uri] = hit + 1
	s.mu.Unlock()

	if !ok || len(responses) == 0 {
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "<html>Not Found</html>")
		return
	}

	if hit >= len(responses) {
		hit = len(responses) - 1
	}
	s.write(w, responses[hit])
}

func (s *Server) write(w http.ResponseWriter, resp Response) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	header := w.Header()
	if resp.ContentType != "" {
		header.Set("Content-Type", resp.ContentType)
	}
	for _, cookie := range resp.Cookies {
		header.Add("Set-Cookie", cookie)
	}
	switch {
	case resp.LinkHeader != "":
		header.Set("Link", resp.LinkHeader)
	case len(resp.Links) > 0:
		header.Set("Link", s.linkHeader(resp.Links))
	}
	if resp.Location != "" {
		header.Set("Location", resp.Location)
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	fmt.Fprint(w, resp.Body)
}

func (s *Server) linkHeader(links map[string]string) string {
	parts := make([]string, 0, len(links))
	for _, rel := range []string{"first", "prev", "current", "next", "last"} {
		target, ok := links[rel]
		if !ok {
			continue
		}
		if strings.HasPrefix(target, "/") {
			target = s.URL + target
		}
		parts = append(parts, fmt.Sprintf(`<%s>; rel="%s"`, target, rel))
	}
	return strings.Join(parts, ", ")
}

func readForm(r *http.Request) map[string]string {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return nil
	}

	reader := multipart.NewReader(r.Body, params["boundary"])
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		return nil
	}
	defer form.RemoveAll()

	fields := make(map[string]string, len(form.Value))
	for name, values := range form.Value {
		if len(values) > 0 {
			fields[name] = values[0]
		}
	}
	return fields
}
