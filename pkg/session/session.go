// Package session holds the cookies exchanged with the catalogue service and
// derives the headers sent with every request.
package session

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const (
	// CSRFCookie is the cookie carrying the CSRF token. Matched case-insensitively.
	CSRFCookie = "csrfToken"

	// CSRFHeader is the request header the token is echoed in.
	CSRFHeader = "X-CSRF-Token"
)

// Store is a concurrency-safe cookie jar keyed by cookie name.
// Insertion order is kept so the Cookie header is stable.
type Store struct {
	mu     sync.RWMutex
	names  []string
	values map[string]string
	csrf   string
}

// New creates an empty session store
func New() *Store {
	return &Store{
		values: make(map[string]string),
	}
}

// ApplyCookies absorbs raw Set-Cookie header values. Attributes after the
// first ';' are ignored and the value is percent-decoded.
func (s *Store) ApplyCookies(raw []string) {
	if len(raw) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cookie := range raw {
		pair, _, _ := strings.Cut(cookie, ";")
		name, value, _ := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}

		if _, exists := s.values[name]; !exists {
			s.names = append(s.names, name)
		}
		s.values[name] = value

		if strings.EqualFold(name, CSRFCookie) {
			s.csrf = value
		}
	}
}

// ApplyResponse absorbs every Set-Cookie header of the response
func (s *Store) ApplyResponse(resp *http.Response) {
	if resp == nil {
		return
	}
	s.ApplyCookies(resp.Header.Values("Set-Cookie"))
}

// HeadersFor returns the CSRF and Cookie headers for the next request
func (s *Store) HeadersFor() http.Header {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := make([]string, 0, len(s.names))
	for _, name := range s.names {
		pairs = append(pairs, name+"="+s.values[name])
	}

	headers := make(http.Header)
	headers.Set(CSRFHeader, s.csrf)
	headers.Set("Cookie", strings.Join(pairs, "; "))
	return headers
}

// Apply sets the session headers on req, skipping empty values
func (s *Store) Apply(req *http.Request) {
	for key, values := range s.HeadersFor() {
		if len(values) > 0 && values[0] != "" {
			req.Header.Set(key, values[0])
		}
	}
}

// CSRFToken returns the current token, or "" if none was received yet
func (s *Store) CSRFToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.csrf
}

// Cookie returns a stored cookie value
func (s *Store) Cookie(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[name]
	return value, ok
}

// Len returns the number of stored cookies
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names)
}
