package session

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCookies(t *testing.T) {
	store := New()
	store.ApplyCookies([]string{"id=abc; Path=/", "csrftoken=XYZ%20Q; HttpOnly"})

	id, ok := store.Cookie("id")
	require.True(t, ok)
	assert.Equal(t, "abc", id)

	token, ok := store.Cookie("csrftoken")
	require.True(t, ok)
	assert.Equal(t, "XYZ Q", token)

	headers := store.HeadersFor()
	assert.Equal(t, "XYZ Q", headers.Get(CSRFHeader))
	assert.Equal(t, "id=abc; csrftoken=XYZ Q", headers.Get("Cookie"))
}

func TestApplyCookiesOverwriteKeepsOrder(t *testing.T) {
	store := New()
	store.ApplyCookies([]string{"a=1", "b=2"})
	store.ApplyCookies([]string{"a=3; Secure"})

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, "a=3; b=2", store.HeadersFor().Get("Cookie"))
}

func TestApplyCookiesEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		cookie   string
		expected string
	}{
		{"value containing equals", "token=a=b=c; Path=/", "token", "a=b=c"},
		{"empty value", "empty=; Path=/", "empty", ""},
		{"plus is not a space", "q=a+b", "q", "a+b"},
		{"invalid escape kept raw", "bad=%zz", "bad", "%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := New()
			store.ApplyCookies([]string{tt.raw})
			value, ok := store.Cookie(tt.cookie)
			require.True(t, ok)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestCSRFCookieNameIsCaseInsensitive(t *testing.T) {
	store := New()
	assert.Equal(t, "", store.CSRFToken())

	store.ApplyCookies([]string{"csrfToken=first"})
	assert.Equal(t, "first", store.CSRFToken())

	store.ApplyCookies([]string{"CSRFTOKEN=second"})
	assert.Equal(t, "second", store.CSRFToken())
}

func TestHeadersForEmptySession(t *testing.T) {
	headers := New().HeadersFor()
	assert.Equal(t, "", headers.Get(CSRFHeader))
	assert.Equal(t, "", headers.Get("Cookie"))

	req, err := http.NewRequest(http.MethodGet, "https://cdli.earth/periods", nil)
	require.NoError(t, err)
	New().Apply(req)
	_, hasCookie := req.Header["Cookie"]
	assert.False(t, hasCookie)
}

func TestApplyResponse(t *testing.T) {
	resp := &http.Response{Header: make(http.Header)}
	resp.Header.Add("Set-Cookie", "PHPSESSID=s1; path=/")
	resp.Header.Add("Set-Cookie", "csrfToken=tok%2Fen; path=/")

	store := New()
	store.ApplyResponse(resp)
	store.ApplyResponse(nil)

	assert.Equal(t, "tok/en", store.CSRFToken())
	assert.Equal(t, 2, store.Len())
}

func TestConcurrentAccess(t *testing.T) {
	store := New()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.ApplyCookies([]string{fmt.Sprintf("c%d=%d", i%5, i)})
			_ = store.HeadersFor()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, store.Len())
}
