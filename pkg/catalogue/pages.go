package catalogue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	errs "cdli/pkg/errors"
	"cdli/pkg/progress"
	"cdli/pkg/retry"
)

// ErrConsumed is yielded when a page sequence is ranged over a second time
var ErrConsumed = errors.New("page sequence already consumed")

// Pages walks every page of the collection at path in the given format.
//
// An unsupported format is reported before any request is made. Otherwise
// the returned sequence is lazy: each page is requested only when the
// previous one has been consumed. It is finite, ending when a response has
// no rel="next" link, and can be ranged over once. A failure is yielded as
// the final element. State changes are reported for label to the client's
// listener.
func (c *Client) Pages(ctx context.Context, path, format, label string) (iter.Seq2[[]byte, error], error) {
	mimeType, err := MIMEType(format)
	if err != nil {
		c.listener.OnState(progress.Event{Label: label, Kind: progress.KindError, Err: err})
		return nil, err
	}

	w := &walker{
		client:   c,
		format:   Format(format),
		mimeType: mimeType,
		label:    label,
		start:    c.URL(path),
	}
	return func(yield func([]byte, error) bool) {
		w.run(ctx, yield)
	}, nil
}

type walker struct {
	client   *Client
	format   Format
	mimeType string
	label    string
	start    string
	used     atomic.Bool
}

func (w *walker) emit(e progress.Event) {
	e.Label = w.label
	w.client.listener.OnState(e)
}

func (w *walker) fail(err error, yield func([]byte, error) bool) {
	w.emit(progress.Event{Kind: progress.KindError, Err: err})
	yield(nil, err)
}

func (w *walker) run(ctx context.Context, yield func([]byte, error) bool) {
	if !w.used.CompareAndSwap(false, true) {
		yield(nil, ErrConsumed)
		return
	}

	log := w.client.logger.WithFields(map[string]interface{}{
		"label":  w.label,
		"format": string(w.format),
	})

	next := w.start
	pages := 0
	for next != "" {
		body, links, err := w.fetch(ctx, next)
		if err != nil {
			log.WithError(err).WarnWithFields("page walk failed", map[string]interface{}{
				"url":   next,
				"pages": pages,
			})
			w.fail(err, yield)
			return
		}

		if w.format.Tabular() && links.Prev != "" {
			body = stripHeader(body)
		}

		pages++
		pagesTotal.WithLabelValues(string(w.format)).Inc()
		pageBytesTotal.WithLabelValues(string(w.format)).Add(float64(len(body)))

		if !yield(body, nil) {
			log.DebugWithFields("page walk stopped by consumer", map[string]interface{}{"pages": pages})
			return
		}

		next = links.Next
	}

	log.InfoWithFields("page walk complete", map[string]interface{}{"pages": pages})
	w.emit(progress.Event{Kind: progress.KindDone})
}

// fetch requests one page, retrying gateway timeouts, and verifies the
// response before reading its body
func (w *walker) fetch(ctx context.Context, pageURL string) ([]byte, PaginationLinks, error) {
	c := w.client

	resp, err := retry.DoWithResult(func() (*http.Response, error) {
		return w.request(ctx, pageURL)
	}, &retry.Config{
		MaxAttempts: c.maxRetries + 1,
		Backoff:     c.backoff,
		RetryIf:     c.shouldRetry,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			retriesTotal.WithLabelValues(errorClass(err)).Inc()
			w.emit(progress.Event{Kind: progress.KindRetry, Retry: attempt})
		},
		Context: ctx,
		Logger:  c.logger.WithField("label", w.label),
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			retryExhaustedTotal.WithLabelValues(errorClass(err)).Inc()
		}
		if errs.IsType(err, errs.ErrorTypeGatewayTimeout) {
			return nil, PaginationLinks{}, errs.HTTP(pageURL, http.StatusGatewayTimeout)
		}
		var typed *errs.Error
		if errors.As(err, &typed) {
			return nil, PaginationLinks{}, typed
		}
		return nil, PaginationLinks{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, PaginationLinks{}, errs.HTTP(pageURL, resp.StatusCode)
	}

	w.emit(progress.Event{Kind: progress.KindRunning})

	if actual := mediaType(resp.Header.Get("Content-Type")); actual != w.mimeType {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, PaginationLinks{}, errs.FormatMismatch(pageURL, string(w.format), actual)
	}

	links := ParseLinks(resp.Header.Get("Link"), parseURL(pageURL))
	current, last := links.Pages()
	w.emit(progress.Event{Kind: progress.KindPages, Page: current, LastPage: last})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, PaginationLinks{}, errs.Network(pageURL, fmt.Errorf("read body: %w", err))
	}

	return body, links, nil
}

// request performs a single attempt. A 504 is returned as a retryable
// gateway timeout error; any other response is returned to the caller.
func (w *walker) request(ctx context.Context, pageURL string) (*http.Response, error) {
	c := w.client

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errs.Input(fmt.Sprintf("invalid page URL %q: %v", pageURL, err))
	}
	req.Header.Set("Accept", w.mimeType)

	resp, err := c.do(c.httpClient, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusGatewayTimeout {
		drain(resp)
		return nil, errs.GatewayTimeout(pageURL)
	}

	return resp, nil
}

func (c *Client) shouldRetry(err error) bool {
	if errs.IsType(err, errs.ErrorTypeNetwork) && !c.retryNetwork {
		return false
	}
	return retry.DefaultRetryIf(err)
}

func errorClass(err error) string {
	var typed *errs.Error
	if errors.As(err, &typed) {
		return string(typed.Type)
	}
	return "unknown"
}

func parseURL(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return u
}
