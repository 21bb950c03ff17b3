// Package retry re-runs an operation while its error is classified as
// transient.
//
// The catalogue client uses a constant backoff so a gateway timeout is
// retried a fixed number of times at a fixed interval before it escalates:
//
//	page, err := retry.DoWithResult(func() (*http.Response, error) {
//		return client.fetchOnce(ctx, url)
//	}, &retry.Config{
//		MaxAttempts: 4,
//		Backoff:     &retry.ConstantBackoff{Delay: 500 * time.Millisecond},
//		RetryIf:     retry.DefaultRetryIf,
//		Context:     ctx,
//	})
//
// Backoff strategies implement BackoffStrategy and are consulted with the
// number of the attempt that just failed.
package retry
