// Package ratelimit throttles requests to the catalogue service.
//
// Two algorithms are available. TokenBucket grants a full burst of tokens
// every refill period. SlidingWindow admits at most N requests in any
// trailing window. Both satisfy Limiter and are safe for concurrent use by
// every export task.
//
//	limiter := ratelimit.New("token_bucket", 60)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
