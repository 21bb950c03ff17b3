package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow(), "request %d should be allowed", i+1)
	}
	assert.False(t, tb.Allow(), "4th request should be denied")

	time.Sleep(60 * time.Millisecond)
	assert.True(t, tb.Allow(), "request after refill should be allowed")

	tb.Reset()
	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow())
	}
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(2, 50*time.Millisecond)

	assert.True(t, sw.Allow())
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())

	time.Sleep(60 * time.Millisecond)
	assert.True(t, sw.Allow())

	sw.Reset()
	assert.True(t, sw.Allow())
	assert.True(t, sw.Allow())
}

func TestWaitBlocksUntilRefill(t *testing.T) {
	limiters := map[string]Limiter{
		"token_bucket":   NewTokenBucket(1, 30*time.Millisecond),
		"sliding_window": NewSlidingWindow(1, 30*time.Millisecond),
	}

	for name, limiter := range limiters {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, limiter.Wait(context.Background()))

			start := time.Now()
			require.NoError(t, limiter.Wait(context.Background()))
			assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
		})
	}
}

func TestWaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, tb.Wait(ctx), context.DeadlineExceeded)
}

func TestNew(t *testing.T) {
	assert.IsType(t, Unlimited{}, New("token_bucket", 0))
	assert.IsType(t, &TokenBucket{}, New("token_bucket", 60))
	assert.IsType(t, &SlidingWindow{}, New("sliding_window", 60))
	assert.IsType(t, &TokenBucket{}, New("", 60))

	unlimited := New("token_bucket", -1)
	for i := 0; i < 100; i++ {
		assert.True(t, unlimited.Allow())
	}
	assert.NoError(t, unlimited.Wait(context.Background()))
}
