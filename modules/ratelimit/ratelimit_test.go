// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ratelimit

import (
	"context"
	"testing"
	"time"

	"forum/modules/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSlidingWindow_LimitsWithinWindow(t *testing.T) {
	clk := clock.NewFixedClock(epoch)
	limiter := SlidingWindowFactory(clk, NewMemoryCounterStore(clk), "test")(3, time.Minute)
	ctx := context.Background()

	for i := range 3 {
		res, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, int64(2-i), res.Remaining)
	}

	res, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter)

	other, err := limiter.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")
}

func TestSlidingWindow_PreviousWindowDecays(t *testing.T) {
	clk := clock.NewFixedClock(epoch)
	limiter := SlidingWindowFactory(clk, NewMemoryCounterStore(clk), "test")(4, time.Minute)
	ctx := context.Background()

	for range 4 {
		_, _ = limiter.Allow(ctx, "k")
	}

	// a quarter into the next window three quarters of the old count still weigh in
	clk.Advance(time.Minute + 15*time.Second)
	res, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)

	res, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	clk.Advance(2 * time.Minute)
	res, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestTokenBucket(t *testing.T) {
	clk := clock.NewFixedClock(epoch)
	limiter := NewTokenBucketRateLimiter(clk, 2, time.Second)
	ctx := context.Background()

	for range 2 {
		res, err := limiter.Allow(ctx, "u")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := limiter.Allow(ctx, "u")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 500*time.Millisecond, res.RetryAfter)

	clk.Advance(500 * time.Millisecond)
	res, err = limiter.Allow(ctx, "u")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestTokenBucketSweepsIdleKeys(t *testing.T) {
	clk := clock.NewFixedClock(epoch)
	limiter := NewTokenBucketRateLimiter(clk, 5, time.Second)
	ctx := context.Background()

	_, _ = limiter.Allow(ctx, "a")
	_, _ = limiter.Allow(ctx, "b")
	assert.Equal(t, 2, limiter.size())

	clk.Advance(3 * time.Second)
	_, _ = limiter.Allow(ctx, "c")
	assert.Equal(t, 1, limiter.size())
}

func TestMemoryCounterStoreExpires(t *testing.T) {
	clk := clock.NewFixedClock(epoch)
	store := NewMemoryCounterStore(clk)
	ctx := context.Background()

	n, _ := store.Incr(ctx, "k", time.Second)
	assert.Equal(t, int64(1), n)
	n, _ = store.Incr(ctx, "k", time.Second)
	assert.Equal(t, int64(2), n)

	clk.Advance(time.Second)
	n, _ = store.Get(ctx, "k")
	assert.Equal(t, int64(0), n)
}
