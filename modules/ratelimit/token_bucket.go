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
	"sync"
	"time"

	"forum/modules/clock"

	"golang.org/x/time/rate"
)

var _ RateLimiter = (*TokenBucketRateLimiter)(nil)

// TokenBucketRateLimiter keeps one in-process token bucket per key. It refills
// limit tokens per window and allows bursts of up to limit requests.
//
// Buckets idle for longer than two windows are dropped on the next sweep.
type TokenBucketRateLimiter struct {
	clock  clock.Clock
	limit  int64
	window time.Duration
	every  rate.Limit

	mu        sync.Mutex
	buckets   map[Key]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func TokenBucketFactory(clk clock.Clock) LimiterFactory {
	return func(l int64, w time.Duration) RateLimiter {
		return NewTokenBucketRateLimiter(clk, l, w)
	}
}

func NewTokenBucketRateLimiter(clk clock.Clock, limit int64, window time.Duration) *TokenBucketRateLimiter {
	limit = max(limit, 1)
	if window <= 0 {
		window = time.Second
	}
	return &TokenBucketRateLimiter{
		clock:   clk,
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(limit)),
		buckets: make(map[Key]*bucket),
	}
}

func (t *TokenBucketRateLimiter) Allow(_ context.Context, key Key) (Result, error) {
	now := t.clock.Now()
	lim := t.bucketFor(key, now)

	res := Result{Limit: t.limit, Window: t.window}

	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		res.RetryAfter = delay
		res.WindowResetIn = delay
		return res, nil
	}

	res.Allowed = true
	res.Remaining = int64(max(lim.TokensAt(now), 0))
	missing := float64(t.limit) - lim.TokensAt(now)
	res.WindowResetIn = time.Duration(missing / float64(t.every) * float64(time.Second))
	return res, nil
}

func (t *TokenBucketRateLimiter) bucketFor(key Key, now time.Time) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastSweep) > 2*t.window {
		for k, b := range t.buckets {
			if now.Sub(b.lastSeen) > 2*t.window {
				delete(t.buckets, k)
			}
		}
		t.lastSweep = now
	}

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(t.every, int(t.limit))}
		t.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

func (t *TokenBucketRateLimiter) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}
