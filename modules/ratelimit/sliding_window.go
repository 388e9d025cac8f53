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
	"fmt"
	"math/bits"
	"time"

	"forum/modules/clock"
)

var _ RateLimiter = (*SlidingWindowRateLimiter)(nil)

// SlidingWindowRateLimiter approximates a sliding window with two adjacent
// fixed windows, weighting the previous one by how much of it still overlaps.
type SlidingWindowRateLimiter struct {
	clock     clock.Clock
	counter   CounterStore
	keyPrefix string

	limit  uint64
	window time.Duration
}

func SlidingWindowFactory(clk clock.Clock, counter CounterStore, keyPrefix string) LimiterFactory {
	return func(l int64, w time.Duration) RateLimiter {
		return &SlidingWindowRateLimiter{
			clock:     clk,
			counter:   counter,
			keyPrefix: keyPrefix,
			limit:     uint64(max(l, 0)),
			window:    w,
		}
	}
}

func (s *SlidingWindowRateLimiter) Allow(ctx context.Context, key Key) (Result, error) {
	if s.window <= 0 {
		return Result{}, fmt.Errorf("sliding window: non-positive window %s", s.window)
	}
	nowNs := s.clock.Now().UnixNano()
	windowNs := s.window.Nanoseconds()
	idx := nowNs / windowNs

	current, err := s.counter.Incr(ctx, s.buildKey(key, idx), s.window*2)
	if err != nil {
		return Result{}, err
	}
	prev, err := s.counter.Get(ctx, s.buildKey(key, idx-1))
	if err != nil {
		return Result{}, err
	}

	elapsed := min(max(nowNs-idx*windowNs, 0), windowNs)
	resetIn := max(s.window-time.Duration(elapsed), 0)

	allowed, used := s.usage(uint64(max(current, 0)), uint64(max(prev, 0)), uint64(windowNs), uint64(windowNs-elapsed))

	res := Result{
		Allowed:       allowed,
		Limit:         int64(s.limit),
		Window:        s.window,
		WindowResetIn: resetIn,
	}
	if used < s.limit {
		res.Remaining = int64(s.limit - used)
	}
	if !allowed {
		res.RetryAfter = resetIn
	}
	return res, nil
}

// usage compares cur*window + prev*prevWeight against limit*window in 128-bit
// integer space and returns the ceiling of the weighted request count.
func (s *SlidingWindowRateLimiter) usage(cur, prev, window, prevWeight uint64) (bool, uint64) {
	curHi, curLo := bits.Mul64(cur, window)
	prevHi, prevLo := bits.Mul64(prev, prevWeight)
	lo, carry := bits.Add64(curLo, prevLo, 0)
	hi, _ := bits.Add64(curHi, prevHi, carry)

	limHi, limLo := bits.Mul64(s.limit, window)
	allowed := hi < limHi || (hi == limHi && lo <= limLo)

	used := ^uint64(0)
	switch {
	case hi == 0:
		used = lo / window
		if lo%window != 0 {
			used++
		}
	case hi < window:
		q, r := bits.Div64(hi, lo, window)
		used = q
		if r != 0 && used != ^uint64(0) {
			used++
		}
	}
	return allowed, used
}

func (s *SlidingWindowRateLimiter) buildKey(key Key, windowIdx int64) string {
	return fmt.Sprintf("%s:%s:%d", s.keyPrefix, key, windowIdx)
}
