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

package main

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/redis/rueidis"

	forum_http "forum/core/forum/adapters/rest"
	"forum/modules/appconfig"
	"forum/modules/clock"
	"forum/modules/db/redis/counter"
	"forum/modules/middleware/ratelimit"
	rl "forum/modules/ratelimit"
)

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newRateLimiter compiles the configured policy. Sliding windows count in
// redis so every replica shares them unless the local kind is chosen.
func newRateLimiter(clk clock.Clock, client rueidis.Client, cfg *appconfig.Config) (func(http.Handler) http.Handler, error) {
	var factory rl.LimiterFactory
	switch cfg.RateLimit.Kind {
	case ratelimit.TokenBucket:
		factory = rl.TokenBucketFactory(clk)
	case ratelimit.LocalSlidingWindow:
		factory = rl.SlidingWindowFactory(clk, rl.NewMemoryCounterStore(clk), "rl")
	default:
		prefix := cfg.Redis.KeyPrefix + ":rl"
		factory = rl.SlidingWindowFactory(clk, counter.NewRedisCounterStore(client, prefix), prefix)
	}

	keyStrategies := map[ratelimit.KeyStrategyId]ratelimit.KeyFunc{
		ratelimit.RemoteIpKeyStrategy: ratelimit.RemoteIpKeyFunc,
		ratelimit.UserIdKeyStrategy:   ratelimit.HeaderKeyFunc(forum_http.UserHeader),
	}

	slog.Debug("app rate limit config", slog.Any("rate_limit_config", cfg.RateLimit))

	rtp, err := ratelimit.ParsePolicy(factory, &cfg.RateLimit, ratelimit.MuxRouteInfo, keyStrategies)
	if err != nil {
		return nil, err
	}
	return ratelimit.NewRateLimitMiddleware(rtp), nil
}
