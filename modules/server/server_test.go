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

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum/modules/clock"
	"forum/modules/middleware/ratelimit"
	rl "forum/modules/ratelimit"
)

type pingService struct{}

func (pingService) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
}

func (pingService) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{tag("svc")}
}

func tag(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestNew_ComposesMiddlewaresInOrder(t *testing.T) {
	s, err := New("127.0.0.1", 8080,
		WithGlobalMiddlewares(tag("outer"), tag("inner")),
		WithServices(pingService{}),
	)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, []string{"outer", "inner", "svc"}, rec.Header().Values("X-Chain"))
}

func TestNew_RejectsBadPort(t *testing.T) {
	_, err := New("", 0)
	assert.Error(t, err)
	_, err = New("", 70000)
	assert.Error(t, err)
}

type topicService struct{}

func (topicService) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/topic/{topic_id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (topicService) Middlewares() []func(http.Handler) http.Handler { return nil }

func TestNew_GlobalMiddlewaresSeeRoutePattern(t *testing.T) {
	var seen string
	s, err := New("127.0.0.1", 8080,
		WithGlobalMiddlewares(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.Pattern
				next.ServeHTTP(w, r)
			})
		}),
		WithServices(topicService{}),
	)
	require.NoError(t, err)

	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/topic/7", nil))
	assert.Equal(t, "GET /api/topic/{topic_id}", seen)

	seen = "unset"
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Empty(t, seen)
}

func TestNew_RouteRateLimitAppliesAsGlobalMiddleware(t *testing.T) {
	clk := clock.NewFixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	policy, err := ratelimit.ParsePolicy(
		rl.SlidingWindowFactory(clk, rl.NewMemoryCounterStore(clk), "test"),
		&ratelimit.RestHTTPConfig{
			AllowIfNoMatch: true,
			Routes: []ratelimit.Route{{
				Pattern: "GET /api/topic/{topic_id}",
				EndpointRules: []ratelimit.EndpointRule{
					{Limit: 1, Window: time.Minute, KeyStrategy: ratelimit.RemoteIpKeyStrategy},
				},
			}},
		},
		ratelimit.MuxRouteInfo,
		map[ratelimit.KeyStrategyId]ratelimit.KeyFunc{ratelimit.RemoteIpKeyStrategy: ratelimit.RemoteIpKeyFunc},
	)
	require.NoError(t, err)

	s, err := New("127.0.0.1", 8080,
		WithServices(topicService{}),
		WithGlobalMiddlewares(ratelimit.NewRateLimitMiddleware(policy)),
	)
	require.NoError(t, err)

	var codes []int
	for range 3 {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/topic/7", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}
