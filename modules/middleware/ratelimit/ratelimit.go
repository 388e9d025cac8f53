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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"forum/modules/middleware/problem"
	rl "forum/modules/ratelimit"
)

type (
	Pattern string
	method  string

	// KeyFunc extracts the caller identity from a request.
	KeyFunc func(*http.Request) rl.Key

	// RouteInfoFunc extracts the route a request was matched against.
	RouteInfoFunc func(*http.Request) RouteInfo

	RouteInfo struct {
		ID     Pattern
		Method string
		Path   string
	}

	Policy struct {
		Limiter rl.RateLimiter
		KeyFn   KeyFunc
	}

	// RuntimePolicy is the compiled form of RestHTTPConfig.
	RuntimePolicy struct {
		policyMap map[Pattern]map[method]Policy

		// a method-specific default wins over the catch-all default
		defaultPolicyByMethod map[method]Policy
		defaultPolicy         *Policy

		AllowIfNoMatch      bool
		AllowIfNoIdentifier bool

		RouteInfoFn RouteInfoFunc
	}

	policySource string
)

const (
	policySourceExplicit      policySource = "explicit"
	policySourceDefaultMethod policySource = "default_method"
	policySourceDefaultAll    policySource = "default"
)

var (
	ErrUnknownKeyStrategy = errors.New("ratelimit: unknown key strategy")
	ErrDuplicateRule      = errors.New("ratelimit: duplicate method rule on pattern")
)

func normalizeMethod(m string) method {
	return method(strings.ToUpper(strings.TrimSpace(m)))
}

func (p *RuntimePolicy) findPolicy(ri RouteInfo) (Policy, bool, policySource) {
	if byMethod, ok := p.policyMap[ri.ID]; ok {
		if px, ok := byMethod[normalizeMethod(ri.Method)]; ok {
			return px, true, policySourceExplicit
		}
		if px, ok := byMethod[""]; ok {
			return px, true, policySourceExplicit
		}
	}
	if px, ok := p.defaultPolicyByMethod[normalizeMethod(ri.Method)]; ok {
		return px, true, policySourceDefaultMethod
	}
	if p.defaultPolicy != nil {
		return *p.defaultPolicy, true, policySourceDefaultAll
	}
	return Policy{}, false, ""
}

// ParsePolicy compiles cfg. Route patterns must match the patterns registered on the mux.
func ParsePolicy(
	factory rl.LimiterFactory,
	cfg *RestHTTPConfig,
	routeFn RouteInfoFunc,
	keyStrategies map[KeyStrategyId]KeyFunc,
) (*RuntimePolicy, error) {
	rtp := &RuntimePolicy{
		policyMap:             make(map[Pattern]map[method]Policy),
		defaultPolicyByMethod: make(map[method]Policy),
		AllowIfNoIdentifier:   cfg.AllowIfNoIdentifier,
		AllowIfNoMatch:        cfg.AllowIfNoMatch,
		RouteInfoFn:           routeFn,
	}

	compile := func(rule EndpointRule) (Policy, error) {
		ks, ok := keyStrategies[rule.KeyStrategy]
		if !ok {
			return Policy{}, fmt.Errorf("%w: %q", ErrUnknownKeyStrategy, rule.KeyStrategy)
		}
		return Policy{Limiter: factory(rule.Limit, rule.Window), KeyFn: ks}, nil
	}

	// the default only counts as configured when it can actually enforce something
	if d := cfg.DefaultPolicy; d.Window > 0 && d.KeyStrategy != "" {
		p, err := compile(d)
		if err != nil {
			return nil, err
		}
		if d.Method != "" {
			rtp.defaultPolicyByMethod[normalizeMethod(d.Method)] = p
		} else {
			rtp.defaultPolicy = &p
		}
	}

	for _, r := range cfg.Routes {
		pat := Pattern(r.Pattern)
		if rtp.policyMap[pat] == nil {
			rtp.policyMap[pat] = make(map[method]Policy)
		}
		for _, rule := range r.EndpointRules {
			m := normalizeMethod(rule.Method)
			if _, dup := rtp.policyMap[pat][m]; dup {
				return nil, fmt.Errorf("%w: %s %s", ErrDuplicateRule, m, pat)
			}
			p, err := compile(rule)
			if err != nil {
				return nil, err
			}
			rtp.policyMap[pat][m] = p
		}
	}
	return rtp, nil
}

// MuxRouteInfo reads the pattern http.ServeMux matched. server.New resolves it
// before global middlewares run; unrouted requests fall back to the path.
func MuxRouteInfo(r *http.Request) RouteInfo {
	id := Pattern(r.Pattern)
	if id == "" {
		id = Pattern(r.URL.Path)
	}
	return RouteInfo{ID: id, Method: r.Method, Path: r.URL.Path}
}

func NewRateLimitMiddleware(p *RuntimePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ri := p.RouteInfoFn(r)
			log := slog.With(
				slog.String("middleware", "rate_limiter"),
				slog.String("url", r.URL.Path),
				slog.Any("route_info", ri),
			)

			if ri.Method == "" {
				log.ErrorContext(ctx, "no method found")
				problem.Write(w, problem.MethodNotAllowed("method not allowed"))
				return
			}

			px, ok, src := p.findPolicy(ri)
			if !ok {
				if p.AllowIfNoMatch {
					next.ServeHTTP(w, r)
					return
				}
				log.WarnContext(ctx, "no rate limit policy found")
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}
			if src != policySourceExplicit {
				log.DebugContext(ctx, "using default rate limit policy", slog.String("policy_source", string(src)))
			}

			var key rl.Key
			if px.KeyFn != nil {
				key = px.KeyFn(r)
			}
			if key == "" {
				if p.AllowIfNoIdentifier {
					next.ServeHTTP(w, r)
					return
				}
				log.WarnContext(ctx, "no rate limit key")
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}

			result, err := px.Limiter.Allow(ctx, key)
			if err != nil {
				// counter store may be down
				log.ErrorContext(ctx, "rate limit error", slog.Any("error", err))
				problem.Write(w, problem.Internal(http.StatusText(http.StatusInternalServerError)))
				return
			}

			writeRateLimitHeaders(w, result)
			if !result.Allowed {
				log.DebugContext(ctx, "rate limited", slog.String("key", string(key)))
				w.Header().Set("Retry-After", strconv.FormatInt(int64(result.RetryAfter.Seconds()+0.999), 10))
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitHeaders(w http.ResponseWriter, result rl.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	h.Set("X-RateLimit-Window-Seconds", strconv.FormatInt(int64(result.Window.Seconds()), 10))
	h.Set("X-RateLimit-Reset-Seconds", strconv.FormatInt(int64(result.WindowResetIn.Seconds()), 10))
}

// RemoteIpKeyFunc uses the last X-Forwarded-For hop (the one our proxy appended),
// falling back to the connection's remote host.
func RemoteIpKeyFunc(r *http.Request) rl.Key {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
			return rl.Key(last)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return rl.Key(r.RemoteAddr)
	}
	return rl.Key(host)
}

// HeaderKeyFunc keys on a request header, e.g. the caller's uid.
func HeaderKeyFunc(header string) KeyFunc {
	return func(r *http.Request) rl.Key {
		v := strings.TrimSpace(r.Header.Get(header))
		if v == "" {
			return ""
		}
		return rl.Key(header + ":" + v)
	}
}
