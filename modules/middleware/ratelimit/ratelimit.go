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

// Package ratelimit adapts modules/ratelimit to net/http middleware with
// per-route, per-method policies.
package ratelimit

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"techstructure/modules/middleware/problem"
	rl "techstructure/modules/ratelimit"
)

const anyMethod = "*"

type (
	// KeyFunc identifies the caller, e.g. by address or principal id. An
	// empty key means the caller could not be identified.
	KeyFunc func(*http.Request) rl.Key

	// RouteInfoFunc maps a request onto the route id used for policy lookup.
	RouteInfoFunc func(*http.Request) RouteInfo

	RouteInfo struct {
		ID     string
		Method string
		Path   string
	}

	Policy struct {
		Limiter rl.RateLimiter
		KeyFn   KeyFunc
	}

	RuntimePolicy struct {
		routes              map[string]map[string]Policy
		defaultPolicy       *Policy
		AllowIfNoMatch      bool
		AllowIfNoIdentifier bool
		RouteInfoFn         RouteInfoFunc
	}
)

func (p *RuntimePolicy) find(ri RouteInfo) (Policy, bool) {
	if byMethod, ok := p.routes[ri.ID]; ok {
		if px, ok := byMethod[strings.ToUpper(ri.Method)]; ok {
			return px, true
		}
		if px, ok := byMethod[anyMethod]; ok {
			return px, true
		}
	}
	if p.defaultPolicy != nil {
		return *p.defaultPolicy, true
	}
	return Policy{}, false
}

// ParsePolicy compiles cfg into limiters. Every referenced key strategy must
// be present in keyStrategies.
func ParsePolicy(
	factory rl.LimiterFactory,
	cfg RestHTTPConfig,
	routeFn RouteInfoFunc,
	keyStrategies map[KeyStrategyId]KeyFunc,
) (*RuntimePolicy, error) {
	rtp := &RuntimePolicy{
		routes:              make(map[string]map[string]Policy),
		AllowIfNoMatch:      cfg.AllowIfNoMatch,
		AllowIfNoIdentifier: cfg.AllowIfNoIdentifier,
		RouteInfoFn:         routeFn,
	}

	build := func(rule EndpointRule) (Policy, error) {
		keyFn, ok := keyStrategies[rule.KeyStrategy]
		if !ok {
			return Policy{}, fmt.Errorf("ratelimit: unknown key strategy %q", rule.KeyStrategy)
		}
		if rule.Window <= 0 || rule.Limit <= 0 {
			return Policy{}, fmt.Errorf("ratelimit: limit and window must be positive")
		}
		return Policy{Limiter: factory(rule.Limit, rule.Window), KeyFn: keyFn}, nil
	}

	if cfg.DefaultPolicy.Window > 0 && cfg.DefaultPolicy.KeyStrategy != "" {
		px, err := build(cfg.DefaultPolicy)
		if err != nil {
			return nil, err
		}
		rtp.defaultPolicy = &px
	}

	for _, route := range cfg.Routes {
		byMethod, ok := rtp.routes[route.Pattern]
		if !ok {
			byMethod = make(map[string]Policy)
			rtp.routes[route.Pattern] = byMethod
		}
		for _, rule := range route.EndpointRules {
			m := strings.ToUpper(rule.Method)
			if m == "" {
				m = anyMethod
			}
			if _, dup := byMethod[m]; dup {
				return nil, fmt.Errorf("ratelimit: duplicate %s rule for %q", m, route.Pattern)
			}
			px, err := build(rule)
			if err != nil {
				return nil, err
			}
			byMethod[m] = px
		}
	}
	return rtp, nil
}

func NewRateLimitMiddleware(p *RuntimePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ri := p.RouteInfoFn(r)
			px, ok := p.find(ri)
			if !ok {
				if p.AllowIfNoMatch {
					next.ServeHTTP(w, r)
					return
				}
				slog.WarnContext(r.Context(), "no rate limit policy", slog.String("route", ri.ID), slog.String("path", ri.Path))
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}

			key := px.KeyFn(r)
			if key == "" {
				if p.AllowIfNoIdentifier {
					next.ServeHTTP(w, r)
					return
				}
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}

			result, err := px.Limiter.Allow(r.Context(), rl.Key(ri.ID+"|"+string(key)))
			if err != nil {
				slog.ErrorContext(r.Context(), "rate limit store failed", slog.Any("error", err), slog.String("route", ri.ID))
				problem.Write(w, problem.Internal(http.StatusText(http.StatusInternalServerError)))
				return
			}

			writeHeaders(w, result)
			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(result.RetryAfter.Seconds()+0.5), 10))
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeHeaders(w http.ResponseWriter, res rl.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
	h.Set("X-RateLimit-Window-Seconds", strconv.FormatInt(int64(res.Window.Seconds()), 10))
	h.Set("X-RateLimit-Reset-Seconds", strconv.FormatInt(int64(res.WindowResetIn.Seconds()), 10))
}

// RemoteIpKeyFunc uses the right-most X-Forwarded-For entry, which is the one
// added by the closest proxy, and falls back to the peer address.
func RemoteIpKeyFunc(r *http.Request) rl.Key {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[len(parts)-1]); ip != "" {
			return rl.Key(ip)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return rl.Key(r.RemoteAddr)
	}
	return rl.Key(host)
}
