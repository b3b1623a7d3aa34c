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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"techstructure/modules/clock"
	rl "techstructure/modules/ratelimit"
)

func prefixRoute(r *http.Request) RouteInfo {
	return RouteInfo{ID: "/api/user", Method: r.Method, Path: r.URL.Path}
}

func newPolicy(t *testing.T, cfg RestHTTPConfig) *RuntimePolicy {
	t.Helper()
	now := time.Unix(1_700_000_000, 0)
	factory := rl.SlidingWindowFactory(clock.Func(func() time.Time { return now }), rl.NewMemoryCounter(), "rl")
	p, err := ParsePolicy(factory, cfg, prefixRoute, map[KeyStrategyId]KeyFunc{
		RemoteIpKeyStrategy: RemoteIpKeyFunc,
	})
	if err != nil {
		t.Fatalf("ParsePolicy: %v", err)
	}
	return p
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	t.Parallel()

	p := newPolicy(t, RestHTTPConfig{
		Routes: []Route{{
			Pattern:       "/api/user",
			EndpointRules: []EndpointRule{{Limit: 1, Window: time.Minute, KeyStrategy: RemoteIpKeyStrategy}},
		}},
	})
	h := NewRateLimitMiddleware(p)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.RemoteAddr = "10.1.1.1:5555"

	first := httptest.NewRecorder()
	h.ServeHTTP(first, req)
	if first.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("limit header = %q", first.Header().Get("X-RateLimit-Limit"))
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
}

func TestMiddlewarePassesUnmatchedRoutes(t *testing.T) {
	t.Parallel()

	p := newPolicy(t, RestHTTPConfig{AllowIfNoMatch: true})
	called := false
	h := NewRateLimitMiddleware(p)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if !called {
		t.Fatal("next handler not called")
	}
}

func TestParsePolicyRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	_, err := ParsePolicy(nil, RestHTTPConfig{
		Routes: []Route{{Pattern: "/a", EndpointRules: []EndpointRule{{Limit: 1, Window: time.Second, KeyStrategy: "nope"}}}},
	}, prefixRoute, map[KeyStrategyId]KeyFunc{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRemoteIpKeyFunc(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	if got := RemoteIpKeyFunc(req); got != "192.0.2.7" {
		t.Fatalf("peer key = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.1, 198.51.100.2")
	if got := RemoteIpKeyFunc(req); got != "198.51.100.2" {
		t.Fatalf("xff key = %q", got)
	}
}
