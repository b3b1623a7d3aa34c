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

package rest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"techstructure/core/gateway/domain"
)

type stubLogin struct{}

func (stubLogin) Login(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusFound) }

func (stubLogin) Callback(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusFound) }

func (stubLogin) Logout(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusFound) }

// upstream echoes what it received.
func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Path", r.URL.Path)
		w.Header().Set("X-Seen-Uuid", r.Header.Get(HeaderUUID))
		w.Header().Set("X-Seen-Username", r.Header.Get(HeaderUsername))
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "upstream")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T, target string, resolvers ...Resolver) http.Handler {
	t.Helper()
	h, err := NewRouter(Config{
		Routes:               []Route{{ID: "userinfo", Prefix: "/api/userinfo", Target: target, StripPrefix: true}},
		StripIdentityHeaders: true,
		LoginRateLimit:       100,
	}, Deps{Login: stubLogin{}, Resolvers: resolvers})
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestProxyInjectsClaims(t *testing.T) {
	t.Parallel()

	up := upstream(t)
	session := ResolverFunc(func(*http.Request) (domain.Principal, error) {
		return domain.OIDCUser{Claims: domain.Claims{Subject: "u-1", PreferredUsername: "alice", Email: "a@x.com"}}, nil
	})
	gw := newGateway(t, up.URL, session)

	req := httptest.NewRequest(http.MethodGet, "/api/userinfo/me", nil)
	req.Header.Set(HeaderUUID, "spoofed")
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "upstream" {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("X-Seen-Path"); got != "/me" {
		t.Fatalf("upstream path = %q, want /me", got)
	}
	if rec.Header().Get("X-Seen-Uuid") != "u-1" || rec.Header().Get("X-Seen-Username") != "alice" {
		t.Fatalf("upstream identity = %q/%q", rec.Header().Get("X-Seen-Uuid"), rec.Header().Get("X-Seen-Username"))
	}
}

func TestProxyAnonymousStripsSpoofedHeaders(t *testing.T) {
	t.Parallel()

	gw := newGateway(t, upstream(t).URL)
	req := httptest.NewRequest(http.MethodGet, "/api/userinfo/small/abc", nil)
	req.Header.Set(HeaderUUID, "spoofed")
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	if rec.Header().Get("X-Seen-Uuid") != "" {
		t.Fatalf("spoofed header reached upstream: %q", rec.Header().Get("X-Seen-Uuid"))
	}
	if rec.Header().Get("X-Seen-Path") != "/small/abc" {
		t.Fatalf("upstream path = %q", rec.Header().Get("X-Seen-Path"))
	}
}

func TestProxyUpstreamDown(t *testing.T) {
	t.Parallel()

	up := upstream(t)
	target := up.URL
	up.Close()

	rec := httptest.NewRecorder()
	newGateway(t, target).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/userinfo/me", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLocalEndpoints(t *testing.T) {
	t.Parallel()

	gw := newGateway(t, "http://userinfo:8081")
	tests := []struct {
		method, path string
		want         int
		body         string
	}{
		{http.MethodGet, "/test/gateway", http.StatusOK, "gateway"},
		{http.MethodGet, "/healthz", http.StatusNoContent, ""},
		{http.MethodGet, "/oauth2/authorization/keycloak", http.StatusFound, ""},
		{http.MethodGet, "/login/oauth2/code/keycloak", http.StatusFound, ""},
		{http.MethodPost, "/logout", http.StatusFound, ""},
		{http.MethodGet, "/nowhere", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		gw.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Fatalf("%s %s: status = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
		if tt.body != "" && rec.Body.String() != tt.body {
			t.Fatalf("%s: body = %q", tt.path, rec.Body)
		}
	}
}

func TestNewRouterRejectsBadRoute(t *testing.T) {
	t.Parallel()

	_, err := NewRouter(Config{Routes: []Route{{ID: "x", Prefix: "api", Target: "http://h"}}}, Deps{Login: stubLogin{}})
	if err == nil {
		t.Fatal("accepted a relative prefix")
	}
}

func TestRouteInfoLongestPrefix(t *testing.T) {
	t.Parallel()

	fn := RouteInfo([]Route{{Prefix: "/api"}, {Prefix: "/api/userinfo/"}})
	tests := map[string]string{
		"/api/userinfo/me": "/api/userinfo",
		"/api/userinfo":    "/api/userinfo",
		"/api/recipes":     "/api",
		"/apix":            "/apix",
	}
	for path, want := range tests {
		if got := fn(httptest.NewRequest(http.MethodGet, path, nil)).ID; got != want {
			t.Fatalf("%s: id = %q, want %q", path, got, want)
		}
	}
}

func TestPrincipalKey(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := PrincipalKey(req); got != "192.0.2.1" {
		t.Fatalf("anonymous key = %q", got)
	}
	req = req.WithContext(domain.WithPrincipal(req.Context(), domain.OIDCUser{Claims: domain.Claims{Subject: "u-1"}}))
	if got := PrincipalKey(req); got != "sub:u-1" {
		t.Fatalf("principal key = %q", got)
	}
}

func TestRouteLabel(t *testing.T) {
	t.Parallel()

	label := RouteLabel([]Route{{Prefix: "/api/userinfo"}})
	tests := map[string]string{
		"/api/userinfo/me": "/api/userinfo",
		"/api/userinfo":    "/api/userinfo",
		"/test/gateway":    "local",
		"/random/thing":    "local",
	}
	for path, want := range tests {
		if got := label(httptest.NewRequest(http.MethodGet, path, nil)); got != want {
			t.Fatalf("%s: label = %q, want %q", path, got, want)
		}
	}
}
