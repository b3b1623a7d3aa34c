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

// Package rest is the gateway's HTTP surface: login endpoints, identity
// filters and the reverse proxy routes.
package rest

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"techstructure/core/gateway/domain"
	"techstructure/modules/api/serde"
	"techstructure/modules/middleware/problem"
	"techstructure/modules/middleware/ratelimit"
	rl "techstructure/modules/ratelimit"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

type (
	CORSConfig struct {
		AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
		AllowCredentials bool     `env:"ALLOW_CREDENTIALS" envDefault:"true"`
		MaxAge           int      `env:"MAX_AGE" envDefault:"300"`
	}

	Config struct {
		Routes               []Route
		StripIdentityHeaders bool
		CORS                 CORSConfig
		LoginRateLimit       int
		LoginRateWindow      time.Duration
		UpstreamTimeout      time.Duration
	}

	// LoginHandler serves the browser login flow.
	LoginHandler interface {
		Login(w http.ResponseWriter, r *http.Request)
		Callback(w http.ResponseWriter, r *http.Request)
		Logout(w http.ResponseWriter, r *http.Request)
	}

	Deps struct {
		Policy    domain.Policy
		Login     LoginHandler
		Resolvers []Resolver
		// RateLimit guards the proxied routes. Nil disables it.
		RateLimit func(http.Handler) http.Handler
		// Transport defaults to NewTransport(UpstreamTimeout).
		Transport http.RoundTripper
	}
)

// NewRouter assembles the gateway. Filters run in this order: identity header
// stripping, principal resolution, rate limiting, header injection, proxy.
func NewRouter(cfg Config, deps Deps) (http.Handler, error) {
	if deps.Policy == nil {
		deps.Policy = domain.NewPermitAll()
	}
	if deps.Login == nil {
		return nil, errors.New("gateway: login handler is required")
	}
	routes := cfg.Routes
	if len(routes) == 0 {
		routes = DefaultRoutes()
	}
	if deps.Transport == nil && cfg.UpstreamTimeout > 0 {
		deps.Transport = NewTransport(cfg.UpstreamTimeout)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match"},
			ExposedHeaders:   []string{"ETag", "Retry-After"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		}))
	}
	if cfg.StripIdentityHeaders {
		r.Use(StripIdentityHeaders)
	}
	r.Use(ResolvePrincipal(deps.Policy, deps.Resolvers...))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		problem.Write(w, problem.NotFound("no route"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	r.Get("/test/gateway", func(w http.ResponseWriter, _ *http.Request) {
		serde.WriteText(w, http.StatusOK, "gateway")
	})

	r.Group(func(r chi.Router) {
		if cfg.LoginRateLimit > 0 {
			window := cfg.LoginRateWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.Limit(cfg.LoginRateLimit, window,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					problem.Write(w, problem.TooManyRequests("too many login attempts"))
				}),
			))
		}
		r.Get("/oauth2/authorization/{provider}", deps.Login.Login)
		r.Get("/login/oauth2/code/{provider}", deps.Login.Callback)
	})
	r.Get("/logout", deps.Login.Logout)
	r.Post("/logout", deps.Login.Logout)

	proxied := chi.Chain(InjectIdentityHeaders)
	if deps.RateLimit != nil {
		proxied = chi.Chain(deps.RateLimit, InjectIdentityHeaders)
	}
	for _, rt := range routes {
		proxy, err := NewProxy(rt, deps.Transport)
		if err != nil {
			return nil, err
		}
		h := proxied.Handler(proxy)
		prefix := strings.TrimSuffix(rt.Prefix, "/")
		r.Handle(prefix, h)
		r.Handle(prefix+"/*", h)
	}
	return r, nil
}

// RouteInfo resolves the configured route a request falls under, longest
// prefix first, so rate limit policies can be keyed by route prefix.
func RouteInfo(routes []Route) ratelimit.RouteInfoFunc {
	prefixes := make([]string, 0, len(routes))
	for _, rt := range routes {
		prefixes = append(prefixes, strings.TrimSuffix(rt.Prefix, "/"))
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	return func(r *http.Request) ratelimit.RouteInfo {
		ri := ratelimit.RouteInfo{ID: r.URL.Path, Method: r.Method, Path: r.URL.Path}
		for _, p := range prefixes {
			if r.URL.Path == p || strings.HasPrefix(r.URL.Path, p+"/") {
				ri.ID = p
				break
			}
		}
		return ri
	}
}

// RouteLabel names the configured route a request belongs to, or "local"
// for the gateway's own endpoints.
func RouteLabel(routes []Route) func(*http.Request) string {
	info := RouteInfo(routes)
	return func(r *http.Request) string {
		if id := info(r).ID; id != r.URL.Path || isPrefix(routes, id) {
			return id
		}
		return "local"
	}
}

func isPrefix(routes []Route, p string) bool {
	for _, rt := range routes {
		if strings.TrimSuffix(rt.Prefix, "/") == p {
			return true
		}
	}
	return false
}

// PrincipalKey keys rate limits by the authenticated subject, falling back to
// the caller address for anonymous requests.
func PrincipalKey(r *http.Request) rl.Key {
	if p, ok := domain.PrincipalFrom(r.Context()); ok && p.Name() != "" {
		return rl.Key("sub:" + p.Name())
	}
	return ratelimit.RemoteIpKeyFunc(r)
}
