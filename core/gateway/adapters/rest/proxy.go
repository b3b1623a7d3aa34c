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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"techstructure/modules/middleware/problem"
)

// Route forwards every request under Prefix to Target.
type Route struct {
	ID          string `env:"ID"`
	Prefix      string `env:"PREFIX"`
	Target      string `env:"TARGET"`
	StripPrefix bool   `env:"STRIP_PREFIX" envDefault:"true"`
}

// DefaultRoutes is used when no route is configured.
func DefaultRoutes() []Route {
	return []Route{{ID: "userinfo", Prefix: "/api/userinfo", Target: "http://userinfo:8081", StripPrefix: true}}
}

func (rt Route) validate() (*url.URL, error) {
	if rt.ID == "" {
		return nil, errors.New("route id is required")
	}
	if !strings.HasPrefix(rt.Prefix, "/") || rt.Prefix == "/" {
		return nil, fmt.Errorf("route %s: prefix %q must start with / and not be the root", rt.ID, rt.Prefix)
	}
	target, err := url.Parse(rt.Target)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("route %s: bad target %q", rt.ID, rt.Target)
	}
	return target, nil
}

// NewProxy builds the reverse proxy for rt.
func NewProxy(rt Route, transport http.RoundTripper) (http.Handler, error) {
	target, err := rt.validate()
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimSuffix(rt.Prefix, "/")

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			if rt.StripPrefix {
				pr.Out.URL.Path = stripPrefix(pr.In.URL.Path, prefix)
				pr.Out.URL.RawPath = ""
			}
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport:     transport,
		FlushInterval: -1,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.WarnContext(r.Context(), "upstream error",
				slog.String("route", rt.ID), slog.String("path", r.URL.Path), slog.Any("error", err))
			if errors.Is(err, context.DeadlineExceeded) {
				problem.Write(w, problem.Status(http.StatusGatewayTimeout, "upstream timed out"))
				return
			}
			problem.Write(w, problem.BadGateway("upstream unavailable"))
		},
	}, nil
}

func stripPrefix(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || rest[0] != '/' {
		rest = "/" + rest
	}
	return rest
}

// NewTransport is the upstream transport shared by all routes.
func NewTransport(timeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.ResponseHeaderTimeout = timeout
	t.MaxIdleConnsPerHost = 32
	return t
}
