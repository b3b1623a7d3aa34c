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
	"errors"
	"log/slog"
	"net/http"

	"techstructure/core/gateway/domain"
	"techstructure/modules/middleware/problem"
)

const (
	HeaderUsername = "X-Username"
	HeaderEmail    = "X-Email"
	HeaderUUID     = "X-Uuid"
)

var identityHeaders = []string{HeaderUsername, HeaderEmail, HeaderUUID}

// Resolver finds the principal of a request. Returning an error means "no
// principal from this source".
type Resolver interface {
	Resolve(r *http.Request) (domain.Principal, error)
}

type ResolverFunc func(r *http.Request) (domain.Principal, error)

func (f ResolverFunc) Resolve(r *http.Request) (domain.Principal, error) { return f(r) }

var errNoResolver = errors.New("no resolver matched")

// StripIdentityHeaders removes client supplied identity headers so only the
// gateway can set them.
func StripIdentityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		present := false
		for _, h := range identityHeaders {
			if _, ok := r.Header[h]; ok {
				present = true
				break
			}
		}
		if present {
			r = r.Clone(r.Context())
			for _, h := range identityHeaders {
				r.Header.Del(h)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ResolvePrincipal asks each resolver in turn and stores the first principal
// in the request context, then applies policy. Login paths are skipped.
func ResolvePrincipal(policy domain.Policy, resolvers ...Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy.IsLoginPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			p, err := firstPrincipal(r, resolvers)
			if err == nil {
				r = r.WithContext(domain.WithPrincipal(r.Context(), p))
			} else if !errors.Is(err, errNoResolver) {
				slog.DebugContext(r.Context(), "no principal", slog.Any("error", err))
			}

			if !policy.Authorize(r.URL.Path, p) {
				problem.Write(w, problem.Unauthorized("authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func firstPrincipal(r *http.Request, resolvers []Resolver) (domain.Principal, error) {
	err := errNoResolver
	for _, res := range resolvers {
		p, rerr := res.Resolve(r)
		if rerr == nil && p != nil {
			return p, nil
		}
		if rerr != nil {
			err = rerr
		}
	}
	return nil, err
}

// InjectIdentityHeaders copies the principal's OIDC claims onto the request
// headers. Requests without such a principal pass through as the same value.
func InjectIdentityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, withIdentityHeaders(r))
	})
}

func withIdentityHeaders(r *http.Request) *http.Request {
	p, _ := domain.PrincipalFrom(r.Context())
	claims, ok := domain.ClaimsOf(p)
	if !ok {
		return r
	}
	out := r.Clone(r.Context())
	out.Header.Set(HeaderUsername, claims.PreferredUsername)
	out.Header.Set(HeaderEmail, claims.Email)
	out.Header.Set(HeaderUUID, claims.Subject)
	return out
}
