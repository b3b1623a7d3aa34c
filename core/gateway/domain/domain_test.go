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

package domain

import (
	"context"
	"testing"
)

type anonymous struct{}

func (anonymous) Name() string { return "anonymous" }

func TestClaimsOf(t *testing.T) {
	t.Parallel()

	claims := Claims{Subject: "u-1", PreferredUsername: "alice", Email: "a@x.com"}
	tests := []struct {
		name string
		p    Principal
		ok   bool
	}{
		{"nil", nil, false},
		{"no capability", anonymous{}, false},
		{"oidc", OIDCUser{Claims: claims, Provider: "keycloak"}, true},
		{"bearer", BearerUser{Claims: claims}, true},
		{"bearer without subject", BearerUser{Claims: Claims{Email: "a@x.com"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ClaimsOf(tt.p)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != claims {
				t.Fatalf("claims = %+v", got)
			}
		})
	}
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	if _, ok := PrincipalFrom(context.Background()); ok {
		t.Fatal("empty context has a principal")
	}
	ctx := WithPrincipal(context.Background(), OIDCUser{Claims: Claims{Subject: "u-1"}})
	p, ok := PrincipalFrom(ctx)
	if !ok || p.Name() != "u-1" {
		t.Fatalf("principal = %v, %v", p, ok)
	}
}

func TestPermitAll(t *testing.T) {
	t.Parallel()

	policy := NewPermitAll()
	for _, path := range []string{"/", "/api/userinfo/me", "/logout"} {
		if !policy.Authorize(path, nil) {
			t.Fatalf("%s denied", path)
		}
		if policy.IsLoginPath(path) {
			t.Fatalf("%s treated as login path", path)
		}
	}
	for _, path := range []string{"/oauth2/authorization/keycloak", "/login/oauth2/code/keycloak", "/login"} {
		if !policy.IsLoginPath(path) {
			t.Fatalf("%s not a login path", path)
		}
	}
}
