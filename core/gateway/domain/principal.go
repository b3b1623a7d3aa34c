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

// Package domain holds the gateway's view of an authenticated caller and the
// policy deciding which paths need one.
package domain

import "context"

type (
	// Claims are the standard OIDC claims forwarded downstream.
	Claims struct {
		Subject           string `json:"sub"`
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
	}

	// Principal is whoever the request was authenticated as.
	Principal interface {
		Name() string
	}

	// ClaimsCarrier is implemented by principals that came from the identity
	// provider and expose its claims.
	ClaimsCarrier interface {
		OIDCClaims() (Claims, bool)
	}

	// OIDCUser is a principal established through the browser login flow.
	OIDCUser struct {
		Claims   Claims
		Provider string
	}

	// BearerUser is a principal established from a verified access token.
	BearerUser struct {
		Claims Claims
		Scopes []string
	}

	principalKey struct{}
)

var (
	_ ClaimsCarrier = OIDCUser{}
	_ ClaimsCarrier = BearerUser{}
)

func (u OIDCUser) Name() string { return u.Claims.Subject }

func (u OIDCUser) OIDCClaims() (Claims, bool) { return u.Claims, u.Claims.Subject != "" }

func (u BearerUser) Name() string { return u.Claims.Subject }

// OIDCClaims only reports claims for tokens that carry a subject.
func (u BearerUser) OIDCClaims() (Claims, bool) { return u.Claims, u.Claims.Subject != "" }

// ClaimsOf checks whether p exposes OIDC claims. A nil principal, or one
// without the capability, yields false.
func ClaimsOf(p Principal) (Claims, bool) {
	if p == nil {
		return Claims{}, false
	}
	carrier, ok := p.(ClaimsCarrier)
	if !ok {
		return Claims{}, false
	}
	return carrier.OIDCClaims()
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p != nil
}
