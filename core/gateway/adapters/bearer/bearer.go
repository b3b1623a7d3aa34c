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

// Package bearer resolves principals from RS256 access tokens issued by the
// identity provider.
package bearer

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"techstructure/core/gateway/domain"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoToken = errors.New("bearer: no token")

type Config struct {
	// PEM encoded RSA public key of the realm. Empty disables bearer auth.
	PublicKey string        `env:"PUBLIC_KEY"`
	Issuer    string        `env:"ISSUER"`
	Audience  string        `env:"AUDIENCE"`
	Leeway    time.Duration `env:"LEEWAY" envDefault:"30s"`
}

func (c Config) Enabled() bool { return strings.TrimSpace(c.PublicKey) != "" }

type tokenClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	Scope             string `json:"scope"`
}

type Verifier struct {
	key    *rsa.PublicKey
	parser *jwt.Parser
}

func New(cfg Config) (*Verifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("bearer: public key: %w", err)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Verifier{key: key, parser: jwt.NewParser(opts...)}, nil
}

// Verify checks signature and registered claims of raw.
func (v *Verifier) Verify(raw string) (domain.BearerUser, error) {
	var claims tokenClaims
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return domain.BearerUser{}, fmt.Errorf("bearer: %w", err)
	}
	return domain.BearerUser{
		Claims: domain.Claims{
			Subject:           claims.Subject,
			PreferredUsername: claims.PreferredUsername,
			Email:             claims.Email,
		},
		Scopes: strings.Fields(claims.Scope),
	}, nil
}

// Resolve reads the Authorization header. Missing or invalid tokens resolve
// to no principal; the access policy decides what that means.
func (v *Verifier) Resolve(r *http.Request) (domain.Principal, error) {
	raw, ok := tokenFrom(r)
	if !ok {
		return nil, ErrNoToken
	}
	user, err := v.Verify(raw)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func tokenFrom(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
