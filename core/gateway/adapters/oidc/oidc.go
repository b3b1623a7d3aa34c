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

// Package oidc runs the browser login against the identity provider and keeps
// the resulting claims in the gateway session.
package oidc

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"techstructure/core/gateway/domain"
	"techstructure/modules/middleware/problem"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/openidConnect"
)

// ErrNoSession means the request carries no logged-in session.
var ErrNoSession = errors.New("oidc: no session")

const (
	keySubject  = "sub"
	keyUsername = "preferred_username"
	keyEmail    = "email"
	keyProvider = "provider"
)

// Authenticator performs the authorization code flow.
type Authenticator interface {
	Begin(w http.ResponseWriter, r *http.Request)
	Complete(w http.ResponseWriter, r *http.Request) (domain.Claims, error)
	// Reset drops the transient flow state, not the gateway session.
	Reset(w http.ResponseWriter, r *http.Request) error
}

// Regenerator is implemented by stores that keep session state server side.
// The id is rotated on login so a cookie planted earlier never becomes
// authenticated.
type Regenerator interface {
	Regenerate(r *http.Request, sess *sessions.Session) error
}

type Handler struct {
	auth        Authenticator
	store       sessions.Store
	sessionName string
	cfg         Config
}

func NewHandler(cfg Config, auth Authenticator, store sessions.Store, sessionName string) *Handler {
	return &Handler{auth: auth, store: store, sessionName: sessionName, cfg: cfg}
}

// Login redirects the browser to the provider's authorization endpoint.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.auth.Begin(w, r)
}

// Callback exchanges the code, stores the claims in the session and
// redirects to the post-login location.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	claims, err := h.auth.Complete(w, r)
	if err != nil {
		slog.WarnContext(r.Context(), "oidc callback failed", slog.Any("error", err))
		problem.Write(w, problem.Unauthorized("login failed"))
		return
	}
	if claims.Subject == "" {
		problem.Write(w, problem.Unauthorized("identity provider returned no subject"))
		return
	}

	sess, err := h.store.Get(r, h.sessionName)
	if err != nil {
		slog.ErrorContext(r.Context(), "session load failed", slog.Any("error", err))
		problem.Write(w, problem.Internal("server error"))
		return
	}
	if err := h.renew(r, sess); err != nil {
		slog.ErrorContext(r.Context(), "session renewal failed", slog.Any("error", err))
		problem.Write(w, problem.Internal("server error"))
		return
	}
	sess.Values[keySubject] = claims.Subject
	sess.Values[keyUsername] = claims.PreferredUsername
	sess.Values[keyEmail] = claims.Email
	sess.Values[keyProvider] = h.cfg.Provider
	if err := sess.Save(r, w); err != nil {
		slog.ErrorContext(r.Context(), "session save failed", slog.Any("error", err))
		problem.Write(w, problem.Internal("server error"))
		return
	}
	if err := h.auth.Reset(w, r); err != nil {
		slog.DebugContext(r.Context(), "dropping login state", slog.Any("error", err))
	}

	slog.InfoContext(r.Context(), "user logged in", slog.String("sub", claims.Subject))
	http.Redirect(w, r, h.cfg.PostLoginRedirect, http.StatusFound)
}

// renew discards whatever the session held before login. Cookie-only stores
// have no id to rotate, so their values are simply cleared.
func (h *Handler) renew(r *http.Request, sess *sessions.Session) error {
	if rg, ok := h.store.(Regenerator); ok {
		return rg.Regenerate(r, sess)
	}
	sess.Values = make(map[any]any)
	return nil
}

// Logout destroys the session. Logging out without a session is not an error.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(r, h.sessionName)
	if err == nil {
		sess.Options.MaxAge = -1
		if err := sess.Save(r, w); err != nil {
			slog.ErrorContext(r.Context(), "session delete failed", slog.Any("error", err))
			problem.Write(w, problem.Internal("server error"))
			return
		}
	}
	http.Redirect(w, r, h.cfg.PostLogoutRedirect, http.StatusFound)
}

// Resolve returns the OIDC principal stored in the session.
func (h *Handler) Resolve(r *http.Request) (domain.Principal, error) {
	sess, err := h.store.Get(r, h.sessionName)
	if err != nil {
		return nil, fmt.Errorf("oidc: session: %w", err)
	}
	sub, _ := sess.Values[keySubject].(string)
	if sess.IsNew || sub == "" {
		return nil, ErrNoSession
	}
	username, _ := sess.Values[keyUsername].(string)
	email, _ := sess.Values[keyEmail].(string)
	provider, _ := sess.Values[keyProvider].(string)
	return domain.OIDCUser{
		Claims:   domain.Claims{Subject: sub, PreferredUsername: username, Email: email},
		Provider: provider,
	}, nil
}

// Gothic is the goth-backed Authenticator. goth keeps providers and its
// session store in package state, so only one Gothic should exist per process.
type Gothic struct{}

// NewGothic discovers the provider, registers it with goth and points gothic
// at store.
func NewGothic(cfg Config, store sessions.Store) (*Gothic, error) {
	provider, err := openidConnect.New(cfg.ClientID, cfg.ClientSecret, cfg.CallbackURL, cfg.DiscoveryURL, cfg.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("oidc: discovery: %w", err)
	}
	provider.SetName(cfg.Provider)
	goth.UseProviders(provider)

	gothic.Store = store
	gothic.GetProviderName = func(*http.Request) (string, error) { return cfg.Provider, nil }
	return &Gothic{}, nil
}

func (*Gothic) Begin(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, r)
}

func (*Gothic) Complete(w http.ResponseWriter, r *http.Request) (domain.Claims, error) {
	user, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		return domain.Claims{}, err
	}
	return ClaimsFromUser(user), nil
}

func (*Gothic) Reset(w http.ResponseWriter, r *http.Request) error {
	return gothic.Logout(w, r)
}

// ClaimsFromUser prefers the raw ID token claims and falls back to goth's
// normalised fields.
func ClaimsFromUser(u goth.User) domain.Claims {
	claims := domain.Claims{
		Subject:           u.UserID,
		PreferredUsername: u.NickName,
		Email:             u.Email,
	}
	if v, ok := u.RawData["sub"].(string); ok && v != "" {
		claims.Subject = v
	}
	if v, ok := u.RawData["preferred_username"].(string); ok && v != "" {
		claims.PreferredUsername = v
	}
	if v, ok := u.RawData["email"].(string); ok && v != "" {
		claims.Email = v
	}
	return claims
}
