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

// Package keycloak resolves identities through the Keycloak admin API.
package keycloak

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"techstructure/core/profile/domain"
	"techstructure/modules/clock"

	"github.com/Nerzal/gocloak/v13"
	"github.com/gofrs/uuid/v5"
	"golang.org/x/time/rate"
)

var _ domain.IdentityProvider = (*Client)(nil)

// adminAPI is the part of *gocloak.GoCloak the client uses.
type adminAPI interface {
	LoginAdmin(ctx context.Context, username, password, realm string) (*gocloak.JWT, error)
	GetUserByID(ctx context.Context, accessToken, realm, userID string) (*gocloak.User, error)
}

type Client struct {
	api     adminAPI
	cfg     Config
	limiter *rate.Limiter
	clock   clock.Clock

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type Option func(*Client)

func WithClock(c clock.Clock) Option {
	return func(cl *Client) { cl.clock = c }
}

func withAPI(api adminAPI) Option {
	return func(cl *Client) { cl.api = api }
}

func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1)),
		clock:   clock.RealClock{},
	}
	if cfg.RequestsPerSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.api == nil {
		gc := gocloak.NewClient(cfg.URL)
		if cfg.Timeout > 0 {
			gc.RestyClient().SetTimeout(cfg.Timeout)
		}
		c.api = gc
	}
	return c
}

// GetUser maps the Keycloak user representation onto an Identity. Disabled
// accounts are reported as banned; brief representations omit "enabled" and
// count as active.
func (c *Client) GetUser(ctx context.Context, id uuid.UUID) (domain.Identity, error) {
	user, err := c.getUser(ctx, id)
	if isStatus(err, http.StatusUnauthorized) {
		c.invalidate()
		user, err = c.getUser(ctx, id)
	}
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return domain.Identity{}, fmt.Errorf("%w: %s", domain.ErrIdentityUnknown, id)
		}
		return domain.Identity{}, fmt.Errorf("%w: %w", domain.ErrIdentityLookup, err)
	}

	return domain.Identity{
		ID:       id,
		Username: gocloak.PString(user.Username),
		Email:    gocloak.PString(user.Email),
		Banned:   user.Enabled != nil && !*user.Enabled,
	}, nil
}

func (c *Client) getUser(ctx context.Context, id uuid.UUID) (*gocloak.User, error) {
	token, err := c.adminToken(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	user, err := c.api.GetUserByID(ctx, token, c.cfg.Realm, id.String())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &gocloak.APIError{Code: http.StatusNotFound, Message: "empty user representation"}
	}
	return user, nil
}

func (c *Client) adminToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.clock.Now().Before(c.expiresAt) {
		return c.token, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	jwt, err := c.api.LoginAdmin(ctx, c.cfg.AdminUser, c.cfg.AdminPassword, c.cfg.AdminRealm)
	if err != nil {
		return "", fmt.Errorf("keycloak admin login: %w", err)
	}
	c.token = jwt.AccessToken
	c.expiresAt = c.clock.Now().Add(time.Duration(jwt.ExpiresIn)*time.Second - c.cfg.TokenSkew)
	return c.token, nil
}

func (c *Client) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

func isStatus(err error, code int) bool {
	var apiErr *gocloak.APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
