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

// Package appconfig loads the configuration of each binary from the
// environment, optionally seeded from a .env file.
package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	gwbearer "techstructure/core/gateway/adapters/bearer"
	gwoidc "techstructure/core/gateway/adapters/oidc"
	gwrest "techstructure/core/gateway/adapters/rest"
	"techstructure/core/profile/adapters/identity/keycloak"
	"techstructure/core/profile/adapters/persistence/pg"
	"techstructure/core/profile/domain"
	"techstructure/modules/db/postgres"
	"techstructure/modules/db/redis"
	"techstructure/modules/middleware/ratelimit"
	"techstructure/modules/session"
	"techstructure/modules/telemetry"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Server struct {
		Host            string        `env:"HOST" envDefault:"0.0.0.0"`
		Port            int           `env:"PORT"`
		ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	}

	Logging struct {
		Level  string `env:"LEVEL" envDefault:"info"`
		Format string `env:"FORMAT" envDefault:"text"`
	}

	UserinfoConfig struct {
		Env     string  `env:"ENV" envDefault:"dev"`
		Server  Server  `envPrefix:"SERVER_"`
		Logging Logging `envPrefix:"LOG_"`

		Postgres postgres.PostgresConfig `envPrefix:"POSTGRES_"`
		Redis    redis.RedisConfig       `envPrefix:"REDIS_"`
		Keycloak keycloak.Config         `envPrefix:"KEYCLOAK_"`

		Profiles domain.Settings `envPrefix:"PROFILE_"`
		Tables   pg.Tables       `envPrefix:"TABLE_"`

		// Migrations run at startup under a Redis lock so only one replica
		// applies them.
		MigrateOnStart   bool          `env:"MIGRATE_ON_START" envDefault:"true"`
		MigrationLockTTL time.Duration `env:"MIGRATION_LOCK_TTL" envDefault:"5m"`

		// OTEL_* names are standard, so no prefix here
		Otel telemetry.Config
	}

	GatewayConfig struct {
		Env     string  `env:"ENV" envDefault:"dev"`
		Server  Server  `envPrefix:"SERVER_"`
		Logging Logging `envPrefix:"LOG_"`

		Redis   redis.RedisConfig `envPrefix:"REDIS_"`
		OIDC    gwoidc.Config     `envPrefix:"OIDC_"`
		Session session.Config    `envPrefix:"SESSION_"`
		Bearer  gwbearer.Config   `envPrefix:"BEARER_"`

		Routes               []gwrest.Route    `envPrefix:"GATEWAY_ROUTE_"`
		StripIdentityHeaders bool              `env:"STRIP_IDENTITY_HEADERS" envDefault:"true"`
		UpstreamTimeout      time.Duration     `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
		CORS                 gwrest.CORSConfig `envPrefix:"CORS_"`

		LoginRateLimit  int                      `env:"LOGIN_RATE_LIMIT" envDefault:"20"`
		LoginRateWindow time.Duration            `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`
		RateLimit       ratelimit.RestHTTPConfig `envPrefix:"RATE_LIMIT_"`

		Otel telemetry.Config
	}
)

var ErrInvalidConfig = errors.New("invalid configuration")

// LoadUserinfo reads the userinfo configuration.
func LoadUserinfo() (*UserinfoConfig, error) {
	cfg, err := load[UserinfoConfig]()
	if err != nil {
		return nil, err
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8081
	}
	if cfg.Otel.ServiceName == "" {
		cfg.Otel.ServiceName = "userinfo"
	}
	if err := validateUserinfo(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadGateway reads the gateway configuration.
func LoadGateway() (*GatewayConfig, error) {
	cfg, err := load[GatewayConfig]()
	if err != nil {
		return nil, err
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Otel.ServiceName == "" {
		cfg.Otel.ServiceName = "gateway"
	}
	if len(cfg.Routes) == 0 {
		cfg.Routes = gwrest.DefaultRoutes()
	}
	if err := validateGateway(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func load[T any]() (T, error) {
	// .env is optional and never overrides the real environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var zero T
		return zero, fmt.Errorf("appconfig: .env: %w", err)
	}
	cfg, err := env.ParseAs[T]()
	if err != nil {
		return cfg, fmt.Errorf("appconfig: %w", err)
	}
	return cfg, nil
}

func validateServer(s Server) error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalidConfig, s.Port)
	}
	return nil
}

func validateUserinfo(c *UserinfoConfig) error {
	if err := validateServer(c.Server); err != nil {
		return err
	}
	if c.Profiles.BulkConcurrency <= 0 || c.Profiles.MaxBulkIDs <= 0 {
		return fmt.Errorf("%w: bulk concurrency and max ids must be positive", ErrInvalidConfig)
	}
	if c.Keycloak.URL == "" || c.Keycloak.Realm == "" {
		return fmt.Errorf("%w: keycloak url and realm are required", ErrInvalidConfig)
	}
	if c.Env == "prod" && c.Keycloak.AdminPassword == "admin" {
		return fmt.Errorf("%w: default keycloak admin password in prod", ErrInvalidConfig)
	}
	return nil
}

func validateGateway(c *GatewayConfig) error {
	if err := validateServer(c.Server); err != nil {
		return err
	}
	if c.OIDC.ClientID == "" || c.OIDC.DiscoveryURL == "" {
		return fmt.Errorf("%w: oidc client id and discovery url are required", ErrInvalidConfig)
	}
	if c.Env == "prod" && c.Session.HashKey == "" {
		return fmt.Errorf("%w: SESSION_HASH_KEY is required in prod", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Routes))
	for _, rt := range c.Routes {
		if seen[rt.Prefix] {
			return fmt.Errorf("%w: duplicate route prefix %q", ErrInvalidConfig, rt.Prefix)
		}
		seen[rt.Prefix] = true
	}
	return nil
}
