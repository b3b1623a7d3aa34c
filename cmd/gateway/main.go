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

// Command gateway is the edge service: it logs users in against the identity
// provider and forwards their identity to downstream services.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gwbearer "techstructure/core/gateway/adapters/bearer"
	gwoidc "techstructure/core/gateway/adapters/oidc"
	gwrest "techstructure/core/gateway/adapters/rest"
	"techstructure/core/gateway/domain"
	"techstructure/modules/appconfig"
	"techstructure/modules/clock"
	"techstructure/modules/db/redis"
	"techstructure/modules/db/redis/counter"
	"techstructure/modules/middleware/ratelimit"
	rl "techstructure/modules/ratelimit"
	"techstructure/modules/server"
	"techstructure/modules/services"
	"techstructure/modules/session"
	"techstructure/modules/telemetry"
)

func main() {
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()

	cfg, err := appconfig.LoadGateway()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", slog.Any("error", err))
		exitCode = 1
		return
	}
	slog.SetDefault(cfg.Logging.Logger(os.Stderr))

	otelShutdown, err := telemetry.Init(ctx, cfg.Otel)
	if err != nil {
		slog.ErrorContext(ctx, "telemetry not properly configured", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := otelShutdown(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "telemetry shutdown error", slog.Any("error", err))
		}
	}()

	// --- infrastructure ---

	redisClient, err := redis.NewRueidisClient(ctx, cfg.Redis)
	if err != nil {
		slog.ErrorContext(ctx, "redis not properly setup", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer redisClient.Close()

	sessionKV := redis.NewRedisKV(redisClient,
		redis.WithKeyPrefix("gateway:session"),
		redis.WithDefaultTTL(cfg.Session.MaxAge),
	)
	if cfg.Session.HashKey == "" {
		slog.WarnContext(ctx, "SESSION_HASH_KEY not set, sessions will not survive a restart")
	}
	sessions, err := session.NewStore(sessionKV, cfg.Session.Options(), cfg.Session.KeyPairs()...)
	if err != nil {
		slog.ErrorContext(ctx, "session store error", slog.Any("error", err))
		exitCode = 1
		return
	}

	// --- identity ---

	gothic, err := gwoidc.NewGothic(cfg.OIDC, sessions)
	if err != nil {
		slog.ErrorContext(ctx, "oidc provider error", slog.Any("error", err))
		exitCode = 1
		return
	}
	login := gwoidc.NewHandler(cfg.OIDC, gothic, sessions, cfg.Session.CookieName)

	resolvers := []gwrest.Resolver{login}
	if cfg.Bearer.Enabled() {
		verifier, err := gwbearer.New(cfg.Bearer)
		if err != nil {
			slog.ErrorContext(ctx, "bearer verifier error", slog.Any("error", err))
			exitCode = 1
			return
		}
		resolvers = append(resolvers, verifier)
	}

	// --- rate limiting ---

	var rateLimit func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		store := counter.NewRedisCounterStore(redisClient, "gateway")
		policy, err := ratelimit.ParsePolicy(
			rl.SlidingWindowFactory(clock.RealClock{}, store, "gateway"),
			cfg.RateLimit,
			gwrest.RouteInfo(cfg.Routes),
			map[ratelimit.KeyStrategyId]ratelimit.KeyFunc{
				ratelimit.RemoteIpKeyStrategy:  ratelimit.RemoteIpKeyFunc,
				ratelimit.PrincipalKeyStrategy: gwrest.PrincipalKey,
			},
		)
		if err != nil {
			slog.ErrorContext(ctx, "ratelimit config not properly parsed", slog.Any("error", err))
			exitCode = 1
			return
		}
		rateLimit = ratelimit.NewRateLimitMiddleware(policy)
	}

	router, err := gwrest.NewRouter(gwrest.Config{
		Routes:               cfg.Routes,
		StripIdentityHeaders: cfg.StripIdentityHeaders,
		CORS:                 cfg.CORS,
		LoginRateLimit:       cfg.LoginRateLimit,
		LoginRateWindow:      cfg.LoginRateWindow,
		UpstreamTimeout:      cfg.UpstreamTimeout,
	}, gwrest.Deps{
		Policy:    domain.NewPermitAll(),
		Login:     login,
		Resolvers: resolvers,
		RateLimit: rateLimit,
	})
	if err != nil {
		slog.ErrorContext(ctx, "gateway routes error", slog.Any("error", err))
		exitCode = 1
		return
	}

	httpMetrics, err := telemetry.NewHTTPMetrics("gateway")
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize HTTP metrics, continuing without metrics", slog.Any("error", err))
		httpMetrics = nil
	}
	srv, err := server.New(
		cfg.Server.Host, cfg.Server.Port,
		server.WithReadTimeout(cfg.Server.ReadTimeout),
		server.WithWriteTimeout(cfg.Server.WriteTimeout),
		server.WithIdleTimeout(cfg.Server.IdleTimeout),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.WithServices(services.NewGatewayService(router, httpMetrics, gwrest.RouteLabel(cfg.Routes))),
	)
	if err != nil {
		slog.ErrorContext(ctx, "init server error", slog.Any("error", err))
		exitCode = 1
		return
	}

	if err := srv.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "running server error", slog.Any("error", err))
		exitCode = 1
		return
	}
}
