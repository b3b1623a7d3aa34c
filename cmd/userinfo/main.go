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

// Command userinfo serves aggregated user profiles.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"techstructure/core/profile/adapters/identity/keycloak"
	persistence "techstructure/core/profile/adapters/persistence/pg"
	profile_http "techstructure/core/profile/adapters/rest"
	"techstructure/core/profile/domain"
	"techstructure/db/migrations"
	"techstructure/modules/appconfig"
	"techstructure/modules/db/postgres"
	"techstructure/modules/db/redis/locking"
	"techstructure/modules/middleware"
	"techstructure/modules/oapi"
	"techstructure/modules/server"
	"techstructure/modules/services"
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

	cfg, err := appconfig.LoadUserinfo()
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

	pool, err := postgres.New(ctx, &cfg.Postgres, postgres.PostgresOptions{
		WriterOptions: []postgres.PgxConfigOption{postgres.WithApplicationName("userinfo")},
		// replicas may sit behind pgBouncer in transaction mode
		ReaderOptions: []postgres.PgxConfigOption{
			postgres.WithApplicationName("userinfo"),
			postgres.WithPgBouncerSimpleProtocol(),
		},
		MigrationsFS:  migrations.FS,
		MigrationsDir: migrations.Dir,
	})
	if err != nil {
		slog.ErrorContext(ctx, "database error", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := pool.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "database shutdown error", slog.Any("error", err))
		}
	}()

	if err := pool.HealthCheck(ctx); err != nil {
		slog.ErrorContext(ctx, "database health check failed", slog.Any("error", err))
		exitCode = 1
		return
	}

	if cfg.MigrateOnStart {
		if err := migrate(ctx, cfg, pool); err != nil {
			slog.ErrorContext(ctx, "migration failed", slog.Any("error", err))
			exitCode = 1
			return
		}
	}

	profiles, err := persistence.NewProfileStore(ctx, pool, cfg.Tables)
	if err != nil {
		slog.ErrorContext(ctx, "profile store initialization error", slog.Any("error", err))
		exitCode = 1
		return
	}
	content := persistence.NewContentStore(pool, cfg.Tables)
	identities := keycloak.New(cfg.Keycloak)

	// --- application layer ---

	app := domain.NewApp(identities, profiles, profiles, content, content, cfg.Profiles)
	api := profile_http.NewProfileAPI(app, pool)

	doc, err := middleware.LoadOpenAPI(ctx, oapi.FS, oapi.UserinfoSpec)
	if err != nil {
		slog.ErrorContext(ctx, "openapi document error", slog.Any("error", err))
		exitCode = 1
		return
	}

	httpMetrics, err := telemetry.NewHTTPMetrics("userinfo")
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
		server.WithServices(services.NewUserinfoService(api.Routes(), doc, httpMetrics)),
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

// migrate applies pending migrations while holding a Redis lock, so replicas
// starting together apply them once.
func migrate(ctx context.Context, cfg *appconfig.UserinfoConfig, pool *postgres.PostgresConnectionPool) error {
	locker, err := locking.NewLocker(cfg.Redis)
	if err != nil {
		return err
	}
	defer locker.Close()

	executor := locking.NewLockingTaskExecutor(locker,
		locking.WithWaitForLock(true),
		locking.WithAcquireTimeout(cfg.MigrationLockTTL),
		locking.WithNamePrefix("userinfo:"),
	)
	return executor.Execute(ctx, locking.LockConfiguration{
		Name:          "migrations",
		LockAtMostFor: cfg.MigrationLockTTL,
	}, pool.MigrateUp)
}
