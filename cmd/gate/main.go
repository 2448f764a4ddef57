// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command gate is the entry point for the sessiongate HTTP server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and Redis.
//  4. Run database migrations (idempotent).
//  5. Wire the session store, gate and identity providers.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/sessiongate/internal/api"
	"github.com/taibuivan/sessiongate/internal/gate"
	"github.com/taibuivan/sessiongate/internal/oauth"
	"github.com/taibuivan/sessiongate/internal/platform/config"
	"github.com/taibuivan/sessiongate/internal/platform/constants"
	"github.com/taibuivan/sessiongate/internal/platform/migration"
	pgstore "github.com/taibuivan/sessiongate/internal/platform/postgres"
	redisstore "github.com/taibuivan/sessiongate/internal/platform/redis"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/session"
	"github.com/taibuivan/sessiongate/internal/users/account"
	"github.com/taibuivan/sessiongate/internal/users/auth"
	"github.com/taibuivan/sessiongate/internal/web"
)

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})).With(slog.String("app", constants.AppName))
}

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Any("oauth_providers", cfg.OAuthProviderNames),
	)

	if !cfg.CookieSecure && cfg.IsProduction() {
		log.Warn("insecure_cookies_in_production")
	}

	// Root context for background work; cancelled on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup deadline, so misconfiguration is caught quickly rather than hanging.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 3b. Redis ─────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	}()

	// ── 4. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 5. Session & Gate ─────────────────────────────────────────────────
	sessions := session.NewManager(session.NewRedisStore(rdb, cfg.SessionTTL))
	signer := sec.NewSessionSigner(cfg.SessionSecret, constants.SessionIssuer)
	cookies := session.NewCookies(signer, cfg.SessionTTL, cfg.CookieSecure)
	loader := session.NewLoader(sessions, cookies)
	guard := gate.NewGuard(loader)

	providers, err := oauth.NewRegistry(startupCtx, cfg.OAuthProviders)
	must(log, err, "discover identity providers")
	flows := oauth.NewFlowCookies(cfg.SessionSecret, cfg.CookieSecure)

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	policy := auth.NewTwoFactorPolicy(cfg.TwoFactorRequiredRoles)
	userRepository := auth.NewUserRepository(pool)
	authService := auth.NewService(
		userRepository,
		auth.Tokens{
			Reset:        auth.NewResetTokenRepository(rdb),
			Verification: auth.NewVerificationTokenRepository(rdb),
			PendingTOTP:  auth.NewPendingTOTPRepository(rdb),
		},
		sessions,
		policy,
		auth.NewTOTP(cfg.TOTPIssuer),
		auth.LogNotifier{},
	)

	accountService := account.NewService(account.NewAccountRepository(pool), policy, log)

	pages, err := web.NewHandler(guard, constants.AppName)
	must(log, err, "parse page templates")

	liveness, readiness := api.NewHealthHandlers(log,
		api.HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }},
		api.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
	)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(rootCtx, cfg, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Guard:     guard,
		Session:   gate.NewHandler(loader, sessions),
		Auth:      auth.NewHandler(authService, cookies, guard, providers, flows),
		Account:   account.NewHandler(accountService),
		Web:       pages,
	})

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
