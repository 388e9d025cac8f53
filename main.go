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

package main

import (
	"context"
	"embed"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/rueidis/rueidislock"

	"forum/core/forum/adapters/persistence/pg"
	"forum/core/forum/adapters/persistence/redisstore"
	"forum/core/forum/adapters/persistence/settingscache"
	forum_http "forum/core/forum/adapters/rest"
	"forum/core/forum/domain"
	"forum/core/listing"
	"forum/modules/appconfig"
	"forum/modules/clock"
	"forum/modules/db/postgres"
	"forum/modules/db/redis"
	"forum/modules/db/redis/locking"
	hmac_sign "forum/modules/hmac"
	"forum/modules/middleware"
	"forum/modules/server"
	"forum/modules/services"
	"forum/modules/telemetry"
)

// OpenAPI specs for request validation at runtime
//
//go:embed modules/oapi/*.yaml
var validationSpecFS embed.FS

const specPath = "modules/oapi/openapi-forum.yaml"

func main() {
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	// cancel the context when these signals occur
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()

	// manual dependency injections, imo there's no need to over-engineer with DI frameworks like Fx or Wire
	clk := clock.RealClockProvider()

	// --- application config ----
	appConfig, err := appconfig.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", slog.Any("error", err))
		exitCode = 1
		return
	}
	slog.SetLogLoggerLevel(logLevel(appConfig.LogLevel))

	otelShutdown, err := telemetry.Init(ctx, appConfig.Otel)
	if err != nil {
		slog.ErrorContext(ctx, "telemetry not properly configured", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.ErrorContext(ctx, "telemetry shutdown error", slog.Any("error", err))
		}
	}()

	// --- infrastructure ---

	redisClient, err := redis.NewRueidisClient(ctx, appConfig.Redis)
	if err != nil {
		slog.ErrorContext(ctx, "redis not properly setup", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer redisClient.Close()

	lockClientOpt, err := redis.ClientOption(ctx, appConfig.Redis)
	if err != nil {
		slog.ErrorContext(ctx, "redis lock client options", slog.Any("error", err))
		exitCode = 1
		return
	}
	redisLocker, err := rueidislock.NewLocker(rueidislock.LockerOption{
		ClientOption: lockClientOpt,
		KeyMajority:  appConfig.Redis.LockKeyMajority,
	})
	if err != nil {
		slog.ErrorContext(ctx, "redis locker setup error", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer redisLocker.Close()

	connectionPool, err := postgres.New(
		ctx,
		&appConfig.Postgres,
		postgres.PostgresOptions{
			// assuming writer connection does not pass through pgBouncer,
			// so we can apply server-side prepared statements
			ReaderOptions: []postgres.PgxConfigOption{
				postgres.WithPgBouncerSimpleProtocol(),
			},
			Migrations:     pg.Migrations,
			MigrationsPath: pg.MigrationsPath,
		},
	)
	if err != nil {
		slog.ErrorContext(ctx, "database error", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := connectionPool.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "database shutdown error", slog.Any("error", err))
		}
	}()

	if err = connectionPool.HealthCheck(ctx); err != nil {
		slog.ErrorContext(ctx, "database health check failed", slog.Any("error", err))
		exitCode = 1
		return
	}
	if appConfig.Postgres.AutoMigrate {
		if err := connectionPool.MigrateUp(ctx); err != nil {
			slog.ErrorContext(ctx, "database migration failed", slog.Any("error", err))
			exitCode = 1
			return
		}
	}

	signer, err := hmac_sign.NewHMACSigner([]byte(appConfig.HMAC.Secret))
	if err != nil {
		slog.ErrorContext(ctx, "hmac signer setup error", slog.Any("error", err))
		exitCode = 1
		return
	}

	// --- persistence ---

	forumStore := redisstore.New(redisClient,
		redisstore.WithKeyPrefix(appConfig.Redis.KeyPrefix),
		redisstore.WithClock(clk),
	)

	settingsDB, err := pg.NewSettingsStore(ctx, connectionPool, "user_settings")
	if err != nil {
		slog.ErrorContext(ctx, "settings store initialization error", slog.Any("error", err))
		exitCode = 1
		return
	}
	settingsKV := redis.NewRedisKV(redisClient,
		redis.WithKeyPrefix(appConfig.Redis.KeyPrefix+":settings"),
		redis.WithDefaultTTL(appConfig.Forum.SettingsCacheTTL),
	)
	settings := settingscache.New(settingsDB, settingsKV)

	// --- application layer ---

	forum := appConfig.Forum
	app := domain.NewApp(
		domain.Stores{
			Categories: forumStore,
			Topics:     forumStore,
			Groups:     forumStore,
			Users:      forumStore,
			Settings:   settings,
		},
		domain.WithClock(clk),
		domain.WithNotifier(forumStore),
		domain.WithWorkers(forum.FanOutWorkers),
		domain.WithAdminUID(forum.AdminUID),
		domain.WithLocker(locking.NewLockingTaskExecutor(redisLocker,
			locking.WithNamePrefix(appConfig.Redis.KeyPrefix+":lock:"),
			locking.WithWaitForLock(true),
			locking.WithAcquireTimeout(forum.LockTimeout),
			locking.WithClock(clk),
		)),
		domain.WithSite(domain.SiteConfig{
			Title:              forum.Site.Title,
			Description:        forum.Site.Description,
			BrandLogo:          forum.Site.BrandLogo,
			URL:                forum.Site.URL,
			RelativePath:       forum.Site.RelativePath,
			ReputationDisabled: forum.Site.ReputationDisabled,
			DownvoteDisabled:   forum.Site.DownvoteDisabled,
			RSSDisabled:        forum.Site.RSSDisabled,
		}),
		domain.WithDefaults(domain.UserSettings{
			TopicsPerPage:     forum.Defaults.TopicsPerPage,
			PostsPerPage:      forum.Defaults.PostsPerPage,
			UsePagination:     forum.Defaults.UsePagination,
			TopicPostSort:     listing.SortMode(forum.Defaults.TopicPostSort),
			CategoryTopicSort: listing.SortMode(forum.Defaults.CategoryTopicSort),
		}),
	)

	// Initialize HTTP metrics for middleware-based instrumentation
	httpMetrics, err := telemetry.NewHTTPMetrics(appConfig.Otel.ServiceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize HTTP metrics, continuing without metrics", slog.Any("error", err))
		httpMetrics = nil
	}

	forumAPI := forum_http.NewForumAPI(app,
		forum_http.WithMetrics(httpMetrics),
		forum_http.WithHealthCheck("redis", forumStore),
		forum_http.WithHealthCheck("postgres", connectionPool),
	)

	adminOnly := middleware.ValidateRequestSource(signer, clk, appConfig.Source.Issuers, forum_http.SourceRejected)
	forumSvc := services.NewForumAPIService(forumAPI, adminOnly, validationSpecFS, specPath)

	rateLimitMiddleware, err := newRateLimiter(clk, redisClient, appConfig)
	if err != nil {
		slog.ErrorContext(ctx, "ratelimit config not properly parsed", slog.Any("error", err))
		exitCode = 1
		return
	}

	server, err := server.New(
		appConfig.HTTP.Host, appConfig.HTTP.Port,
		server.WithReadTimeout(appConfig.HTTP.ReadTimeout),
		server.WithWriteTimeout(appConfig.HTTP.WriteTimeout),
		server.WithIdleTimeout(appConfig.HTTP.IdleTimeout),
		server.WithServices(forumSvc),
		server.WithGlobalMiddlewares(
			forum_http.RecoverMiddleware(),
			middleware.Telemetry(httpMetrics),
			rateLimitMiddleware,
		),
	)
	if err != nil {
		slog.ErrorContext(ctx, "init server error", slog.Any("error", err))
		exitCode = 1
		return
	}

	if err := server.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "running server error", slog.Any("error", err))
		exitCode = 1
		return
	}
}
