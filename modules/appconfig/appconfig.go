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

package appconfig

import (
	"errors"
	"fmt"
	"time"

	"forum/modules/db/postgres"
	"forum/modules/db/redis"
	"forum/modules/hmac"
	"forum/modules/middleware/ratelimit"
	"forum/modules/telemetry"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type (
	Config struct {
		Env      string `env:"ENV" envDefault:"dev" validate:"oneof=dev staging prod"`
		LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

		HTTP HTTPConfig `envPrefix:"HTTP_"`

		// --- core infra ----
		HMAC     hmac.HMACConfig         `envPrefix:"HMAC_"`
		Redis    redis.RedisConfig       `envPrefix:"REDIS_"`
		Postgres postgres.PostgresConfig `envPrefix:"POSTGRES_"`

		// --- middlewares ----
		RateLimit ratelimit.RestHTTPConfig `envPrefix:"RATE_LIMIT_"`
		Source    SourceConfig             `envPrefix:"SOURCE_"`

		Forum ForumConfig `envPrefix:"FORUM_"`

		// OTEL_* names are standard, so no prefix
		Otel telemetry.Config
	}

	HTTPConfig struct {
		Host         string        `env:"HOST" envDefault:"0.0.0.0"`
		Port         int           `env:"PORT" envDefault:"8080" validate:"min=1,max=65535"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	// SourceConfig lists the signed callers allowed to hit admin routes.
	SourceConfig struct {
		Issuers []string `env:"ISSUERS" envDefault:"forum-admin" envSeparator:"," validate:"min=1,dive,required"`
	}

	ForumConfig struct {
		Site     SiteConfig     `envPrefix:"SITE_"`
		Defaults ListingDefault `envPrefix:"DEFAULT_"`

		SettingsCacheTTL time.Duration `env:"SETTINGS_CACHE_TTL" envDefault:"5m"`
		FanOutWorkers    int           `env:"FANOUT_WORKERS" envDefault:"8" validate:"min=1,max=256"`
		LockTimeout      time.Duration `env:"LOCK_TIMEOUT" envDefault:"5s"`
		// AdminUID authors the "General discussion" topic of new categories.
		AdminUID int64 `env:"ADMIN_UID" envDefault:"1" validate:"min=1"`
	}

	SiteConfig struct {
		Title              string `env:"TITLE" envDefault:"Forum" validate:"required"`
		Description        string `env:"DESCRIPTION"`
		URL                string `env:"URL" envDefault:"http://localhost:8080" validate:"required,url"`
		RelativePath       string `env:"RELATIVE_PATH"`
		BrandLogo          string `env:"BRAND_LOGO"`
		ReputationDisabled bool   `env:"REPUTATION_DISABLED"`
		DownvoteDisabled   bool   `env:"DOWNVOTE_DISABLED"`
		RSSDisabled        bool   `env:"RSS_DISABLED"`
	}

	// ListingDefault applies to guests and to users who never saved settings.
	ListingDefault struct {
		TopicsPerPage     int    `env:"TOPICS_PER_PAGE" envDefault:"20" validate:"min=1,max=100"`
		PostsPerPage      int    `env:"POSTS_PER_PAGE" envDefault:"20" validate:"min=1,max=100"`
		UsePagination     bool   `env:"USE_PAGINATION" envDefault:"true"`
		TopicPostSort     string `env:"TOPIC_POST_SORT" envDefault:"oldest_to_newest" validate:"oneof=oldest_to_newest newest_to_oldest most_votes"`
		CategoryTopicSort string `env:"CATEGORY_TOPIC_SORT" envDefault:"newest_to_oldest" validate:"oneof=oldest_to_newest newest_to_oldest most_posts"`
	}
)

var ErrWeakSecret = errors.New("appconfig: HMAC secret must be changed outside dev")

const devSecret = "dev-secret-change-me-please"

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Validate(c *Config) error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("appconfig: %w", err)
	}
	if c.Env != "dev" && c.HMAC.Secret == devSecret {
		return ErrWeakSecret
	}
	return nil
}
