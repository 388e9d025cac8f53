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

package domain

import (
	"context"
	"log/slog"

	"forum/core/listing"
	"forum/modules/clock"
)

const (
	DefaultWorkers  = 8
	DefaultAdminUID = 1
	groupsPerPage   = 20
	recentPostLimit = 20
)

type (
	Stores struct {
		Categories CategoryStore
		Topics     TopicStore
		Groups     GroupStore
		Users      UserStore
		Settings   SettingsStore
	}

	Application struct {
		categories CategoryStore
		topics     TopicStore
		groups     GroupStore
		users      UserStore
		settings   SettingsStore
		notifier   Notifier
		locker     Locker

		site     SiteConfig
		defaults UserSettings
		clock    clock.Clock
		workers  int
		adminUID int64
	}

	Option func(*Application)
)

func WithSite(site SiteConfig) Option {
	return func(a *Application) { a.site = site }
}

// WithDefaults sets the listing preferences of guests and of users who never
// saved their own.
func WithDefaults(s UserSettings) Option {
	return func(a *Application) { a.defaults = s }
}

func WithClock(c clock.Clock) Option {
	return func(a *Application) { a.clock = c }
}

func WithWorkers(n int) Option {
	return func(a *Application) {
		if n > 0 {
			a.workers = n
		}
	}
}

func WithLocker(l Locker) Option {
	return func(a *Application) { a.locker = l }
}

func WithNotifier(n Notifier) Option {
	return func(a *Application) { a.notifier = n }
}

// WithAdminUID sets the author of the topics created along with a category.
func WithAdminUID(uid int64) Option {
	return func(a *Application) { a.adminUID = uid }
}

func NewApp(stores Stores, opts ...Option) *Application {
	app := &Application{
		categories: stores.Categories,
		topics:     stores.Topics,
		groups:     stores.Groups,
		users:      stores.Users,
		settings:   stores.Settings,
		locker:     localLocker{},
		notifier:   noopNotifier{},
		clock:      clock.RealClockProvider(),
		workers:    DefaultWorkers,
		adminUID:   DefaultAdminUID,
		defaults: UserSettings{
			TopicsPerPage:     20,
			PostsPerPage:      20,
			UsePagination:     true,
			TopicPostSort:     listing.SortOldestToNewest,
			CategoryTopicSort: listing.SortNewestToOldest,
		},
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// unhandled passes known errors and listing signals through and hides the rest.
func unhandled(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if isKnown(err) || isControl(err) {
		return err
	}
	slog.ErrorContext(ctx, "unexpected error", slog.String("op", op), slog.Any("error", err))
	return ErrUnhandled
}

type localLocker struct{}

func (localLocker) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type noopNotifier struct{}

func (noopNotifier) SubscribeToCategory(context.Context, int64, int64) error { return nil }
