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

// Package settingscache keeps user settings in a KV in front of the durable store.
package settingscache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"forum/core/forum/domain"
	"forum/modules/db"
)

var _ domain.SettingsStore = (*Store)(nil)

type Store struct {
	next  domain.SettingsStore
	cache db.JSONKV[domain.UserSettings]
}

// New caches next in kv. Expiry is the KV's concern (see redis.WithDefaultTTL).
func New(next domain.SettingsStore, kv db.KV) *Store {
	return &Store{next: next, cache: db.NewJSONKV[domain.UserSettings](kv)}
}

// GetSettings serves from the cache and fills it on a miss. Cache failures
// never fail the read.
func (s *Store) GetSettings(ctx context.Context, uid int64) (*domain.UserSettings, error) {
	key := strconv.FormatInt(uid, 10)
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "settings cache read failed", slog.Int64("uid", uid), slog.Any("error", err))
	}
	if cached != nil {
		return cached, nil
	}

	stored, err := s.next.GetSettings(ctx, uid)
	if err != nil || stored == nil {
		return stored, err
	}
	if _, err := s.cache.Set(ctx, key, *stored); err != nil {
		slog.WarnContext(ctx, "settings cache fill failed", slog.Int64("uid", uid), slog.Any("error", err))
	}
	return stored, nil
}

// SaveSettings writes through. When the cache cannot be updated, or the save
// lost a version race and the cached copy is stale, the entry is dropped so the
// next read goes to the durable store.
func (s *Store) SaveSettings(ctx context.Context, settings domain.UserSettings) (*domain.UserSettings, error) {
	key := strconv.FormatInt(settings.UID, 10)
	saved, err := s.next.SaveSettings(ctx, settings)
	if errors.Is(err, domain.ErrPrecondition) {
		s.evict(ctx, key, settings.UID)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.cache.Set(ctx, key, *saved); err != nil {
		slog.WarnContext(ctx, "settings cache update failed", slog.Int64("uid", settings.UID), slog.Any("error", err))
		s.evict(ctx, key, settings.UID)
	}
	return saved, nil
}

func (s *Store) evict(ctx context.Context, key string, uid int64) {
	if err := s.cache.Delete(ctx, key); err != nil {
		slog.ErrorContext(ctx, "settings cache evict failed", slog.Int64("uid", uid), slog.Any("error", err))
	}
}
