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

package redisstore

import (
	"context"
	"fmt"

	"forum/core/forum/domain"

	"github.com/redis/rueidis"
)

// Users are owned by the authentication side; this store only reads them.

func (s *Store) UIDByUsername(ctx context.Context, username string) (int64, error) {
	uid, err := s.client.Do(ctx, s.client.B().Hget().Key(s.keys.usernames()).Field(username).Build()).AsInt64()
	if rueidis.IsRedisNil(err) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("redis store: uid by username: %w", err)
	}
	return uid, nil
}

func (s *Store) UIDByUserslug(ctx context.Context, slug string) (int64, error) {
	uid, err := s.client.Do(ctx, s.client.B().Hget().Key(s.keys.userslugs()).Field(slug).Build()).AsInt64()
	if rueidis.IsRedisNil(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis store: uid by userslug: %w", err)
	}
	return uid, nil
}

func (s *Store) GetUser(ctx context.Context, uid int64) (*domain.UserSummary, error) {
	m, err := s.hash(ctx, "get user", s.keys.user(uid))
	if err != nil {
		return nil, err
	}
	u, ok := decodeUser(m)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) GetUsers(ctx context.Context, uids []int64) ([]domain.UserSummary, error) {
	keys := make([]string, 0, len(uids))
	for _, uid := range uids {
		keys = append(keys, s.keys.user(uid))
	}
	maps, err := s.hashes(ctx, "get users", keys)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserSummary, 0, len(maps))
	for _, m := range maps {
		if u, ok := decodeUser(m); ok {
			out = append(out, u)
		}
	}
	return out, nil
}
