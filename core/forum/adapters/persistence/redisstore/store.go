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

// Package redisstore keeps the forum's categories, topics, posts, users and
// groups in redis hashes and sorted sets.
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"forum/core/forum/domain"
	"forum/modules/clock"

	"github.com/redis/rueidis"
)

var (
	_ domain.CategoryStore = (*Store)(nil)
	_ domain.TopicStore    = (*Store)(nil)
	_ domain.GroupStore    = (*Store)(nil)
	_ domain.UserStore     = (*Store)(nil)
	_ domain.Notifier      = (*Store)(nil)
)

type Store struct {
	client rueidis.Client
	keys   keyspace
	clock  clock.Clock
}

type Option func(*Store)

// WithKeyPrefix namespaces every key, e.g. "forum" gives "forum:topic:1".
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		s.keys = keyspace(prefix)
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func New(client rueidis.Client, opts ...Option) *Store {
	s := &Store{client: client, clock: clock.RealClockProvider()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// doAll runs cmds in one round trip and returns the first error.
func (s *Store) doAll(ctx context.Context, op string, cmds rueidis.Commands) ([]rueidis.RedisResult, error) {
	if len(cmds) == 0 {
		return nil, nil
	}
	res := s.client.DoMulti(ctx, cmds...)
	for _, r := range res {
		if err := r.Error(); err != nil && !rueidis.IsRedisNil(err) {
			return nil, fmt.Errorf("redis store: %s: %w", op, err)
		}
	}
	return res, nil
}

func (s *Store) nextID(ctx context.Context, field string) (int64, error) {
	id, err := s.client.Do(ctx, s.client.B().Hincrby().Key(s.keys.global()).Field(field).Increment(1).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("redis store: next %s: %w", field, err)
	}
	return id, nil
}

func (s *Store) hashes(ctx context.Context, op string, keys []string) ([]map[string]string, error) {
	cmds := make(rueidis.Commands, 0, len(keys))
	for _, k := range keys {
		cmds = append(cmds, s.client.B().Hgetall().Key(k).Build())
	}
	res, err := s.doAll(ctx, op, cmds)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]string, len(res))
	for i, r := range res {
		m, err := r.AsStrMap()
		if err != nil && !rueidis.IsRedisNil(err) {
			return nil, fmt.Errorf("redis store: %s: %w", op, err)
		}
		out[i] = m
	}
	return out, nil
}

func (s *Store) hash(ctx context.Context, op, key string) (map[string]string, error) {
	m, err := s.client.Do(ctx, s.client.B().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil && !rueidis.IsRedisNil(err) {
		return nil, fmt.Errorf("redis store: %s: %w", op, err)
	}
	return m, nil
}

// zrange reads members start..stop by rank, highest score first when rev.
func (s *Store) zrange(ctx context.Context, key string, start, stop int, rev bool) ([]string, error) {
	b := s.client.B().Zrange().Key(key).Min(strconv.Itoa(start)).Max(strconv.Itoa(stop))
	var cmd rueidis.Completed
	if rev {
		cmd = b.Rev().Build()
	} else {
		cmd = b.Build()
	}
	members, err := s.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("redis store: zrange %s: %w", key, err)
	}
	return members, nil
}

func (s *Store) zcard(ctx context.Context, key string) (int, error) {
	n, err := s.client.Do(ctx, s.client.B().Zcard().Key(key).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("redis store: zcard %s: %w", key, err)
	}
	return int(n), nil
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Do(ctx, s.client.B().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return false, fmt.Errorf("redis store: exists %s: %w", key, err)
	}
	return n > 0, nil
}

func ids(members []string) []int64 {
	out := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
