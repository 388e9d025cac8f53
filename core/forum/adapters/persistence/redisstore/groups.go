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

func (s *Store) CreateGroup(ctx context.Context, g domain.Group) error {
	created, err := s.client.Do(ctx, s.client.B().Hsetnx().Key(s.keys.group(g.Name)).Field("name").Value(g.Name).Build()).AsBool()
	if err != nil {
		return fmt.Errorf("redis store: create group: %w", err)
	}
	if !created {
		return domain.ErrGroupExists
	}
	ts := g.CreateTime
	if ts.IsZero() {
		ts = s.clock.Now()
	}
	b := s.client.B()
	_, err = s.doAll(ctx, "create group", rueidis.Commands{
		b.Hset().Key(s.keys.group(g.Name)).FieldValue().
			FieldValue("displayName", g.DisplayName).
			FieldValue("description", g.Description).
			FieldValue("createtime", millis(ts)).
			FieldValue("hidden", btoa(g.Hidden)).
			FieldValue("system", btoa(g.System)).
			Build(),
		b.Zadd().Key(s.keys.groupsByCreation()).ScoreMember().ScoreMember(score(ts), g.Name).Build(),
	})
	return err
}

func (s *Store) GroupExists(ctx context.Context, name string) (bool, error) {
	return s.exists(ctx, s.keys.group(name))
}

func (s *Store) GetGroup(ctx context.Context, name string) (*domain.Group, error) {
	groups, err := s.GetGroups(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, domain.ErrGroupNotFound
	}
	return &groups[0], nil
}

// GetGroups skips unknown names and fills MemberCount.
func (s *Store) GetGroups(ctx context.Context, names []string) ([]domain.Group, error) {
	keys := make([]string, 0, len(names))
	cmds := make(rueidis.Commands, 0, len(names))
	for _, name := range names {
		keys = append(keys, s.keys.group(name))
		cmds = append(cmds, s.client.B().Zcard().Key(s.keys.groupMembers(name)).Build())
	}
	maps, err := s.hashes(ctx, "get groups", keys)
	if err != nil {
		return nil, err
	}
	counts, err := s.doAll(ctx, "count members", cmds)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Group, 0, len(maps))
	for i, m := range maps {
		g, ok := decodeGroup(m)
		if !ok {
			continue
		}
		n, _ := counts[i].AsInt64()
		g.MemberCount = int(n)
		out = append(out, g)
	}
	return out, nil
}

func (s *Store) GroupNames(ctx context.Context) ([]string, error) {
	return s.zrange(ctx, s.keys.groupsByCreation(), 0, -1, true)
}

func (s *Store) DeleteGroup(ctx context.Context, name string) error {
	b := s.client.B()
	_, err := s.doAll(ctx, "delete group", rueidis.Commands{
		b.Del().Key(s.keys.group(name), s.keys.groupMembers(name)).Build(),
		b.Zrem().Key(s.keys.groupsByCreation()).Member(name).Build(),
	})
	return err
}

// Join creates group as a hidden group on first use.
func (s *Store) Join(ctx context.Context, group, member string) error {
	b := s.client.B()
	created, err := s.client.Do(ctx, b.Hsetnx().Key(s.keys.group(group)).Field("name").Value(group).Build()).AsBool()
	if err != nil {
		return fmt.Errorf("redis store: join %s: %w", group, err)
	}
	now := s.clock.Now()
	var cmds rueidis.Commands
	if created {
		cmds = append(cmds,
			b.Hset().Key(s.keys.group(group)).FieldValue().
				FieldValue("createtime", millis(now)).
				FieldValue("hidden", "1").
				FieldValue("system", "0").
				Build(),
			b.Zadd().Key(s.keys.groupsByCreation()).ScoreMember().ScoreMember(score(now), group).Build(),
		)
	}
	cmds = append(cmds, b.Zadd().Key(s.keys.groupMembers(group)).Nx().ScoreMember().ScoreMember(score(now), member).Build())
	_, err = s.doAll(ctx, "join "+group, cmds)
	return err
}

func (s *Store) Leave(ctx context.Context, group, member string) error {
	err := s.client.Do(ctx, s.client.B().Zrem().Key(s.keys.groupMembers(group)).Member(member).Build()).Error()
	if err != nil {
		return fmt.Errorf("redis store: leave %s: %w", group, err)
	}
	return nil
}

func (s *Store) Members(ctx context.Context, group string) ([]string, error) {
	return s.zrange(ctx, s.keys.groupMembers(group), 0, -1, false)
}

func (s *Store) MembersOf(ctx context.Context, groups []string) ([][]string, error) {
	cmds := make(rueidis.Commands, 0, len(groups))
	for _, g := range groups {
		cmds = append(cmds, s.client.B().Zrange().Key(s.keys.groupMembers(g)).Min("0").Max("-1").Build())
	}
	res, err := s.doAll(ctx, "members of", cmds)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(groups))
	for i, r := range res {
		members, err := r.AsStrSlice()
		if err != nil && !rueidis.IsRedisNil(err) {
			return nil, fmt.Errorf("redis store: members of: %w", err)
		}
		out[i] = members
	}
	return out, nil
}

func (s *Store) IsMemberOf(ctx context.Context, member string, groups []string) ([]bool, error) {
	cmds := make(rueidis.Commands, 0, len(groups))
	for _, g := range groups {
		cmds = append(cmds, s.client.B().Zscore().Key(s.keys.groupMembers(g)).Member(member).Build())
	}
	res, err := s.doAll(ctx, "is member of", cmds)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(groups))
	for i, r := range res {
		out[i] = r.Error() == nil
	}
	return out, nil
}
