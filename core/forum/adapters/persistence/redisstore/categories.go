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
	"strconv"

	"forum/core/forum/domain"

	"github.com/redis/rueidis"
)

func (s *Store) CreateCategory(ctx context.Context, in domain.NewCategory) (*domain.Category, error) {
	cid, err := s.nextID(ctx, "nextCid")
	if err != nil {
		return nil, err
	}
	c := domain.Category{
		CID:         cid,
		Name:        in.Name,
		Description: in.Description,
		Icon:        in.Icon,
		ParentCID:   in.ParentCID,
		Order:       int(cid),
		Slug:        strconv.FormatInt(cid, 10) + "/" + domain.Slugify(in.Name),
	}
	id := strconv.FormatInt(cid, 10)
	b := s.client.B()
	cmds := rueidis.Commands{
		b.Hset().Key(s.keys.category(cid)).FieldValue().
			FieldValue("cid", id).
			FieldValue("name", c.Name).
			FieldValue("description", c.Description).
			FieldValue("slug", c.Slug).
			FieldValue("icon", c.Icon).
			FieldValue("parentCid", strconv.FormatInt(c.ParentCID, 10)).
			FieldValue("order", strconv.Itoa(c.Order)).
			FieldValue("disabled", "0").
			FieldValue("topic_count", "0").
			FieldValue("post_count", "0").
			FieldValue("timesClicked", "0").
			Build(),
		b.Zadd().Key(s.keys.categories()).ScoreMember().ScoreMember(float64(c.Order), id).Build(),
		b.Zadd().Key(s.keys.children(c.ParentCID)).ScoreMember().ScoreMember(float64(c.Order), id).Build(),
	}
	if c.ParentCID == 0 {
		cmds = append(cmds, b.Hset().Key(s.keys.categoryNames()).FieldValue().FieldValue(c.Name, id).Build())
	}
	if _, err := s.doAll(ctx, "create category", cmds); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CategoryExists(ctx context.Context, cid int64) (bool, error) {
	return s.exists(ctx, s.keys.category(cid))
}

func (s *Store) GetCategory(ctx context.Context, cid int64) (*domain.Category, error) {
	m, err := s.hash(ctx, "get category", s.keys.category(cid))
	if err != nil {
		return nil, err
	}
	c, ok := decodeCategory(m)
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return &c, nil
}

// GetCategories skips categories that no longer exist.
func (s *Store) GetCategories(ctx context.Context, cids []int64) ([]domain.Category, error) {
	keys := make([]string, 0, len(cids))
	for _, cid := range cids {
		keys = append(keys, s.keys.category(cid))
	}
	maps, err := s.hashes(ctx, "get categories", keys)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(maps))
	for _, m := range maps {
		if c, ok := decodeCategory(m); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetCategoryByName only knows top-level categories.
func (s *Store) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	cid, err := s.client.Do(ctx, s.client.B().Hget().Key(s.keys.categoryNames()).Field(name).Build()).AsInt64()
	if rueidis.IsRedisNil(err) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: category by name: %w", err)
	}
	return s.GetCategory(ctx, cid)
}

func (s *Store) ChildCIDs(ctx context.Context, parent int64) ([]int64, error) {
	members, err := s.zrange(ctx, s.keys.children(parent), 0, -1, false)
	if err != nil {
		return nil, err
	}
	return ids(members), nil
}

func (s *Store) DeleteCategory(ctx context.Context, cid int64) error {
	c, err := s.GetCategory(ctx, cid)
	if err != nil {
		return err
	}
	id := strconv.FormatInt(cid, 10)
	b := s.client.B()
	cmds := rueidis.Commands{
		b.Del().Key(s.keys.category(cid), s.keys.children(cid), s.keys.subscribers(cid)).Build(),
		b.Zrem().Key(s.keys.categories()).Member(id).Build(),
		b.Zrem().Key(s.keys.children(c.ParentCID)).Member(id).Build(),
	}
	if c.ParentCID == 0 {
		cmds = append(cmds, b.Hdel().Key(s.keys.categoryNames()).Field(c.Name).Build())
	}
	_, err = s.doAll(ctx, "delete category", cmds)
	return err
}

func (s *Store) IncrementClicks(ctx context.Context, cid int64) error {
	err := s.client.Do(ctx, s.client.B().Hincrby().Key(s.keys.category(cid)).Field("timesClicked").Increment(1).Build()).Error()
	if err != nil {
		return fmt.Errorf("redis store: count click: %w", err)
	}
	return nil
}

// SubscribeToCategory records uid as a follower of cid.
func (s *Store) SubscribeToCategory(ctx context.Context, uid, cid int64) error {
	b := s.client.B()
	_, err := s.doAll(ctx, "subscribe", rueidis.Commands{
		b.Sadd().Key(s.keys.subscribers(cid)).Member(strconv.FormatInt(uid, 10)).Build(),
		b.Sadd().Key(s.keys.followed(uid)).Member(strconv.FormatInt(cid, 10)).Build(),
	})
	return err
}
