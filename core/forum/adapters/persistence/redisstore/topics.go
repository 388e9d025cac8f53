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
	"time"

	"forum/core/forum/domain"
	"forum/core/listing"

	"github.com/redis/rueidis"
)

// latestScanBatch is how many posts LatestPostID inspects per round trip.
const latestScanBatch = 20

func (s *Store) CreateTopic(ctx context.Context, in domain.NewTopic) (*domain.Topic, *domain.Post, error) {
	exists, err := s.CategoryExists(ctx, in.CID)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, domain.ErrCategoryNotFound
	}
	tid, err := s.nextID(ctx, "nextTid")
	if err != nil {
		return nil, nil, err
	}
	pid, err := s.nextID(ctx, "nextPid")
	if err != nil {
		return nil, nil, err
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = s.clock.Now()
	}
	ts = ts.UTC().Truncate(time.Millisecond)
	slug := in.Slug
	if slug == "" {
		slug = in.Title
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	t := domain.Topic{
		TID:          tid,
		CID:          in.CID,
		UID:          in.UID,
		Title:        in.Title,
		Slug:         strconv.FormatInt(tid, 10) + "/" + domain.Slugify(slug),
		Tags:         tags,
		MainPID:      pid,
		PostCount:    1,
		Timestamp:    ts,
		LastPostTime: ts,
	}
	p := domain.Post{PID: pid, TID: tid, UID: in.UID, Content: in.Content, Timestamp: ts}

	tidS, pidS := strconv.FormatInt(tid, 10), strconv.FormatInt(pid, 10)
	b := s.client.B()
	_, err = s.doAll(ctx, "create topic", rueidis.Commands{
		b.Hset().Key(s.keys.topic(tid)).FieldValue().
			FieldValue("tid", tidS).
			FieldValue("cid", strconv.FormatInt(t.CID, 10)).
			FieldValue("uid", strconv.FormatInt(t.UID, 10)).
			FieldValue("title", t.Title).
			FieldValue("slug", t.Slug).
			FieldValue("mainPid", pidS).
			FieldValue("postcount", "1").
			FieldValue("viewcount", "0").
			FieldValue("deleted", "0").
			FieldValue("timestamp", millis(ts)).
			FieldValue("lastposttime", millis(ts)).
			FieldValue("tags", encodeTags(tags)).
			Build(),
		b.Hset().Key(s.keys.post(pid)).FieldValue().
			FieldValue("pid", pidS).
			FieldValue("tid", tidS).
			FieldValue("uid", strconv.FormatInt(p.UID, 10)).
			FieldValue("content", p.Content).
			FieldValue("timestamp", millis(ts)).
			FieldValue("deleted", "0").
			FieldValue("votes", "0").
			Build(),
		b.Zadd().Key(s.keys.categoryTopics(t.CID)).ScoreMember().ScoreMember(score(ts), tidS).Build(),
		b.Zadd().Key(s.keys.categoryPopular(t.CID)).ScoreMember().ScoreMember(1, tidS).Build(),
		b.Zadd().Key(s.keys.authorTopics(t.CID, t.UID)).ScoreMember().ScoreMember(score(ts), tidS).Build(),
		b.Zadd().Key(s.keys.categoryPosts(t.CID)).ScoreMember().ScoreMember(score(ts), pidS).Build(),
		b.Zadd().Key(s.keys.topicPosts(tid)).ScoreMember().ScoreMember(score(ts), pidS).Build(),
		b.Zadd().Key(s.keys.topicVotes(tid)).ScoreMember().ScoreMember(0, pidS).Build(),
		b.Zadd().Key(s.keys.recentPosts()).ScoreMember().ScoreMember(score(ts), pidS).Build(),
		b.Hincrby().Key(s.keys.category(t.CID)).Field("topic_count").Increment(1).Build(),
		b.Hincrby().Key(s.keys.category(t.CID)).Field("post_count").Increment(1).Build(),
	})
	if err != nil {
		return nil, nil, err
	}
	return &t, &p, nil
}

func (s *Store) GetTopic(ctx context.Context, tid int64) (*domain.Topic, error) {
	m, err := s.hash(ctx, "get topic", s.keys.topic(tid))
	if err != nil {
		return nil, err
	}
	t, ok := decodeTopic(m)
	if !ok {
		return nil, domain.ErrTopicNotFound
	}
	return &t, nil
}

func (s *Store) GetTopics(ctx context.Context, tids []int64) ([]domain.Topic, error) {
	keys := make([]string, 0, len(tids))
	for _, tid := range tids {
		keys = append(keys, s.keys.topic(tid))
	}
	maps, err := s.hashes(ctx, "get topics", keys)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Topic, 0, len(maps))
	for _, m := range maps {
		if t, ok := decodeTopic(m); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// TopicIDs reads the author index whenever an author filter is set; it is
// kept in creation order only.
func (s *Store) TopicIDs(ctx context.Context, q domain.RangeQuery) ([]int64, error) {
	key := s.keys.categoryTopics(q.ID)
	switch {
	case q.AuthorUID > 0:
		key = s.keys.authorTopics(q.ID, q.AuthorUID)
	case q.Selector == listing.SelectorPopularity:
		key = s.keys.categoryPopular(q.ID)
	}
	members, err := s.zrange(ctx, key, q.Start, q.Stop, q.Reverse)
	if err != nil {
		return nil, err
	}
	return ids(members), nil
}

func (s *Store) CountAuthorTopics(ctx context.Context, cid, uid int64) (int, error) {
	return s.zcard(ctx, s.keys.authorTopics(cid, uid))
}

func (s *Store) PostIDs(ctx context.Context, q domain.RangeQuery) ([]int64, error) {
	key := s.keys.topicPosts(q.ID)
	if q.Selector == listing.SelectorPopularity {
		key = s.keys.topicVotes(q.ID)
	}
	members, err := s.zrange(ctx, key, q.Start, q.Stop, q.Reverse)
	if err != nil {
		return nil, err
	}
	return ids(members), nil
}

func (s *Store) PostRanks(ctx context.Context, tid int64, pids []int64) ([]int, error) {
	cmds := make(rueidis.Commands, 0, len(pids))
	for _, pid := range pids {
		cmds = append(cmds, s.client.B().Zrank().Key(s.keys.topicPosts(tid)).Member(strconv.FormatInt(pid, 10)).Build())
	}
	res, err := s.doAll(ctx, "post ranks", cmds)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(pids))
	for i, r := range res {
		rank, err := r.AsInt64()
		switch {
		case rueidis.IsRedisNil(err):
			out[i] = -1
		case err != nil:
			return nil, fmt.Errorf("redis store: post ranks: %w", err)
		default:
			out[i] = int(rank)
		}
	}
	return out, nil
}

func (s *Store) GetPost(ctx context.Context, pid int64) (*domain.Post, error) {
	m, err := s.hash(ctx, "get post", s.keys.post(pid))
	if err != nil {
		return nil, err
	}
	p, ok := decodePost(m)
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return &p, nil
}

func (s *Store) GetPosts(ctx context.Context, pids []int64) ([]domain.Post, error) {
	keys := make([]string, 0, len(pids))
	for _, pid := range pids {
		keys = append(keys, s.keys.post(pid))
	}
	maps, err := s.hashes(ctx, "get posts", keys)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Post, 0, len(maps))
	for _, m := range maps {
		if p, ok := decodePost(m); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) LatestPostID(ctx context.Context, tid int64) (int64, error) {
	for start := 0; ; start += latestScanBatch {
		members, err := s.zrange(ctx, s.keys.topicPosts(tid), start, start+latestScanBatch-1, true)
		if err != nil {
			return 0, err
		}
		if len(members) == 0 {
			return 0, nil
		}
		posts, err := s.GetPosts(ctx, ids(members))
		if err != nil {
			return 0, err
		}
		for _, p := range posts {
			if !p.Deleted {
				return p.PID, nil
			}
		}
		if len(members) < latestScanBatch {
			return 0, nil
		}
	}
}

func (s *Store) RecentPostIDs(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	lower := "-inf"
	if !since.IsZero() {
		lower = "(" + millis(since)
	}
	cmd := s.client.B().Zrevrangebyscore().Key(s.keys.recentPosts()).Max("+inf").Min(lower).
		Limit(0, int64(limit)).Build()
	members, err := s.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("redis store: recent posts: %w", err)
	}
	return ids(members), nil
}

func (s *Store) IncrementViewCount(ctx context.Context, tid int64) error {
	err := s.client.Do(ctx, s.client.B().Hincrby().Key(s.keys.topic(tid)).Field("viewcount").Increment(1).Build()).Error()
	if err != nil {
		return fmt.Errorf("redis store: count view: %w", err)
	}
	return nil
}

func (s *Store) PurgeCategory(ctx context.Context, cid int64) error {
	members, err := s.zrange(ctx, s.keys.categoryTopics(cid), 0, -1, false)
	if err != nil {
		return err
	}
	topics, err := s.GetTopics(ctx, ids(members))
	if err != nil {
		return err
	}

	b := s.client.B()
	cmds := rueidis.Commands{
		b.Del().Key(s.keys.categoryTopics(cid), s.keys.categoryPopular(cid), s.keys.categoryPosts(cid)).Build(),
	}
	authors := make(map[int64]struct{})
	for _, t := range topics {
		pids, err := s.zrange(ctx, s.keys.topicPosts(t.TID), 0, -1, false)
		if err != nil {
			return err
		}
		keys := []string{s.keys.topic(t.TID), s.keys.topicPosts(t.TID), s.keys.topicVotes(t.TID)}
		for _, pid := range ids(pids) {
			keys = append(keys, s.keys.post(pid))
		}
		cmds = append(cmds, b.Del().Key(keys...).Build())
		if len(pids) > 0 {
			cmds = append(cmds, b.Zrem().Key(s.keys.recentPosts()).Member(pids...).Build())
		}
		if _, seen := authors[t.UID]; !seen {
			authors[t.UID] = struct{}{}
			cmds = append(cmds, b.Del().Key(s.keys.authorTopics(cid, t.UID)).Build())
		}
	}
	cmds = append(cmds, b.Hset().Key(s.keys.category(cid)).FieldValue().
		FieldValue("topic_count", "0").
		FieldValue("post_count", "0").
		Build())
	_, err = s.doAll(ctx, "purge category", cmds)
	return err
}
