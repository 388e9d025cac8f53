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
	"flag"
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	"forum/core/forum/domain"
	"forum/core/listing"
	"forum/modules/clock"
	"forum/modules/db/dbtest"

	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	redisAddr string
	epoch     = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(run(m))
}

func run(m *testing.M) int {
	if testing.Short() {
		return m.Run()
	}
	addr, stop, err := dbtest.Redis(context.Background())
	if err != nil {
		slog.Warn("redis store tests will skip", slog.Any("error", err))
		return m.Run()
	}
	defer stop()
	redisAddr = addr
	return m.Run()
}

// newStore namespaces every test under its own key prefix on the shared server.
func newStore(t *testing.T) *Store {
	t.Helper()
	if redisAddr == "" {
		t.Skip("redis not available")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{redisAddr},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return New(client, WithKeyPrefix(t.Name()), WithClock(clock.NewFixedClock(epoch)))
}

func requireGone(t *testing.T, s *Store, keys ...string) {
	t.Helper()
	for _, k := range keys {
		ok, err := s.exists(context.Background(), k)
		require.NoError(t, err)
		assert.False(t, ok, "%s still exists", k)
	}
}

func seedTopics(t *testing.T, s *Store, cid int64, authors ...int64) []domain.Topic {
	t.Helper()
	out := make([]domain.Topic, 0, len(authors))
	for i, uid := range authors {
		topic, post, err := s.CreateTopic(context.Background(), domain.NewTopic{
			CID:       cid,
			UID:       uid,
			Title:     "Topic " + strconv.Itoa(i+1),
			Content:   "body",
			Tags:      []string{"go"},
			Timestamp: epoch.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		require.Equal(t, topic.MainPID, post.PID)
		out = append(out, *topic)
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	s := newStore(t)
	assert.NoError(t, s.HealthCheck(context.Background()))
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	eng, err := s.CreateCategory(ctx, domain.NewCategory{Name: "Eng", Description: "engineering"})
	require.NoError(t, err)
	assert.Equal(t, "1/eng", eng.Slug)
	child, err := s.CreateCategory(ctx, domain.NewCategory{Name: "General", ParentCID: eng.CID})
	require.NoError(t, err)

	got, err := s.GetCategoryByName(ctx, "Eng")
	require.NoError(t, err)
	assert.Equal(t, "engineering", got.Description)

	_, err = s.GetCategoryByName(ctx, "General")
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound, "children are not indexed by name")

	kids, err := s.ChildCIDs(ctx, eng.CID)
	require.NoError(t, err)
	assert.Equal(t, []int64{child.CID}, kids)

	require.NoError(t, s.IncrementClicks(ctx, eng.CID))
	cats, err := s.GetCategories(ctx, []int64{eng.CID, 99, child.CID})
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, 1, cats[0].TimesClicked)

	ok, err := s.CategoryExists(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.GetCategory(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestCreateTopic_Windows(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	cat, err := s.CreateCategory(ctx, domain.NewCategory{Name: "Eng"})
	require.NoError(t, err)
	topics := seedTopics(t, s, cat.CID, 2, 3, 2, 3, 2)

	first, err := s.GetTopic(ctx, topics[0].TID)
	require.NoError(t, err)
	assert.Equal(t, "1/topic-1", first.Slug)
	assert.Equal(t, []string{"go"}, first.Tags)
	assert.Equal(t, epoch, first.Timestamp)
	assert.Equal(t, 1, first.PostCount)

	tests := []struct {
		name string
		q    domain.RangeQuery
		want []int64
	}{
		{"oldest first", domain.RangeQuery{ID: cat.CID, Start: 0, Stop: 2}, []int64{1, 2, 3}},
		{"newest first", domain.RangeQuery{ID: cat.CID, Start: 0, Stop: 2, Reverse: true}, []int64{5, 4, 3}},
		{"second page", domain.RangeQuery{ID: cat.CID, Start: 3, Stop: 5}, []int64{4, 5}},
		{"past the end", domain.RangeQuery{ID: cat.CID, Start: 10, Stop: 12}, []int64{}},
		{"popularity", domain.RangeQuery{ID: cat.CID, Selector: listing.SelectorPopularity, Start: 0, Stop: 1, Reverse: true}, []int64{5, 4}},
		{"author", domain.RangeQuery{ID: cat.CID, AuthorUID: 2, Start: 0, Stop: -1}, []int64{1, 3, 5}},
		{"author newest first", domain.RangeQuery{ID: cat.CID, AuthorUID: 3, Start: 0, Stop: 0, Reverse: true}, []int64{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.TopicIDs(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	n, err := s.CountAuthorTopics(ctx, cat.CID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.GetCategory(ctx, cat.CID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TopicCount)
	assert.Equal(t, 5, got.PostCount)

	pids, err := s.PostIDs(ctx, domain.RangeQuery{ID: topics[1].TID, Start: 0, Stop: 19})
	require.NoError(t, err)
	assert.Equal(t, []int64{topics[1].MainPID}, pids)
	pids, err = s.PostIDs(ctx, domain.RangeQuery{ID: topics[1].TID, Selector: listing.SelectorPopularity, Start: 0, Stop: 19, Reverse: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{topics[1].MainPID}, pids)

	ranks, err := s.PostRanks(ctx, topics[1].TID, []int64{topics[1].MainPID, topics[0].MainPID})
	require.NoError(t, err)
	assert.Equal(t, []int{0, -1}, ranks)

	recent, err := s.RecentPostIDs(ctx, time.Time{}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 4, 3}, recent)
	recent, err = s.RecentPostIDs(ctx, epoch.Add(2*time.Minute), 20)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 4}, recent, "since is exclusive")

	_, _, err = s.CreateTopic(ctx, domain.NewTopic{CID: 99, UID: 2, Title: "nowhere"})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestLatestPostID_SkipsDeleted(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	cat, err := s.CreateCategory(ctx, domain.NewCategory{Name: "Eng"})
	require.NoError(t, err)
	topic := seedTopics(t, s, cat.CID, 2)[0]

	// more deleted replies than one scan batch, all newer than the main post
	b := s.client.B()
	var cmds rueidis.Commands
	for i := range latestScanBatch + 5 {
		pid := strconv.Itoa(100 + i)
		cmds = append(cmds,
			b.Hset().Key(s.keys.post(int64(100+i))).FieldValue().
				FieldValue("pid", pid).
				FieldValue("tid", strconv.FormatInt(topic.TID, 10)).
				FieldValue("deleted", "1").
				Build(),
			b.Zadd().Key(s.keys.topicPosts(topic.TID)).ScoreMember().
				ScoreMember(score(epoch.Add(time.Duration(i+1)*time.Hour)), pid).Build(),
		)
	}
	_, err = s.doAll(ctx, "seed replies", cmds)
	require.NoError(t, err)

	latest, err := s.LatestPostID(ctx, topic.TID)
	require.NoError(t, err)
	assert.Equal(t, topic.MainPID, latest)

	latest, err = s.LatestPostID(ctx, 999)
	require.NoError(t, err)
	assert.Zero(t, latest)

	require.NoError(t, s.IncrementViewCount(ctx, topic.TID))
	got, err := s.GetTopic(ctx, topic.TID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)

	posts, err := s.GetPosts(ctx, []int64{topic.MainPID, 100, 12345})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.False(t, posts[0].Deleted)
	assert.True(t, posts[1].Deleted)
}

func TestGroups_Membership(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Join(ctx, "cid:1:privileges:read", "2"))
	require.NoError(t, s.Join(ctx, "cid:1:privileges:read", "2"))
	require.NoError(t, s.Join(ctx, "cid:1:privileges:read", "3"))

	g, err := s.GetGroup(ctx, "cid:1:privileges:read")
	require.NoError(t, err)
	assert.True(t, g.Hidden, "groups created by a join are hidden")
	assert.Equal(t, 2, g.MemberCount)
	assert.Equal(t, epoch, g.CreateTime)

	err = s.CreateGroup(ctx, domain.Group{Name: "cid:1:privileges:read"})
	assert.ErrorIs(t, err, domain.ErrGroupExists)

	in, err := s.IsMemberOf(ctx, "2", []string{"cid:1:privileges:read", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, in)

	members, err := s.MembersOf(ctx, []string{"cid:1:privileges:read", "missing"})
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.ElementsMatch(t, []string{"2", "3"}, members[0])
	assert.Empty(t, members[1])

	require.NoError(t, s.Leave(ctx, "cid:1:privileges:read", "2"))
	in, err = s.IsMemberOf(ctx, "2", []string{"cid:1:privileges:read"})
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, in)
	left, err := s.Members(ctx, "cid:1:privileges:read")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, left)
}

func TestGroups_CreateListDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.CreateGroup(ctx, domain.Group{Name: "staff", Description: "the team", CreateTime: epoch}))
	require.NoError(t, s.CreateGroup(ctx, domain.Group{Name: "mods", CreateTime: epoch.Add(time.Hour)}))

	names, err := s.GroupNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mods", "staff"}, names, "newest first")

	groups, err := s.GetGroups(ctx, []string{"staff", "nope"})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "the team", groups[0].Description)
	assert.False(t, groups[0].Hidden)

	require.NoError(t, s.Join(ctx, "staff", "1"))
	require.NoError(t, s.DeleteGroup(ctx, "staff"))
	ok, err := s.GroupExists(ctx, "staff")
	require.NoError(t, err)
	assert.False(t, ok)
	requireGone(t, s, s.keys.groupMembers("staff"))

	names, err = s.GroupNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mods"}, names)

	_, err = s.GetGroup(ctx, "staff")
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)
}

func TestPurgeAndDeleteCategory(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	parent, err := s.CreateCategory(ctx, domain.NewCategory{Name: "Eng"})
	require.NoError(t, err)
	child, err := s.CreateCategory(ctx, domain.NewCategory{Name: "General", ParentCID: parent.CID})
	require.NoError(t, err)
	topics := seedTopics(t, s, child.CID, 2, 3)
	require.NoError(t, s.SubscribeToCategory(ctx, 2, child.CID))

	require.NoError(t, s.PurgeCategory(ctx, child.CID))

	purged, err := s.GetCategory(ctx, child.CID)
	require.NoError(t, err)
	assert.Zero(t, purged.TopicCount)
	assert.Zero(t, purged.PostCount)

	gone := []string{
		s.keys.categoryTopics(child.CID),
		s.keys.categoryPopular(child.CID),
		s.keys.categoryPosts(child.CID),
		s.keys.authorTopics(child.CID, 2),
		s.keys.authorTopics(child.CID, 3),
	}
	for _, topic := range topics {
		gone = append(gone,
			s.keys.topic(topic.TID),
			s.keys.topicPosts(topic.TID),
			s.keys.topicVotes(topic.TID),
			s.keys.post(topic.MainPID),
		)
	}
	requireGone(t, s, gone...)

	recent, err := s.RecentPostIDs(ctx, time.Time{}, 20)
	require.NoError(t, err)
	assert.Empty(t, recent)

	require.NoError(t, s.DeleteCategory(ctx, child.CID))
	requireGone(t, s, s.keys.category(child.CID), s.keys.subscribers(child.CID))

	kids, err := s.ChildCIDs(ctx, parent.CID)
	require.NoError(t, err)
	assert.Empty(t, kids)
	all, err := s.zrange(ctx, s.keys.categories(), 0, -1, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, all)

	require.NoError(t, s.DeleteCategory(ctx, parent.CID))
	_, err = s.GetCategoryByName(ctx, "Eng")
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	assert.ErrorIs(t, s.DeleteCategory(ctx, parent.CID), domain.ErrCategoryNotFound)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	b := s.client.B()
	_, err := s.doAll(ctx, "seed users", rueidis.Commands{
		b.Hset().Key(s.keys.user(2)).FieldValue().
			FieldValue("uid", "2").
			FieldValue("username", "Alice").
			FieldValue("userslug", "alice").
			Build(),
		b.Hset().Key(s.keys.usernames()).FieldValue().FieldValue("Alice", "2").Build(),
		b.Hset().Key(s.keys.userslugs()).FieldValue().FieldValue("alice", "2").Build(),
	})
	require.NoError(t, err)

	uid, err := s.UIDByUsername(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), uid)
	_, err = s.UIDByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	uid, err = s.UIDByUserslug(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), uid)
	uid, err = s.UIDByUserslug(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, uid, "unknown slugs are not an error")

	users, err := s.GetUsers(ctx, []int64{2, 99})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Userslug)

	_, err = s.GetUser(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
