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

package rest

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"forum/core/forum/domain"
	"forum/core/listing"
)

// memStore backs every port with maps. Range reads follow the redis layout:
// primary indices in insertion order, popularity by post count or votes.
type memStore struct {
	mu sync.Mutex

	nextCID, nextTID, nextPID int64

	cats     map[int64]*domain.Category
	children map[int64][]int64
	names    map[string]int64
	clicks   map[int64]int

	topics     map[int64]*domain.Topic
	catTopics  map[int64][]int64
	posts      map[int64]*domain.Post
	topicPosts map[int64][]int64
	views      map[int64]int

	groups     map[string]*domain.Group
	groupOrder []string
	members    map[string][]string

	users     map[int64]domain.UserSummary
	usernames map[string]int64

	settings map[int64]domain.UserSettings
	subs     map[int64][]int64
}

var (
	_ domain.CategoryStore = (*memStore)(nil)
	_ domain.TopicStore    = (*memStore)(nil)
	_ domain.GroupStore    = (*memStore)(nil)
	_ domain.UserStore     = (*memStore)(nil)
	_ domain.SettingsStore = (*memStore)(nil)
	_ domain.Notifier      = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		cats:       map[int64]*domain.Category{},
		children:   map[int64][]int64{},
		names:      map[string]int64{},
		clicks:     map[int64]int{},
		topics:     map[int64]*domain.Topic{},
		catTopics:  map[int64][]int64{},
		posts:      map[int64]*domain.Post{},
		topicPosts: map[int64][]int64{},
		views:      map[int64]int{},
		groups:     map[string]*domain.Group{},
		members:    map[string][]string{},
		users:      map[int64]domain.UserSummary{},
		usernames:  map[string]int64{},
		settings:   map[int64]domain.UserSettings{},
		subs:       map[int64][]int64{},
	}
}

func (m *memStore) stores() domain.Stores {
	return domain.Stores{Categories: m, Topics: m, Groups: m, Users: m, Settings: m}
}

func (m *memStore) addUser(uid int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[uid] = domain.UserSummary{UID: uid, Username: name, Userslug: domain.Slugify(name), Picture: "/u/" + name + ".png"}
	m.usernames[name] = uid
}

func (m *memStore) addReply(tid, uid int64, content string, ts time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextPID++
	p := &domain.Post{PID: m.nextPID, TID: tid, UID: uid, Content: content, Timestamp: ts}
	m.posts[p.PID] = p
	m.topicPosts[tid] = append(m.topicPosts[tid], p.PID)
	t := m.topics[tid]
	t.PostCount++
	t.LastPostTime = ts
	m.cats[t.CID].PostCount++
	return p.PID
}

func window(ids []int64, rev bool, start, stop int) []int64 {
	ordered := slices.Clone(ids)
	if rev {
		slices.Reverse(ordered)
	}
	if start >= len(ordered) || stop < start {
		return []int64{}
	}
	return ordered[start:min(stop+1, len(ordered))]
}

// CategoryStore

func (m *memStore) CreateCategory(_ context.Context, in domain.NewCategory) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCID++
	c := &domain.Category{
		CID:         m.nextCID,
		Name:        in.Name,
		Description: in.Description,
		Icon:        in.Icon,
		ParentCID:   in.ParentCID,
		Slug:        strconv.FormatInt(m.nextCID, 10) + "/" + domain.Slugify(in.Name),
		Order:       len(m.children[in.ParentCID]) + 1,
	}
	m.cats[c.CID] = c
	m.children[in.ParentCID] = append(m.children[in.ParentCID], c.CID)
	if in.ParentCID == 0 {
		m.names[in.Name] = c.CID
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) CategoryExists(_ context.Context, cid int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cats[cid]
	return ok, nil
}

func (m *memStore) GetCategory(_ context.Context, cid int64) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cats[cid]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	cp := *c
	cp.TimesClicked = m.clicks[cid]
	return &cp, nil
}

func (m *memStore) GetCategories(ctx context.Context, cids []int64) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(cids))
	for _, cid := range cids {
		if c, err := m.GetCategory(ctx, cid); err == nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	m.mu.Lock()
	cid, ok := m.names[name]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return m.GetCategory(ctx, cid)
}

func (m *memStore) ChildCIDs(_ context.Context, parent int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.children[parent]), nil
}

func (m *memStore) DeleteCategory(_ context.Context, cid int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cats[cid]
	if !ok {
		return nil
	}
	m.children[c.ParentCID] = slices.DeleteFunc(m.children[c.ParentCID], func(id int64) bool { return id == cid })
	if c.ParentCID == 0 {
		delete(m.names, c.Name)
	}
	delete(m.cats, cid)
	delete(m.children, cid)
	return nil
}

func (m *memStore) IncrementClicks(_ context.Context, cid int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks[cid]++
	return nil
}

// TopicStore

func (m *memStore) CreateTopic(_ context.Context, in domain.NewTopic) (*domain.Topic, *domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cats[in.CID]
	if !ok {
		return nil, nil, domain.ErrCategoryNotFound
	}
	m.nextTID++
	m.nextPID++
	slug := in.Slug
	if slug == "" {
		slug = in.Title
	}
	t := &domain.Topic{
		TID:          m.nextTID,
		CID:          in.CID,
		UID:          in.UID,
		Title:        in.Title,
		Slug:         strconv.FormatInt(m.nextTID, 10) + "/" + domain.Slugify(slug),
		Tags:         in.Tags,
		MainPID:      m.nextPID,
		PostCount:    1,
		Timestamp:    in.Timestamp,
		LastPostTime: in.Timestamp,
	}
	p := &domain.Post{PID: m.nextPID, TID: t.TID, UID: in.UID, Content: in.Content, Timestamp: in.Timestamp}
	m.topics[t.TID] = t
	m.posts[p.PID] = p
	m.topicPosts[t.TID] = []int64{p.PID}
	m.catTopics[in.CID] = append(m.catTopics[in.CID], t.TID)
	c.TopicCount++
	c.PostCount++
	tc, pc := *t, *p
	return &tc, &pc, nil
}

func (m *memStore) GetTopic(_ context.Context, tid int64) (*domain.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.topics[tid]
	if !ok {
		return nil, domain.ErrTopicNotFound
	}
	cp := *t
	cp.ViewCount = m.views[tid]
	return &cp, nil
}

func (m *memStore) GetTopics(ctx context.Context, tids []int64) ([]domain.Topic, error) {
	out := make([]domain.Topic, 0, len(tids))
	for _, tid := range tids {
		if t, err := m.GetTopic(ctx, tid); err == nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memStore) TopicIDs(_ context.Context, q domain.RangeQuery) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := slices.Clone(m.catTopics[q.ID])
	if q.AuthorUID > 0 {
		ids = slices.DeleteFunc(ids, func(tid int64) bool { return m.topics[tid].UID != q.AuthorUID })
	}
	if q.Selector == listing.SelectorPopularity {
		slices.SortStableFunc(ids, func(a, b int64) int {
			return cmp.Compare(m.topics[a].PostCount, m.topics[b].PostCount)
		})
	}
	return window(ids, q.Reverse, q.Start, q.Stop), nil
}

func (m *memStore) CountAuthorTopics(_ context.Context, cid, uid int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tid := range m.catTopics[cid] {
		if m.topics[tid].UID == uid {
			n++
		}
	}
	return n, nil
}

func (m *memStore) PostIDs(_ context.Context, q domain.RangeQuery) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := slices.Clone(m.topicPosts[q.ID])
	if q.Selector == listing.SelectorPopularity {
		slices.SortStableFunc(ids, func(a, b int64) int {
			return cmp.Compare(m.posts[a].Votes, m.posts[b].Votes)
		})
	}
	return window(ids, q.Reverse, q.Start, q.Stop), nil
}

func (m *memStore) PostRanks(_ context.Context, tid int64, pids []int64) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(pids))
	for i, pid := range pids {
		out[i] = slices.Index(m.topicPosts[tid], pid)
	}
	return out, nil
}

func (m *memStore) GetPost(_ context.Context, pid int64) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[pid]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetPosts(ctx context.Context, pids []int64) ([]domain.Post, error) {
	out := make([]domain.Post, 0, len(pids))
	for _, pid := range pids {
		if p, err := m.GetPost(ctx, pid); err == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) LatestPostID(_ context.Context, tid int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.topicPosts[tid]
	for i := len(ids) - 1; i >= 0; i-- {
		if !m.posts[ids[i]].Deleted {
			return ids[i], nil
		}
	}
	return 0, nil
}

func (m *memStore) RecentPostIDs(_ context.Context, since time.Time, limit int) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for pid, p := range m.posts {
		if !p.Timestamp.Before(since) {
			ids = append(ids, pid)
		}
	}
	slices.SortFunc(ids, func(a, b int64) int { return m.posts[b].Timestamp.Compare(m.posts[a].Timestamp) })
	return ids[:min(limit, len(ids))], nil
}

func (m *memStore) IncrementViewCount(_ context.Context, tid int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[tid]++
	return nil
}

func (m *memStore) PurgeCategory(_ context.Context, cid int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tid := range m.catTopics[cid] {
		for _, pid := range m.topicPosts[tid] {
			delete(m.posts, pid)
		}
		delete(m.topicPosts, tid)
		delete(m.topics, tid)
	}
	delete(m.catTopics, cid)
	return nil
}

// GroupStore

func (m *memStore) CreateGroup(_ context.Context, g domain.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[g.Name]; ok {
		return domain.ErrGroupExists
	}
	m.groups[g.Name] = &g
	m.groupOrder = append(m.groupOrder, g.Name)
	return nil
}

func (m *memStore) GroupExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.groups[name]
	return ok, nil
}

func (m *memStore) GetGroup(_ context.Context, name string) (*domain.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[name]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	cp := *g
	cp.MemberCount = len(m.members[name])
	return &cp, nil
}

func (m *memStore) GetGroups(ctx context.Context, names []string) ([]domain.Group, error) {
	out := make([]domain.Group, 0, len(names))
	for _, n := range names {
		if g, err := m.GetGroup(ctx, n); err == nil {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *memStore) GroupNames(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := slices.Clone(m.groupOrder)
	slices.Reverse(names)
	return names, nil
}

func (m *memStore) DeleteGroup(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.groups, name)
	delete(m.members, name)
	m.groupOrder = slices.DeleteFunc(m.groupOrder, func(n string) bool { return n == name })
	return nil
}

func (m *memStore) Join(_ context.Context, group, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[group]; !ok {
		m.groups[group] = &domain.Group{Name: group, Hidden: true}
		m.groupOrder = append(m.groupOrder, group)
	}
	if !slices.Contains(m.members[group], member) {
		m.members[group] = append(m.members[group], member)
	}
	return nil
}

func (m *memStore) Leave(_ context.Context, group, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[group] = slices.DeleteFunc(m.members[group], func(s string) bool { return s == member })
	return nil
}

func (m *memStore) Members(_ context.Context, group string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.members[group]), nil
}

func (m *memStore) MembersOf(ctx context.Context, groups []string) ([][]string, error) {
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i], _ = m.Members(ctx, g)
	}
	return out, nil
}

func (m *memStore) IsMemberOf(_ context.Context, member string, groups []string) ([]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(groups))
	for i, g := range groups {
		out[i] = slices.Contains(m.members[g], member)
	}
	return out, nil
}

// UserStore

func (m *memStore) UIDByUsername(_ context.Context, username string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.usernames[username]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	return uid, nil
}

func (m *memStore) UIDByUserslug(_ context.Context, slug string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Userslug == slug {
			return u.UID, nil
		}
	}
	return 0, nil
}

func (m *memStore) GetUser(_ context.Context, uid int64) (*domain.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) GetUsers(ctx context.Context, uids []int64) ([]domain.UserSummary, error) {
	out := make([]domain.UserSummary, 0, len(uids))
	for _, uid := range uids {
		if u, err := m.GetUser(ctx, uid); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

// SettingsStore

func (m *memStore) GetSettings(_ context.Context, uid int64) (*domain.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[uid]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memStore) SaveSettings(_ context.Context, s domain.UserSettings) (*domain.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings[s.UID].Version != s.Version {
		return nil, domain.ErrPrecondition
	}
	s.Version++
	m.settings[s.UID] = s
	return &s, nil
}

// Notifier

func (m *memStore) SubscribeToCategory(_ context.Context, uid, cid int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[cid] = append(m.subs[cid], uid)
	return nil
}
