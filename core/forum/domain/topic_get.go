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
	"net/url"
	"slices"
	"time"

	"forum/core/listing"

	"golang.org/x/sync/errgroup"
)

// GetTopic builds one page of a topic's posts.
func (app *Application) GetTopic(ctx context.Context, uid int64, q TopicQuery) (*TopicPage, error) {
	tid, ok := parseID(q.TID)
	if !ok {
		return nil, listing.NotFound()
	}

	var (
		topic    *Topic
		settings UserSettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		topic, err = app.topics.GetTopic(gctx, tid)
		return err
	})
	g.Go(func() (err error) {
		settings, err = app.viewerSettings(gctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, unhandled(ctx, "GetTopic", err)
	}

	var (
		category *Category
		privs    Privileges
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		category, err = app.categories.GetCategory(gctx, topic.CID)
		return err
	})
	g.Go(func() (err error) {
		privs, err = app.categoryPrivileges(gctx, topic.CID, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, unhandled(ctx, "GetTopic", err)
	}

	if !privs.Read || (topic.Deleted && !privs.ViewDeleted) {
		return nil, ErrForbidden
	}
	if canonical := itoa(tid) + "/" + q.Slug; (q.Slug == "" || topic.Slug != canonical) &&
		topic.Slug != "" && topic.Slug != itoa(tid)+"/" {
		return nil, listing.RedirectToCanonicalSlug(topic.Slug)
	}

	w, err := listing.Resolve(
		listing.Request{Index: q.Index, Page: q.Page, Sort: q.Sort, ResourceID: q.TID},
		listing.Settings{
			ItemsPerPage:  settings.PostsPerPage,
			UsePagination: settings.UsePagination,
			DefaultSort:   settings.TopicPostSort,
		},
		listing.Counters{TotalItems: topic.PostCount},
	)
	if err != nil {
		return nil, err
	}

	posts, err := app.topicPosts(ctx, topic, w)
	if err != nil {
		return nil, unhandled(ctx, "GetTopic", err)
	}
	crumbs, err := app.breadcrumbs(ctx, category.ParentCID,
		Breadcrumb{Text: category.Name, URL: app.relURL("/category/" + category.Slug)},
		Breadcrumb{Text: topic.Title},
	)
	if err != nil {
		return nil, unhandled(ctx, "GetTopic", err)
	}

	page := &TopicPage{
		Topic:              *topic,
		Category:           *category,
		Posts:              posts,
		Privileges:         privs,
		Breadcrumbs:        crumbs,
		Window:             w,
		Sort:               w.Sort,
		ReputationDisabled: app.site.ReputationDisabled,
		DownvoteDisabled:   app.site.DownvoteDisabled,
		FeedsDisabled:      app.site.RSSDisabled,
	}
	var first *Post
	if len(posts) > 0 {
		first = &posts[0]
	}
	extra := url.Values{}
	if q.Sort != "" {
		extra.Set("sort", q.Sort)
	}
	page.Pagination = NewPagination(w.Page, w.PageCount, extra)
	page.MetaTags, page.LinkTags = app.topicMeta(topic, category, first)
	page.LinkTags = append(page.LinkTags, page.Pagination.Rel...)
	if !app.site.RSSDisabled {
		page.RSSFeedURL = app.relURL("/topic/" + itoa(tid) + ".rss")
	}

	if err := app.topics.IncrementViewCount(ctx, tid); err != nil {
		slog.WarnContext(ctx, "failed to count topic view", slog.Int64("tid", tid), slog.Any("error", err))
	}
	return page, nil
}

// topicPosts reads the window of posts. The first page always opens with the
// main post.
func (app *Application) topicPosts(ctx context.Context, topic *Topic, w listing.Window) ([]Post, error) {
	pids, err := app.topics.PostIDs(ctx, RangeQuery{
		ID:       topic.TID,
		Selector: w.Selector,
		Reverse:  w.Reverse,
		Start:    w.Start,
		Stop:     w.Stop,
	})
	if err != nil {
		return nil, err
	}
	if w.Start == 0 && topic.MainPID > 0 && !slices.Contains(pids, topic.MainPID) {
		pids = append([]int64{topic.MainPID}, pids...)
	}
	posts, err := app.topics.GetPosts(ctx, pids)
	if err != nil {
		return nil, err
	}
	if w.Selector == listing.SelectorPopularity {
		// vote order says nothing about where a post sits in the thread
		ranks, err := app.topics.PostRanks(ctx, topic.TID, postIDs(posts))
		if err != nil {
			return nil, err
		}
		for i := range posts {
			posts[i].Index = max(ranks[i], 0)
		}
		return app.withPostAuthors(ctx, posts)
	}
	offset := w.Start
	for i := range posts {
		if posts[i].PID == topic.MainPID {
			posts[i].Index = 0
			if !w.Reverse {
				offset++
			}
			continue
		}
		pos := offset
		if w.Reverse {
			pos = topic.PostCount - 1 - offset
		}
		posts[i].Index = max(pos, 0)
		offset++
	}
	return app.withPostAuthors(ctx, posts)
}

func postIDs(posts []Post) []int64 {
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.PID)
	}
	return ids
}

// GetTopicTeaser returns the latest undeleted post of a topic uid can read.
func (app *Application) GetTopicTeaser(ctx context.Context, uid int64, rawTID string) (*Post, error) {
	tid, ok := parseID(rawTID)
	if !ok {
		return nil, ErrInvalidData
	}
	topic, err := app.topics.GetTopic(ctx, tid)
	if err != nil {
		return nil, unhandled(ctx, "GetTopicTeaser", err)
	}
	privs, err := app.categoryPrivileges(ctx, topic.CID, uid)
	if err != nil {
		return nil, unhandled(ctx, "GetTopicTeaser", err)
	}
	if !privs.Read {
		return nil, ErrForbidden
	}
	post, err := app.latestPost(ctx, tid)
	if err != nil {
		return nil, unhandled(ctx, "GetTopicTeaser", err)
	}
	return post, nil
}

func (app *Application) latestPost(ctx context.Context, tid int64) (*Post, error) {
	pid, err := app.topics.LatestPostID(ctx, tid)
	if err != nil {
		return nil, err
	}
	if pid == 0 {
		return nil, ErrPostNotFound
	}
	posts, err := app.topics.GetPosts(ctx, []int64{pid})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrPostNotFound
	}
	posts, err = app.withPostAuthors(ctx, posts)
	if err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// GetPost returns a single post when uid can read its topic.
func (app *Application) GetPost(ctx context.Context, uid int64, rawPID string) (*PostSummary, error) {
	pid, ok := parseID(rawPID)
	if !ok {
		return nil, ErrInvalidData
	}
	post, err := app.topics.GetPost(ctx, pid)
	if err != nil {
		return nil, unhandled(ctx, "GetPost", err)
	}
	if post.Deleted {
		return nil, ErrPostNotFound
	}
	summaries, err := app.summarize(ctx, uid, []Post{*post})
	if err != nil {
		return nil, unhandled(ctx, "GetPost", err)
	}
	if len(summaries) == 0 {
		return nil, ErrForbidden
	}
	return &summaries[0], nil
}

// summarize attaches topic, category and author to posts, dropping deleted
// posts and those uid cannot read.
func (app *Application) summarize(ctx context.Context, uid int64, posts []Post) ([]PostSummary, error) {
	posts, err := app.withPostAuthors(ctx, posts)
	if err != nil {
		return nil, err
	}

	tids := make([]int64, 0, len(posts))
	for _, p := range posts {
		tids = append(tids, p.TID)
	}
	slices.Sort(tids)
	tids = slices.Compact(tids)
	topics, err := app.topics.GetTopics(ctx, tids)
	if err != nil {
		return nil, err
	}
	byTID := make(map[int64]Topic, len(topics))
	cids := make([]int64, 0, len(topics))
	for _, t := range topics {
		byTID[t.TID] = t
		cids = append(cids, t.CID)
	}
	slices.Sort(cids)
	cids = slices.Compact(cids)

	cats, err := app.categories.GetCategories(ctx, cids)
	if err != nil {
		return nil, err
	}
	byCID := make(map[int64]Category, len(cats))
	for _, c := range cats {
		byCID[c.CID] = c
	}
	privs, err := app.privilegesFor(ctx, cids, uid)
	if err != nil {
		return nil, err
	}

	out := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		t, ok := byTID[p.TID]
		if !ok || p.Deleted || !privs[t.CID].Read || (t.Deleted && !privs[t.CID].ViewDeleted) {
			continue
		}
		s := PostSummary{Post: p, Topic: TopicTeaser{TID: t.TID, Title: t.Title, Slug: t.Slug}}
		if c, ok := byCID[t.CID]; ok {
			s.Category.CID, s.Category.Name, s.Category.Slug = c.CID, c.Name, c.Slug
		}
		out = append(out, s)
	}
	return out, nil
}

// GetModerators lists the users holding the mods privilege on a category.
func (app *Application) GetModerators(ctx context.Context, rawCID string) ([]UserSummary, error) {
	cid, ok := parseID(rawCID)
	if !ok {
		return nil, ErrInvalidData
	}
	members, err := app.groups.Members(ctx, PrivilegeKey(cid, PrivMods))
	if err != nil {
		return nil, unhandled(ctx, "GetModerators", err)
	}
	users, err := app.users.GetUsers(ctx, parseUIDs(members))
	if err != nil {
		return nil, unhandled(ctx, "GetModerators", err)
	}
	if users == nil {
		users = []UserSummary{}
	}
	return users, nil
}

// GetRecentPosts returns the newest posts of the term uid can read. Terms are
// day, week and month; anything else means all time.
func (app *Application) GetRecentPosts(ctx context.Context, uid int64, term string) ([]PostSummary, error) {
	var since time.Time
	if d, ok := recentTerms[term]; ok {
		since = app.clock.Now().Add(-d)
	}
	pids, err := app.topics.RecentPostIDs(ctx, since, recentPostLimit)
	if err != nil {
		return nil, unhandled(ctx, "GetRecentPosts", err)
	}
	posts, err := app.topics.GetPosts(ctx, pids)
	if err != nil {
		return nil, unhandled(ctx, "GetRecentPosts", err)
	}
	out, err := app.summarize(ctx, uid, posts)
	if err != nil {
		return nil, unhandled(ctx, "GetRecentPosts", err)
	}
	return out, nil
}

var recentTerms = map[string]time.Duration{
	"day":   24 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
}

func parseUIDs(members []string) []int64 {
	uids := make([]int64, 0, len(members))
	for _, m := range members {
		if id, ok := parseID(m); ok {
			uids = append(uids, id)
		}
	}
	return uids
}

// GetUser returns the public summary of uid.
func (app *Application) GetUser(ctx context.Context, rawUID string) (*UserSummary, error) {
	uid, ok := parseID(rawUID)
	if !ok {
		return nil, ErrInvalidData
	}
	u, err := app.users.GetUser(ctx, uid)
	if err != nil {
		return nil, unhandled(ctx, "GetUser", err)
	}
	return u, nil
}
