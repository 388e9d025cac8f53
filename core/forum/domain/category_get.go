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
	"errors"
	"net/url"
	"slices"

	"forum/core/listing"

	"golang.org/x/sync/errgroup"
)

// ListCategories returns the top-level categories uid can find, each with its
// visible children and the most recent topic it may read.
func (app *Application) ListCategories(ctx context.Context, uid int64) (*CategoriesPage, error) {
	cats, err := app.visibleCategories(ctx, 0, uid, 1)
	if err != nil {
		return nil, unhandled(ctx, "ListCategories", err)
	}

	title := app.site.Title
	if title == "" {
		title = "Forum"
	}
	meta := []MetaTag{
		{Name: "title", Content: Escape(title)},
		{Name: "description", Content: Escape(app.site.Description)},
		{Property: "og:title", Content: "Categories"},
		{Property: "og:type", Content: "website"},
	}
	if app.site.BrandLogo != "" {
		meta = append(meta, MetaTag{Property: "og:image", Content: app.absImage(app.site.BrandLogo)})
	}
	return &CategoriesPage{Title: "Categories", Categories: cats, MetaTags: meta}, nil
}

// visibleCategories lists the enabled children of parent uid can find,
// descending depth more levels.
func (app *Application) visibleCategories(ctx context.Context, parent, uid int64, depth int) ([]Category, error) {
	cids, err := app.categories.ChildCIDs(ctx, parent)
	if err != nil || len(cids) == 0 {
		return []Category{}, err
	}
	cats, err := app.categories.GetCategories(ctx, cids)
	if err != nil {
		return nil, err
	}
	privs, err := app.privilegesFor(ctx, cids, uid)
	if err != nil {
		return nil, err
	}

	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		if c.Disabled || !privs[c.CID].Find {
			continue
		}
		out = append(out, c)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(app.workers)
	for i := range out {
		c := &out[i]
		g.Go(func() error {
			if depth > 0 {
				children, err := app.visibleCategories(gctx, c.CID, uid, depth-1)
				if err != nil {
					return err
				}
				c.Children = children
			}
			if !privs[c.CID].Read {
				return nil
			}
			teaser, err := app.recentTopic(gctx, c.CID)
			c.RecentTopic = teaser
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// recentTopic returns the newest topic of cid with its latest post, or nil.
func (app *Application) recentTopic(ctx context.Context, cid int64) (*TopicTeaser, error) {
	tids, err := app.topics.TopicIDs(ctx, RangeQuery{ID: cid, Reverse: true, Start: 0, Stop: 0})
	if err != nil || len(tids) == 0 {
		return nil, err
	}
	t, err := app.topics.GetTopic(ctx, tids[0])
	if errors.Is(err, ErrTopicNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	teaser := &TopicTeaser{TID: t.TID, Title: t.Title, Slug: t.Slug}
	teaser.Post, err = app.latestPost(ctx, t.TID)
	if errors.Is(err, ErrPostNotFound) {
		return teaser, nil
	}
	return teaser, err
}

// GetCategory builds one page of a category's topic listing.
func (app *Application) GetCategory(ctx context.Context, uid int64, q CategoryQuery) (*CategoryPage, error) {
	cid, ok := parseID(q.CID)
	if !ok {
		return nil, listing.NotFound()
	}

	var (
		exists   bool
		category *Category
		privs    Privileges
		settings UserSettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		exists, err = app.categories.CategoryExists(gctx, cid)
		return err
	})
	g.Go(func() error {
		c, err := app.categories.GetCategory(gctx, cid)
		if errors.Is(err, ErrCategoryNotFound) {
			return nil
		}
		category = c
		return err
	})
	g.Go(func() (err error) {
		privs, err = app.categoryPrivileges(gctx, cid, uid)
		return err
	})
	g.Go(func() (err error) {
		settings, err = app.viewerSettings(gctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, unhandled(ctx, "GetCategory", err)
	}

	if !exists || category == nil || category.Disabled {
		return nil, ErrCategoryNotFound
	}
	if !privs.Read {
		return nil, ErrForbidden
	}
	if canonical := itoa(cid) + "/" + q.Slug; (q.Slug == "" || category.Slug != canonical) &&
		category.Slug != "" && category.Slug != itoa(cid)+"/" {
		return nil, listing.RedirectToCanonicalSlug(category.Slug)
	}

	total := category.TopicCount
	var author int64
	if q.Author != "" {
		var err error
		if author, err = app.users.UIDByUserslug(ctx, q.Author); err != nil {
			return nil, unhandled(ctx, "GetCategory", err)
		}
		if author > 0 {
			if total, err = app.topics.CountAuthorTopics(ctx, cid, author); err != nil {
				return nil, unhandled(ctx, "GetCategory", err)
			}
		}
	}

	w, err := listing.Resolve(
		listing.Request{Index: q.Index, Page: q.Page, Sort: q.Sort, ResourceID: q.CID},
		listing.Settings{
			ItemsPerPage:  settings.TopicsPerPage,
			UsePagination: settings.UsePagination,
			DefaultSort:   settings.CategoryTopicSort,
		},
		listing.Counters{TotalItems: total},
	)
	if err != nil {
		return nil, err
	}

	if category.Link != "" {
		if err := app.categories.IncrementClicks(ctx, cid); err != nil {
			return nil, unhandled(ctx, "GetCategory", err)
		}
		return nil, &Redirect{URL: category.Link}
	}

	page := &CategoryPage{
		Category:   *category,
		Privileges: privs,
		Window:     w,
		Title:      category.Name,
		ShowSelect: privs.Editable,
	}
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		tids, err := app.topics.TopicIDs(gctx, RangeQuery{
			ID:        cid,
			Selector:  w.Selector,
			Reverse:   w.Reverse,
			Start:     w.Start,
			Stop:      w.Stop,
			AuthorUID: author,
		})
		if err != nil {
			return err
		}
		topics, err := app.topics.GetTopics(gctx, tids)
		if err != nil {
			return err
		}
		page.Topics, err = app.withTopicAuthors(gctx, topics)
		return err
	})
	g.Go(func() (err error) {
		page.Children, err = app.visibleCategories(gctx, cid, uid, 0)
		return err
	})
	g.Go(func() (err error) {
		page.Breadcrumbs, err = app.breadcrumbs(gctx, category.ParentCID, Breadcrumb{Text: category.Name})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, unhandled(ctx, "GetCategory", err)
	}

	extra := url.Values{}
	if q.Author != "" {
		extra.Set("author", q.Author)
	}
	if q.Sort != "" {
		extra.Set("sort", q.Sort)
	}
	page.Pagination = NewPagination(w.Page, w.PageCount, extra)
	page.MetaTags, page.LinkTags = app.categoryMeta(category)
	page.LinkTags = append(page.LinkTags, page.Pagination.Rel...)
	if !app.site.RSSDisabled {
		page.RSSFeedURL = app.relURL("/category/" + itoa(cid) + ".rss")
	}
	return page, nil
}

func (app *Application) usersByID(ctx context.Context, uids []int64) (map[int64]UserSummary, error) {
	slices.Sort(uids)
	uids = slices.Compact(uids)
	users, err := app.users.GetUsers(ctx, uids)
	if err != nil {
		return nil, err
	}
	m := make(map[int64]UserSummary, len(users))
	for _, u := range users {
		m[u.UID] = u
	}
	return m, nil
}

func (app *Application) withTopicAuthors(ctx context.Context, topics []Topic) ([]Topic, error) {
	if len(topics) == 0 {
		return []Topic{}, nil
	}
	uids := make([]int64, 0, len(topics))
	for _, t := range topics {
		uids = append(uids, t.UID)
	}
	users, err := app.usersByID(ctx, uids)
	if err != nil {
		return nil, err
	}
	for i := range topics {
		if u, ok := users[topics[i].UID]; ok {
			topics[i].User = &u
		}
	}
	return topics, nil
}

func (app *Application) withPostAuthors(ctx context.Context, posts []Post) ([]Post, error) {
	if len(posts) == 0 {
		return []Post{}, nil
	}
	uids := make([]int64, 0, len(posts))
	for _, p := range posts {
		uids = append(uids, p.UID)
	}
	users, err := app.usersByID(ctx, uids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if u, ok := users[posts[i].UID]; ok {
			posts[i].User = &u
		}
	}
	return posts, nil
}
