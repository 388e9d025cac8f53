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
	"strconv"
	"strings"

	"forum/modules/worker"

	"golang.org/x/sync/errgroup"
)

// TopicRequest addresses a topic to be opened in a child of a top-level category.
type TopicRequest struct {
	Parent      string
	Child       string
	Slug        string
	Username    string
	Title       string
	Tags        []string
	Description string
}

func (r TopicRequest) valid() bool {
	for _, s := range []string{r.Parent, r.Child, r.Username, r.Title} {
		if strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}

func (app *Application) newTopic(cid, uid int64, req TopicRequest) NewTopic {
	return NewTopic{
		CID:       cid,
		UID:       uid,
		Title:     req.Title,
		Slug:      req.Slug,
		Content:   "This topic has been created for " + req.Title,
		Tags:      req.Tags,
		Timestamp: app.clock.Now(),
	}
}

// CreatePublicTopic posts into the requested child category, creating it as a
// public category when it does not exist yet.
func (app *Application) CreatePublicTopic(ctx context.Context, req TopicRequest) (*Topic, error) {
	if !req.valid() {
		return nil, ErrInvalidData
	}
	var topic *Topic
	err := app.locker.WithLock(ctx, categoryLock(req.Parent), func(ctx context.Context) error {
		parent, err := app.categories.GetCategoryByName(ctx, req.Parent)
		if err != nil {
			return err
		}
		uid, err := app.users.UIDByUsername(ctx, req.Username)
		if err != nil {
			return err
		}
		child, err := app.findChild(ctx, parent.CID, req.Child)
		if err != nil {
			return err
		}
		if child == nil {
			in := NewCategory{Name: req.Child, Description: req.Description, ParentCID: parent.CID}
			if child, err = app.createCategory(ctx, in, true); err != nil {
				return err
			}
		}
		topic, _, err = app.topics.CreateTopic(ctx, app.newTopic(child.CID, uid, req))
		return err
	})
	if err != nil {
		return nil, unhandled(ctx, "CreatePublicTopic", err)
	}
	return topic, nil
}

// CreatePrivateTopic posts into the requested child category. A missing child
// is created private to the poster and the parent's moderators group, and
// they are all subscribed to it.
func (app *Application) CreatePrivateTopic(ctx context.Context, req TopicRequest) (*Topic, error) {
	if !req.valid() {
		return nil, ErrInvalidData
	}
	var topic *Topic
	err := app.locker.WithLock(ctx, categoryLock(req.Parent), func(ctx context.Context) error {
		parent, err := app.categories.GetCategoryByName(ctx, req.Parent)
		if err != nil {
			return err
		}
		uid, err := app.users.UIDByUsername(ctx, req.Username)
		if err != nil {
			return err
		}
		child, err := app.findChild(ctx, parent.CID, req.Child)
		if err != nil {
			return err
		}
		if child != nil {
			topic, _, err = app.topics.CreateTopic(ctx, app.newTopic(child.CID, uid, req))
			return err
		}

		in := NewCategory{Name: req.Child, Description: req.Description, ParentCID: parent.CID}
		child, err = app.createCategory(ctx, in, false)
		if err != nil {
			return err
		}

		moderators := parent.Name + "-moderators"
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := app.makePrivate(gctx, child.CID); err != nil {
				return err
			}
			if err := app.grant(gctx, child.CID, participation, uid); err != nil {
				return err
			}
			if err := app.grantGroup(gctx, child.CID, moderatorSet, moderators); err != nil {
				return err
			}
			var err error
			topic, _, err = app.topics.CreateTopic(gctx, app.newTopic(child.CID, uid, req))
			return err
		})
		g.Go(func() error {
			return app.subscribe(gctx, child.CID, uid, moderators)
		})
		return g.Wait()
	})
	if err != nil {
		return nil, unhandled(ctx, "CreatePrivateTopic", err)
	}
	return topic, nil
}

// subscribe signs uid and every member of group up for notifications in cid.
func (app *Application) subscribe(ctx context.Context, cid, uid int64, group string) error {
	if err := app.notifier.SubscribeToCategory(ctx, uid, cid); err != nil {
		return err
	}
	members, err := app.groups.Members(ctx, group)
	if err != nil {
		return err
	}
	uids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			slog.WarnContext(ctx, "skipping non-user group member", slog.String("group", group), slog.String("member", m))
			continue
		}
		uids = append(uids, id)
	}
	return worker.FanOut(ctx, app.workers, uids, func(ctx context.Context, member int64) error {
		return app.notifier.SubscribeToCategory(ctx, member, cid)
	})
}
