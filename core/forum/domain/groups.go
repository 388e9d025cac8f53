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
	"fmt"
	"strconv"
	"strings"

	"forum/core/listing"
	"forum/modules/worker"
)

func (app *Application) CreateGroup(ctx context.Context, name, description string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, ":privileges:") {
		return nil, ErrInvalidData
	}
	g := Group{Name: name, DisplayName: name, Description: description, CreateTime: app.clock.Now()}
	err := app.locker.WithLock(ctx, "group:"+name, func(ctx context.Context) error {
		exists, err := app.groups.GroupExists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			return ErrGroupExists
		}
		return app.groups.CreateGroup(ctx, g)
	})
	if err != nil {
		return nil, unhandled(ctx, "CreateGroup", err)
	}
	g.DisplayName = Escape(g.Name)
	return &g, nil
}

// AddUsersToGroup resolves every username first and adds none of them when
// one is unknown.
func (app *Application) AddUsersToGroup(ctx context.Context, name string, usernames []string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(usernames) == 0 {
		return ErrInvalidData
	}
	exists, err := app.groups.GroupExists(ctx, name)
	if err != nil {
		return unhandled(ctx, "AddUsersToGroup", err)
	}
	if !exists {
		return ErrGroupNotFound
	}

	uids := make([]int64, len(usernames))
	idx := make([]int, len(usernames))
	for i := range idx {
		idx[i] = i
	}
	err = worker.FanOut(ctx, app.workers, idx, func(ctx context.Context, i int) error {
		uid, err := app.users.UIDByUsername(ctx, usernames[i])
		if err != nil {
			return fmt.Errorf("%q: %w", usernames[i], err)
		}
		uids[i] = uid
		return nil
	})
	if err != nil {
		return unhandled(ctx, "AddUsersToGroup", err)
	}

	err = worker.FanOut(ctx, app.workers, uids, func(ctx context.Context, uid int64) error {
		return app.groups.Join(ctx, name, uidMember(uid))
	})
	return unhandled(ctx, "AddUsersToGroup", err)
}

// ListGroups pages through user-facing groups, newest first.
func (app *Application) ListGroups(ctx context.Context, rawPage string) (*GroupsPage, error) {
	names, err := app.groups.GroupNames(ctx)
	if err != nil {
		return nil, unhandled(ctx, "ListGroups", err)
	}
	visible := names[:0]
	for _, n := range names {
		if strings.Contains(n, ":privileges:") || n == GroupRegisteredUsers {
			continue
		}
		visible = append(visible, n)
	}

	pageCount := listing.PageCount(len(visible), groupsPerPage)
	page := 1
	if n, err := strconv.Atoi(strings.TrimSpace(rawPage)); err == nil && n > 0 {
		page = n
	}
	// pages past the end are empty rather than missing
	start := min((page-1)*groupsPerPage, len(visible))
	stop := min(start+groupsPerPage, len(visible))

	groups := []Group{}
	if start < stop {
		groups, err = app.groups.GetGroups(ctx, visible[start:stop])
		if err != nil {
			return nil, unhandled(ctx, "ListGroups", err)
		}
	}
	for i := range groups {
		groups[i].DisplayName = Escape(groups[i].Name)
		groups[i].Description = Escape(groups[i].Description)
	}
	return &GroupsPage{
		Groups:     groups,
		Pagination: NewPagination(page, pageCount, nil),
	}, nil
}

// GetGroup returns a group with its members.
func (app *Application) GetGroup(ctx context.Context, name string) (*Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidData
	}
	g, err := app.groups.GetGroup(ctx, name)
	if err != nil {
		return nil, unhandled(ctx, "GetGroup", err)
	}
	members, err := app.groups.Members(ctx, name)
	if err != nil {
		return nil, unhandled(ctx, "GetGroup", err)
	}
	users, err := app.users.GetUsers(ctx, parseUIDs(members))
	if err != nil {
		return nil, unhandled(ctx, "GetGroup", err)
	}
	g.Members = users
	if g.Members == nil {
		g.Members = []UserSummary{}
	}
	g.DisplayName = Escape(g.Name)
	return g, nil
}
