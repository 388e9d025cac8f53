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

	"golang.org/x/sync/errgroup"
)

var (
	userPrivileges = []string{PrivFind, PrivRead, PrivTopicsCreate, PrivTopicsReply, PrivMods}
	// moderatorSet is what a category moderator is handed, in grant order.
	moderatorSet  = []string{PrivMods, PrivTopicsReply, PrivTopicsCreate, PrivRead, PrivFind}
	participation = []string{PrivTopicsReply, PrivTopicsCreate, PrivRead, PrivFind}
)

// PrivilegeKey names the set holding the uids granted priv on cid.
func PrivilegeKey(cid int64, priv string) string {
	return fmt.Sprintf("cid:%d:privileges:%s", cid, priv)
}

// GroupPrivilegeKey names the set holding the groups granted priv on cid.
func GroupPrivilegeKey(cid int64, priv string) string {
	if priv == PrivMods {
		priv = PrivGroupModerate
	}
	return fmt.Sprintf("cid:%d:privileges:groups:%s", cid, priv)
}

func privilegeKeys(cid int64) []string {
	keys := make([]string, 0, 2*len(userPrivileges))
	for _, p := range userPrivileges {
		keys = append(keys, PrivilegeKey(cid, p))
	}
	for _, p := range userPrivileges {
		keys = append(keys, GroupPrivilegeKey(cid, p))
	}
	return keys
}

func uidMember(uid int64) string {
	return strconv.FormatInt(uid, 10)
}

func implicitMember(group string, uid int64) (member, implicit bool) {
	switch group {
	case GroupGuests:
		return uid == 0, true
	case GroupRegisteredUsers:
		return uid > 0, true
	}
	return false, false
}

// categoryPrivileges resolves what uid may do in cid. Three store round trips:
// direct grants, group grants, then the user's membership of the granted groups.
func (app *Application) categoryPrivileges(ctx context.Context, cid, uid int64) (Privileges, error) {
	member := uidMember(uid)

	direct := make([]string, 0, len(userPrivileges)+1)
	byGroup := make([]string, 0, len(userPrivileges))
	for _, p := range userPrivileges {
		direct = append(direct, PrivilegeKey(cid, p))
		byGroup = append(byGroup, GroupPrivilegeKey(cid, p))
	}
	direct = append(direct, GroupAdministrators)

	flags, err := app.groups.IsMemberOf(ctx, member, direct)
	if err != nil {
		return Privileges{}, err
	}
	granted, err := app.groups.MembersOf(ctx, byGroup)
	if err != nil {
		return Privileges{}, err
	}

	var explicit []string
	seen := map[string]bool{}
	for _, names := range granted {
		for _, g := range names {
			if _, implicit := implicitMember(g, uid); implicit || seen[g] {
				continue
			}
			seen[g] = true
			explicit = append(explicit, g)
		}
	}
	belongs := map[string]bool{}
	if uid > 0 && len(explicit) > 0 {
		in, err := app.groups.IsMemberOf(ctx, member, explicit)
		if err != nil {
			return Privileges{}, err
		}
		for i, g := range explicit {
			belongs[g] = in[i]
		}
	}

	has := func(i int) bool {
		if flags[i] {
			return true
		}
		for _, g := range granted[i] {
			if ok, implicit := implicitMember(g, uid); implicit {
				if ok {
					return true
				}
				continue
			}
			if belongs[g] {
				return true
			}
		}
		return false
	}

	isAdmin := uid > 0 && flags[len(flags)-1]
	p := Privileges{
		Find:         isAdmin || has(0),
		Read:         isAdmin || has(1),
		TopicsCreate: isAdmin || has(2),
		TopicsReply:  isAdmin || has(3),
		Moderate:     isAdmin || has(4),
		IsAdmin:      isAdmin,
	}
	p.Editable = p.IsAdmin || p.Moderate
	p.ViewDeleted = p.Editable
	return p, nil
}

// privilegesFor resolves privileges for many categories with bounded concurrency.
func (app *Application) privilegesFor(ctx context.Context, cids []int64, uid int64) (map[int64]Privileges, error) {
	out := make([]Privileges, len(cids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(app.workers)
	for i, cid := range cids {
		g.Go(func() error {
			p, err := app.categoryPrivileges(gctx, cid, uid)
			out[i] = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	m := make(map[int64]Privileges, len(cids))
	for i, cid := range cids {
		m[cid] = out[i]
	}
	return m, nil
}

func (app *Application) grant(ctx context.Context, cid int64, privs []string, uid int64) error {
	for _, p := range privs {
		if err := app.groups.Join(ctx, PrivilegeKey(cid, p), uidMember(uid)); err != nil {
			return err
		}
	}
	return nil
}

func (app *Application) grantGroup(ctx context.Context, cid int64, privs []string, group string) error {
	for _, p := range privs {
		if err := app.groups.Join(ctx, GroupPrivilegeKey(cid, p), group); err != nil {
			return err
		}
	}
	return nil
}

func (app *Application) rescindGroup(ctx context.Context, cid int64, privs []string, group string) error {
	for _, p := range privs {
		if err := app.groups.Leave(ctx, GroupPrivilegeKey(cid, p), group); err != nil {
			return err
		}
	}
	return nil
}

func (app *Application) grantDefaults(ctx context.Context, cid int64) error {
	if err := app.grantGroup(ctx, cid, participation, GroupRegisteredUsers); err != nil {
		return err
	}
	return app.grantGroup(ctx, cid, []string{PrivFind, PrivRead}, GroupGuests)
}

// makePrivate strips every group-side privilege from guests and registered users.
func (app *Application) makePrivate(ctx context.Context, cid int64) error {
	for _, g := range []string{GroupRegisteredUsers, GroupGuests} {
		if err := app.rescindGroup(ctx, cid, moderatorSet, g); err != nil {
			return err
		}
	}
	return nil
}
