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
	"fmt"
	"strings"
)

const defaultIcon = "fa-comments"

func categoryLock(name string) string {
	return "category:" + name
}

// createCategory stores a category; public ones get the default privileges.
func (app *Application) createCategory(ctx context.Context, in NewCategory, public bool) (*Category, error) {
	if in.Icon == "" {
		in.Icon = defaultIcon
	}
	c, err := app.categories.CreateCategory(ctx, in)
	if err != nil {
		return nil, err
	}
	if public {
		if err := app.grantDefaults(ctx, c.CID); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// findChild returns the child of parent called name, or nil.
func (app *Application) findChild(ctx context.Context, parent int64, name string) (*Category, error) {
	cids, err := app.categories.ChildCIDs(ctx, parent)
	if err != nil || len(cids) == 0 {
		return nil, err
	}
	children, err := app.categories.GetCategories(ctx, cids)
	if err != nil {
		return nil, err
	}
	for i := range children {
		if children[i].Name == name {
			return &children[i], nil
		}
	}
	return nil, nil
}

// CreateCategory creates a top-level category that only the group of the same
// name can participate in, and opens a general discussion topic in it.
func (app *Application) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidData
	}

	var created *Category
	err := app.locker.WithLock(ctx, categoryLock(name), func(ctx context.Context) error {
		_, err := app.categories.GetCategoryByName(ctx, name)
		if err == nil {
			return ErrCategoryExists
		}
		if !errors.Is(err, ErrCategoryNotFound) {
			return err
		}

		c, err := app.createCategory(ctx, NewCategory{Name: name, Description: description}, false)
		if err != nil {
			return err
		}
		if err := app.makePrivate(ctx, c.CID); err != nil {
			return err
		}
		if err := app.grantGroup(ctx, c.CID, participation, name); err != nil {
			return err
		}
		_, _, err = app.topics.CreateTopic(ctx, NewTopic{
			CID:       c.CID,
			UID:       app.adminUID,
			Title:     "General discussion for " + name,
			Slug:      "general-" + name,
			Content:   fmt.Sprintf("This topic has been created for general discussion within the %s group.", name),
			Timestamp: app.clock.Now(),
		})
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, unhandled(ctx, "CreateCategory", err)
	}
	return created, nil
}

// CreateChildCategory creates a public category below the named top-level one.
func (app *Application) CreateChildCategory(ctx context.Context, parent, child, description string) (*Category, error) {
	parent, child = strings.TrimSpace(parent), strings.TrimSpace(child)
	if parent == "" || child == "" {
		return nil, ErrInvalidData
	}

	var created *Category
	err := app.locker.WithLock(ctx, categoryLock(parent), func(ctx context.Context) error {
		p, err := app.categories.GetCategoryByName(ctx, parent)
		if err != nil {
			return err
		}
		existing, err := app.findChild(ctx, p.CID, child)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrCategoryExists
		}
		created, err = app.createCategory(ctx, NewCategory{Name: child, Description: description, ParentCID: p.CID}, true)
		return err
	})
	if err != nil {
		return nil, unhandled(ctx, "CreateChildCategory", err)
	}
	return created, nil
}

func (app *Application) GrantModeratorPrivileges(ctx context.Context, category, username string) error {
	c, uid, err := app.categoryAndUser(ctx, category, username)
	if err != nil {
		return unhandled(ctx, "GrantModeratorPrivileges", err)
	}
	return unhandled(ctx, "GrantModeratorPrivileges", app.grant(ctx, c.CID, moderatorSet, uid))
}

// RevokeModeratorPrivileges only takes the mods privilege away; the user keeps
// participating in the category.
func (app *Application) RevokeModeratorPrivileges(ctx context.Context, category, username string) error {
	c, uid, err := app.categoryAndUser(ctx, category, username)
	if err != nil {
		return unhandled(ctx, "RevokeModeratorPrivileges", err)
	}
	err = app.groups.Leave(ctx, PrivilegeKey(c.CID, PrivMods), uidMember(uid))
	return unhandled(ctx, "RevokeModeratorPrivileges", err)
}

func (app *Application) categoryAndUser(ctx context.Context, category, username string) (*Category, int64, error) {
	if strings.TrimSpace(category) == "" || strings.TrimSpace(username) == "" {
		return nil, 0, ErrInvalidData
	}
	c, err := app.categories.GetCategoryByName(ctx, category)
	if err != nil {
		return nil, 0, err
	}
	uid, err := app.users.UIDByUsername(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	return c, uid, nil
}

// RemoveCategory deletes the named category with its children, topics, posts
// and privilege sets.
func (app *Application) RemoveCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidData
	}
	err := app.locker.WithLock(ctx, categoryLock(name), func(ctx context.Context) error {
		c, err := app.categories.GetCategoryByName(ctx, name)
		if err != nil {
			return err
		}
		return app.removeTree(ctx, c.CID, 0)
	})
	return unhandled(ctx, "RemoveCategory", err)
}

func (app *Application) removeTree(ctx context.Context, cid int64, depth int) error {
	if depth > maxCategoryDepth {
		return fmt.Errorf("category %d: nesting deeper than %d", cid, maxCategoryDepth)
	}
	children, err := app.categories.ChildCIDs(ctx, cid)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := app.removeTree(ctx, child, depth+1); err != nil {
			return err
		}
	}
	if err := app.topics.PurgeCategory(ctx, cid); err != nil {
		return err
	}
	for _, key := range privilegeKeys(cid) {
		if err := app.groups.DeleteGroup(ctx, key); err != nil {
			return err
		}
	}
	return app.categories.DeleteCategory(ctx, cid)
}
