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
	"time"
)

type (
	// CategoryStore reads and writes category records and their child index.
	// Missing categories are reported as ErrCategoryNotFound.
	CategoryStore interface {
		CreateCategory(ctx context.Context, in NewCategory) (*Category, error)
		CategoryExists(ctx context.Context, cid int64) (bool, error)
		GetCategory(ctx context.Context, cid int64) (*Category, error)
		GetCategories(ctx context.Context, cids []int64) ([]Category, error)
		// GetCategoryByName resolves a category by its exact name.
		GetCategoryByName(ctx context.Context, name string) (*Category, error)
		// ChildCIDs lists the children of parent in display order; 0 lists top-level categories.
		ChildCIDs(ctx context.Context, parent int64) ([]int64, error)
		DeleteCategory(ctx context.Context, cid int64) error
		IncrementClicks(ctx context.Context, cid int64) error
	}

	TopicStore interface {
		CreateTopic(ctx context.Context, in NewTopic) (*Topic, *Post, error)
		GetTopic(ctx context.Context, tid int64) (*Topic, error)
		GetTopics(ctx context.Context, tids []int64) ([]Topic, error)
		// TopicIDs reads a window of a category's topic index.
		TopicIDs(ctx context.Context, q RangeQuery) ([]int64, error)
		CountAuthorTopics(ctx context.Context, cid, uid int64) (int, error)
		// PostIDs reads a window of a topic's post index. The main post is part of it.
		PostIDs(ctx context.Context, q RangeQuery) ([]int64, error)
		// PostRanks returns each pid's 0-based place in posting order, or -1.
		PostRanks(ctx context.Context, tid int64, pids []int64) ([]int, error)
		GetPost(ctx context.Context, pid int64) (*Post, error)
		GetPosts(ctx context.Context, pids []int64) ([]Post, error)
		// LatestPostID returns the newest undeleted post of tid, or 0.
		LatestPostID(ctx context.Context, tid int64) (int64, error)
		// RecentPostIDs returns up to limit post ids newer than since, newest first.
		RecentPostIDs(ctx context.Context, since time.Time, limit int) ([]int64, error)
		IncrementViewCount(ctx context.Context, tid int64) error
		// PurgeCategory removes every topic and post of cid and its topic indices.
		PurgeCategory(ctx context.Context, cid int64) error
	}

	// GroupStore holds named groups. Privilege sets are groups too; their
	// members are uids or, for the groups: variants, group names.
	GroupStore interface {
		CreateGroup(ctx context.Context, g Group) error
		GroupExists(ctx context.Context, name string) (bool, error)
		GetGroup(ctx context.Context, name string) (*Group, error)
		GetGroups(ctx context.Context, names []string) ([]Group, error)
		// GroupNames lists groups newest first.
		GroupNames(ctx context.Context) ([]string, error)
		DeleteGroup(ctx context.Context, name string) error
		// Join adds member to group, creating a hidden group when needed.
		Join(ctx context.Context, group, member string) error
		Leave(ctx context.Context, group, member string) error
		Members(ctx context.Context, group string) ([]string, error)
		// MembersOf returns the member lists of groups in the same order.
		MembersOf(ctx context.Context, groups []string) ([][]string, error)
		// IsMemberOf reports, for each group, whether member belongs to it.
		IsMemberOf(ctx context.Context, member string, groups []string) ([]bool, error)
	}

	UserStore interface {
		// UIDByUsername returns ErrUserNotFound for unknown names.
		UIDByUsername(ctx context.Context, username string) (int64, error)
		// UIDByUserslug returns 0 for unknown slugs.
		UIDByUserslug(ctx context.Context, slug string) (int64, error)
		GetUser(ctx context.Context, uid int64) (*UserSummary, error)
		GetUsers(ctx context.Context, uids []int64) ([]UserSummary, error)
	}

	// SettingsStore returns nil settings when the user never saved any.
	// SaveSettings only replaces the row at s.Version and returns it with
	// the next version, or ErrPrecondition when another save got there first.
	SettingsStore interface {
		GetSettings(ctx context.Context, uid int64) (*UserSettings, error)
		SaveSettings(ctx context.Context, s UserSettings) (*UserSettings, error)
	}

	Notifier interface {
		SubscribeToCategory(ctx context.Context, uid, cid int64) error
	}

	Locker interface {
		WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error
	}
)
