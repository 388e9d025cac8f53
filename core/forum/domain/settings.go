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

	"forum/core/listing"
)

const maxItemsPerPage = 100

// AnyVersion skips the version check in UpdateSettings.
const AnyVersion int64 = -1

// Optional is a patch field: untouched, reset to the default, or set.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Value[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o Optional[T]) apply(dst *T, fallback T) {
	switch {
	case !o.Set:
	case o.Null:
		*dst = fallback
	default:
		*dst = o.Value
	}
}

type SettingsPatch struct {
	TopicsPerPage     Optional[int]
	PostsPerPage      Optional[int]
	UsePagination     Optional[bool]
	TopicPostSort     Optional[listing.SortMode]
	CategoryTopicSort Optional[listing.SortMode]
}

func (p SettingsPatch) valid() bool {
	perPage := func(o Optional[int]) bool {
		return !o.Set || o.Null || (o.Value >= 1 && o.Value <= maxItemsPerPage)
	}
	if !perPage(p.TopicsPerPage) || !perPage(p.PostsPerPage) {
		return false
	}
	s := p.TopicPostSort
	if s.Set && !s.Null && !(s.Value == listing.SortOldestToNewest || s.Value == listing.SortNewestToOldest || s.Value == listing.SortMostVotes) {
		return false
	}
	s = p.CategoryTopicSort
	if s.Set && !s.Null && !(s.Value == listing.SortOldestToNewest || s.Value == listing.SortNewestToOldest || s.Value == listing.SortMostPosts) {
		return false
	}
	return true
}

// viewerSettings returns the listing preferences of uid with defaults filled in.
func (app *Application) viewerSettings(ctx context.Context, uid int64) (UserSettings, error) {
	s := app.defaults
	s.UID = uid
	if uid <= 0 {
		return s, nil
	}
	stored, err := app.settings.GetSettings(ctx, uid)
	if err != nil || stored == nil {
		return s, err
	}
	merged := *stored
	if merged.TopicsPerPage <= 0 {
		merged.TopicsPerPage = s.TopicsPerPage
	}
	if merged.PostsPerPage <= 0 {
		merged.PostsPerPage = s.PostsPerPage
	}
	if !merged.TopicPostSort.Valid() {
		merged.TopicPostSort = s.TopicPostSort
	}
	if !merged.CategoryTopicSort.Valid() {
		merged.CategoryTopicSort = s.CategoryTopicSort
	}
	merged.UID = uid
	return merged, nil
}

// GetSettings returns uid's listing preferences; guests get the site defaults.
func (app *Application) GetSettings(ctx context.Context, uid int64) (*UserSettings, error) {
	if uid < 0 {
		return nil, ErrInvalidData
	}
	s, err := app.viewerSettings(ctx, uid)
	if err != nil {
		return nil, unhandled(ctx, "GetSettings", err)
	}
	return &s, nil
}

// UpdateSettings applies patch to uid's preferences when they are still at
// version. Null fields go back to the site default.
func (app *Application) UpdateSettings(ctx context.Context, uid, version int64, patch SettingsPatch) (*UserSettings, error) {
	if uid <= 0 || version < AnyVersion || !patch.valid() {
		return nil, ErrInvalidData
	}
	s, err := app.viewerSettings(ctx, uid)
	if err != nil {
		return nil, unhandled(ctx, "UpdateSettings", err)
	}
	if version != AnyVersion && version != s.Version {
		return nil, ErrPrecondition
	}
	d := app.defaults
	patch.TopicsPerPage.apply(&s.TopicsPerPage, d.TopicsPerPage)
	patch.PostsPerPage.apply(&s.PostsPerPage, d.PostsPerPage)
	patch.UsePagination.apply(&s.UsePagination, d.UsePagination)
	patch.TopicPostSort.apply(&s.TopicPostSort, d.TopicPostSort)
	patch.CategoryTopicSort.apply(&s.CategoryTopicSort, d.CategoryTopicSort)
	s.UpdatedAt = app.clock.Now()

	saved, err := app.settings.SaveSettings(ctx, s)
	if err != nil {
		return nil, unhandled(ctx, "UpdateSettings", err)
	}
	return saved, nil
}
