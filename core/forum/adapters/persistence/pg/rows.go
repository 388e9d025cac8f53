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

package pg

import (
	"database/sql"
	"errors"
	"time"

	"forum/core/forum/domain"
	"forum/core/listing"

	"github.com/jackc/pgx/v5/pgconn"
)

// SettingsRow is one row of the user_settings table.
type SettingsRow struct {
	UID               int64     `db:"uid"`
	TopicsPerPage     int       `db:"topics_per_page"`
	PostsPerPage      int       `db:"posts_per_page"`
	UsePagination     bool      `db:"use_pagination"`
	TopicPostSort     string    `db:"topic_post_sort"`
	CategoryTopicSort string    `db:"category_topic_sort"`
	UpdatedAt         time.Time `db:"updated_at"`
	Version           int64     `db:"version_number"`
}

// settingsColumns are written on insert; version_number starts at its default.
var settingsColumns = []string{
	"uid", "topics_per_page", "posts_per_page", "use_pagination",
	"topic_post_sort", "category_topic_sort", "updated_at",
}

var selectColumns = []string{
	"uid", "topics_per_page", "posts_per_page", "use_pagination",
	"topic_post_sort", "category_topic_sort", "updated_at", "version_number",
}

func toSettings(row SettingsRow) domain.UserSettings {
	return domain.UserSettings{
		UID:               row.UID,
		TopicsPerPage:     row.TopicsPerPage,
		PostsPerPage:      row.PostsPerPage,
		UsePagination:     row.UsePagination,
		TopicPostSort:     listing.SortMode(row.TopicPostSort),
		CategoryTopicSort: listing.SortMode(row.CategoryTopicSort),
		UpdatedAt:         row.UpdatedAt.UTC(),
		Version:           row.Version,
	}
}

func fromSettings(s domain.UserSettings) SettingsRow {
	return SettingsRow{
		UID:               s.UID,
		TopicsPerPage:     s.TopicsPerPage,
		PostsPerPage:      s.PostsPerPage,
		UsePagination:     s.UsePagination,
		TopicPostSort:     string(s.TopicPostSort),
		CategoryTopicSort: string(s.CategoryTopicSort),
		UpdatedAt:         s.UpdatedAt,
		Version:           s.Version,
	}
}

// wrapSettingsError maps driver errors to domain errors. sql.ErrNoRows is
// handled by the callers because a missing row is not an error for them.
func wrapSettingsError(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23514", // check_violation
			"22003": // numeric_value_out_of_range
			return domain.ErrInvalidData
		}
	}
	return err
}
