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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"forum/core/forum/domain"
	"forum/modules/db"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

var _ domain.SettingsStore = (*SettingsStore)(nil)

// SettingsStore persists user listing preferences. Reads go through Reader()
// so replicas are picked per call; writes are prepared on the primary.
type SettingsStore struct {
	table string
	pool  db.ReaderConnectionManager

	insertStmt bob.QueryStmt[SettingsRow, SettingsRow, []SettingsRow]
	updateStmt bob.QueryStmt[SettingsRow, SettingsRow, []SettingsRow]
}

func NewSettingsStore(ctx context.Context, pool db.ConnectionPool, table string) (*SettingsStore, error) {
	primary, ok := pool.Writer().(bob.DB)
	if !ok {
		return nil, fmt.Errorf("settings store: writer is %T, want bob.DB", pool.Writer())
	}

	// the first save inserts at version 1; a concurrent first save finds the
	// row taken and returns nothing
	insert := psql.Insert(
		im.Into(table, settingsColumns...),
		im.Values(
			bob.Named("uid"),
			bob.Named("topics_per_page"),
			bob.Named("posts_per_page"),
			bob.Named("use_pagination"),
			bob.Named("topic_post_sort"),
			bob.Named("category_topic_sort"),
			bob.Named("updated_at"),
		),
		im.OnConflict("uid").DoNothing(),
		im.Returning(toAny(selectColumns)...),
	)
	insertStmt, err := bob.PrepareQuery[SettingsRow](ctx, primary, insert, scan.StructMapper[SettingsRow]())
	if err != nil {
		return nil, fmt.Errorf("prepare insert settings: %w", err)
	}

	// UPDATE ... SET ..., version_number = version_number + 1
	// WHERE uid = :uid AND version_number = :version_number
	update := psql.Update(
		um.Table(table),
		um.SetCol("topics_per_page").To(bob.Named("topics_per_page")),
		um.SetCol("posts_per_page").To(bob.Named("posts_per_page")),
		um.SetCol("use_pagination").To(bob.Named("use_pagination")),
		um.SetCol("topic_post_sort").To(bob.Named("topic_post_sort")),
		um.SetCol("category_topic_sort").To(bob.Named("category_topic_sort")),
		um.SetCol("updated_at").To(bob.Named("updated_at")),
		um.SetCol("version_number").To(psql.Raw("version_number + 1")),
		um.Where(psql.Quote("uid").EQ(bob.Named("uid"))),
		um.Where(psql.Quote("version_number").EQ(bob.Named("version_number"))),
		um.Returning(toAny(selectColumns)...),
	)
	updateStmt, err := bob.PrepareQuery[SettingsRow](ctx, primary, update, scan.StructMapper[SettingsRow]())
	if err != nil {
		return nil, fmt.Errorf("prepare update settings: %w", err)
	}

	return &SettingsStore{table: table, pool: pool, insertStmt: insertStmt, updateStmt: updateStmt}, nil
}

func (s *SettingsStore) GetSettings(ctx context.Context, uid int64) (*domain.UserSettings, error) {
	query := psql.Select(
		sm.Columns(toAny(selectColumns)...),
		sm.From(s.table),
		sm.Where(psql.Quote("uid").EQ(psql.Arg(uid))),
	)
	row, err := bob.One(ctx, s.pool.Reader(), query, scan.StructMapper[SettingsRow]())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "GetSettings query error", slog.Any("err", err))
		return nil, wrapSettingsError(err)
	}
	out := toSettings(row)
	return &out, nil
}

// SaveSettings writes settings if the stored row is still at settings.Version.
// Zero rows back means someone else saved in between.
func (s *SettingsStore) SaveSettings(ctx context.Context, settings domain.UserSettings) (*domain.UserSettings, error) {
	stmt := s.updateStmt
	if settings.Version == 0 {
		stmt = s.insertStmt
	}
	row, err := stmt.One(ctx, fromSettings(settings))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPrecondition
	}
	if err != nil {
		slog.ErrorContext(ctx, "SaveSettings query error", slog.Any("err", err))
		return nil, wrapSettingsError(err)
	}
	out := toSettings(row)
	return &out, nil
}

func toAny(cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}
