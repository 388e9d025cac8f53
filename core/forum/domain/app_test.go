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
	"testing"
	"time"

	"forum/core/listing"
	"forum/modules/clock"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	app   *Application
	store *memStore
	clock *clock.FixedClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	m := newMemStore()
	m.addUser(1, "admin")
	m.addUser(2, "alice")
	m.addUser(3, "bob")
	m.addUser(4, "carol")
	require.NoError(t, m.Join(context.Background(), GroupAdministrators, "1"))

	clk := clock.NewFixedClock(epoch)
	base := []Option{
		WithClock(clk),
		WithNotifier(m),
		WithSite(SiteConfig{Title: "Forum & Co", Description: "talk", URL: "https://forum.example", BrandLogo: "/brand.png"}),
		WithDefaults(UserSettings{
			TopicsPerPage:     2,
			PostsPerPage:      3,
			UsePagination:     true,
			TopicPostSort:     listing.SortOldestToNewest,
			CategoryTopicSort: listing.SortNewestToOldest,
		}),
	}
	return &fixture{app: NewApp(m.stores(), append(base, opts...)...), store: m, clock: clk}
}

// publicCategory creates a category every visitor can read.
func (f *fixture) publicCategory(t *testing.T, name string, parent int64) *Category {
	t.Helper()
	c, err := f.app.createCategory(context.Background(), NewCategory{Name: name, ParentCID: parent}, true)
	require.NoError(t, err)
	return c
}

func (f *fixture) topic(t *testing.T, cid, uid int64, title, content string) *Topic {
	t.Helper()
	f.clock.Advance(time.Minute)
	topic, _, err := f.store.CreateTopic(context.Background(), NewTopic{
		CID: cid, UID: uid, Title: title, Content: content, Timestamp: f.clock.Now(),
	})
	require.NoError(t, err)
	return topic
}

func (f *fixture) privileges(t *testing.T, cid, uid int64) Privileges {
	t.Helper()
	p, err := f.app.categoryPrivileges(context.Background(), cid, uid)
	require.NoError(t, err)
	return p
}

func requireSignal(t *testing.T, err error, kind listing.SignalKind) *listing.Signal {
	t.Helper()
	sig, ok := listing.AsSignal(err)
	require.True(t, ok, "expected listing signal, got %v", err)
	require.Equal(t, kind, sig.Kind)
	return sig
}

type recordingLocker struct {
	names []string
}

func (l *recordingLocker) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	l.names = append(l.names, name)
	return fn(ctx)
}
