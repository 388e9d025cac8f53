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

// Package rest exposes the forum application over HTTP as JSON view models.
package rest

import (
	"context"
	"net/http"

	"forum/core/forum/domain"
	"forum/modules/telemetry"
)

type (
	// ForumAPI translates HTTP requests into domain operations.
	ForumAPI struct {
		app     *domain.Application
		metrics *telemetry.HTTPMetrics
		checks  []namedCheck
	}

	HealthChecker interface {
		HealthCheck(ctx context.Context) error
	}

	Option func(*ForumAPI)

	namedCheck struct {
		name  string
		check HealthChecker
	}
)

// WithMetrics records how listing requests resolve. nil disables it.
func WithMetrics(m *telemetry.HTTPMetrics) Option {
	return func(f *ForumAPI) { f.metrics = m }
}

// WithHealthCheck adds a dependency probed by /healthz.
func WithHealthCheck(name string, c HealthChecker) Option {
	return func(f *ForumAPI) { f.checks = append(f.checks, namedCheck{name: name, check: c}) }
}

func NewForumAPI(app *domain.Application, opts ...Option) *ForumAPI {
	f := &ForumAPI{app: app}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Routes mounts every forum route on mux. admin wraps the mutation routes.
func (f *ForumAPI) Routes(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	if admin == nil {
		admin = func(h http.Handler) http.Handler { return h }
	}
	guarded := func(h http.HandlerFunc) http.Handler { return admin(h) }

	// admin
	mux.Handle("POST /api/group/create/{name}", guarded(f.createGroup))
	mux.Handle("POST /api/group/{name}/{action}", guarded(f.groupAction))
	mux.Handle("POST /api/category/create/{name}", guarded(f.createCategory))
	mux.Handle("POST /api/category/create/{name}/child/{child}", guarded(f.createChildCategory))
	mux.Handle("POST /api/category/{name}/{action}", guarded(f.categoryAction))
	mux.Handle("POST /api/category/{name}/child/{child}/topic/{slug}/{action}", guarded(f.createTopic))

	// listings
	mux.HandleFunc("GET /api/categories", f.listCategories)
	mux.HandleFunc("GET /api/category/{category_id}", f.getCategory)
	mux.HandleFunc("GET /api/category/{category_id}/{slug}", f.getCategory)
	mux.HandleFunc("GET /api/category/{category_id}/{slug}/{topic_index}", f.getCategory)
	mux.HandleFunc("GET /api/topic/{topic_id}", f.getTopic)
	mux.HandleFunc("GET /api/topic/{topic_id}/{slug}", f.getTopic)
	mux.HandleFunc("GET /api/topic/{topic_id}/{slug}/{post_index}", f.getTopic)
	mux.HandleFunc("GET /api/topic/teaser/{topic_id}", f.getTopicTeaser)

	mux.HandleFunc("GET /api/post/{pid}", f.getPost)
	mux.HandleFunc("GET /api/user/uid/{uid}", f.getUser)
	mux.HandleFunc("GET /api/categories/{cid}/moderators", f.getModerators)
	mux.HandleFunc("GET /api/recent/posts", f.getRecentPosts)
	mux.HandleFunc("GET /api/recent/posts/{term}", f.getRecentPosts)
	mux.HandleFunc("GET /api/groups", f.listGroups)
	mux.HandleFunc("GET /api/groups/{name}", f.getGroup)

	mux.HandleFunc("GET /api/settings/{uid}", f.getSettings)
	mux.HandleFunc("PATCH /api/settings/{uid}", f.updateSettings)

	mux.HandleFunc("GET /healthz", f.healthz)
}
