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

package rest

import (
	"context"
	"errors"
	"net/http"

	"forum/core/forum/domain"
	"forum/core/listing"
)

const (
	categoryBase = "/api/category"
	topicBase    = "/api/topic"
)

func (f *ForumAPI) listCategories(w http.ResponseWriter, r *http.Request) {
	uid, valid := viewer(w, r)
	if !valid {
		return
	}
	page, err := f.app.ListCategories(r.Context(), uid)
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	ok(w, page)
}

func (f *ForumAPI) getCategory(w http.ResponseWriter, r *http.Request) {
	uid, valid := viewer(w, r)
	if !valid {
		return
	}
	q := r.URL.Query()
	in := domain.CategoryQuery{
		CID:    r.PathValue("category_id"),
		Slug:   r.PathValue("slug"),
		Index:  r.PathValue("topic_index"),
		Page:   q.Get("page"),
		Sort:   q.Get("sort"),
		Author: q.Get("author"),
	}
	page, err := f.app.GetCategory(r.Context(), uid, in)
	f.recordListing(r.Context(), "category", err)
	if err != nil {
		writeError(w, r, err, categoryBase, in.CID, in.Slug)
		return
	}
	ok(w, page)
}

func (f *ForumAPI) getTopic(w http.ResponseWriter, r *http.Request) {
	uid, valid := viewer(w, r)
	if !valid {
		return
	}
	q := r.URL.Query()
	in := domain.TopicQuery{
		TID:   r.PathValue("topic_id"),
		Slug:  r.PathValue("slug"),
		Index: r.PathValue("post_index"),
		Page:  q.Get("page"),
		Sort:  q.Get("sort"),
	}
	page, err := f.app.GetTopic(r.Context(), uid, in)
	f.recordListing(r.Context(), "topic", err)
	if err != nil {
		writeError(w, r, err, topicBase, in.TID, in.Slug)
		return
	}
	ok(w, page)
}

func (f *ForumAPI) recordListing(ctx context.Context, resource string, err error) {
	f.metrics.RecordListing(ctx, resource, listingOutcome(err))
}

func listingOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if sig, isSignal := listing.AsSignal(err); isSignal {
		switch sig.Kind {
		case listing.SignalRedirectToBoundary:
			return "redirect_boundary"
		case listing.SignalRedirectToCanonicalSlug:
			return "redirect_canonical"
		default:
			return "not_found"
		}
	}
	if _, isRedirect := domain.AsRedirect(err); isRedirect {
		return "redirect_link"
	}
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrCategoryNotFound), errors.Is(err, domain.ErrTopicNotFound):
		return "not_found"
	default:
		return "error"
	}
}
