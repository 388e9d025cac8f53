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
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/oapi-codegen/nullable"

	"forum/core/forum/domain"
	"forum/core/listing"
	"forum/modules/etag"
	"forum/modules/middleware/problem"
)

// settingsPatch is the PATCH body. An omitted field is left alone and null
// restores the site default.
type settingsPatch struct {
	TopicsPerPage     nullable.Nullable[int]    `json:"topicsPerPage"`
	PostsPerPage      nullable.Nullable[int]    `json:"postsPerPage"`
	UsePagination     nullable.Nullable[bool]   `json:"usePagination"`
	TopicPostSort     nullable.Nullable[string] `json:"topicPostSort"`
	CategoryTopicSort nullable.Nullable[string] `json:"categoryTopicSort"`
}

func optional[T any](n nullable.Nullable[T]) domain.Optional[T] {
	if !n.IsSpecified() {
		return domain.Optional[T]{}
	}
	if n.IsNull() {
		return domain.Null[T]()
	}
	return domain.Value(n.MustGet())
}

func optionalSort(n nullable.Nullable[string]) domain.Optional[listing.SortMode] {
	o := optional(n)
	return domain.Optional[listing.SortMode]{Set: o.Set, Null: o.Null, Value: listing.SortMode(o.Value)}
}

func (p settingsPatch) toDomain() domain.SettingsPatch {
	return domain.SettingsPatch{
		TopicsPerPage:     optional(p.TopicsPerPage),
		PostsPerPage:      optional(p.PostsPerPage),
		UsePagination:     optional(p.UsePagination),
		TopicPostSort:     optionalSort(p.TopicPostSort),
		CategoryTopicSort: optionalSort(p.CategoryTopicSort),
	}
}

// settingsOwner resolves {uid} and checks the caller may address it. uid 0
// reads the guest defaults and is open to everyone.
func settingsOwner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	caller, valid := viewer(w, r)
	if !valid {
		return 0, false
	}
	uid, err := strconv.ParseInt(r.PathValue("uid"), 10, 64)
	if err != nil || uid < 0 {
		problem.Write(w, problem.BadRequest("invalid uid", problem.WithInvalidParam("uid", "must be a non-negative integer")))
		return 0, false
	}
	if uid != 0 && uid != caller {
		problem.Write(w, problem.Forbidden("[[error:no-privileges]]"))
		return 0, false
	}
	return uid, true
}

func writeSettings(w http.ResponseWriter, s *domain.UserSettings) {
	w.Header().Set("ETag", fmt.Sprintf("%q", etag.ETag(s)))
	ok(w, s)
}

func (f *ForumAPI) getSettings(w http.ResponseWriter, r *http.Request) {
	uid, valid := settingsOwner(w, r)
	if !valid {
		return
	}
	s, err := f.app.GetSettings(r.Context(), uid)
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	tag := etag.ETag(s)
	if etag.NotModified(r, tag) {
		w.Header().Set("ETag", fmt.Sprintf("%q", tag))
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeSettings(w, s)
}

func (f *ForumAPI) updateSettings(w http.ResponseWriter, r *http.Request) {
	uid, valid := settingsOwner(w, r)
	if !valid {
		return
	}
	if uid == 0 {
		problem.Write(w, problem.Forbidden("[[error:no-privileges]]"))
		return
	}
	var body settingsPatch
	if !decodeBody(w, r, &body) {
		return
	}

	version, valid := ifMatchVersion(w, r)
	if !valid {
		return
	}

	ctx := r.Context()
	s, err := f.app.UpdateSettings(ctx, uid, version, body.toDomain())
	switch {
	case errors.Is(err, domain.ErrInvalidData):
		problem.Write(w, problem.UnprocessableEntity("invalid settings"))
		return
	case errors.Is(err, domain.ErrPrecondition):
		// hand back the current tag so the client can refetch and retry
		if latest, err := f.app.GetSettings(ctx, uid); err == nil {
			w.Header().Set("ETag", fmt.Sprintf("%q", etag.ETag(latest)))
		}
		problem.Write(w, problem.PreconditionFailed("settings have changed"))
		return
	case err != nil:
		writeError(w, r, err, "", "", "")
		return
	}
	writeSettings(w, s)
}

// ifMatchVersion reads the settings version out of If-Match. Without the
// header the update applies to whatever version is current.
func ifMatchVersion(w http.ResponseWriter, r *http.Request) (int64, bool) {
	match := r.Header.Get("If-Match")
	if match == "" {
		return domain.AnyVersion, true
	}
	raw, err := etag.ParseETag(match)
	if err != nil {
		problem.Write(w, problem.BadRequest("invalid etag format", problem.WithInvalidParam("If-Match", "invalid etag format")))
		return 0, false
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 0 {
		problem.Write(w, problem.BadRequest("invalid etag version", problem.WithInvalidParam("If-Match", "invalid version in etag")))
		return 0, false
	}
	return version, true
}
