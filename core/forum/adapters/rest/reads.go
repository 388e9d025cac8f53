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
	"net/http"
)

func (f *ForumAPI) getTopicTeaser(w http.ResponseWriter, r *http.Request) {
	uid, valid := viewer(w, r)
	if !valid {
		return
	}
	post, err := f.app.GetTopicTeaser(r.Context(), uid, r.PathValue("topic_id"))
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	ok(w, post)
}

func (f *ForumAPI) getPost(w http.ResponseWriter, r *http.Request) {
	uid, valid := viewer(w, r)
	if !valid {
		return
	}
	post, err := f.app.GetPost(r.Context(), uid, r.PathValue("pid"))
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	ok(w, post)
}

func (f *ForumAPI) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := f.app.GetUser(r.Context(), r.PathValue("uid"))
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	ok(w, user)
}

func (f *ForumAPI) getModerators(w http.ResponseWriter, r *http.Request) {
	mods, err := f.app.GetModerators(r.Context(), r.PathValue("cid"))
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	ok(w, map[string]any{"moderators": mods})
}

func (f *ForumAPI) getRecentPosts(w http.ResponseWriter, r *http.Request) {
	uid, valid := viewer(w, r)
	if !valid {
		return
	}
	posts, err := f.app.GetRecentPosts(r.Context(), uid, r.PathValue("term"))
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	ok(w, posts)
}

func (f *ForumAPI) listGroups(w http.ResponseWriter, r *http.Request) {
	page, err := f.app.ListGroups(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	ok(w, page)
}

func (f *ForumAPI) getGroup(w http.ResponseWriter, r *http.Request) {
	g, err := f.app.GetGroup(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	ok(w, g)
}
