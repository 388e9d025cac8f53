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

	"forum/core/forum/domain"
	"forum/modules/api/serde"
	"forum/modules/middleware/problem"
)

type (
	descriptionBody struct {
		Description string `json:"description"`
	}

	usernameBody struct {
		Username string `json:"username"`
	}

	usersBody struct {
		Users []string `json:"users"`
	}

	topicBody struct {
		Username    string   `json:"username"`
		Title       string   `json:"title"`
		Tags        []string `json:"tags"`
		Description string   `json:"description"`
	}
)

func (f *ForumAPI) createGroup(w http.ResponseWriter, r *http.Request) {
	var body descriptionBody
	if !decodeBody(w, r, &body) {
		return
	}
	g, err := f.app.CreateGroup(r.Context(), r.PathValue("name"), body.Description)
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	serde.WriteJSON(w, http.StatusCreated, g)
}

// groupAction serves POST /api/group/{name}/addUsers. A literal route would
// overlap with /api/group/create/{name}.
func (f *ForumAPI) groupAction(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("action") != "addUsers" {
		problem.Write(w, problem.NotFound("not found"))
		return
	}
	var body usersBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := f.app.AddUsersToGroup(r.Context(), r.PathValue("name"), body.Users); err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (f *ForumAPI) createCategory(w http.ResponseWriter, r *http.Request) {
	var body descriptionBody
	if !decodeBody(w, r, &body) {
		return
	}
	c, err := f.app.CreateCategory(r.Context(), r.PathValue("name"), body.Description)
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	serde.WriteJSON(w, http.StatusCreated, c)
}

func (f *ForumAPI) createChildCategory(w http.ResponseWriter, r *http.Request) {
	var body descriptionBody
	if !decodeBody(w, r, &body) {
		return
	}
	c, err := f.app.CreateChildCategory(r.Context(), r.PathValue("name"), r.PathValue("child"), body.Description)
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	serde.WriteJSON(w, http.StatusCreated, c)
}

// categoryAction serves moderate, revoke and remove on /api/category/{name}/{action}.
func (f *ForumAPI) categoryAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")

	var err error
	switch r.PathValue("action") {
	case "moderate", "revoke":
		var body usernameBody
		if !decodeBody(w, r, &body) {
			return
		}
		if body.Username == "" {
			problem.Write(w, problem.BadRequest("invalid request", problem.WithInvalidParam("username", "is required")))
			return
		}
		if r.PathValue("action") == "moderate" {
			err = f.app.GrantModeratorPrivileges(ctx, name, body.Username)
		} else {
			err = f.app.RevokeModeratorPrivileges(ctx, name, body.Username)
		}
	case "remove":
		err = f.app.RemoveCategory(ctx, name)
	default:
		problem.Write(w, problem.NotFound("not found"))
		return
	}
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// createTopic serves .../topic/{slug}/create and .../topic/{slug}/private.
func (f *ForumAPI) createTopic(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")
	if action != "create" && action != "private" {
		problem.Write(w, problem.NotFound("not found"))
		return
	}
	var body topicBody
	if !decodeBody(w, r, &body) {
		return
	}
	req := domain.TopicRequest{
		Parent:      r.PathValue("name"),
		Child:       r.PathValue("child"),
		Slug:        r.PathValue("slug"),
		Username:    body.Username,
		Title:       body.Title,
		Tags:        body.Tags,
		Description: body.Description,
	}

	var (
		topic *domain.Topic
		err   error
	)
	if action == "private" {
		topic, err = f.app.CreatePrivateTopic(r.Context(), req)
	} else {
		topic, err = f.app.CreatePublicTopic(r.Context(), req)
	}
	if err != nil {
		writeError(w, r, err, "", "", "")
		return
	}
	serde.WriteJSON(w, http.StatusCreated, topic)
}
