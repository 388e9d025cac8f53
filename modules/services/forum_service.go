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

package services

import (
	"io/fs"
	"net/http"

	forum_http "forum/core/forum/adapters/rest"
	"forum/modules/server"
)

var _ server.RegistrableService = (*ForumAPIService)(nil)

// ForumAPIService encapsulates the registration logic for the forum API.
type ForumAPIService struct {
	specPath string
	specFS   fs.FS
	api      *forum_http.ForumAPI
	admin    func(http.Handler) http.Handler
}

// NewForumAPIService wraps api. admin guards the mutation routes; nil leaves them open.
func NewForumAPIService(api *forum_http.ForumAPI, admin func(http.Handler) http.Handler, specFS fs.FS, specPath string) *ForumAPIService {
	return &ForumAPIService{specFS: specFS, specPath: specPath, api: api, admin: admin}
}

// Register mounts the forum routes.
func (s *ForumAPIService) Register(mux *http.ServeMux) {
	s.api.Routes(mux, s.admin)
}

// Middlewares returns global middlewares required by the forum API, such as validation.
func (s *ForumAPIService) Middlewares() []func(http.Handler) http.Handler {
	if s.specFS == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{
		forum_http.ValidationMiddleware(s.specFS, s.specPath),
	}
}
