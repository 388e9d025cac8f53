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
	"io/fs"
	"net/http"

	"forum/core/forum/domain"
	"forum/modules/middleware"
	"forum/modules/middleware/problem"
)

// ProblemFromDomainError maps domain errors to problem documents without
// exposing anything about unexpected failures.
func ProblemFromDomainError(err error) *problem.Problem {
	switch {
	case errors.Is(err, domain.ErrInvalidData):
		return problem.BadRequest("invalid request")
	case errors.Is(err, domain.ErrCategoryExists):
		return problem.Conflict("category already exists")
	case errors.Is(err, domain.ErrGroupExists):
		return problem.Conflict("group already exists")
	case errors.Is(err, domain.ErrCategoryNotFound):
		return problem.NotFound("category not found")
	case errors.Is(err, domain.ErrTopicNotFound):
		return problem.NotFound("topic not found")
	case errors.Is(err, domain.ErrPostNotFound):
		return problem.NotFound("post not found")
	case errors.Is(err, domain.ErrUserNotFound):
		return problem.NotFound("user not found")
	case errors.Is(err, domain.ErrGroupNotFound):
		return problem.NotFound("group not found")
	case errors.Is(err, domain.ErrForbidden):
		return problem.Forbidden("[[error:no-privileges]]")
	case errors.Is(err, domain.ErrPrecondition):
		return problem.PreconditionFailed("resource has changed")
	default:
		return problem.Internal("server error")
	}
}

// RecoverMiddleware turns panics into a 500 problem document.
func RecoverMiddleware() func(http.Handler) http.Handler {
	return middleware.Recovery(func(w http.ResponseWriter, r *http.Request, recovered any) {
		problem.Write(w, problem.Internal("server error"))
	})
}

// SourceRejected answers admin requests that failed source validation.
func SourceRejected(w http.ResponseWriter, r *http.Request, reason string) {
	problem.Write(w, problem.Forbidden("untrusted request source"))
}

// ValidationMiddleware validates requests against the OpenAPI document at specPath.
func ValidationMiddleware(specFS fs.FS, specPath string) func(http.Handler) http.Handler {
	return middleware.OpenAPIValidation(
		specFS,
		specPath,
		func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, statusCode int) {
			p := problem.New(
				problem.WithStatus(statusCode),
				problem.WithTitle(http.StatusText(statusCode)),
				problem.WithDetail("validation failed"),
			)
			for _, ve := range middleware.ExtractValidationErrors(err) {
				problem.WithInvalidParam(ve.Field, ve.Reason)(p)
			}
			problem.Write(w, p)
		},
		func(w http.ResponseWriter, r *http.Request, err error) {
			problem.Write(w, problem.Internal("server error"))
		},
	)
}
