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
	"log/slog"
	"net/http"

	"forum/modules/middleware/problem"
)

// healthz answers 204 when every registered dependency responds.
func (f *ForumAPI) healthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	for _, c := range f.checks {
		if err := c.check.HealthCheck(ctx); err != nil {
			slog.ErrorContext(ctx, "health check failed", slog.String("dependency", c.name), slog.Any("error", err))
			problem.Write(w, problem.New(
				problem.WithStatus(http.StatusServiceUnavailable),
				problem.WithTitle(http.StatusText(http.StatusServiceUnavailable)),
				problem.WithDetail(c.name+" unavailable"),
			))
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
