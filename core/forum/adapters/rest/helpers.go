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
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"forum/core/forum/domain"
	"forum/core/listing"
	"forum/modules/api/serde"
	"forum/modules/middleware/problem"
)

// UserHeader carries the authenticated caller's uid. Absent means guest.
const UserHeader = "X-User-ID"

var errBadUser = errors.New("bad " + UserHeader + " header")

func viewerUID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(UserHeader))
	if raw == "" {
		return 0, nil
	}
	uid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || uid < 0 {
		return 0, errBadUser
	}
	return uid, nil
}

// viewer writes a 400 and reports false when the uid header is malformed.
func viewer(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, err := viewerUID(r)
	if err != nil {
		problem.Write(w, problem.BadRequest("invalid user", problem.WithInvalidParam(UserHeader, "must be a non-negative integer")))
		return 0, false
	}
	return uid, true
}

// decodeBody accepts an empty body as the zero value.
func decodeBody[T any](w http.ResponseWriter, r *http.Request, dst *T) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	err := serde.ParseJsonBody(r.Body, dst)
	if err == nil || errors.Is(err, serde.ErrEmptyBody) {
		return true
	}
	slog.DebugContext(r.Context(), "bad request body", slog.Any("error", err))
	problem.Write(w, problem.BadRequest("malformed request body", problem.WithInvalidParam("body", "invalid JSON")))
	return false
}

// writeError answers with the redirect or problem document err stands for.
// base and params locate the listing for boundary redirects.
func writeError(w http.ResponseWriter, r *http.Request, err error, base, id, slug string) {
	if sig, ok := listing.AsSignal(err); ok {
		switch sig.Kind {
		case listing.SignalRedirectToBoundary:
			redirect(w, listingURL(base, id, slug, sig.Index))
			return
		case listing.SignalRedirectToCanonicalSlug:
			redirect(w, base+"/"+escapeSegments(sig.Slug))
			return
		default:
			problem.Write(w, problem.NotFound("not found"))
			return
		}
	}
	if red, ok := domain.AsRedirect(err); ok {
		redirect(w, red.URL)
		return
	}
	problem.Write(w, ProblemFromDomainError(err))
}

func redirect(w http.ResponseWriter, location string) {
	w.Header().Set("Location", location)
	serde.WriteJSON(w, http.StatusFound, map[string]string{"redirect": location})
}

// listingURL renders base/id[/slug][/index]; index 0 drops the anchor.
func listingURL(base, id, slug string, index int) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("/")
	b.WriteString(url.PathEscape(id))
	if slug != "" {
		b.WriteString("/")
		b.WriteString(url.PathEscape(slug))
	}
	if index > 0 {
		b.WriteString("/")
		b.WriteString(strconv.Itoa(index))
	}
	return b.String()
}

// escapeSegments escapes a "{id}/{slug}" path without touching the separator.
func escapeSegments(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

func ok(w http.ResponseWriter, v any) {
	serde.WriteJSON(w, http.StatusOK, v)
}
