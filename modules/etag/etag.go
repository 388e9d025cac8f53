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

package etag

import (
	"fmt"
	"net/http"
	"strings"
)

type ETaggable interface {
	V() string
}

const prefix = "v:"

// ETag returns the unquoted tag for obj. Header values must be quoted:
//
//	fmt.Sprintf("%q", ETag(obj))
func ETag(obj ETaggable) string {
	return prefix + obj.V()
}

func ParseETag(etag string) (string, error) {
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, `"`)
	if !strings.HasPrefix(etag, prefix) {
		return "", fmt.Errorf("invalid etag format")
	}
	return strings.TrimPrefix(etag, prefix), nil
}

// NotModified reports whether the request's If-None-Match already names tag.
func NotModified(r *http.Request, tag string) bool {
	inm := r.Header.Get("If-None-Match")
	if inm == "" {
		return false
	}
	if strings.TrimSpace(inm) == "*" {
		return true
	}
	for candidate := range strings.SplitSeq(inm, ",") {
		v, err := ParseETag(strings.TrimSpace(candidate))
		if err != nil {
			continue
		}
		if prefix+v == tag {
			return true
		}
	}
	return false
}
