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

package domain

import (
	"errors"
	"fmt"

	"forum/core/listing"
)

var (
	ErrInvalidData      = errors.New("invalid data provided for forum operations")
	ErrCategoryExists   = errors.New("category already exists")
	ErrGroupExists      = errors.New("group already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrTopicNotFound    = errors.New("topic not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrGroupNotFound    = errors.New("group not found")
	ErrForbidden        = errors.New("insufficient privileges")
	ErrPrecondition     = errors.New("resource version does not match")
	ErrUnhandled        = errors.New("unexpected error")
)

// Redirect sends the client to an external URL, e.g. a link category.
type Redirect struct {
	URL string
}

func (r *Redirect) Error() string {
	return fmt.Sprintf("redirect to %s", r.URL)
}

// AsRedirect unwraps err into a *Redirect if it carries one.
func AsRedirect(err error) (*Redirect, bool) {
	var r *Redirect
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// known lists the errors returned to callers as-is. Anything else is logged
// and reported as ErrUnhandled.
var known = []error{
	ErrInvalidData,
	ErrCategoryExists,
	ErrGroupExists,
	ErrCategoryNotFound,
	ErrTopicNotFound,
	ErrPostNotFound,
	ErrUserNotFound,
	ErrGroupNotFound,
	ErrForbidden,
	ErrPrecondition,
}

func isKnown(err error) bool {
	for _, k := range known {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// isControl reports whether err is a redirect or listing signal the caller acts on.
func isControl(err error) bool {
	if _, ok := listing.AsSignal(err); ok {
		return true
	}
	_, ok := AsRedirect(err)
	return ok
}
