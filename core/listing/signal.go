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

package listing

import (
	"errors"
	"fmt"
)

const (
	SignalNotFound SignalKind = iota + 1
	SignalRedirectToBoundary
	SignalRedirectToCanonicalSlug
)

type (
	SignalKind int

	// Signal is an early exit the caller must act on instead of fetching a window.
	// It travels as an error so it can pass unchanged through the layers above.
	Signal struct {
		Kind SignalKind
		// Index is the clamped anchor for SignalRedirectToBoundary; 0 means no anchor.
		Index int
		// Slug is the canonical "{id}/{slug}" for SignalRedirectToCanonicalSlug.
		Slug string
	}
)

func NotFound() *Signal {
	return &Signal{Kind: SignalNotFound}
}

func RedirectToBoundary(index int) *Signal {
	return &Signal{Kind: SignalRedirectToBoundary, Index: index}
}

func RedirectToCanonicalSlug(slug string) *Signal {
	return &Signal{Kind: SignalRedirectToCanonicalSlug, Slug: slug}
}

func (s *Signal) Error() string {
	switch s.Kind {
	case SignalNotFound:
		return "listing: not found"
	case SignalRedirectToBoundary:
		return fmt.Sprintf("listing: redirect to boundary index %d", s.Index)
	case SignalRedirectToCanonicalSlug:
		return fmt.Sprintf("listing: redirect to canonical slug %q", s.Slug)
	default:
		return "listing: unknown signal"
	}
}

// AsSignal unwraps err into a *Signal if it carries one.
func AsSignal(err error) (*Signal, bool) {
	var s *Signal
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}
