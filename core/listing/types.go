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

// Package listing resolves which slice of an ordered index a paginated or
// anchor-addressed listing should read.
//
// It is a pure function of the request values, the viewer's display settings
// and the resource counters, so it is safe to call from any number of
// concurrent requests.
package listing

import "strings"

const (
	SortOldestToNewest SortMode = "oldest_to_newest"
	SortNewestToOldest SortMode = "newest_to_oldest"
	SortMostVotes      SortMode = "most_votes"
	SortMostPosts      SortMode = "most_posts"
)

const (
	// SelectorPrimary is the chronological index (cid:N:tids, tid:N:posts).
	SelectorPrimary SetSelector = iota
	// SelectorPopularity is the secondary index (cid:N:tids:posts, tid:N:posts:votes).
	SelectorPopularity
)

type (
	SortMode    string
	SetSelector int

	// Request carries the raw, per-request listing parameters. Empty means absent.
	Request struct {
		// Index is the 1-based anchor item from the path (e.g. /topic/1/slug/25).
		Index string
		// Page is the raw ?page= value.
		Page string
		// Sort is the raw ?sort= override.
		Sort string

		ResourceID string
	}

	// Settings are the viewer's display preferences.
	Settings struct {
		ItemsPerPage  int
		UsePagination bool
		DefaultSort   SortMode
	}

	Counters struct {
		TotalItems int
	}

	// Window is what the range fetcher needs to read one page of items.
	Window struct {
		Selector  SetSelector
		Reverse   bool
		Start     int
		Stop      int
		Page      int
		PageCount int
		Sort      SortMode
	}
)

var knownSorts = map[SortMode]struct{}{
	SortOldestToNewest: {},
	SortNewestToOldest: {},
	SortMostVotes:      {},
	SortMostPosts:      {},
}

// ParseSortMode returns the mode named by s and whether it is recognised.
func ParseSortMode(s string) (SortMode, bool) {
	m := SortMode(strings.ToLower(strings.TrimSpace(s)))
	_, ok := knownSorts[m]
	return m, ok
}

func (m SortMode) Valid() bool {
	_, ok := knownSorts[m]
	return ok
}

// Popular reports whether the mode reads the popularity index.
func (m SortMode) Popular() bool {
	return m == SortMostVotes || m == SortMostPosts
}

// Reverse reports whether the index is traversed from the highest score down.
func (m SortMode) Reverse() bool {
	return m == SortNewestToOldest || m.Popular()
}

func (s SetSelector) String() string {
	if s == SelectorPopularity {
		return "popularity"
	}
	return "primary"
}
