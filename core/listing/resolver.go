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
	"strconv"
	"strings"
)

// DefaultItemsPerPage is used when settings carry a non-positive page size.
const DefaultItemsPerPage = 20

// PageCount returns max(1, ceil(total/perPage)).
func PageCount(total, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultItemsPerPage
	}
	if total <= 0 {
		return 1
	}
	return max(1, (total+perPage-1)/perPage)
}

// ResolveSort applies the precedence: recognised override, then recognised
// stored default, then oldest_to_newest.
func ResolveSort(override string, stored SortMode) SortMode {
	if m, ok := ParseSortMode(override); ok {
		return m
	}
	if stored.Valid() {
		return stored
	}
	return SortOldestToNewest
}

// Resolve computes the window to fetch for req, or returns a *Signal.
//
// Anchors are 1-based. When pagination is off the window is centred on the
// anchor (ceil(perPage/2) items of context before it) and ?page= is ignored.
// When pagination is on and an anchor is given without ?page=, the page is the
// one holding the anchor in traversal order.
func Resolve(req Request, settings Settings, counters Counters) (Window, error) {
	perPage := settings.ItemsPerPage
	if perPage <= 0 {
		perPage = DefaultItemsPerPage
	}
	total := max(counters.TotalItems, 0)

	index, hasIndex, ok := parseIndex(req.Index)
	if !ok {
		return Window{}, NotFound()
	}

	pageGiven := strings.TrimSpace(req.Page) != ""
	page := parsePage(req.Page)
	pageCount := PageCount(total, perPage)

	if hasIndex && (index < 1 || index > max(total, 1)) {
		return Window{}, RedirectToBoundary(min(max(index, 0), total))
	}

	if settings.UsePagination && page > pageCount {
		return Window{}, NotFound()
	}

	sort := ResolveSort(req.Sort, settings.DefaultSort)
	reverse := sort.Reverse()
	selector := SelectorPrimary
	if sort.Popular() {
		selector = SelectorPopularity
	}

	anchor := index
	// in reverse order the first item is the default landing spot, not an anchor
	if reverse && anchor == 1 {
		anchor = 0
	}

	var start int
	if !settings.UsePagination {
		half := (perPage + 1) / 2
		if reverse {
			a := anchor
			if a == 0 {
				a = total
			}
			start = max(0, total-a-half)
		} else {
			a := max(anchor, 1)
			start = max(0, a-half)
		}
		page = start/perPage + 1
	} else {
		if anchor > 0 && !pageGiven {
			pos := anchor - 1
			if reverse {
				pos = max(0, total-anchor)
			}
			page = pos/perPage + 1
		}
		start = (page - 1) * perPage
	}

	return Window{
		Selector:  selector,
		Reverse:   reverse,
		Start:     start,
		Stop:      start + perPage - 1,
		Page:      page,
		PageCount: pageCount,
		Sort:      sort,
	}, nil
}

// parseIndex reports (value, present, wellFormed).
func parseIndex(raw string) (int, bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, false
	}
	return n, true, true
}

// parsePage never fails: anything that is not a positive integer is page 1.
func parsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
