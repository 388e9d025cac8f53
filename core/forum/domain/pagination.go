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
	"net/url"
	"slices"
	"strconv"
)

// NewPagination builds the page strip for a listing: the first two and last
// two pages, five pages around the current one, and separators for the gaps.
// extra is carried into every page link's query string.
func NewPagination(current, pageCount int, extra url.Values) Pagination {
	if current < 1 {
		current = 1
	}
	p := Pagination{CurrentPage: current, PageCount: pageCount, Rel: []LinkTag{}, Pages: []PageLink{}}
	if pageCount <= 1 {
		p.Prev = PageLink{Page: 1, Active: current > 1}
		p.Next = PageLink{Page: 1, Active: current < pageCount}
		return p
	}

	prev := max(1, current-1)
	next := min(pageCount, current+1)

	start := max(1, current-2)
	if start > pageCount-5 {
		start -= 2 - (pageCount - current)
	}
	candidates := []int{1, 2, pageCount - 1, pageCount}
	for i := range 5 {
		candidates = append(candidates, start+i)
	}
	slices.Sort(candidates)
	candidates = slices.Compact(candidates)

	for _, n := range candidates {
		if n < 1 || n > pageCount {
			continue
		}
		if len(p.Pages) > 0 && p.Pages[len(p.Pages)-1].Page != n-1 {
			p.Pages = append(p.Pages, PageLink{Separator: true})
		}
		p.Pages = append(p.Pages, PageLink{Page: n, Active: n == current, Query: pageQuery(n, extra)})
	}

	p.Prev = PageLink{Page: prev, Active: current > 1, Query: pageQuery(prev, extra)}
	p.Next = PageLink{Page: next, Active: current < pageCount, Query: pageQuery(next, extra)}
	if current < pageCount {
		p.Rel = append(p.Rel, LinkTag{Rel: "next", Href: "?" + pageQuery(next, extra)})
	}
	if current > 1 {
		p.Rel = append(p.Rel, LinkTag{Rel: "prev", Href: "?" + pageQuery(prev, extra)})
	}
	return p
}

func pageQuery(page int, extra url.Values) string {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return q.Encode()
}
