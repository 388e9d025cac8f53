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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paged(ipp int) Settings {
	return Settings{ItemsPerPage: ipp, UsePagination: true, DefaultSort: SortOldestToNewest}
}

func scrolled(ipp int) Settings {
	return Settings{ItemsPerPage: ipp, UsePagination: false, DefaultSort: SortOldestToNewest}
}

func requireSignal(t *testing.T, err error, kind SignalKind) *Signal {
	t.Helper()
	require.Error(t, err)
	sig, ok := AsSignal(err)
	require.True(t, ok, "expected *Signal, got %T", err)
	require.Equal(t, kind, sig.Kind)
	return sig
}

func TestResolve_AnchorDerivesPage(t *testing.T) {
	w, err := Resolve(Request{Index: "25"}, paged(20), Counters{TotalItems: 45})
	require.NoError(t, err)

	assert.Equal(t, 2, w.Page)
	assert.Equal(t, 3, w.PageCount)
	assert.Equal(t, 20, w.Start)
	assert.Equal(t, 39, w.Stop)
	assert.Equal(t, SelectorPrimary, w.Selector)
	assert.False(t, w.Reverse)
}

func TestResolve_ScrollModeCentersOnAnchor(t *testing.T) {
	w, err := Resolve(Request{Index: "3", Page: "4"}, scrolled(20), Counters{TotalItems: 10})
	require.NoError(t, err)

	assert.Equal(t, 0, w.Start)
	assert.Equal(t, 19, w.Stop)
	assert.Equal(t, 1, w.Page)

	w, err = Resolve(Request{Index: "40"}, scrolled(20), Counters{TotalItems: 45})
	require.NoError(t, err)
	assert.Equal(t, 30, w.Start)
	assert.Equal(t, 49, w.Stop)
	assert.Equal(t, 2, w.Page)
}

func TestResolve_PageBeyondCountIsNotFound(t *testing.T) {
	_, err := Resolve(Request{Page: "99"}, paged(20), Counters{TotalItems: 45})
	requireSignal(t, err, SignalNotFound)

	// scroll mode ignores ?page=
	_, err = Resolve(Request{Page: "99"}, scrolled(20), Counters{TotalItems: 45})
	require.NoError(t, err)
}

func TestResolve_IndexOutOfRangeRedirects(t *testing.T) {
	tests := []struct {
		name  string
		index string
		total int
		want  int
	}{
		{"past end", "50", 45, 45},
		{"far past end", "9999", 3, 3},
		{"zero", "0", 45, 0},
		{"negative", "-3", 45, 0},
		{"empty listing", "2", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(Request{Index: tt.index}, paged(20), Counters{TotalItems: tt.total})
			sig := requireSignal(t, err, SignalRedirectToBoundary)
			assert.Equal(t, tt.want, sig.Index)
		})
	}

	_, err := Resolve(Request{Index: "1"}, paged(20), Counters{TotalItems: 0})
	require.NoError(t, err, "index 1 is always in range")
}

func TestResolve_MalformedInputs(t *testing.T) {
	_, err := Resolve(Request{Index: "abc"}, paged(20), Counters{TotalItems: 45})
	requireSignal(t, err, SignalNotFound)

	for _, raw := range []string{"", "x", "0", "-2", "1.5"} {
		w, err := Resolve(Request{Page: raw}, paged(20), Counters{TotalItems: 45})
		require.NoError(t, err, raw)
		assert.Equal(t, 1, w.Page, raw)
		assert.Equal(t, 0, w.Start, raw)
	}
}

func TestResolve_SortPrecedence(t *testing.T) {
	tests := []struct {
		override string
		stored   SortMode
		want     SortMode
		reverse  bool
		selector SetSelector
	}{
		{"most_votes", SortOldestToNewest, SortMostVotes, true, SelectorPopularity},
		{"bogus", SortMostPosts, SortMostPosts, true, SelectorPopularity},
		{"", SortNewestToOldest, SortNewestToOldest, true, SelectorPrimary},
		{"bogus", "bogus", SortOldestToNewest, false, SelectorPrimary},
		{"NEWEST_TO_OLDEST", "", SortNewestToOldest, true, SelectorPrimary},
	}
	for _, tt := range tests {
		t.Run(tt.override+"/"+string(tt.stored), func(t *testing.T) {
			s := paged(20)
			s.DefaultSort = tt.stored
			w, err := Resolve(Request{Sort: tt.override}, s, Counters{TotalItems: 45})
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.Sort)
			assert.Equal(t, tt.reverse, w.Reverse)
			assert.Equal(t, tt.selector, w.Selector)
		})
	}
}

func TestResolve_ReverseDerivations(t *testing.T) {
	s := paged(20)
	s.DefaultSort = SortNewestToOldest
	c := Counters{TotalItems: 45}

	w, err := Resolve(Request{Index: "45"}, s, c)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Page, "newest item is on the first reverse page")

	w, err = Resolve(Request{Index: "20"}, s, c)
	require.NoError(t, err)
	assert.Equal(t, 2, w.Page)
	assert.Equal(t, 20, w.Start)

	w, err = Resolve(Request{Index: "1"}, s, c)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Page, "index 1 is not an anchor in reverse order")

	s.UsePagination = false
	w, err = Resolve(Request{}, s, c)
	require.NoError(t, err)
	assert.Equal(t, 0, w.Start)

	w, err = Resolve(Request{Index: "10"}, s, c)
	require.NoError(t, err)
	assert.Equal(t, 25, w.Start)
}

func TestResolve_ExplicitPageWinsOverAnchor(t *testing.T) {
	w, err := Resolve(Request{Index: "25", Page: "1"}, paged(20), Counters{TotalItems: 45})
	require.NoError(t, err)
	assert.Equal(t, 1, w.Page)
	assert.Equal(t, 0, w.Start)
}

func TestResolve_NonPositivePageSize(t *testing.T) {
	w, err := Resolve(Request{}, paged(0), Counters{TotalItems: 45})
	require.NoError(t, err)
	assert.Equal(t, DefaultItemsPerPage, w.Stop-w.Start+1)
}

func TestResolve_Invariants(t *testing.T) {
	for total := 0; total <= 60; total += 7 {
		for ipp := 1; ipp <= 25; ipp += 4 {
			for _, pagination := range []bool{true, false} {
				s := Settings{ItemsPerPage: ipp, UsePagination: pagination}
				for idx := 1; idx <= max(total, 1); idx++ {
					req := Request{Index: strconv.Itoa(idx)}
					w, err := Resolve(req, s, Counters{TotalItems: total})
					require.NoError(t, err)

					want := max(1, (total+ipp-1)/ipp)
					assert.Equal(t, want, w.PageCount)
					assert.Equal(t, ipp, w.Stop-w.Start+1)
					assert.GreaterOrEqual(t, w.Start, 0)
					assert.LessOrEqual(t, w.Page, w.PageCount)

					again, err := Resolve(req, s, Counters{TotalItems: total})
					require.NoError(t, err)
					assert.Equal(t, w, again)
				}
			}
		}
	}
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, PageCount(0, 20))
	assert.Equal(t, 1, PageCount(20, 20))
	assert.Equal(t, 2, PageCount(21, 20))
	assert.Equal(t, 3, PageCount(45, 20))
	assert.Equal(t, 1, PageCount(5, 0))
}
