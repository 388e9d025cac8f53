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
	"strconv"
	"time"

	"forum/core/listing"
)

// Privilege names as stored in the per-category privilege sets.
const (
	PrivFind         = "find"
	PrivRead         = "read"
	PrivTopicsCreate = "topics:create"
	PrivTopicsReply  = "topics:reply"
	PrivMods         = "mods"
	// PrivGroupModerate is the group-side name of PrivMods.
	PrivGroupModerate = "moderate"
)

// Implicit and well-known group names.
const (
	GroupGuests          = "guests"
	GroupRegisteredUsers = "registered-users"
	GroupAdministrators  = "administrators"
)

type (
	Category struct {
		CID             int64        `json:"cid"`
		Name            string       `json:"name"`
		Description     string       `json:"description"`
		Slug            string       `json:"slug"`
		Icon            string       `json:"icon"`
		Link            string       `json:"link,omitempty"`
		BackgroundImage string       `json:"backgroundImage,omitempty"`
		ParentCID       int64        `json:"parentCid"`
		Order           int          `json:"order"`
		Disabled        bool         `json:"disabled"`
		TopicCount      int          `json:"topic_count"`
		PostCount       int          `json:"post_count"`
		TimesClicked    int          `json:"timesClicked"`
		Children        []Category   `json:"children,omitempty"`
		RecentTopic     *TopicTeaser `json:"recentTopic,omitempty"`
	}

	Topic struct {
		TID          int64        `json:"tid"`
		CID          int64        `json:"cid"`
		UID          int64        `json:"uid"`
		Title        string       `json:"title"`
		Slug         string       `json:"slug"`
		Thumb        string       `json:"thumb,omitempty"`
		Tags         []string     `json:"tags"`
		MainPID      int64        `json:"mainPid"`
		PostCount    int          `json:"postcount"`
		ViewCount    int          `json:"viewcount"`
		Deleted      bool         `json:"deleted"`
		Timestamp    time.Time    `json:"timestamp"`
		LastPostTime time.Time    `json:"lastposttime"`
		User         *UserSummary `json:"user,omitempty"`
	}

	Post struct {
		PID       int64        `json:"pid"`
		TID       int64        `json:"tid"`
		UID       int64        `json:"uid"`
		Content   string       `json:"content"`
		Timestamp time.Time    `json:"timestamp"`
		Deleted   bool         `json:"deleted"`
		Votes     int          `json:"votes"`
		Index     int          `json:"index"`
		User      *UserSummary `json:"user,omitempty"`
	}

	// TopicTeaser is the short form shown next to a category or in recent activity.
	TopicTeaser struct {
		TID   int64  `json:"tid"`
		Title string `json:"title"`
		Slug  string `json:"slug"`
		Post  *Post  `json:"teaser,omitempty"`
	}

	// PostSummary is a post with enough context to link to it.
	PostSummary struct {
		Post
		Topic TopicTeaser `json:"topic"`
		Category struct {
			CID  int64  `json:"cid"`
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"category"`
	}

	UserSummary struct {
		UID      int64  `json:"uid"`
		Username string `json:"username"`
		Userslug string `json:"userslug"`
		Picture  string `json:"picture,omitempty"`
	}

	Group struct {
		Name        string        `json:"name"`
		DisplayName string        `json:"displayName"`
		Description string        `json:"description"`
		MemberCount int           `json:"memberCount"`
		CreateTime  time.Time     `json:"createtime"`
		Hidden      bool          `json:"hidden"`
		System      bool          `json:"system"`
		Members     []UserSummary `json:"members,omitempty"`
	}

	// UserSettings are the listing preferences of one user. Zero values fall
	// back to the site defaults.
	UserSettings struct {
		UID               int64            `json:"uid"`
		TopicsPerPage     int              `json:"topicsPerPage"`
		PostsPerPage      int              `json:"postsPerPage"`
		UsePagination     bool             `json:"usePagination"`
		TopicPostSort     listing.SortMode `json:"topicPostSort"`
		CategoryTopicSort listing.SortMode `json:"categoryTopicSort"`
		UpdatedAt         time.Time        `json:"updatedAt"`
		// Version counts saves; 0 means the user never saved any.
		Version int64 `json:"version"`
	}

	Privileges struct {
		Find         bool `json:"find"`
		Read         bool `json:"read"`
		TopicsCreate bool `json:"topics:create"`
		TopicsReply  bool `json:"topics:reply"`
		Moderate     bool `json:"mods"`
		Editable     bool `json:"editable"`
		ViewDeleted  bool `json:"view_deleted"`
		IsAdmin      bool `json:"isAdmin"`
	}

	SiteConfig struct {
		Title              string
		Description        string
		BrandLogo          string
		URL                string
		RelativePath       string
		ReputationDisabled bool
		DownvoteDisabled   bool
		RSSDisabled        bool
	}

	Breadcrumb struct {
		Text string `json:"text"`
		URL  string `json:"url,omitempty"`
	}

	MetaTag struct {
		Name     string `json:"name,omitempty"`
		Property string `json:"property,omitempty"`
		Content  string `json:"content"`
	}

	LinkTag struct {
		Rel  string `json:"rel"`
		Type string `json:"type,omitempty"`
		Href string `json:"href"`
	}

	PageLink struct {
		Page      int    `json:"page,omitempty"`
		Active    bool   `json:"active"`
		Query     string `json:"qs,omitempty"`
		Separator bool   `json:"separator,omitempty"`
	}

	Pagination struct {
		CurrentPage int        `json:"currentPage"`
		PageCount   int        `json:"pageCount"`
		Prev        PageLink   `json:"prev"`
		Next        PageLink   `json:"next"`
		Pages       []PageLink `json:"pages"`
		Rel         []LinkTag  `json:"rel"`
	}

	CategoryPage struct {
		Category    Category       `json:"category"`
		Topics      []Topic        `json:"topics"`
		Children    []Category     `json:"children"`
		Privileges  Privileges     `json:"privileges"`
		Breadcrumbs []Breadcrumb   `json:"breadcrumbs"`
		MetaTags    []MetaTag      `json:"metaTags"`
		LinkTags    []LinkTag      `json:"linkTags"`
		Pagination  Pagination     `json:"pagination"`
		Window      listing.Window `json:"-"`
		Title       string         `json:"title"`
		RSSFeedURL  string         `json:"rssFeedUrl,omitempty"`
		ShowSelect  bool           `json:"showSelect"`
	}

	TopicPage struct {
		Topic              Topic            `json:"topic"`
		Category           Category         `json:"category"`
		Posts              []Post           `json:"posts"`
		Privileges         Privileges       `json:"privileges"`
		Breadcrumbs        []Breadcrumb     `json:"breadcrumbs"`
		MetaTags           []MetaTag        `json:"metaTags"`
		LinkTags           []LinkTag        `json:"linkTags"`
		Pagination         Pagination       `json:"pagination"`
		Window             listing.Window   `json:"-"`
		Sort               listing.SortMode `json:"sort"`
		RSSFeedURL         string           `json:"rssFeedUrl,omitempty"`
		ReputationDisabled bool             `json:"reputation:disabled"`
		DownvoteDisabled   bool             `json:"downvote:disabled"`
		FeedsDisabled      bool             `json:"feeds:disableRSS"`
	}

	CategoriesPage struct {
		Title      string     `json:"title"`
		Categories []Category `json:"categories"`
		MetaTags   []MetaTag  `json:"metaTags"`
	}

	GroupsPage struct {
		Groups     []Group    `json:"groups"`
		Pagination Pagination `json:"pagination"`
	}
)

// CategoryQuery carries the raw request values of a category view.
type CategoryQuery struct {
	CID    string
	Slug   string
	Index  string
	Page   string
	Sort   string
	Author string
}

// TopicQuery carries the raw request values of a topic view.
type TopicQuery struct {
	TID   string
	Slug  string
	Index string
	Page  string
	Sort  string
}

// NewTopic is the input of TopicStore.CreateTopic. The store assigns ids and
// creates the main post.
type NewTopic struct {
	CID       int64
	UID       int64
	Title     string
	Slug      string
	Content   string
	Tags      []string
	Timestamp time.Time
}

type NewCategory struct {
	Name        string
	Description string
	Icon        string
	ParentCID   int64
}

// RangeQuery addresses one window of a sorted index.
type RangeQuery struct {
	// ID is the owning category or topic.
	ID       int64
	Selector listing.SetSelector
	Reverse  bool
	Start    int
	Stop     int
	// AuthorUID restricts a category range to one author's topics when > 0.
	AuthorUID int64
}

// V implements etag.ETaggable.
func (s UserSettings) V() string {
	return strconv.FormatInt(s.Version, 10)
}
