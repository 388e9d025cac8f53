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
	"context"
	"errors"
	"slices"
	"strings"
)

const maxCategoryDepth = 32

func (app *Application) relURL(path string) string {
	return app.site.RelativePath + path
}

func (app *Application) absURL(path string) string {
	return strings.TrimSuffix(app.site.URL, "/") + path
}

// absImage prefixes site-relative image paths with the site URL.
func (app *Application) absImage(src string) string {
	if src == "" || strings.Contains(src, "http") {
		return src
	}
	return app.absURL(src)
}

// breadcrumbs walks up from parent and ends with tail. A vanished ancestor cuts
// the chain short instead of failing the page.
func (app *Application) breadcrumbs(ctx context.Context, parent int64, tail ...Breadcrumb) ([]Breadcrumb, error) {
	var chain []Breadcrumb
	seen := map[int64]bool{}
	for cid := parent; cid > 0 && !seen[cid] && len(seen) < maxCategoryDepth; {
		seen[cid] = true
		c, err := app.categories.GetCategory(ctx, cid)
		if errors.Is(err, ErrCategoryNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		chain = append(chain, Breadcrumb{Text: c.Name, URL: app.relURL("/category/" + c.Slug)})
		cid = c.ParentCID
	}
	slices.Reverse(chain)

	out := make([]Breadcrumb, 0, len(chain)+len(tail)+1)
	out = append(out, Breadcrumb{Text: "Home", URL: app.relURL("/")})
	out = append(out, chain...)
	return append(out, tail...), nil
}

func (app *Application) categoryMeta(c *Category) ([]MetaTag, []LinkTag) {
	meta := []MetaTag{
		{Name: "title", Content: c.Name},
		{Property: "og:title", Content: c.Name},
		{Name: "description", Content: c.Description},
		{Property: "og:type", Content: "website"},
	}
	if c.BackgroundImage != "" {
		meta = append(meta, MetaTag{Property: "og:image", Content: app.absImage(c.BackgroundImage)})
	}
	links := []LinkTag{
		{Rel: "up", Href: app.site.URL},
	}
	if !app.site.RSSDisabled {
		links = append([]LinkTag{{
			Rel:  "alternate",
			Type: "application/rss+xml",
			Href: app.absURL("/category/" + itoa(c.CID) + ".rss"),
		}}, links...)
	}
	return meta, links
}

// topicImage picks the first of thumb, author picture, brand logo, /logo.png.
func (app *Application) topicImage(t *Topic, first *Post) string {
	img := t.Thumb
	if img == "" && first != nil && first.User != nil {
		img = first.User.Picture
	}
	if img == "" {
		img = app.site.BrandLogo
	}
	if img == "" {
		img = "/logo.png"
	}
	return app.absImage(img)
}

func (app *Application) topicMeta(t *Topic, c *Category, first *Post) ([]MetaTag, []LinkTag) {
	var description string
	if first != nil {
		description = describe(first.Content)
	}
	image := app.topicImage(t, first)
	meta := []MetaTag{
		{Name: "title", Content: t.Title},
		{Name: "description", Content: description},
		{Property: "og:title", Content: strings.ReplaceAll(t.Title, "&amp;", "&")},
		{Property: "og:description", Content: description},
		{Property: "og:type", Content: "article"},
		{Property: "og:url", Content: app.absURL("/topic/" + t.Slug)},
		{Property: "og:image", Content: image},
		{Property: "og:image:url", Content: image},
		{Property: "article:published_time", Content: isoTime(t.Timestamp)},
		{Property: "article:modified_time", Content: isoTime(t.LastPostTime)},
		{Property: "article:section", Content: c.Name},
	}
	var links []LinkTag
	if !app.site.RSSDisabled {
		links = append(links, LinkTag{
			Rel:  "alternate",
			Type: "application/rss+xml",
			Href: app.absURL("/topic/" + itoa(t.TID) + ".rss"),
		})
	}
	links = append(links,
		LinkTag{Rel: "canonical", Href: app.absURL("/topic/" + t.Slug)},
		LinkTag{Rel: "up", Href: app.absURL("/category/" + c.Slug)},
	)
	return meta, links
}
