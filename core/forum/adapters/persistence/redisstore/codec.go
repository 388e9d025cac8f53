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

package redisstore

import (
	"encoding/json"
	"strconv"
	"time"

	"forum/core/forum/domain"
)

// Hash fields hold timestamps as epoch milliseconds and booleans as 0/1.

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func atob(s string) bool {
	return s == "1" || s == "true"
}

func btoa(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func atotime(s string) time.Time {
	ms := atoi64(s)
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func decodeCategory(m map[string]string) (domain.Category, bool) {
	if len(m) == 0 || m["cid"] == "" {
		return domain.Category{}, false
	}
	return domain.Category{
		CID:             atoi64(m["cid"]),
		Name:            m["name"],
		Description:     m["description"],
		Slug:            m["slug"],
		Icon:            m["icon"],
		Link:            m["link"],
		BackgroundImage: m["backgroundImage"],
		ParentCID:       atoi64(m["parentCid"]),
		Order:           atoi(m["order"]),
		Disabled:        atob(m["disabled"]),
		TopicCount:      atoi(m["topic_count"]),
		PostCount:       atoi(m["post_count"]),
		TimesClicked:    atoi(m["timesClicked"]),
	}, true
}

func decodeTopic(m map[string]string) (domain.Topic, bool) {
	if len(m) == 0 || m["tid"] == "" {
		return domain.Topic{}, false
	}
	t := domain.Topic{
		TID:          atoi64(m["tid"]),
		CID:          atoi64(m["cid"]),
		UID:          atoi64(m["uid"]),
		Title:        m["title"],
		Slug:         m["slug"],
		Thumb:        m["thumb"],
		MainPID:      atoi64(m["mainPid"]),
		PostCount:    atoi(m["postcount"]),
		ViewCount:    atoi(m["viewcount"]),
		Deleted:      atob(m["deleted"]),
		Timestamp:    atotime(m["timestamp"]),
		LastPostTime: atotime(m["lastposttime"]),
		Tags:         []string{},
	}
	if raw := m["tags"]; raw != "" {
		// unreadable tags are dropped rather than failing the topic
		_ = json.Unmarshal([]byte(raw), &t.Tags)
	}
	return t, true
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func decodePost(m map[string]string) (domain.Post, bool) {
	if len(m) == 0 || m["pid"] == "" {
		return domain.Post{}, false
	}
	return domain.Post{
		PID:       atoi64(m["pid"]),
		TID:       atoi64(m["tid"]),
		UID:       atoi64(m["uid"]),
		Content:   m["content"],
		Timestamp: atotime(m["timestamp"]),
		Deleted:   atob(m["deleted"]),
		Votes:     atoi(m["votes"]),
	}, true
}

func decodeUser(m map[string]string) (domain.UserSummary, bool) {
	if len(m) == 0 || m["uid"] == "" {
		return domain.UserSummary{}, false
	}
	return domain.UserSummary{
		UID:      atoi64(m["uid"]),
		Username: m["username"],
		Userslug: m["userslug"],
		Picture:  m["picture"],
	}, true
}

func decodeGroup(m map[string]string) (domain.Group, bool) {
	if len(m) == 0 || m["name"] == "" {
		return domain.Group{}, false
	}
	return domain.Group{
		Name:        m["name"],
		DisplayName: m["displayName"],
		Description: m["description"],
		CreateTime:  atotime(m["createtime"]),
		Hidden:      atob(m["hidden"]),
		System:      atob(m["system"]),
	}, true
}
