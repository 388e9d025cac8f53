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

import "fmt"

// keyspace renders keys under an optional "prefix:" namespace.
type keyspace string

func (k keyspace) f(format string, args ...any) string {
	return string(k) + fmt.Sprintf(format, args...)
}

func (k keyspace) global() string                     { return k.f("global") }
func (k keyspace) category(cid int64) string          { return k.f("category:%d", cid) }
func (k keyspace) categories() string                 { return k.f("categories:cid") }
func (k keyspace) categoryNames() string              { return k.f("categories:name") }
func (k keyspace) children(cid int64) string          { return k.f("cid:%d:children", cid) }
func (k keyspace) categoryTopics(cid int64) string    { return k.f("cid:%d:tids", cid) }
func (k keyspace) categoryPopular(cid int64) string   { return k.f("cid:%d:tids:posts", cid) }
func (k keyspace) categoryPosts(cid int64) string     { return k.f("cid:%d:pids", cid) }
func (k keyspace) authorTopics(cid, uid int64) string { return k.f("cid:%d:uid:%d:tids", cid, uid) }
func (k keyspace) subscribers(cid int64) string       { return k.f("cid:%d:subscribers", cid) }
func (k keyspace) followed(uid int64) string          { return k.f("uid:%d:followed_cids", uid) }
func (k keyspace) topic(tid int64) string             { return k.f("topic:%d", tid) }
func (k keyspace) topicPosts(tid int64) string        { return k.f("tid:%d:posts", tid) }
func (k keyspace) topicVotes(tid int64) string        { return k.f("tid:%d:posts:votes", tid) }
func (k keyspace) post(pid int64) string              { return k.f("post:%d", pid) }
func (k keyspace) recentPosts() string                { return k.f("posts:pid") }
func (k keyspace) user(uid int64) string              { return k.f("user:%d", uid) }
func (k keyspace) usernames() string                  { return k.f("username:uid") }
func (k keyspace) userslugs() string                  { return k.f("userslug:uid") }
func (k keyspace) group(name string) string           { return k.f("group:%s", name) }
func (k keyspace) groupMembers(name string) string    { return k.f("group:%s:members", name) }
func (k keyspace) groupsByCreation() string           { return k.f("groups:createtime") }
