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

package db

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONKV stores values of T as JSON documents in a KV.
//
//	kv := redis.NewRedisKV(client, redis.WithKeyPrefix("forum:settings:"))
//	settings := db.NewJSONKV[domain.UserSettings](kv)
//	prev, _ := settings.Set(ctx, "7", s)
type JSONKV[T any] struct {
	KV
}

func NewJSONKV[T any](kv KV) JSONKV[T] {
	return JSONKV[T]{KV: kv}
}

// Get returns (nil, nil) on a miss.
func (j JSONKV[T]) Get(ctx context.Context, key string) (*T, error) {
	raw, err := j.KV.AtomicGet(ctx, key)
	if err != nil {
		return nil, err
	}
	return decode[T](key, raw)
}

// Set stores value and returns the value it replaced, if any.
func (j JSONKV[T]) Set(ctx context.Context, key string, value T) (*T, error) {
	bs, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("jsonkv: encode %q: %w", key, err)
	}
	prev, err := j.KV.AtomicSet(ctx, key, bs)
	if err != nil {
		return nil, err
	}
	return decode[T](key, prev)
}

func decode[T any](key string, raw any) (*T, error) {
	var bs []byte
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []byte:
		bs = v
	case string:
		bs = []byte(v)
	default:
		return nil, fmt.Errorf("jsonkv: unexpected %T for key %q", raw, key)
	}
	if len(bs) == 0 {
		return nil, nil
	}

	var out T
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, fmt.Errorf("jsonkv: decode %q: %w", key, err)
	}
	return &out, nil
}
