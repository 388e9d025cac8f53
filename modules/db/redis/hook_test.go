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

package redis

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testHook(buf *bytes.Buffer, threshold, elapsed time.Duration) *SlowCommandHook {
	h := NewSlowCommandHook(threshold, slog.New(slog.NewTextHandler(buf, nil)))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return base.Add(elapsed) }
	return h
}

func TestSlowCommandHook_Observe(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	var buf bytes.Buffer
	testHook(&buf, 50*time.Millisecond, 10*time.Millisecond).
		observe(ctx, start, [][]string{{"hgetall", "category:1"}}, nil)
	assert.Empty(t, buf.String())

	buf.Reset()
	testHook(&buf, 50*time.Millisecond, 80*time.Millisecond).
		observe(ctx, start, [][]string{{"zrange", "cid:1:tids"}, {"hgetall", "topic:2"}}, errors.New("boom"))
	out := buf.String()
	assert.Contains(t, out, "redis: slow command")
	assert.Contains(t, out, "commands=ZRANGE,HGETALL")
	assert.Contains(t, out, "error=boom")
	assert.NotContains(t, out, "category:1", "arguments are never logged")
}

func TestTrackingOptions(t *testing.T) {
	assert.Nil(t, trackingOptions(nil))
	assert.Nil(t, trackingOptions([]string{" ", ""}))
	assert.Equal(t, []string{"PREFIX", "forum:settings:", "BCAST"}, trackingOptions([]string{"forum:settings:"}))
}

func TestClientOption_TLSRules(t *testing.T) {
	ctx := context.Background()

	_, err := ClientOption(ctx, RedisConfig{URL: "redis://localhost:6379/0", RequireTLS: true})
	assert.Error(t, err)

	_, err = ClientOption(ctx, RedisConfig{URL: "redis://x.cache.amazonaws.com:6379", AutoDetectAWS: true})
	assert.Error(t, err)

	_, err = ClientOption(ctx, RedisConfig{})
	assert.Error(t, err)

	opt, err := ClientOption(ctx, RedisConfig{URL: "rediss://localhost:6380/0", SkipTLSVerify: true, ClientName: "t"})
	assert.NoError(t, err)
	if assert.NotNil(t, opt.TLSConfig) {
		assert.True(t, opt.TLSConfig.InsecureSkipVerify)
	}
	assert.Equal(t, "t", opt.ClientName)
}
