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
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidishook"
)

var _ rueidishook.Hook = (*SlowCommandHook)(nil)

// SlowCommandHook logs commands whose round trip exceeds a threshold. Only the
// command name is logged, never its arguments.
type SlowCommandHook struct {
	threshold time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewSlowCommandHook(threshold time.Duration, logger *slog.Logger) *SlowCommandHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlowCommandHook{threshold: threshold, logger: logger, now: time.Now}
}

func (h *SlowCommandHook) observe(ctx context.Context, start time.Time, cmds [][]string, err error) {
	elapsed := h.now().Sub(start)
	if elapsed < h.threshold {
		return
	}
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		if len(c) > 0 {
			names = append(names, strings.ToUpper(c[0]))
		}
	}
	attrs := []any{
		slog.String("commands", strings.Join(names, ",")),
		slog.Duration("elapsed", elapsed),
		slog.Duration("threshold", h.threshold),
	}
	if err != nil && !rueidis.IsRedisNil(err) {
		attrs = append(attrs, slog.Any("error", err))
	}
	h.logger.WarnContext(ctx, "redis: slow command", attrs...)
}

func firstErr(results []rueidis.RedisResult) error {
	for _, r := range results {
		if err := r.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (h *SlowCommandHook) Do(client rueidis.Client, ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	start := h.now()
	resp := client.Do(ctx, cmd)
	h.observe(ctx, start, [][]string{cmd.Commands()}, resp.Error())
	return resp
}

func (h *SlowCommandHook) DoMulti(client rueidis.Client, ctx context.Context, multi ...rueidis.Completed) []rueidis.RedisResult {
	start := h.now()
	resps := client.DoMulti(ctx, multi...)
	cmds := make([][]string, len(multi))
	for i, c := range multi {
		cmds[i] = c.Commands()
	}
	h.observe(ctx, start, cmds, firstErr(resps))
	return resps
}

func (h *SlowCommandHook) DoCache(client rueidis.Client, ctx context.Context, cmd rueidis.Cacheable, ttl time.Duration) rueidis.RedisResult {
	start := h.now()
	resp := client.DoCache(ctx, cmd, ttl)
	h.observe(ctx, start, [][]string{cmd.Commands()}, resp.Error())
	return resp
}

func (h *SlowCommandHook) DoMultiCache(client rueidis.Client, ctx context.Context, multi ...rueidis.CacheableTTL) []rueidis.RedisResult {
	start := h.now()
	resps := client.DoMultiCache(ctx, multi...)
	cmds := make([][]string, len(multi))
	for i, c := range multi {
		cmds[i] = c.Cmd.Commands()
	}
	h.observe(ctx, start, cmds, firstErr(resps))
	return resps
}

// Receive blocks for the lifetime of a subscription, so it is not timed.
func (h *SlowCommandHook) Receive(client rueidis.Client, ctx context.Context, subscribe rueidis.Completed, fn func(msg rueidis.PubSubMessage)) error {
	return client.Receive(ctx, subscribe, fn)
}

func (h *SlowCommandHook) DoStream(client rueidis.Client, ctx context.Context, cmd rueidis.Completed) rueidis.RedisResultStream {
	return client.DoStream(ctx, cmd)
}

func (h *SlowCommandHook) DoMultiStream(client rueidis.Client, ctx context.Context, multi ...rueidis.Completed) rueidis.MultiRedisResultStream {
	return client.DoMultiStream(ctx, multi...)
}
