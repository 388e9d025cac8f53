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
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidishook"
	"github.com/redis/rueidis/rueidisotel"
)

// ClientOption derives the rueidis options from cfg after validating the URL
// against the TLS settings.
func ClientOption(ctx context.Context, cfg RedisConfig) (rueidis.ClientOption, error) {
	if cfg.URL == "" {
		return rueidis.ClientOption{}, errors.New("rueidis: URL must not be empty")
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return rueidis.ClientOption{}, fmt.Errorf("rueidis: parse url: %w", err)
	}

	host := u.Hostname()
	plaintext := u.Scheme == "redis"
	if plaintext && cfg.RequireTLS {
		return rueidis.ClientOption{}, errors.New("rueidis: RequireTLS=true but URL uses redis://")
	}
	if plaintext && cfg.AutoDetectAWS && strings.HasSuffix(host, ".cache.amazonaws.com") {
		return rueidis.ClientOption{}, errors.New("rueidis: elasticache endpoint over redis:// (plaintext)")
	}
	if plaintext && cfg.SkipTLSVerify {
		slog.WarnContext(ctx, "rueidis: SkipTLSVerify has no effect on redis:// URLs", slog.String("host", host))
	}
	if cfg.DisableCache && len(cfg.ClientTrackingPrefixes) > 0 {
		slog.WarnContext(ctx, "rueidis: client tracking enabled with client cache disabled")
	}

	opt, err := rueidis.ParseURL(cfg.URL)
	if err != nil {
		return rueidis.ClientOption{}, err
	}

	opt.ClientName = cfg.ClientName
	opt.DisableRetry = cfg.DisableRetry
	opt.DisableCache = cfg.DisableCache
	opt.AlwaysPipelining = cfg.AlwaysPipelining
	if cfg.RingScaleEachConn > 0 {
		opt.RingScaleEachConn = cfg.RingScaleEachConn
	}
	if cfg.CacheSizeEachConn > 0 {
		opt.CacheSizeEachConn = cfg.CacheSizeEachConn
	}
	if cfg.ConnWriteTimeout > 0 {
		opt.ConnWriteTimeout = cfg.ConnWriteTimeout
	}

	if cfg.SkipTLSVerify && !plaintext {
		tc := &tls.Config{}
		if opt.TLSConfig != nil {
			tc = opt.TLSConfig.Clone()
		}
		tc.InsecureSkipVerify = true //nolint:gosec
		opt.TLSConfig = tc
	}

	if tracking := trackingOptions(cfg.ClientTrackingPrefixes); tracking != nil {
		opt.ClientTrackingOptions = tracking
	}
	return opt, nil
}

// trackingOptions renders PREFIX p1 PREFIX p2 BCAST. Redis rejects OPTIN together with BCAST.
func trackingOptions(prefixes []string) []string {
	var out []string
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, "PREFIX", p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return append(out, "BCAST")
}

// NewRueidisClient connects, optionally wraps the client with OpenTelemetry and the
// slow command hook, and PINGs once to fail fast.
func NewRueidisClient(ctx context.Context, cfg RedisConfig) (rueidis.Client, error) {
	opt, err := ClientOption(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var cli rueidis.Client
	if cfg.EnableOtel {
		cli, err = rueidisotel.NewClient(opt)
	} else {
		cli, err = rueidis.NewClient(opt)
	}
	if err != nil {
		slog.ErrorContext(ctx, "error during rueidis init", slog.Any("error", err))
		return nil, err
	}

	if cfg.SlowCommandThreshold > 0 {
		cli = rueidishook.WithHook(cli, NewSlowCommandHook(cfg.SlowCommandThreshold, slog.Default()))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := cli.Do(pingCtx, cli.B().Ping().Build()).Error(); err != nil {
		cli.Close()
		return nil, err
	}

	slog.InfoContext(ctx, "rueidis: connected",
		slog.String("mode", string(cli.Mode())),
		slog.String("client_name", cfg.ClientName),
	)
	return cli, nil
}
