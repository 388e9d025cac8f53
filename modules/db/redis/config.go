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

import "time"

// RedisConfig is parsed under the REDIS_ prefix.
//
// URL is a standard Redis URI:
//
//   - Single:  redis://:password@localhost:6379/0
//   - TLS:     rediss://:password@my-redis.example.com:6379/0
//   - Cluster: redis://:password@host1:6379/0?addr=host2:6379&addr=host3:6379
type RedisConfig struct {
	URL        string `env:"URL" envDefault:"redis://:redis@localhost:6379/0" validate:"required"`
	ClientName string `env:"CLIENT_NAME" envDefault:"forum-api"`

	// SkipTLSVerify turns off certificate verification. Trusted networks only.
	SkipTLSVerify bool `env:"SKIP_TLS_VERIFY"`
	// AutoDetectAWS rejects plaintext URLs that point at ElastiCache.
	AutoDetectAWS bool `env:"AUTO_DETECT_AWS"`
	RequireTLS    bool `env:"REQUIRE_TLS"`

	// zero keeps the rueidis default
	DisableRetry      bool          `env:"DISABLE_RETRY"`
	DisableCache      bool          `env:"DISABLE_CACHE"`
	AlwaysPipelining  bool          `env:"ALWAYS_PIPELINING"`
	ConnWriteTimeout  time.Duration `env:"CONN_WRITE_TIMEOUT"`
	RingScaleEachConn int           `env:"RING_SCALE_EACH_CONN"`
	CacheSizeEachConn int           `env:"CACHE_SIZE_EACH_CONN"`

	EnableOtel bool `env:"ENABLE_OTEL"`

	// SlowCommandThreshold logs commands slower than this; zero disables the hook.
	SlowCommandThreshold time.Duration `env:"SLOW_COMMAND_THRESHOLD" envDefault:"50ms"`

	// ClientTrackingPrefixes turns on broadcast CLIENT TRACKING for these prefixes.
	// Reads still opt in per command through DoCache.
	ClientTrackingPrefixes []string `env:"CLIENT_TRACKING_PREFIXES" envSeparator:","`

	// KeyPrefix namespaces every key the forum store writes.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"forum"`

	LockKeyMajority int32 `env:"LOCK_KEY_MAJORITY" envDefault:"1" validate:"min=1"`
}
