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

package ratelimit

import (
	"context"
	"sync"
	"time"

	"forum/modules/clock"
)

// CounterStore is the storage abstraction the distributed limiters count in.
type CounterStore interface {
	// Incr increments the counter at key and returns the new value.
	// ttl is how long the store must keep the key alive at least.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Get returns the current value, or 0 when missing.
	Get(ctx context.Context, key string) (int64, error)
}

var _ CounterStore = (*MemoryCounterStore)(nil)

// MemoryCounterStore is a process-local CounterStore for single-instance
// deployments and tests.
type MemoryCounterStore struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]memoryCounter
}

type memoryCounter struct {
	n         int64
	expiresAt time.Time
}

func NewMemoryCounterStore(clk clock.Clock) *MemoryCounterStore {
	return &MemoryCounterStore{clock: clk, entries: make(map[string]memoryCounter)}
}

func (m *MemoryCounterStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = memoryCounter{expiresAt: now.Add(ttl)}
	}
	e.n++
	m.entries[key] = e
	return e.n, nil
}

func (m *MemoryCounterStore) Get(_ context.Context, key string) (int64, error) {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		delete(m.entries, key)
		return 0, nil
	}
	return e.n, nil
}
