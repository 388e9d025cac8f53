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

// Package locking runs tasks under a distributed rueidislock lock.
//
//	locker, _ := rueidislock.NewLocker(rueidislock.LockerOption{ClientOption: opt, KeyMajority: 1})
//	exec := locking.NewLockingTaskExecutor(locker, locking.WithNamePrefix("forum:lock:"), locking.WithWaitForLock(true))
//	err := exec.WithLock(ctx, "category:news", func(ctx context.Context) error { ... })
package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"forum/modules/clock"

	"github.com/redis/rueidis/rueidislock"
)

type TaskFunc func(ctx context.Context) error

// Acquirer is the part of rueidislock.Locker the executor needs.
type Acquirer interface {
	WithContext(ctx context.Context, name string) (context.Context, context.CancelFunc, error)
	TryWithContext(ctx context.Context, name string) (context.Context, context.CancelFunc, error)
}

var _ Acquirer = (rueidislock.Locker)(nil)

type LockConfiguration struct {
	Name string
	// LockAtMostFor bounds the task context.
	LockAtMostFor time.Duration
	// LockAtLeastFor keeps the lock held after a fast task finishes.
	LockAtLeastFor time.Duration
}

var (
	ErrLockNotAcquired      = errors.New("locking: lock not acquired")
	ErrInvalidConfiguration = errors.New("locking: invalid lock configuration")
)

type LockingTaskExecutor struct {
	locker Acquirer
	logger *slog.Logger
	clock  clock.Clock

	// block in WithContext instead of a single TryWithContext
	waitForLock    bool
	acquireTimeout time.Duration
	namePrefix     string

	// applied by WithLock
	defaultAtMostFor time.Duration
}

type Option func(*LockingTaskExecutor)

func WithLogger(l *slog.Logger) Option {
	return func(e *LockingTaskExecutor) { e.logger = l }
}

func WithWaitForLock(wait bool) Option {
	return func(e *LockingTaskExecutor) { e.waitForLock = wait }
}

// WithAcquireTimeout only applies when waiting for the lock.
func WithAcquireTimeout(d time.Duration) Option {
	return func(e *LockingTaskExecutor) { e.acquireTimeout = d }
}

func WithNamePrefix(prefix string) Option {
	return func(e *LockingTaskExecutor) { e.namePrefix = prefix }
}

func WithClock(c clock.Clock) Option {
	return func(e *LockingTaskExecutor) {
		if c != nil {
			e.clock = c
		}
	}
}

func WithDefaultAtMostFor(d time.Duration) Option {
	return func(e *LockingTaskExecutor) { e.defaultAtMostFor = d }
}

func NewLockingTaskExecutor(locker Acquirer, opts ...Option) *LockingTaskExecutor {
	e := &LockingTaskExecutor{
		locker: locker,
		logger: slog.Default(),
		clock:  clock.RealClock{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithLock runs fn while holding the lock called name.
func (e *LockingTaskExecutor) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return e.Execute(ctx, LockConfiguration{Name: name, LockAtMostFor: e.defaultAtMostFor}, fn)
}

func (e *LockingTaskExecutor) Execute(ctx context.Context, cfg LockConfiguration, task TaskFunc) error {
	if task == nil {
		return errors.New("locking: task must not be nil")
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	lockName := e.namePrefix + cfg.Name
	log := e.logger.With(slog.String("lock.name", lockName))

	acquiredAt := e.clock.Now()
	lockCtx, release, err := e.acquire(ctx, lockName)
	if err != nil {
		log.DebugContext(ctx, "locking: not acquired", slog.Any("error", err))
		return err
	}
	defer release()

	log.DebugContext(ctx, "locking: acquired", slog.Duration("lock.acquire_latency", e.clock.Now().Sub(acquiredAt)))

	taskCtx, taskCancel := context.WithCancel(lockCtx)
	if cfg.LockAtMostFor > 0 {
		taskCtx, taskCancel = context.WithTimeout(lockCtx, cfg.LockAtMostFor)
	}
	defer taskCancel()

	taskStart := e.clock.Now()
	err = task(taskCtx)
	log.DebugContext(ctx, "locking: task finished",
		slog.Duration("task.duration", e.clock.Now().Sub(taskStart)),
		slog.Any("task.error", err),
	)

	if cfg.LockAtLeastFor > 0 {
		if wait := taskStart.Add(cfg.LockAtLeastFor).Sub(e.clock.Now()); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
			case <-lockCtx.Done():
			}
		}
	}
	return err
}

func (e *LockingTaskExecutor) acquire(ctx context.Context, name string) (context.Context, context.CancelFunc, error) {
	if !e.waitForLock {
		lockCtx, cancel, err := e.locker.TryWithContext(ctx, name)
		switch {
		case err == nil:
			return lockCtx, cancel, nil
		case errors.Is(err, rueidislock.ErrNotLocked):
			return nil, nil, ErrLockNotAcquired
		default:
			return nil, nil, fmt.Errorf("locking: try-acquire %q: %w", name, err)
		}
	}

	acquireCtx := ctx
	if e.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, e.acquireTimeout)
		defer cancel()
	}

	// the lock context must outlive acquireCtx, so acquire on ctx and watch the timeout separately
	type result struct {
		ctx    context.Context
		cancel context.CancelFunc
		err    error
	}
	done := make(chan result, 1)
	go func() {
		lockCtx, cancel, err := e.locker.WithContext(ctx, name)
		done <- result{lockCtx, cancel, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.Canceled) || errors.Is(r.err, context.DeadlineExceeded) {
				return nil, nil, r.err
			}
			return nil, nil, fmt.Errorf("locking: acquire %q: %w", name, r.err)
		}
		return r.ctx, r.cancel, nil
	case <-acquireCtx.Done():
		// release whatever the pending acquisition eventually gets
		go func() {
			if r := <-done; r.err == nil {
				r.cancel()
			}
		}()
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, ErrLockNotAcquired
	}
}

func validateConfig(cfg LockConfiguration) error {
	switch {
	case cfg.Name == "":
		return fmt.Errorf("%w: lock name must not be empty", ErrInvalidConfiguration)
	case cfg.LockAtMostFor < 0, cfg.LockAtLeastFor < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfiguration)
	case cfg.LockAtMostFor > 0 && cfg.LockAtLeastFor > cfg.LockAtMostFor:
		return fmt.Errorf("%w: lockAtLeastFor (%s) > lockAtMostFor (%s)",
			ErrInvalidConfiguration, cfg.LockAtLeastFor, cfg.LockAtMostFor)
	}
	return nil
}
