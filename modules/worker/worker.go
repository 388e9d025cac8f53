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

// Package worker runs jobs on a bounded number of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

type Worker[Job any] func(context.Context, Job)

// BlockingPool runs size workers over jobs and returns once jobs is closed and
// drained or ctx is cancelled. The caller must close jobs.
//
// A panicking job is logged and the worker keeps going.
func BlockingPool[Job any](ctx context.Context, size int, jobs <-chan Job, worker Worker[Job]) {
	if size <= 0 {
		size = 1
	}
	var wg sync.WaitGroup
	for range size {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-jobs:
					if !ok {
						return
					}
					runSafely(ctx, worker, job)
				}
			}
		})
	}
	wg.Wait()
}

func runSafely[Job any](ctx context.Context, worker Worker[Job], job Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "worker: job panicked", slog.Any("panic", r))
		}
	}()
	worker(ctx, job)
}

// FanOut applies fn to every job with at most size in flight and joins the errors.
// A job that panics is reported as an error.
func FanOut[Job any](ctx context.Context, size int, jobs []Job, fn func(context.Context, Job) error) error {
	if len(jobs) == 0 {
		return nil
	}
	size = min(max(size, 1), len(jobs))

	queue := make(chan Job)
	var (
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	go func() {
		defer close(queue)
		for _, j := range jobs {
			select {
			case queue <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	BlockingPool(ctx, size, queue, func(ctx context.Context, j Job) {
		defer func() {
			if r := recover(); r != nil {
				record(fmt.Errorf("worker: panic: %v", r))
			}
		}()
		if err := fn(ctx, j); err != nil {
			record(err)
		}
	})

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
