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

// Package worker provides a bounded goroutine pool for fan-out lookups.
package worker

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
)

type Worker[Job any] func(context.Context, Job)

// BlockingPool runs size workers over jobs and returns once jobs is closed
// and drained, or ctx is done. The caller must close jobs. A panicking job
// is logged and the worker moves on.
func BlockingPool[Job any](ctx context.Context, size int, jobs <-chan Job, worker Worker[Job]) {
	size = max(size, 1)
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
					runJob(ctx, worker, job)
				}
			}
		})
	}
	wg.Wait()
}

func runJob[Job any](ctx context.Context, worker Worker[Job], job Job) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "worker job panicked",
				slog.Any("error", rec),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	worker(ctx, job)
}

// Indexed pairs an item with its position in the input slice.
type Indexed[T any] struct {
	Index int
	Item  T
}

// Each runs fn for every item on a pool of at most size workers and blocks
// until all items ran or ctx is done. Results written by fn into a slice
// at Index keep the input order.
func Each[T any](ctx context.Context, size int, items []T, fn Worker[Indexed[T]]) {
	if len(items) == 0 {
		return
	}
	jobs := make(chan Indexed[T])
	go func() {
		defer close(jobs)
		for i, item := range items {
			select {
			case jobs <- Indexed[T]{Index: i, Item: item}:
			case <-ctx.Done():
				return
			}
		}
	}()
	BlockingPool(ctx, min(size, len(items)), jobs, fn)
}
