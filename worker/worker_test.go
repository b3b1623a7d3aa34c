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

package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestEachPreservesIndexes(t *testing.T) {
	t.Parallel()

	items := []string{"a", "b", "c", "d", "e"}
	out := make([]string, len(items))
	Each(context.Background(), 3, items, func(_ context.Context, job Indexed[string]) {
		out[job.Index] = job.Item + job.Item
	})

	for i, item := range items {
		if out[i] != item+item {
			t.Fatalf("out[%d] = %q", i, out[i])
		}
	}
}

func TestEachBoundsConcurrency(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	items := make([]int, 20)
	Each(context.Background(), 4, items, func(context.Context, Indexed[int]) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
	})

	if got := peak.Load(); got > 4 {
		t.Fatalf("peak concurrency = %d, want <= 4", got)
	}
}

func TestBlockingPoolSurvivesPanics(t *testing.T) {
	t.Parallel()

	jobs := make(chan int, 3)
	jobs <- 1
	jobs <- 2
	jobs <- 3
	close(jobs)

	var done atomic.Int32
	BlockingPool(context.Background(), 1, jobs, func(_ context.Context, n int) {
		if n == 2 {
			panic("bad job")
		}
		done.Add(1)
	})
	if done.Load() != 2 {
		t.Fatalf("completed = %d, want 2", done.Load())
	}
}

func TestEachStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	Each(ctx, 2, make([]int, 100), func(context.Context, Indexed[int]) { calls.Add(1) })
	if calls.Load() == 100 {
		t.Fatal("all jobs ran after cancellation")
	}
}
