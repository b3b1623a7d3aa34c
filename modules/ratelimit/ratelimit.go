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

// Package ratelimit decides whether a keyed request fits its budget. The
// gateway keys it by client address and route.
package ratelimit

import (
	"context"
	"time"
)

type (
	LimiterFactory func(limit int64, window time.Duration) RateLimiter

	// RateLimiter enforces a time-based budget such as 100 requests per minute.
	RateLimiter interface {
		Allow(ctx context.Context, key Key) (Result, error)
	}

	// CounterStore keeps per-window counters, usually in Redis.
	CounterStore interface {
		// Incr bumps key and keeps it alive for at least ttl.
		Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
		// Get returns 0 for a missing key.
		Get(ctx context.Context, key string) (int64, error)
	}

	Key string

	Result struct {
		Allowed       bool
		Remaining     int64
		RetryAfter    time.Duration
		Limit         int64
		Window        time.Duration
		WindowResetIn time.Duration
	}
)
