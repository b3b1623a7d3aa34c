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

// Package counter stores fixed-window request counters in Redis for the
// gateway rate limiter.
package counter

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"techstructure/modules/ratelimit"

	"github.com/redis/rueidis"
)

var (
	_ ratelimit.CounterStore = (*RedisCounter)(nil)

	//go:embed incr_expr.lua
	incrLua string

	// KEYS[1] = key, ARGV[1] = window in milliseconds, applied on the first hit.
	luaIncrWithTTL = rueidis.NewLuaScript(incrLua)
)

type RedisCounter struct {
	client rueidis.Client
	prefix string
}

// NewRedisCounterStore namespaces every counter under prefix when non-empty.
func NewRedisCounterStore(client rueidis.Client, prefix string) *RedisCounter {
	if prefix != "" && prefix[len(prefix)-1] != ':' {
		prefix += ":"
	}
	return &RedisCounter{client: client, prefix: prefix}
}

func (r *RedisCounter) Get(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Do(ctx, r.client.B().Get().Key(r.prefix+key).Build()).AsInt64()
	if rueidis.IsRedisNil(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis counter: get %q: %w", key, err)
	}
	return n, nil
}

func (r *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	window := strconv.FormatInt(ttl.Milliseconds(), 10)
	n, err := luaIncrWithTTL.Exec(ctx, r.client, []string{r.prefix + key}, []string{window}).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("redis counter: incr %q: %w", key, err)
	}
	return n, nil
}
