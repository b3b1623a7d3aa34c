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
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"techstructure/modules/db"

	"github.com/redis/rueidis"
)

var (
	_ db.KV = (*RedisKV)(nil)

	//go:embed atomic_set.lua
	atomicSetLua string

	// KEYS[1] = key, ARGV[1] = value, ARGV[2] = ttl seconds ("" = none).
	// Returns the previous value.
	luaAtomicSet = rueidis.NewLuaScript(atomicSetLua)
)

// RedisKV is a db.KV stored in Redis under an optional key prefix.
// Gateway sessions live here.
type RedisKV struct {
	client     rueidis.Client
	prefix     string
	defaultTTL time.Duration
}

type RedisKVOption func(*RedisKV)

// WithKeyPrefix scopes keys, e.g. "gateway:session" stores "abc" as
// "gateway:session:abc".
func WithKeyPrefix(prefix string) RedisKVOption {
	return func(k *RedisKV) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		k.prefix = prefix
	}
}

// WithDefaultTTL expires every written key after ttl. ttl <= 0 disables expiry.
func WithDefaultTTL(ttl time.Duration) RedisKVOption {
	return func(k *RedisKV) { k.defaultTTL = ttl }
}

func NewRedisKV(client rueidis.Client, opts ...RedisKVOption) *RedisKV {
	kv := &RedisKV{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	return kv
}

func (k *RedisKV) key(raw string) string { return k.prefix + raw }

// AtomicGet returns the stored bytes, or (nil, nil) for a missing key.
func (k *RedisKV) AtomicGet(ctx context.Context, key string) (any, error) {
	bs, err := k.client.Do(ctx, k.client.B().Get().Key(k.key(key)).Build()).AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis kv: get %q: %w", key, err)
	}
	return bs, nil
}

// AtomicSet writes value and returns the previous bytes, or nil.
func (k *RedisKV) AtomicSet(ctx context.Context, key string, value any) (any, error) {
	serialized, err := encodeValue(value)
	if err != nil {
		return nil, fmt.Errorf("redis kv: encode %q: %w", key, err)
	}

	var ttl string
	if k.defaultTTL > 0 {
		ttl = strconv.FormatInt(max(int64(k.defaultTTL/time.Second), 1), 10)
	}

	bs, err := luaAtomicSet.Exec(ctx, k.client, []string{k.key(key)}, []string{serialized, ttl}).AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis kv: set %q: %w", key, err)
	}
	return bs, nil
}

// Delete removes key. A missing key is not an error.
func (k *RedisKV) Delete(ctx context.Context, key string) error {
	if err := k.client.Do(ctx, k.client.B().Del().Key(k.key(key)).Build()).Error(); err != nil {
		return fmt.Errorf("redis kv: delete %q: %w", key, err)
	}
	return nil
}

func (k *RedisKV) HealthCheck(ctx context.Context) error {
	return k.client.Do(ctx, k.client.B().Ping().Build()).Error()
}

func encodeValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", errors.New("nil value")
	case string:
		return x, nil
	case []byte:
		return rueidis.BinaryString(x), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return rueidis.BinaryString(b), nil
	}
}
