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
	"log/slog"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidishook"
)

var _ rueidishook.Hook = errorLogHook{}

// errorLogHook logs failed commands. Nil replies are a normal outcome and are skipped.
type errorLogHook struct{}

func (errorLogHook) Do(client rueidis.Client, ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	name := commandName(cmd.Commands())
	res := client.Do(ctx, cmd)
	logResult(ctx, name, res.Error())
	return res
}

func (errorLogHook) DoMulti(client rueidis.Client, ctx context.Context, multi ...rueidis.Completed) []rueidis.RedisResult {
	names := make([]string, len(multi))
	for i, cmd := range multi {
		names[i] = commandName(cmd.Commands())
	}
	resps := client.DoMulti(ctx, multi...)
	for i, res := range resps {
		logResult(ctx, names[i], res.Error())
	}
	return resps
}

func (errorLogHook) DoCache(client rueidis.Client, ctx context.Context, cmd rueidis.Cacheable, ttl time.Duration) rueidis.RedisResult {
	name := commandName(cmd.Commands())
	res := client.DoCache(ctx, cmd, ttl)
	logResult(ctx, name, res.Error())
	return res
}

func (errorLogHook) DoMultiCache(client rueidis.Client, ctx context.Context, multi ...rueidis.CacheableTTL) []rueidis.RedisResult {
	names := make([]string, len(multi))
	for i, cmd := range multi {
		names[i] = commandName(cmd.Cmd.Commands())
	}
	resps := client.DoMultiCache(ctx, multi...)
	for i, res := range resps {
		logResult(ctx, names[i], res.Error())
	}
	return resps
}

func (errorLogHook) Receive(client rueidis.Client, ctx context.Context, subscribe rueidis.Completed, fn func(msg rueidis.PubSubMessage)) error {
	name := commandName(subscribe.Commands())
	err := client.Receive(ctx, subscribe, fn)
	logResult(ctx, name, err)
	return err
}

func (errorLogHook) DoStream(client rueidis.Client, ctx context.Context, cmd rueidis.Completed) rueidis.RedisResultStream {
	return client.DoStream(ctx, cmd)
}

func (errorLogHook) DoMultiStream(client rueidis.Client, ctx context.Context, multi ...rueidis.Completed) rueidis.MultiRedisResultStream {
	return client.DoMultiStream(ctx, multi...)
}

// commands are recycled once executed, so the name is copied out beforehand
func commandName(cmd []string) string {
	if len(cmd) == 0 {
		return ""
	}
	return strings.Clone(cmd[0])
}

func logResult(ctx context.Context, name string, err error) {
	if err == nil || rueidis.IsRedisNil(err) {
		return
	}
	slog.WarnContext(ctx, "redis command failed",
		slog.String("command", name),
		slog.Any("error", err),
	)
}
