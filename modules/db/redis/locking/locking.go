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

// Package locking runs tasks under a Redis lock so that only one replica
// executes them at a time. The userinfo service uses it to serialize schema
// migrations on start-up.
//
//	locker, _ := locking.NewLocker(cfg)
//	exec := locking.NewLockingTaskExecutor(locker, locking.WithWaitForLock(true))
//	err := exec.Execute(ctx, locking.LockConfiguration{Name: "migrations", LockAtMostFor: time.Minute}, pool.MigrateUp)
package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"techstructure/modules/clock"
	"techstructure/modules/db/redis"

	"github.com/redis/rueidis/rueidislock"
)

type TaskFunc func(ctx context.Context) error

// LockConfiguration describes one lock.
//
// LockAtMostFor bounds the task context. LockAtLeastFor keeps the lock held
// after an early return so that other replicas skip the task.
type LockConfiguration struct {
	Name           string
	LockAtMostFor  time.Duration
	LockAtLeastFor time.Duration
}

var (
	ErrLockNotAcquired      = errors.New("locking: lock not acquired")
	ErrInvalidConfiguration = errors.New("locking: invalid lock configuration")
)

// NewLocker builds a single-instance rueidislock.Locker from the shared Redis
// settings.
func NewLocker(cfg redis.RedisConfig) (rueidislock.Locker, error) {
	opt, err := redis.ClientOption(cfg)
	if err != nil {
		return nil, err
	}
	return rueidislock.NewLocker(rueidislock.LockerOption{
		ClientOption:   opt,
		KeyMajority:    1,
		NoLoopTracking: true,
	})
}

type LockingTaskExecutor struct {
	locker         rueidislock.Locker
	logger         *slog.Logger
	waitForLock    bool
	acquireTimeout time.Duration
	namePrefix     string
	clock          clock.Clock
}

type Option func(*LockingTaskExecutor)

func WithLogger(l *slog.Logger) Option {
	return func(e *LockingTaskExecutor) { e.logger = l }
}

// WithWaitForLock blocks Execute until the lock is free instead of returning
// ErrLockNotAcquired.
func WithWaitForLock(wait bool) Option {
	return func(e *LockingTaskExecutor) { e.waitForLock = wait }
}

// WithAcquireTimeout bounds the wait when WithWaitForLock is set.
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

func NewLockingTaskExecutor(locker rueidislock.Locker, opts ...Option) *LockingTaskExecutor {
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

// Execute acquires cfg.Name and runs task while holding it. The task error
// is returned unchanged.
func (e *LockingTaskExecutor) Execute(ctx context.Context, cfg LockConfiguration, task TaskFunc) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", ErrInvalidConfiguration)
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	name := e.namePrefix + cfg.Name
	lockCtx, release, err := e.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()

	e.logger.InfoContext(ctx, "lock acquired", slog.String("lock.name", name))

	taskCtx, cancel := context.WithCancel(lockCtx)
	if cfg.LockAtMostFor > 0 {
		cancel()
		taskCtx, cancel = context.WithTimeout(lockCtx, cfg.LockAtMostFor)
	}
	defer cancel()

	start := e.clock.Now()
	err = task(taskCtx)
	e.logger.InfoContext(ctx, "locked task finished",
		slog.String("lock.name", name),
		slog.Duration("task.duration", e.clock.Now().Sub(start)),
		slog.Any("error", err),
	)

	if hold := start.Add(cfg.LockAtLeastFor).Sub(e.clock.Now()); cfg.LockAtLeastFor > 0 && hold > 0 {
		timer := time.NewTimer(hold)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		case <-lockCtx.Done():
		}
	}
	return err
}

func (e *LockingTaskExecutor) acquire(ctx context.Context, name string) (context.Context, context.CancelFunc, error) {
	if !e.waitForLock {
		lockCtx, release, err := e.locker.TryWithContext(ctx, name)
		switch {
		case errors.Is(err, rueidislock.ErrNotLocked):
			return nil, nil, ErrLockNotAcquired
		case err != nil:
			return nil, nil, fmt.Errorf("locking: try %q: %w", name, err)
		}
		return lockCtx, release, nil
	}

	if e.acquireTimeout <= 0 {
		lockCtx, release, err := e.locker.WithContext(ctx, name)
		if err != nil {
			return nil, nil, wrapAcquire(name, err)
		}
		return lockCtx, release, nil
	}

	// The lock context derives from the one we wait with, so the wait
	// deadline is a timer that is disarmed once the lock is held.
	waitCtx, stop := context.WithCancelCause(ctx)
	timer := time.AfterFunc(e.acquireTimeout, func() { stop(context.DeadlineExceeded) })
	lockCtx, release, err := e.locker.WithContext(waitCtx, name)
	if err != nil {
		timer.Stop()
		if cause := context.Cause(waitCtx); errors.Is(cause, context.DeadlineExceeded) {
			stop(nil)
			return nil, nil, cause
		}
		stop(nil)
		return nil, nil, wrapAcquire(name, err)
	}
	if !timer.Stop() {
		release()
		stop(nil)
		return nil, nil, context.DeadlineExceeded
	}
	return lockCtx, func() { release(); stop(nil) }, nil
}

func wrapAcquire(name string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("locking: acquire %q: %w", name, err)
}

func validateConfig(cfg LockConfiguration) error {
	switch {
	case cfg.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidConfiguration)
	case cfg.LockAtMostFor < 0 || cfg.LockAtLeastFor < 0:
		return fmt.Errorf("%w: negative duration", ErrInvalidConfiguration)
	case cfg.LockAtMostFor > 0 && cfg.LockAtLeastFor > cfg.LockAtMostFor:
		return fmt.Errorf("%w: lockAtLeastFor %s exceeds lockAtMostFor %s",
			ErrInvalidConfiguration, cfg.LockAtLeastFor, cfg.LockAtMostFor)
	}
	return nil
}
