// Package caller wraps outbound network calls with a bounded retry
// policy and a cap on concurrent in-flight calls. It is shared by tenant
// lookup, session creation, and run submission.
package caller

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"

	loggerv2 "runtrail/logger/v2"
)

const (
	// DefaultConcurrency caps outstanding calls when no limit is configured.
	DefaultConcurrency = 10
	// DefaultMaxRetries is the retry budget after the initial attempt.
	DefaultMaxRetries = 4

	initialInterval = 250 * time.Millisecond
	maxInterval     = 10 * time.Second
)

// Caller executes operations with exponential backoff and a concurrency
// limit. Exhausting the retry budget surfaces the last error; nothing is
// dropped silently.
type Caller struct {
	sem        *semaphore.Weighted
	maxRetries uint64
	logger     loggerv2.Logger
}

// New creates a caller. Non-positive concurrency and negative maxRetries
// fall back to the defaults; zero maxRetries means a single attempt.
func New(concurrency int, maxRetries int, logger loggerv2.Logger) *Caller {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if logger == nil {
		logger = loggerv2.NewDefault()
	}
	return &Caller{
		sem:        semaphore.NewWeighted(int64(concurrency)),
		maxRetries: uint64(maxRetries),
		logger:     logger,
	}
}

// Call runs op under the concurrency limit, retrying retryable failures
// with exponential backoff. Wrap an error with Permanent to stop
// retrying immediately.
func (c *Caller) Call(ctx context.Context, op func(ctx context.Context) error) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialInterval
	policy.MaxInterval = maxInterval

	return backoff.RetryNotify(
		func() error { return op(ctx) },
		backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx),
		func(err error, wait time.Duration) {
			c.logger.Warn("call failed, retrying",
				loggerv2.Error(err),
				loggerv2.String("wait", wait.String()))
		},
	)
}

// Permanent marks an error as non-retryable.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
