package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/mining_ledger/internal/middleware"
	"github.com/SscSPs/mining_ledger/internal/platform/metrics"
)

// RetryPolicy decides whether a failed unit of work is run again and how long
// to wait first. Attempts are numbered from 1.
type RetryPolicy struct {
	MaxAttempts int
	IsTransient func(err error) bool
	Backoff     func(attempt int) time.Duration
}

// LinearBackoff waits attempt*base after the given attempt.
func LinearBackoff(base time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// DefaultRetryPolicy retries store conflicts with linear backoff.
func DefaultRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		IsTransient: apperrors.IsTransient,
		Backoff:     LinearBackoff(baseDelay),
	}
}

// Executor runs units of work atomically, re-running the whole unit when the
// store reports a transient conflict. A unit of work may run more than once
// and must not cause effects outside its session.
type Executor struct {
	txManager portsrepo.TransactionManager
	policy    RetryPolicy
}

// NewExecutor creates an Executor over txManager.
func NewExecutor(txManager portsrepo.TransactionManager, policy RetryPolicy) *Executor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.IsTransient == nil {
		policy.IsTransient = apperrors.IsTransient
	}
	if policy.Backoff == nil {
		policy.Backoff = LinearBackoff(time.Second)
	}
	return &Executor{txManager: txManager, policy: policy}
}

// Run executes work in a session, retrying per the policy.
func (e *Executor) Run(ctx context.Context, work portsrepo.UnitOfWork) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	var err error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		err = e.txManager.RunInTx(ctx, work)
		if err == nil {
			return nil
		}
		if !e.policy.IsTransient(err) {
			return err
		}
		if attempt == e.policy.MaxAttempts {
			break
		}

		delay := e.policy.Backoff(attempt)
		metrics.ExecutorRetries.Inc()
		logger.Warn("Transient store conflict, retrying unit of work",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.String("error", err.Error()))

		if werr := wait(ctx, delay); werr != nil {
			return fmt.Errorf("retry abandoned after attempt %d: %w", attempt, err)
		}
	}

	metrics.ExecutorFailures.Inc()
	logger.Error("Unit of work failed after exhausting attempts",
		slog.Int("attempts", e.policy.MaxAttempts),
		slog.String("error", err.Error()))
	return fmt.Errorf("gave up after %d attempts: %w", e.policy.MaxAttempts, err)
}

// RunAtomic runs fn through e and returns the value produced by the attempt that committed.
func RunAtomic[T any](ctx context.Context, e *Executor, fn func(ctx context.Context, store portsrepo.Store) (T, error)) (T, error) {
	var result T
	err := e.Run(ctx, func(ctx context.Context, store portsrepo.Store) error {
		r, err := fn(ctx, store)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
