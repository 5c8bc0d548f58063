package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// HTTPError carries the status code of a failed provider call so the retry
// classifier can tell a rate limit from a bad request.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}

// Classifier decides whether an error is worth retrying.
type Classifier func(error) bool

// RetryPolicy bounds the retry loop. Backoff is exponential with jitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns the bounds used for provider calls.
func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// retrySleepFunc is the sleep function used between retries (injectable for tests)
var retrySleepFunc = sleepCtx

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Retry runs fn until it succeeds, the classifier declares the error fatal,
// or the attempt budget is spent. Every network call in the pipeline goes
// through this one loop.
func Retry[T any](ctx context.Context, policy RetryPolicy, classify Classifier, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := retrySleepFunc(ctx, backoffDelay(policy, attempt)); err != nil {
				return zero, err
			}
		}
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !classify(err) {
			return zero, err
		}
	}
	return zero, fmt.Errorf("giving up after %d attempts: %w", policy.MaxAttempts, lastErr)
}

// backoffDelay computes the exponential delay for an attempt with up to 50%
// added jitter, capped at MaxDelay.
func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	d := policy.BaseDelay << uint(attempt-1)
	if d > policy.MaxDelay {
		d = policy.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)/2 + 1))
	return d + jitter
}

// IsTransient classifies provider errors: timeouts, connection drops, rate
// limits, and 5xx responses are retryable; everything else is fatal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status == 429 || (httpErr.Status >= 500 && httpErr.Status < 600)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "status code: 429") ||
		strings.Contains(s, "status code: 5")
}
