package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/noteflow-ai/noteflow/core"
)

// RetryPolicy bounds the retry behavior for idempotent classification calls.
//
// Reasoning-step completions are never routed through this policy: once a
// step may have executed a side-effecting action, blind retry of the run is
// unsafe. Classification calls carry no side effects, so transient model
// failures are retried here with exponential backoff.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the standard classification retry policy:
// three attempts starting at 200ms with capped exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialInterval: 200 * time.Millisecond, MaxInterval: 2 * time.Second}
}

// CompleteWithRetry issues a completion under the given retry policy.
// Context cancellation aborts the backoff wait as well as the in-flight call.
func CompleteWithRetry(ctx context.Context, c Client, policy RetryPolicy, systemPrompt string, msgs []core.Message) (string, error) {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	bo := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		bo.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		bo.MaxInterval = policy.MaxInterval
	}
	wrapped := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx)

	return backoff.RetryWithData(func() (string, error) {
		out, err := c.Complete(ctx, systemPrompt, msgs)
		if err != nil {
			if ctx.Err() != nil {
				return "", backoff.Permanent(ctx.Err())
			}
			return "", err
		}
		return out, nil
	}, wrapped)
}
