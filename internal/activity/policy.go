package activity

import (
	"context"
	"errors"
	"time"

	"vidflow/internal/services"
)

// Policy bounds a single stage invocation. A zero Timeout means no
// deadline; RetryAttempts counts re-invocations after the first try.
type Policy struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
}

type policyInvoker struct {
	next   Invoker
	policy Policy
}

// WithPolicy wraps an invoker with per-call timeout and retry handling.
// Deterministic failures (validation, configuration, not-found) and
// context cancellation are never retried.
func WithPolicy(next Invoker, policy Policy) Invoker {
	if policy.RetryAttempts < 0 {
		policy.RetryAttempts = 0
	}
	return &policyInvoker{next: next, policy: policy}
}

func (p *policyInvoker) Invoke(ctx context.Context, stage string, input Payload) (Payload, error) {
	var lastErr error
	for attempt := 0; attempt <= p.policy.RetryAttempts; attempt++ {
		if attempt > 0 && p.policy.RetryBackoff > 0 {
			select {
			case <-ctx.Done():
				return nil, NewError(stage, "canceled while waiting to retry", ctx.Err())
			case <-time.After(p.policy.RetryBackoff):
			}
		}

		out, err := p.invokeOnce(ctx, stage, input)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if !services.IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (p *policyInvoker) invokeOnce(ctx context.Context, stage string, input Payload) (Payload, error) {
	if p.policy.Timeout <= 0 {
		return p.next.Invoke(ctx, stage, input)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.policy.Timeout)
	defer cancel()
	out, err := p.next.Invoke(callCtx, stage, input)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, NewError(stage, "stage timed out",
			services.Wrap(services.ErrTimeout, stage, "invoke", "deadline exceeded", err))
	}
	return out, err
}
