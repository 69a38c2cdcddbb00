package azure

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/skylift/region-advisor/internal/core/ports"
	"github.com/skylift/region-advisor/internal/errors"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
	defaultMaxDelay    = 60 * time.Second
	defaultJitter      = 0.2
)

// RetryPolicy is the explicit retry contract for upstream calls: delay
// doubles per attempt from BaseDelay, capped at MaxDelay, with a fixed
// attempt ceiling. Only transient errors are retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
		Jitter:      defaultJitter,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	return p
}

// retryOperation runs op under the policy. Permanent errors and
// cancellation stop immediately; transient errors are retried until the
// ceiling, after which the last error surfaces.
func retryOperation(ctx context.Context, policy RetryPolicy, logger ports.Logger, label string, op func() error) error {
	policy = policy.normalized()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.BaseDelay
	bo.MaxInterval = policy.MaxDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = policy.Jitter
	bo.Reset()

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if errors.IsTransient(err) {
			logger.Warnf(ctx, "Transient failure on %s (attempt %d/%d): %v", label, attempt, policy.MaxAttempts, err)
			return err
		}
		return backoff.Permanent(err)
	}

	// MaxRetries counts retries after the first attempt.
	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(policy.MaxAttempts-1)), ctx)
	return backoff.Retry(wrapped, b)
}
