package azure

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/skylift/region-advisor/internal/core/ports"
)

const (
	defaultRateLimitRPS = 10
	minRateLimitRPS     = 1
	maxRateLimitRPS     = 50
)

// apiLimiter throttles calls against the management API's per-window
// rate limits. One instance per client, injected rather than global, so
// tests and parallel subscriptions stay isolated.
type apiLimiter struct {
	limiter *rate.Limiter
	logger  ports.Logger
}

func newAPILimiter(rps int, logger ports.Logger) *apiLimiter {
	limitValue := defaultRateLimitRPS
	if rps >= minRateLimitRPS && rps <= maxRateLimitRPS {
		limitValue = rps
	} else if rps != 0 {
		logger.Warnf(context.Background(), "Invalid API RPS configured (%d), using default %d. Valid range: %d-%d.",
			rps, defaultRateLimitRPS, minRateLimitRPS, maxRateLimitRPS)
	}

	return &apiLimiter{
		limiter: rate.NewLimiter(rate.Limit(limitValue), limitValue),
		logger:  logger,
	}
}

func (l *apiLimiter) Wait(ctx context.Context) error {
	err := l.limiter.Wait(ctx)
	if err != nil && ctx.Err() == nil {
		l.logger.Warnf(ctx, "Error waiting for API rate limiter: %v", err)
	}
	return err
}
