package ports

import (
	"context"

	"github.com/skylift/region-advisor/internal/core/domain"
)

// InventoryFetcher retrieves the normalized SKU inventory for one
// (provider, region) pair, cache-first. Providers without a SKU endpoint
// yield an empty set, not an error.
type InventoryFetcher interface {
	FetchInventory(ctx context.Context, provider, region string) (domain.ProviderSet, error)
}

// QuotaFetcher retrieves per-metric quota usage rows for a region.
type QuotaFetcher interface {
	FetchQuotas(ctx context.Context, region string) ([]domain.QuotaMetric, error)
}

// RateLimiter throttles upstream API calls to the provider's per-window
// ceiling.
type RateLimiter interface {
	Wait(ctx context.Context) error
}
