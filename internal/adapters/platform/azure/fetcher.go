package azure

import (
	"context"
	"fmt"
	"net/url"

	jsoniter "github.com/json-iterator/go"

	"github.com/skylift/region-advisor/internal/core/domain"
	"github.com/skylift/region-advisor/internal/core/ports"
	"github.com/skylift/region-advisor/internal/errors"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// primaryAPIVersion is tried first; fallbackAPIVersion is the
	// secondary query strategy once the retry ceiling is exhausted.
	primaryAPIVersion  = "2021-07-01"
	fallbackAPIVersion = "2019-04-01"

	computeNamespace = "Microsoft.Compute"
	quotaQueryTag    = "usages"
)

// NormalizerSource resolves the normalization strategy for a provider
// id. Implemented by the service component registry.
type NormalizerSource interface {
	GetNormalizer(provider string) (ports.Normalizer, bool)
}

// Fetcher retrieves normalized SKU inventories and quota usage through
// the cache store. Successful fetches cache the post-normalization
// value, so cache hits and fresh fetches yield the same model.
type Fetcher struct {
	client      APIClient
	cache       ports.CacheStore
	normalizers NormalizerSource
	policy      RetryPolicy
	logger      ports.Logger
}

func NewFetcher(client APIClient, cache ports.CacheStore, normalizers NormalizerSource, policy RetryPolicy, logger ports.Logger) (*Fetcher, error) {
	if client == nil {
		return nil, errors.New(errors.CodeConfigValidation, "api client cannot be nil")
	}
	if cache == nil {
		return nil, errors.New(errors.CodeConfigValidation, "cache store cannot be nil")
	}
	if normalizers == nil {
		return nil, errors.New(errors.CodeConfigValidation, "normalizer source cannot be nil")
	}
	return &Fetcher{
		client:      client,
		cache:       cache,
		normalizers: normalizers,
		policy:      policy,
		logger:      logger,
	}, nil
}

func (f *Fetcher) FetchInventory(ctx context.Context, provider, region string) (domain.ProviderSet, error) {
	key := ports.CacheKey{
		Namespace:  provider,
		APIVersion: primaryAPIVersion,
		Region:     region,
		Query:      "skus",
	}

	if payload, ok, err := f.cache.Get(ctx, key); err == nil && ok {
		var set domain.ProviderSet
		if err := jsonAPI.Unmarshal(payload, &set); err == nil {
			f.logger.Debugf(ctx, "Cache hit for %s/%s (%d SKUs)", provider, region, set.SkuCount())
			return set, nil
		}
		f.logger.Warnf(ctx, "Cached inventory for %s/%s failed to decode, refetching", provider, region)
	} else if err != nil {
		f.logger.Warnf(ctx, "Cache read failed for %s/%s, falling through to fetch: %v", provider, region, err)
	}

	raw, err := f.fetchRawInventory(ctx, provider, region)
	if err != nil {
		return domain.ProviderSet{}, err
	}

	set := f.normalizeInventory(ctx, provider, region, raw)

	if payload, err := jsonAPI.Marshal(set); err == nil {
		if putErr := f.cache.Put(ctx, key, payload); putErr != nil {
			f.logger.Warnf(ctx, "Failed to cache inventory for %s/%s: %v", provider, region, putErr)
		}
	}

	return set, nil
}

// fetchRawInventory runs the retry policy against the primary API
// version and falls back to the secondary version before giving up.
// A nil payload means the provider has no SKU endpoint.
func (f *Fetcher) fetchRawInventory(ctx context.Context, provider, region string) ([]byte, error) {
	path, query := inventoryRequest(provider, region, primaryAPIVersion)

	var raw []byte
	label := fmt.Sprintf("%s skus (%s)", provider, region)
	err := retryOperation(ctx, f.policy, f.logger, label, func() error {
		var opErr error
		raw, opErr = f.client.GetRaw(ctx, path, query)
		return opErr
	})
	if err == nil {
		return raw, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, errors.CodePermanentFetch) {
		return nil, err
	}

	f.logger.Warnf(ctx, "Primary fetch exhausted for %s, trying api-version %s", label, fallbackAPIVersion)
	path, query = inventoryRequest(provider, region, fallbackAPIVersion)
	fallbackErr := retryOperation(ctx, f.policy, f.logger, label+" (fallback)", func() error {
		var opErr error
		raw, opErr = f.client.GetRaw(ctx, path, query)
		return opErr
	})
	if fallbackErr != nil {
		return nil, errors.Wrapf(fallbackErr, errors.CodeTransientFetch, "fetch failed for %s after fallback", label)
	}
	return raw, nil
}

// normalizeInventory applies the provider's registered strategy.
// Ambiguous shapes degrade to an empty set by contract; they are never
// surfaced as fetch failures.
func (f *Fetcher) normalizeInventory(ctx context.Context, provider, region string, raw []byte) domain.ProviderSet {
	normalizer, ok := f.normalizers.GetNormalizer(provider)
	if !ok {
		f.logger.Debugf(ctx, "No registered normalizer for %s, using default shape handling", provider)
		return domain.NewProviderSet(provider, region)
	}

	set, err := normalizer.Normalize(ctx, raw, region)
	if err != nil {
		if errors.Is(err, errors.CodeNormalizationAmbiguity) {
			f.logger.Warnf(ctx, "Unexpected response shape for %s/%s, treating as empty inventory: %v", provider, region, err)
			return domain.NewProviderSet(provider, region)
		}
		f.logger.Errorf(ctx, err, "Normalization failed for %s/%s, treating as empty inventory", provider, region)
		return domain.NewProviderSet(provider, region)
	}
	return set
}

func inventoryRequest(provider, region, apiVersion string) (string, url.Values) {
	query := url.Values{}
	query.Set("api-version", apiVersion)

	if provider == domain.SyntheticDiskProvider {
		// Managed disks have no dedicated SKU endpoint; the synthetic
		// entry is built from the compute disk-size enumeration.
		query.Set("$filter", fmt.Sprintf("location eq '%s' and resourceType eq 'disks'", region))
		return fmt.Sprintf("providers/%s/skus", computeNamespace), query
	}

	query.Set("$filter", fmt.Sprintf("location eq '%s'", region))
	return fmt.Sprintf("providers/%s/skus", provider), query
}

type usageName struct {
	Value          string `json:"value"`
	LocalizedValue string `json:"localizedValue"`
}

type usagePayload struct {
	Name         usageName `json:"name"`
	ResourceType string    `json:"resourceType"`
	Limit        float64   `json:"limit"`
	CurrentValue float64   `json:"currentValue"`
}

type usageEnvelope struct {
	Value []usagePayload `json:"value"`
}

func (f *Fetcher) FetchQuotas(ctx context.Context, region string) ([]domain.QuotaMetric, error) {
	key := ports.CacheKey{
		Namespace:  computeNamespace,
		APIVersion: primaryAPIVersion,
		Region:     region,
		Query:      quotaQueryTag,
	}

	if payload, ok, err := f.cache.Get(ctx, key); err == nil && ok {
		var metrics []domain.QuotaMetric
		if err := jsonAPI.Unmarshal(payload, &metrics); err == nil {
			f.logger.Debugf(ctx, "Cache hit for %s quotas (%d metrics)", region, len(metrics))
			return metrics, nil
		}
		f.logger.Warnf(ctx, "Cached quotas for %s failed to decode, refetching", region)
	} else if err != nil {
		f.logger.Warnf(ctx, "Cache read failed for %s quotas, falling through to fetch: %v", region, err)
	}

	path := fmt.Sprintf("providers/%s/locations/%s/usages", computeNamespace, url.PathEscape(region))
	query := url.Values{}
	query.Set("api-version", primaryAPIVersion)

	var raw []byte
	err := retryOperation(ctx, f.policy, f.logger, fmt.Sprintf("%s quotas", region), func() error {
		var opErr error
		raw, opErr = f.client.GetRaw(ctx, path, query)
		return opErr
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	metrics := normalizeUsages(raw, region)

	if payload, err := jsonAPI.Marshal(metrics); err == nil {
		if putErr := f.cache.Put(ctx, key, payload); putErr != nil {
			f.logger.Warnf(ctx, "Failed to cache quotas for %s: %v", region, putErr)
		}
	}

	return metrics, nil
}

// normalizeUsages flattens usage rows into QuotaMetrics. Rows without a
// metric name carry no information and are dropped.
func normalizeUsages(raw []byte, region string) []domain.QuotaMetric {
	if len(raw) == 0 {
		return nil
	}

	var env usageEnvelope
	if err := jsonAPI.Unmarshal(raw, &env); err != nil {
		var bare []usagePayload
		if err := jsonAPI.Unmarshal(raw, &bare); err != nil {
			return nil
		}
		env.Value = bare
	}

	metrics := make([]domain.QuotaMetric, 0, len(env.Value))
	for _, u := range env.Value {
		if u.Name.Value == "" {
			continue
		}
		resourceType := u.ResourceType
		if resourceType == "" {
			resourceType = u.Name.Value
		}
		metrics = append(metrics, domain.QuotaMetric{
			Region:       domain.NormalizeKey(region),
			ResourceType: resourceType,
			MetricName:   u.Name.Value,
			Limit:        u.Limit,
			CurrentUsage: u.CurrentValue,
		})
	}
	return metrics
}
