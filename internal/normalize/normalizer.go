package normalize

import (
	"context"
	"sort"

	"github.com/skylift/region-advisor/internal/core/domain"
)

// DefaultNormalizer flattens a conventional SKU listing into the
// uniform ProviderSet model: names are lower-cased for keying, records
// are filtered to the requested region (case-insensitive location
// match), and duplicate names keep the first occurrence so output is
// deterministic regardless of upstream ordering.
type DefaultNormalizer struct {
	provider string
}

func NewDefaultNormalizer(provider string) *DefaultNormalizer {
	return &DefaultNormalizer{provider: provider}
}

func (n *DefaultNormalizer) Provider() string {
	return n.provider
}

func (n *DefaultNormalizer) Normalize(ctx context.Context, raw []byte, region string) (domain.ProviderSet, error) {
	set := domain.NewProviderSet(n.provider, region)

	payloads, err := decodeSkuPayloads(raw)
	if err != nil {
		return set, err
	}

	resourceTypes := make(map[string]struct{})
	for _, p := range payloads {
		if p.Name == "" {
			continue
		}
		rec := domain.SkuRecord{
			Name:         domain.NormalizeKey(p.Name),
			ResourceType: p.ResourceType,
			Tier:         p.Tier,
			Locations:    normalizeLocations(p.Locations),
			Restrictions: p.restrictionCodes(),
		}
		if rec.Tier == "" {
			rec.Tier = p.Kind
		}
		if len(rec.Locations) > 0 && !rec.AvailableIn(region) {
			continue
		}
		if _, exists := set.Skus[rec.Key()]; exists {
			// First occurrence wins; duplicates are expected to be
			// attribute-identical upstream.
			continue
		}
		set.Skus[rec.Key()] = rec
		if rec.ResourceType != "" {
			resourceTypes[domain.NormalizeKey(rec.ResourceType)] = struct{}{}
		}
	}

	set.ResourceTypeCount = len(resourceTypes)
	return set, nil
}

func normalizeLocations(locations []string) []string {
	if len(locations) == 0 {
		return nil
	}
	out := make([]string, 0, len(locations))
	for _, loc := range locations {
		out = append(out, domain.NormalizeKey(loc))
	}
	sort.Strings(out)
	return out
}
