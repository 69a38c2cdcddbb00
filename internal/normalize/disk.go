package normalize

import (
	"context"
	"fmt"

	"github.com/skylift/region-advisor/internal/core/domain"
)

const diskResourceType = "disks"

// DiskNormalizer synthesizes a pseudo-provider set for managed-disk
// style resources, which expose no conventional per-resource-type SKU
// listing. Each (redundancy, size) pair from the disk enumeration
// becomes one synthetic record, keyed under a provider id that cannot
// collide with a real namespace.
type DiskNormalizer struct{}

func NewDiskNormalizer() *DiskNormalizer {
	return &DiskNormalizer{}
}

func (n *DiskNormalizer) Provider() string {
	return domain.SyntheticDiskProvider
}

func (n *DiskNormalizer) Normalize(ctx context.Context, raw []byte, region string) (domain.ProviderSet, error) {
	set := domain.NewProviderSet(domain.SyntheticDiskProvider, region)

	payloads, err := decodeSkuPayloads(raw)
	if err != nil {
		return set, err
	}

	for _, p := range payloads {
		if p.Name == "" {
			continue
		}
		name := p.Name
		if p.Size != "" {
			name = fmt.Sprintf("%s/%s", p.Name, p.Size)
		}
		rec := domain.SkuRecord{
			Name:         domain.NormalizeKey(name),
			ResourceType: diskResourceType,
			Tier:         p.Tier,
			Locations:    normalizeLocations(p.Locations),
			Restrictions: p.restrictionCodes(),
		}
		if len(rec.Locations) > 0 && !rec.AvailableIn(region) {
			continue
		}
		if _, exists := set.Skus[rec.Key()]; exists {
			continue
		}
		set.Skus[rec.Key()] = rec
	}

	if set.SkuCount() > 0 {
		set.ResourceTypeCount = 1
	}
	return set, nil
}
