package domain

import "strings"

// SyntheticDiskProvider identifies the pseudo-provider synthesized for
// managed-disk style resources that expose no conventional SKU listing.
// The suffix keeps it out of any real ARM namespace.
const SyntheticDiskProvider = "microsoft.compute.disks#synthetic"

// NormalizeKey canonicalizes a SKU or provider name for use as a
// comparison key. Upstream casing is inconsistent across providers, so
// every key is lower-cased before set operations.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SkuRecord is one provider-exposed capability unit within a region.
type SkuRecord struct {
	Name         string   `json:"name"`
	ResourceType string   `json:"resource_type"`
	Tier         string   `json:"tier,omitempty"`
	Locations    []string `json:"locations,omitempty"`
	Restrictions []string `json:"restrictions,omitempty"`
}

// Key returns the normalized comparison key for the record.
func (r SkuRecord) Key() string {
	return NormalizeKey(r.Name)
}

// AvailableIn reports whether the record lists the region, matched
// case-insensitively.
func (r SkuRecord) AvailableIn(region string) bool {
	want := NormalizeKey(region)
	for _, loc := range r.Locations {
		if NormalizeKey(loc) == want {
			return true
		}
	}
	return false
}

// ProviderSet is the per-provider, per-region aggregate produced by the
// fetcher. It is constructed fresh on every comparison run and never
// mutated after construction.
type ProviderSet struct {
	Provider          string               `json:"provider"`
	Region            string               `json:"region"`
	ResourceTypeCount int                  `json:"resource_type_count"`
	Skus              map[string]SkuRecord `json:"skus"`
}

func NewProviderSet(provider, region string) ProviderSet {
	return ProviderSet{
		Provider: provider,
		Region:   region,
		Skus:     make(map[string]SkuRecord),
	}
}

func (s ProviderSet) SkuCount() int {
	return len(s.Skus)
}
