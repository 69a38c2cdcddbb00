// Package diffing computes set-difference comparisons between the
// source-region and target-region inventories of a single provider and
// classifies the result. Everything here is a pure function of its
// inputs: identical ProviderSet pairs always produce identical records.
package diffing

import (
	"sort"

	"github.com/skylift/region-advisor/internal/core/domain"
)

// Compare diffs the two sets on normalized SKU keys and assigns a
// status by the precedence ladder below, first match wins:
//
//  1. both sets empty                         -> AVAILABLE_NO_SKUS
//  2. no gap either way                       -> FULL_MATCH
//  3. target empty, source populated          -> SOURCE_RESTRICTED
//  4. source gap larger                       -> SOURCE_EXTENDED
//  5. target gap larger                       -> TARGET_EXTENDED
//  6. equal non-zero gaps                     -> PARTIAL_MATCH
func Compare(source, target domain.ProviderSet) domain.ComparisonRecord {
	onlyInSource := difference(source.Skus, target.Skus)
	onlyInTarget := difference(target.Skus, source.Skus)

	rec := domain.ComparisonRecord{
		Provider:       source.Provider,
		SourceSkuCount: source.SkuCount(),
		TargetSkuCount: target.SkuCount(),
		OnlyInSource:   onlyInSource,
		OnlyInTarget:   onlyInTarget,
	}
	rec.Status = classify(rec)
	return rec
}

func classify(rec domain.ComparisonRecord) domain.ComparisonStatus {
	switch {
	case rec.SourceSkuCount == 0 && rec.TargetSkuCount == 0:
		return domain.StatusAvailableNoSkus
	case len(rec.OnlyInSource) == 0 && len(rec.OnlyInTarget) == 0:
		return domain.StatusFullMatch
	case rec.TargetSkuCount == 0 && rec.SourceSkuCount > 0:
		return domain.StatusSourceRestricted
	case len(rec.OnlyInSource) > len(rec.OnlyInTarget):
		return domain.StatusSourceExtended
	case len(rec.OnlyInTarget) > len(rec.OnlyInSource):
		return domain.StatusTargetExtended
	default:
		return domain.StatusPartialMatch
	}
}

// difference returns the keys of a that are absent from b, sorted for
// run-to-run determinism.
func difference(a, b map[string]domain.SkuRecord) []string {
	out := make([]string, 0)
	for key := range a {
		if _, ok := b[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// SortByGap orders records for reporting: larger total gap first,
// compute namespaces ahead of others on ties, then provider name
// ascending so output is reproducible.
func SortByGap(records []domain.ComparisonRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		gi, gj := records[i].TotalGap(), records[j].TotalGap()
		if gi != gj {
			return gi > gj
		}
		ci, cj := isCompute(records[i].Provider), isCompute(records[j].Provider)
		if ci != cj {
			return ci
		}
		return records[i].Provider < records[j].Provider
	})
}

func isCompute(provider string) bool {
	return domain.NormalizeKey(provider) == "microsoft.compute"
}
