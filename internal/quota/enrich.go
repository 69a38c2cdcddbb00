// Package quota merges per-metric quota usage into caller-supplied
// resource tuples and ranks the heaviest consumers per region.
package quota

import (
	"sort"

	"github.com/skylift/region-advisor/internal/core/domain"
)

// DefaultTopN is the truncation applied by RankTopConsumers when the
// caller passes a non-positive n.
const DefaultTopN = 5

// Enrich annotates each tuple with the quota metric governing its
// resource family in its region. Tuples are mutated in place and the
// slice is returned unchanged in length and order; a tuple with no
// matching metric keeps a nil Quota, which is a valid terminal state.
func (m *Matcher) Enrich(tuples []*domain.ResourceTuple, metrics []domain.QuotaMetric) []*domain.ResourceTuple {
	index := indexMetrics(metrics)

	for _, tuple := range tuples {
		if tuple == nil {
			continue
		}
		metricName, ok := m.metricFor(tuple.Type)
		if !ok {
			continue
		}
		metric, found := index[metricKey{
			region: domain.NormalizeKey(tuple.Region),
			metric: domain.NormalizeKey(metricName),
		}]
		if !found {
			continue
		}
		// Attach a copy so later fetches can never mutate an already
		// enriched tuple.
		attached := metric
		tuple.Quota = &attached
		tuple.QuotaUsage = attached.CurrentUsage
	}
	return tuples
}

type metricKey struct {
	region string
	metric string
}

func indexMetrics(metrics []domain.QuotaMetric) map[metricKey]domain.QuotaMetric {
	index := make(map[metricKey]domain.QuotaMetric, len(metrics))
	for _, m := range metrics {
		key := metricKey{
			region: domain.NormalizeKey(m.Region),
			metric: domain.NormalizeKey(m.MetricName),
		}
		if _, exists := index[key]; exists {
			continue
		}
		index[key] = m
	}
	return index
}

// RankTopConsumers returns the n metrics of the region under the most
// pressure: percent used descending, ties broken by current usage
// descending, then metric name ascending so equal inputs always rank
// identically.
func RankTopConsumers(metrics []domain.QuotaMetric, region string, n int) []domain.QuotaMetric {
	if n <= 0 {
		n = DefaultTopN
	}

	want := domain.NormalizeKey(region)
	ranked := make([]domain.QuotaMetric, 0, len(metrics))
	for _, m := range metrics {
		if domain.NormalizeKey(m.Region) == want {
			ranked = append(ranked, m)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := ranked[i].PercentUsed(), ranked[j].PercentUsed()
		if pi != pj {
			return pi > pj
		}
		if ranked[i].CurrentUsage != ranked[j].CurrentUsage {
			return ranked[i].CurrentUsage > ranked[j].CurrentUsage
		}
		return ranked[i].MetricName < ranked[j].MetricName
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// FitsWithinTarget compares source current usage against target current
// usage: it reports true exactly when source usage exceeds what the
// target region already shows as used. Known is false when either side
// is missing, which callers must treat as "cannot determine", never as
// a pass. The comparison is against target usage, not target headroom,
// so flipping polarity is a one-line change here if that intent is ever
// revised.
func FitsWithinTarget(source, target *domain.QuotaMetric) (fits bool, known bool) {
	if source == nil || target == nil {
		return false, false
	}
	return source.CurrentUsage > target.CurrentUsage, true
}
