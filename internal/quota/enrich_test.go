package quota

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylift/region-advisor/internal/core/domain"
)

func TestQuotaMetricDerivedValues(t *testing.T) {
	m := domain.QuotaMetric{
		Region:       "eastus",
		ResourceType: "virtualMachines",
		MetricName:   "cores",
		Limit:        100,
		CurrentUsage: 24,
	}

	assert.Equal(t, float64(76), m.AvailableQuota())
	assert.Equal(t, 24, m.PercentUsed())
}

func TestQuotaMetricZeroLimitNeverDivides(t *testing.T) {
	m := domain.QuotaMetric{MetricName: "cores", Limit: 0, CurrentUsage: 12}

	assert.Equal(t, 0, m.PercentUsed())
	assert.Equal(t, float64(-12), m.AvailableQuota())
}

func TestEnrichAttachesMatchingMetric(t *testing.T) {
	matcher := NewMatcher()
	metrics := []domain.QuotaMetric{
		{Region: "eastus", ResourceType: "virtualMachines", MetricName: "cores", Limit: 100, CurrentUsage: 40},
		{Region: "eastus", ResourceType: "virtualNetworks", MetricName: "VirtualNetworks", Limit: 50, CurrentUsage: 3},
	}
	tuples := []*domain.ResourceTuple{
		{Type: "virtualMachines", SKU: "Standard_D2s_v3", Region: "EastUS"},
		{Type: "virtualNetworks", SKU: "", Region: "eastus"},
		{Type: "unknownThing", SKU: "x", Region: "eastus"},
	}

	out := matcher.Enrich(tuples, metrics)

	require.Len(t, out, 3)
	require.NotNil(t, out[0].Quota)
	assert.Equal(t, "cores", out[0].Quota.MetricName)
	assert.Equal(t, float64(40), out[0].QuotaUsage)
	require.NotNil(t, out[1].Quota)
	assert.Equal(t, "VirtualNetworks", out[1].Quota.MetricName)
	// No family mapping: quota stays nil, and that is terminal, not an error.
	assert.Nil(t, out[2].Quota)
}

func TestEnrichPreservesOrderAndOwnership(t *testing.T) {
	matcher := NewMatcher()
	tuples := []*domain.ResourceTuple{
		{Type: "disks", SKU: "P30", Region: "westeurope"},
		{Type: "virtualMachines", SKU: "Standard_B2s", Region: "westeurope"},
	}
	metrics := []domain.QuotaMetric{
		{Region: "westeurope", MetricName: "cores", Limit: 20, CurrentUsage: 10},
		{Region: "westeurope", MetricName: "StandardDiskCount", Limit: 500, CurrentUsage: 7},
	}

	out := matcher.Enrich(tuples, metrics)

	require.Len(t, out, 2)
	assert.Same(t, tuples[0], out[0])
	assert.Same(t, tuples[1], out[1])
}

func TestEnrichAttachesACopy(t *testing.T) {
	matcher := NewMatcher()
	metrics := []domain.QuotaMetric{
		{Region: "eastus", MetricName: "cores", Limit: 100, CurrentUsage: 40},
	}
	tuples := []*domain.ResourceTuple{{Type: "virtualMachines", Region: "eastus"}}

	out := matcher.Enrich(tuples, metrics)

	require.NotNil(t, out[0].Quota)
	metrics[0].CurrentUsage = 99
	assert.Equal(t, float64(40), out[0].Quota.CurrentUsage)
}

func TestRegisterFamilyExtendsMatching(t *testing.T) {
	matcher := NewMatcher()
	matcher.RegisterFamily("kubernetesClusters", "managedClusters")

	metrics := []domain.QuotaMetric{
		{Region: "eastus", MetricName: "managedClusters", Limit: 10, CurrentUsage: 2},
	}
	tuples := []*domain.ResourceTuple{{Type: "KubernetesClusters", Region: "eastus"}}

	out := matcher.Enrich(tuples, metrics)

	require.NotNil(t, out[0].Quota)
	assert.Equal(t, "managedClusters", out[0].Quota.MetricName)
}

func TestRankTopConsumersOrderingAndTruncation(t *testing.T) {
	metrics := []domain.QuotaMetric{
		{Region: "eastus", MetricName: "cores", Limit: 100, CurrentUsage: 90},
		{Region: "eastus", MetricName: "virtualMachines", Limit: 100, CurrentUsage: 90},
		{Region: "eastus", MetricName: "availabilitySets", Limit: 200, CurrentUsage: 180},
		{Region: "eastus", MetricName: "snapshots", Limit: 100, CurrentUsage: 10},
		{Region: "eastus", MetricName: "disks", Limit: 100, CurrentUsage: 55},
		{Region: "eastus", MetricName: "gateways", Limit: 100, CurrentUsage: 55},
		{Region: "westus", MetricName: "cores", Limit: 10, CurrentUsage: 10},
	}

	ranked := RankTopConsumers(metrics, "eastus", 5)

	require.Len(t, ranked, 5)
	// 90% tier: equal percent, usage 180 beats 90; then name ascending.
	assert.Equal(t, "availabilitySets", ranked[0].MetricName)
	assert.Equal(t, "cores", ranked[1].MetricName)
	assert.Equal(t, "virtualMachines", ranked[2].MetricName)
	// 55% tier: equal usage, name ascending.
	assert.Equal(t, "disks", ranked[3].MetricName)
	assert.Equal(t, "gateways", ranked[4].MetricName)
}

func TestRankTopConsumersFiltersRegion(t *testing.T) {
	metrics := []domain.QuotaMetric{
		{Region: "EastUS", MetricName: "cores", Limit: 10, CurrentUsage: 9},
		{Region: "westus", MetricName: "cores", Limit: 10, CurrentUsage: 10},
	}

	ranked := RankTopConsumers(metrics, "eastus", 0)

	require.Len(t, ranked, 1)
	assert.Equal(t, 90, ranked[0].PercentUsed())
}

func TestFitsWithinTarget(t *testing.T) {
	source := &domain.QuotaMetric{MetricName: "cores", CurrentUsage: 50}
	target := &domain.QuotaMetric{MetricName: "cores", CurrentUsage: 30}

	exceeds, known := FitsWithinTarget(source, target)
	assert.True(t, known)
	assert.True(t, exceeds)

	exceeds, known = FitsWithinTarget(target, source)
	assert.True(t, known)
	assert.False(t, exceeds)

	// Missing data on either side is "cannot determine", never a pass.
	_, known = FitsWithinTarget(nil, target)
	assert.False(t, known)
	_, known = FitsWithinTarget(source, nil)
	assert.False(t, known)
}
