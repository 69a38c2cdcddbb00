package azure

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/skylift/region-advisor/internal/cachestore"
	"github.com/skylift/region-advisor/internal/core/domain"
	"github.com/skylift/region-advisor/internal/core/ports"
	"github.com/skylift/region-advisor/internal/core/service"
	"github.com/skylift/region-advisor/internal/errors"
	"github.com/skylift/region-advisor/internal/normalize"
)

type mockAPIClient struct {
	mock.Mock
}

func (m *mockAPIClient) GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	args := m.Called(ctx, path, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type noopLogger struct{}

func (noopLogger) Debugf(ctx context.Context, format string, args ...any)            {}
func (noopLogger) Infof(ctx context.Context, format string, args ...any)             {}
func (noopLogger) Warnf(ctx context.Context, format string, args ...any)             {}
func (noopLogger) Errorf(ctx context.Context, err error, format string, args ...any) {}
func (noopLogger) WithFields(fields map[string]any) ports.Logger                     { return noopLogger{} }

type FetcherTestSuite struct {
	suite.Suite
	client  *mockAPIClient
	cache   *cachestore.Store
	fetcher *Fetcher
	ctx     context.Context
}

func (s *FetcherTestSuite) SetupTest() {
	s.client = new(mockAPIClient)
	s.ctx = context.Background()

	cache, err := cachestore.New(cachestore.Config{Directory: s.T().TempDir(), TTLSeconds: 3600}, noopLogger{})
	s.Require().NoError(err)
	s.cache = cache

	registry := service.NewComponentRegistry()
	s.Require().NoError(registry.RegisterNormalizer(normalize.NewDefaultNormalizer("Microsoft.Compute")))
	s.Require().NoError(registry.RegisterNormalizer(normalize.NewDefaultNormalizer("Microsoft.KeyVault")))
	s.Require().NoError(registry.RegisterNormalizer(normalize.NewDiskNormalizer()))

	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	fetcher, err := NewFetcher(s.client, cache, registry, policy, noopLogger{})
	s.Require().NoError(err)
	s.fetcher = fetcher
}

func TestFetcherTestSuite(t *testing.T) {
	suite.Run(t, new(FetcherTestSuite))
}

func apiVersionIs(version string) any {
	return mock.MatchedBy(func(q url.Values) bool {
		return q.Get("api-version") == version
	})
}

const computeSkusJSON = `{"value":[
	{"name":"Standard_D2s_v3","resourceType":"virtualMachines","tier":"Standard","locations":["eastus"]},
	{"name":"Standard_B1ms","resourceType":"virtualMachines","tier":"Standard","locations":["eastus"]}
]}`

func (s *FetcherTestSuite) TestFetchInventoryNormalizesAndCaches() {
	s.client.On("GetRaw", mock.Anything, "providers/Microsoft.Compute/skus", apiVersionIs(primaryAPIVersion)).
		Return([]byte(computeSkusJSON), nil).Once()

	set, err := s.fetcher.FetchInventory(s.ctx, "Microsoft.Compute", "eastus")

	s.NoError(err)
	s.Equal(2, set.SkuCount())
	s.Contains(set.Skus, "standard_d2s_v3")

	// Second fetch must come from the cache: no further client calls.
	again, err := s.fetcher.FetchInventory(s.ctx, "Microsoft.Compute", "eastus")
	s.NoError(err)
	if diff := cmp.Diff(set, again); diff != "" {
		s.Failf("cache round-trip mismatch", "(-fresh +cached):\n%s", diff)
	}
	s.client.AssertNumberOfCalls(s.T(), "GetRaw", 1)
}

func (s *FetcherTestSuite) TestFetchInventoryRetriesTransientThenSucceeds() {
	rateLimited := errors.New(errors.CodeTransientFetch, "rate limited")
	s.client.On("GetRaw", mock.Anything, "providers/Microsoft.Compute/skus", apiVersionIs(primaryAPIVersion)).
		Return(nil, rateLimited).Twice()
	s.client.On("GetRaw", mock.Anything, "providers/Microsoft.Compute/skus", apiVersionIs(primaryAPIVersion)).
		Return([]byte(computeSkusJSON), nil).Once()

	set, err := s.fetcher.FetchInventory(s.ctx, "Microsoft.Compute", "eastus")

	s.NoError(err)
	s.Equal(2, set.SkuCount())
	s.client.AssertExpectations(s.T())
}

func (s *FetcherTestSuite) TestFetchInventoryFallsBackToSecondaryVersion() {
	serverFault := errors.New(errors.CodeTransientFetch, "upstream 503")
	s.client.On("GetRaw", mock.Anything, "providers/Microsoft.Compute/skus", apiVersionIs(primaryAPIVersion)).
		Return(nil, serverFault).Times(3)
	s.client.On("GetRaw", mock.Anything, "providers/Microsoft.Compute/skus", apiVersionIs(fallbackAPIVersion)).
		Return([]byte(computeSkusJSON), nil).Once()

	set, err := s.fetcher.FetchInventory(s.ctx, "Microsoft.Compute", "eastus")

	s.NoError(err)
	s.Equal(2, set.SkuCount())
	s.client.AssertExpectations(s.T())
}

func (s *FetcherTestSuite) TestFetchInventoryPermanentErrorSkipsFallback() {
	authFailure := errors.New(errors.CodePermanentFetch, "authorization failure (403)")
	s.client.On("GetRaw", mock.Anything, "providers/Microsoft.Compute/skus", mock.Anything).
		Return(nil, authFailure).Once()

	_, err := s.fetcher.FetchInventory(s.ctx, "Microsoft.Compute", "eastus")

	s.Error(err)
	s.True(errors.Is(err, errors.CodePermanentFetch))
	s.client.AssertNumberOfCalls(s.T(), "GetRaw", 1)
}

func (s *FetcherTestSuite) TestFetchInventoryExhaustedRetriesSurfaceTransient() {
	serverFault := errors.New(errors.CodeTransientFetch, "upstream 500")
	s.client.On("GetRaw", mock.Anything, "providers/Microsoft.Compute/skus", mock.Anything).
		Return(nil, serverFault)

	_, err := s.fetcher.FetchInventory(s.ctx, "Microsoft.Compute", "eastus")

	s.Error(err)
	s.True(errors.Is(err, errors.CodeTransientFetch))
	// Primary and fallback each get the full retry ceiling.
	s.client.AssertNumberOfCalls(s.T(), "GetRaw", 6)
}

func (s *FetcherTestSuite) TestFetchInventoryProviderWithoutSkuEndpoint() {
	// GetRaw reports (nil, nil) for a 404: absence of SKU data is a
	// valid outcome that must normalize to an empty set.
	s.client.On("GetRaw", mock.Anything, "providers/Microsoft.KeyVault/skus", mock.Anything).
		Return(nil, nil).Once()

	set, err := s.fetcher.FetchInventory(s.ctx, "Microsoft.KeyVault", "eastus")

	s.NoError(err)
	s.Equal(0, set.SkuCount())
	s.Equal(0, set.ResourceTypeCount)
	s.Equal("Microsoft.KeyVault", set.Provider)
}

func (s *FetcherTestSuite) TestFetchInventoryAmbiguousShapeDegradesToEmpty() {
	s.client.On("GetRaw", mock.Anything, "providers/Microsoft.Compute/skus", mock.Anything).
		Return([]byte(`"not a listing"`), nil).Once()

	set, err := s.fetcher.FetchInventory(s.ctx, "Microsoft.Compute", "eastus")

	s.NoError(err)
	s.Equal(0, set.SkuCount())
}

func (s *FetcherTestSuite) TestFetchInventorySyntheticDiskProvider() {
	diskJSON := `{"value":[{"name":"Premium_LRS","size":"P30","tier":"Premium","locations":["eastus"]}]}`
	s.client.On("GetRaw", mock.Anything, "providers/Microsoft.Compute/skus",
		mock.MatchedBy(func(q url.Values) bool {
			return q.Get("$filter") == "location eq 'eastus' and resourceType eq 'disks'"
		})).
		Return([]byte(diskJSON), nil).Once()

	set, err := s.fetcher.FetchInventory(s.ctx, domain.SyntheticDiskProvider, "eastus")

	s.NoError(err)
	s.Equal(domain.SyntheticDiskProvider, set.Provider)
	s.Contains(set.Skus, "premium_lrs/p30")
}

func (s *FetcherTestSuite) TestFetchQuotasNormalizesUsageRows() {
	usagesJSON := `{"value":[
		{"name":{"value":"cores","localizedValue":"Total Regional vCPUs"},"limit":100,"currentValue":24},
		{"name":{"value":"virtualMachines","localizedValue":"Virtual Machines"},"limit":25000,"currentValue":12}
	]}`
	s.client.On("GetRaw", mock.Anything, "providers/Microsoft.Compute/locations/eastus/usages", apiVersionIs(primaryAPIVersion)).
		Return([]byte(usagesJSON), nil).Once()

	metrics, err := s.fetcher.FetchQuotas(s.ctx, "eastus")

	s.NoError(err)
	s.Require().Len(metrics, 2)
	s.Equal("cores", metrics[0].MetricName)
	s.Equal(float64(76), metrics[0].AvailableQuota())
	s.Equal(24, metrics[0].PercentUsed())
	s.Equal("eastus", metrics[0].Region)

	// Cached on success.
	again, err := s.fetcher.FetchQuotas(s.ctx, "eastus")
	s.NoError(err)
	s.Equal(metrics, again)
	s.client.AssertNumberOfCalls(s.T(), "GetRaw", 1)
}

func (s *FetcherTestSuite) TestFetchQuotasDropsUnnamedRows() {
	usagesJSON := `{"value":[{"name":{"value":""},"limit":5,"currentValue":1}]}`
	s.client.On("GetRaw", mock.Anything, "providers/Microsoft.Compute/locations/eastus/usages", mock.Anything).
		Return([]byte(usagesJSON), nil).Once()

	metrics, err := s.fetcher.FetchQuotas(s.ctx, "eastus")

	s.NoError(err)
	s.Empty(metrics)
}
