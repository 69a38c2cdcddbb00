package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/skylift/region-advisor/internal/core/domain"
	"github.com/skylift/region-advisor/internal/core/ports"
	"github.com/skylift/region-advisor/internal/errors"
	"github.com/skylift/region-advisor/internal/quota"
)

type mockInventoryFetcher struct {
	mock.Mock
}

func (m *mockInventoryFetcher) FetchInventory(ctx context.Context, provider, region string) (domain.ProviderSet, error) {
	args := m.Called(ctx, provider, region)
	return args.Get(0).(domain.ProviderSet), args.Error(1)
}

type mockQuotaFetcher struct {
	mock.Mock
}

func (m *mockQuotaFetcher) FetchQuotas(ctx context.Context, region string) ([]domain.QuotaMetric, error) {
	args := m.Called(ctx, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QuotaMetric), args.Error(1)
}

type capturingReporter struct {
	mock.Mock
	result domain.RunResult
	called bool
}

func (r *capturingReporter) Report(ctx context.Context, result domain.RunResult) error {
	r.result = result
	r.called = true
	args := r.Called(ctx, result)
	return args.Error(0)
}

type noopLogger struct{}

func (noopLogger) Debugf(ctx context.Context, format string, args ...any)            {}
func (noopLogger) Infof(ctx context.Context, format string, args ...any)             {}
func (noopLogger) Warnf(ctx context.Context, format string, args ...any)             {}
func (noopLogger) Errorf(ctx context.Context, err error, format string, args ...any) {}
func (noopLogger) WithFields(fields map[string]any) ports.Logger                     { return noopLogger{} }

func setWithSkus(provider, region string, names ...string) domain.ProviderSet {
	set := domain.NewProviderSet(provider, region)
	for _, name := range names {
		rec := domain.SkuRecord{Name: name, ResourceType: "virtualmachines"}
		set.Skus[rec.Key()] = rec
	}
	if set.SkuCount() > 0 {
		set.ResourceTypeCount = 1
	}
	return set
}

type EngineTestSuite struct {
	suite.Suite
	fetcher  *mockInventoryFetcher
	quotas   *mockQuotaFetcher
	reporter *capturingReporter
	engine   *RegionComparisonEngine
	ctx      context.Context
}

func (s *EngineTestSuite) SetupTest() {
	s.fetcher = new(mockInventoryFetcher)
	s.quotas = new(mockQuotaFetcher)
	s.reporter = new(capturingReporter)
	s.ctx = context.Background()

	engine, err := NewRegionComparisonEngine(
		s.fetcher, s.quotas, quota.NewMatcher(), s.reporter, noopLogger{}, 4, 3,
	)
	s.Require().NoError(err)
	s.engine = engine
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) request(providers ...string) ports.ComparisonRequest {
	return ports.ComparisonRequest{
		SourceRegion: "eastus",
		TargetRegion: "westeurope",
		Providers:    providers,
	}
}

func (s *EngineTestSuite) expectNoQuotas() {
	s.quotas.On("FetchQuotas", mock.Anything, mock.Anything).Return([]domain.QuotaMetric{}, nil).Maybe()
}

func (s *EngineTestSuite) TestRunComparesAllProviders() {
	s.fetcher.On("FetchInventory", mock.Anything, "Microsoft.Compute", "eastus").
		Return(setWithSkus("Microsoft.Compute", "eastus", "standard_d2s_v3", "standard_b1ms"), nil).Once()
	s.fetcher.On("FetchInventory", mock.Anything, "Microsoft.Compute", "westeurope").
		Return(setWithSkus("Microsoft.Compute", "westeurope", "standard_d2s_v3", "standard_b1ms"), nil).Once()
	s.fetcher.On("FetchInventory", mock.Anything, "Microsoft.Storage", "eastus").
		Return(setWithSkus("Microsoft.Storage", "eastus", "standard_lrs", "premium_lrs"), nil).Once()
	s.fetcher.On("FetchInventory", mock.Anything, "Microsoft.Storage", "westeurope").
		Return(setWithSkus("Microsoft.Storage", "westeurope", "standard_lrs"), nil).Once()
	s.expectNoQuotas()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	err := s.engine.Run(s.ctx, s.request("Microsoft.Compute", "Microsoft.Storage"))

	s.NoError(err)
	s.fetcher.AssertExpectations(s.T())
	s.Require().Len(s.reporter.result.Comparisons, 2)

	// Storage has the larger gap, so it sorts first.
	s.Equal("Microsoft.Storage", s.reporter.result.Comparisons[0].Provider)
	s.Equal(domain.StatusSourceExtended, s.reporter.result.Comparisons[0].Status)
	s.Equal([]string{"premium_lrs"}, s.reporter.result.Comparisons[0].OnlyInSource)
	s.Equal(domain.StatusFullMatch, s.reporter.result.Comparisons[1].Status)
}

func (s *EngineTestSuite) TestRunIsolatesProviderFailures() {
	fetchFailure := errors.New(errors.CodePermanentFetch, "authorization failure (403)")
	s.fetcher.On("FetchInventory", mock.Anything, "Microsoft.Compute", mock.Anything).
		Return(setWithSkus("Microsoft.Compute", "", "standard_d2s_v3"), nil).Twice()
	s.fetcher.On("FetchInventory", mock.Anything, "Microsoft.Network", mock.Anything).
		Return(domain.ProviderSet{}, fetchFailure)
	s.expectNoQuotas()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	err := s.engine.Run(s.ctx, s.request("Microsoft.Compute", "Microsoft.Network"))

	s.NoError(err)
	s.Require().Len(s.reporter.result.Comparisons, 2)

	byProvider := map[string]domain.ComparisonRecord{}
	for _, rec := range s.reporter.result.Comparisons {
		byProvider[rec.Provider] = rec
	}
	s.Equal(domain.StatusError, byProvider["Microsoft.Network"].Status)
	s.Error(byProvider["Microsoft.Network"].Err)
	s.Equal(domain.StatusFullMatch, byProvider["Microsoft.Compute"].Status)
	s.NoError(byProvider["Microsoft.Compute"].Err)
}

func (s *EngineTestSuite) TestRunEnrichesTuplesAndRanksConsumers() {
	s.fetcher.On("FetchInventory", mock.Anything, mock.Anything, mock.Anything).
		Return(setWithSkus("Microsoft.Compute", "", "standard_d2s_v3"), nil)
	s.quotas.On("FetchQuotas", mock.Anything, "eastus").
		Return([]domain.QuotaMetric{
			{Region: "eastus", ResourceType: "cores", MetricName: "cores", Limit: 100, CurrentUsage: 90},
			{Region: "eastus", ResourceType: "virtualMachines", MetricName: "virtualMachines", Limit: 200, CurrentUsage: 10},
		}, nil).Once()
	s.quotas.On("FetchQuotas", mock.Anything, "westeurope").
		Return([]domain.QuotaMetric{
			{Region: "westeurope", ResourceType: "cores", MetricName: "cores", Limit: 100, CurrentUsage: 5},
		}, nil).Once()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	req := s.request("Microsoft.Compute")
	req.Tuples = []*domain.ResourceTuple{
		{Type: "virtualMachines", SKU: "Standard_D2s_v3", Region: "eastus"},
	}
	err := s.engine.Run(s.ctx, req)

	s.NoError(err)
	s.Require().Len(s.reporter.result.Tuples, 1)
	s.Require().NotNil(s.reporter.result.Tuples[0].Quota)
	s.Equal("cores", s.reporter.result.Tuples[0].Quota.MetricName)
	s.InDelta(90.0, s.reporter.result.Tuples[0].QuotaUsage, 0.001)

	// Ranking covers the source region only, highest utilization first.
	s.Require().Len(s.reporter.result.TopConsumers, 2)
	s.Equal("cores", s.reporter.result.TopConsumers[0].MetricName)
	s.Equal("eastus", s.reporter.result.TopConsumers[0].Region)
}

func (s *EngineTestSuite) TestRunDegradesWhenQuotaFetchFails() {
	s.fetcher.On("FetchInventory", mock.Anything, mock.Anything, mock.Anything).
		Return(setWithSkus("Microsoft.Compute", "", "standard_d2s_v3"), nil)
	s.quotas.On("FetchQuotas", mock.Anything, "eastus").
		Return(nil, errors.New(errors.CodeTransientFetch, "rate limited")).Once()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	req := s.request("Microsoft.Compute")
	req.Tuples = []*domain.ResourceTuple{{Type: "virtualMachines", SKU: "Standard_D2s_v3", Region: "eastus"}}
	err := s.engine.Run(s.ctx, req)

	s.NoError(err)
	s.Require().Len(s.reporter.result.Tuples, 1)
	s.Nil(s.reporter.result.Tuples[0].Quota)
	s.Empty(s.reporter.result.TopConsumers)
}

func (s *EngineTestSuite) TestRunCancelledBeforeStartStillReports() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	err := s.engine.Run(ctx, s.request("Microsoft.Compute"))

	s.ErrorIs(err, context.Canceled)
	s.True(s.reporter.called)
	s.Empty(s.reporter.result.Comparisons)
	s.fetcher.AssertNumberOfCalls(s.T(), "FetchInventory", 0)
}

func (s *EngineTestSuite) TestRunRejectsMissingRegions() {
	err := s.engine.Run(s.ctx, ports.ComparisonRequest{Providers: []string{"Microsoft.Compute"}})

	s.Error(err)
	s.True(errors.Is(err, errors.CodeConfigValidation))
	s.False(s.reporter.called)
}

func (s *EngineTestSuite) TestRunRejectsEmptyProviderList() {
	err := s.engine.Run(s.ctx, ports.ComparisonRequest{SourceRegion: "eastus", TargetRegion: "westeurope"})

	s.Error(err)
	s.True(errors.Is(err, errors.CodeConfigValidation))
	s.False(s.reporter.called)
}
