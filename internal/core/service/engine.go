package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/skylift/region-advisor/internal/core/domain"
	"github.com/skylift/region-advisor/internal/core/ports"
	"github.com/skylift/region-advisor/internal/diffing"
	"github.com/skylift/region-advisor/internal/errors"
	"github.com/skylift/region-advisor/internal/quota"
)

const defaultConcurrency = 8

// RegionComparisonEngine orchestrates one comparison run: it fetches
// both regions' inventories per provider through a bounded worker pool,
// diffs and classifies each pair at its own join point, enriches the
// caller's resource tuples with quota usage, and hands everything to
// the reporter. One provider's failure never blocks the others; failed
// providers surface as explicit skipped rows.
type RegionComparisonEngine struct {
	fetcher      ports.InventoryFetcher
	quotaFetcher ports.QuotaFetcher
	matcher      *quota.Matcher
	reporter     ports.Reporter
	logger       ports.Logger
	concurrency  int
	topN         int
}

func NewRegionComparisonEngine(
	fetcher ports.InventoryFetcher,
	quotaFetcher ports.QuotaFetcher,
	matcher *quota.Matcher,
	reporter ports.Reporter,
	logger ports.Logger,
	concurrency int,
	topN int,
) (*RegionComparisonEngine, error) {
	if fetcher == nil {
		return nil, errors.New(errors.CodeConfigValidation, "inventory fetcher cannot be nil")
	}
	if reporter == nil {
		return nil, errors.New(errors.CodeConfigValidation, "reporter cannot be nil")
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &RegionComparisonEngine{
		fetcher:      fetcher,
		quotaFetcher: quotaFetcher,
		matcher:      matcher,
		reporter:     reporter,
		logger:       logger,
		concurrency:  concurrency,
		topN:         topN,
	}, nil
}

func (e *RegionComparisonEngine) Run(ctx context.Context, req ports.ComparisonRequest) error {
	if req.SourceRegion == "" || req.TargetRegion == "" {
		return errors.NewUserFacing(errors.CodeConfigValidation, "source and target regions are required", "Pass --source-region and --target-region or set comparison.source_region/target_region.")
	}
	if len(req.Providers) == 0 {
		return errors.NewUserFacing(errors.CodeConfigValidation, "no providers configured for comparison", "Set comparison.providers or pass --providers.")
	}

	e.logger.Infof(ctx, "Comparing %d providers between %s and %s", len(req.Providers), req.SourceRegion, req.TargetRegion)

	// The semaphore bounds concurrent fetches globally; each provider's
	// goroutine joins only on its own region pair.
	sem := semaphore.NewWeighted(int64(e.concurrency))

	var (
		mu          sync.Mutex
		comparisons []domain.ComparisonRecord
		wg          sync.WaitGroup
	)

	for _, provider := range req.Providers {
		if ctx.Err() != nil {
			// Cancellation stops new fetches; records already collected
			// are still reported below.
			break
		}
		wg.Add(1)
		go func(provider string) {
			defer wg.Done()
			record := e.compareProvider(ctx, sem, provider, req.SourceRegion, req.TargetRegion)
			mu.Lock()
			comparisons = append(comparisons, record)
			mu.Unlock()
		}(provider)
	}
	wg.Wait()

	result := domain.RunResult{
		SourceRegion: req.SourceRegion,
		TargetRegion: req.TargetRegion,
		Comparisons:  comparisons,
		Tuples:       req.Tuples,
	}

	if ctx.Err() == nil {
		e.enrichQuotas(ctx, &result, req)
	}

	diffing.SortByGap(result.Comparisons)

	if reportErr := e.reporter.Report(ctx, result); reportErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(reportErr, errors.CodeInternal, "failed to generate report")
	}

	if ctx.Err() != nil {
		e.logger.Warnf(ctx, "Comparison run cancelled, reported %d completed providers", len(comparisons))
		return ctx.Err()
	}

	e.logger.Infof(ctx, "Comparison run finished: %d providers reported", len(comparisons))
	return nil
}

// compareProvider fetches the provider's two regional inventories in
// parallel, waits for both, and diffs them. Any surfaced fetch error
// turns into an explicit skipped record rather than failing the run.
func (e *RegionComparisonEngine) compareProvider(ctx context.Context, sem *semaphore.Weighted, provider, sourceRegion, targetRegion string) domain.ComparisonRecord {
	log := e.logger.WithFields(map[string]any{"provider": provider})

	var sourceSet, targetSet domain.ProviderSet
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		set, err := e.fetchOne(gctx, sem, provider, sourceRegion)
		if err != nil {
			return err
		}
		sourceSet = set
		return nil
	})
	g.Go(func() error {
		set, err := e.fetchOne(gctx, sem, provider, targetRegion)
		if err != nil {
			return err
		}
		targetSet = set
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Errorf(ctx, err, "Provider comparison skipped")
		return domain.ComparisonRecord{
			Provider: provider,
			Status:   domain.StatusError,
			Err:      err,
		}
	}

	record := diffing.Compare(sourceSet, targetSet)
	log.Debugf(ctx, "Compared %s: %s (gap %d)", provider, record.Status, record.TotalGap())
	return record
}

func (e *RegionComparisonEngine) fetchOne(ctx context.Context, sem *semaphore.Weighted, provider, region string) (domain.ProviderSet, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return domain.ProviderSet{}, err
	}
	defer sem.Release(1)
	return e.fetcher.FetchInventory(ctx, provider, region)
}

// enrichQuotas attaches quota usage to the caller's tuples and ranks
// the source region's top consumers. Quota failures degrade to a
// logged warning; the comparison rows still stand on their own.
func (e *RegionComparisonEngine) enrichQuotas(ctx context.Context, result *domain.RunResult, req ports.ComparisonRequest) {
	if e.quotaFetcher == nil || e.matcher == nil {
		return
	}

	sourceMetrics, err := e.quotaFetcher.FetchQuotas(ctx, req.SourceRegion)
	if err != nil {
		e.logger.Warnf(ctx, "Quota fetch failed for %s, skipping enrichment: %v", req.SourceRegion, err)
		return
	}

	metrics := sourceMetrics
	if targetMetrics, err := e.quotaFetcher.FetchQuotas(ctx, req.TargetRegion); err != nil {
		e.logger.Warnf(ctx, "Quota fetch failed for %s, enrichment limited to source metrics: %v", req.TargetRegion, err)
	} else {
		metrics = append(metrics, targetMetrics...)
	}

	result.Tuples = e.matcher.Enrich(req.Tuples, metrics)
	result.TopConsumers = quota.RankTopConsumers(sourceMetrics, req.SourceRegion, e.topN)
}
