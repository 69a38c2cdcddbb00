package ports

import (
	"context"

	"github.com/skylift/region-advisor/internal/core/domain"
)

// ComparisonRequest is the caller's description of one run: which
// provider namespaces to compare between which regions, plus the
// concrete resource tuples to enrich with quota usage.
type ComparisonRequest struct {
	SourceRegion string
	TargetRegion string
	Providers    []string
	Tuples       []*domain.ResourceTuple
}

type RegionComparisonEngine interface {
	Run(ctx context.Context, req ComparisonRequest) error
}
