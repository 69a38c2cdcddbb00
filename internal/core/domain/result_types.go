package domain

type ComparisonStatus string

const (
	// StatusAvailableNoSkus means the provider exists in both regions but
	// exposes no enumerable SKUs. Common, not an error.
	StatusAvailableNoSkus ComparisonStatus = "AVAILABLE_NO_SKUS"
	StatusFullMatch       ComparisonStatus = "FULL_MATCH"
	// StatusSourceRestricted means the provider is wholly unavailable in
	// the target region.
	StatusSourceRestricted ComparisonStatus = "SOURCE_RESTRICTED"
	StatusSourceExtended   ComparisonStatus = "SOURCE_EXTENDED"
	StatusTargetExtended   ComparisonStatus = "TARGET_EXTENDED"
	StatusPartialMatch     ComparisonStatus = "PARTIAL_MATCH"

	// StatusError marks a provider whose comparison was skipped because
	// its fetch failed. Never produced by the classifier.
	StatusError ComparisonStatus = "ERROR"
)

// ComparisonRecord is one row of the comparison result, immutable once
// produced by the diff engine.
type ComparisonRecord struct {
	Provider       string
	Status         ComparisonStatus
	SourceSkuCount int
	TargetSkuCount int
	OnlyInSource   []string
	OnlyInTarget   []string
	Err            error
}

// TotalGap is the deterministic ranking key used by downstream
// reporting.
func (r ComparisonRecord) TotalGap() int {
	return len(r.OnlyInSource) + len(r.OnlyInTarget)
}

// RunResult aggregates everything a reporter consumes: per-provider
// comparison rows, the enriched caller tuples, and the ranked
// top-consumer view for both regions.
type RunResult struct {
	SourceRegion string
	TargetRegion string
	Comparisons  []ComparisonRecord
	Tuples       []*ResourceTuple
	TopConsumers []QuotaMetric
}
