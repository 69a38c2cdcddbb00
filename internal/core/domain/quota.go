package domain

import "math"

// QuotaMetric is a named capacity ceiling and current consumption for a
// resource family within a region. Immutable once fetched.
type QuotaMetric struct {
	Region       string  `json:"region"`
	ResourceType string  `json:"resource_type"`
	MetricName   string  `json:"metric_name"`
	Limit        float64 `json:"limit"`
	CurrentUsage float64 `json:"current_usage"`
}

func (m QuotaMetric) AvailableQuota() float64 {
	return m.Limit - m.CurrentUsage
}

// PercentUsed is rounded to the nearest integer and defined as 0 when
// the limit is 0, so a zero ceiling never divides.
func (m QuotaMetric) PercentUsed() int {
	if m.Limit == 0 {
		return 0
	}
	return int(math.Round(m.CurrentUsage / m.Limit * 100))
}

// ResourceTuple is a caller-supplied concrete resource descriptor. The
// quota enrichment step annotates it in place; the caller retains
// ownership and list order throughout.
type ResourceTuple struct {
	Type       string         `json:"type"`
	SKU        string         `json:"sku"`
	Region     string         `json:"region"`
	Attributes map[string]any `json:"attributes,omitempty"`

	// Quota stays nil when no metric matches; that is a valid terminal
	// state, not an error.
	Quota      *QuotaMetric `json:"quota,omitempty"`
	QuotaUsage float64      `json:"quota_usage"`
}
