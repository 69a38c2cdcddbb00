package json

import (
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/skylift/region-advisor/internal/core/domain"
	"github.com/skylift/region-advisor/internal/core/ports"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const ReporterTypeJSON = "json"

type Config struct {
	OutputPath string `mapstructure:"output_path"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	writer := io.Writer(os.Stdout)
	if cfg.OutputPath != "" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create report output file: %w", err)
		}
		writer = f
	}

	return &Reporter{
		config: cfg,
		writer: writer,
		logger: logger,
	}, nil
}

type jsonReport struct {
	SourceRegion string                  `json:"source_region"`
	TargetRegion string                  `json:"target_region"`
	Summary      jsonSummary             `json:"summary"`
	Comparisons  []jsonComparison        `json:"comparisons"`
	TopConsumers []jsonQuotaMetric       `json:"top_consumers,omitempty"`
	Resources    []*domain.ResourceTuple `json:"resources,omitempty"`
}

type jsonSummary struct {
	ProvidersCompared int `json:"providers_compared"`
	ProvidersSkipped  int `json:"providers_skipped"`
	FullMatch         int `json:"full_match"`
	AvailableNoSkus   int `json:"available_no_skus"`
	SourceRestricted  int `json:"source_restricted"`
	SourceExtended    int `json:"source_extended"`
	TargetExtended    int `json:"target_extended"`
	PartialMatch      int `json:"partial_match"`
}

type jsonComparison struct {
	Provider       string                  `json:"provider"`
	Status         domain.ComparisonStatus `json:"status"`
	SourceSkuCount int                     `json:"source_sku_count"`
	TargetSkuCount int                     `json:"target_sku_count"`
	TotalGap       int                     `json:"total_gap"`
	OnlyInSource   []string                `json:"only_in_source,omitempty"`
	OnlyInTarget   []string                `json:"only_in_target,omitempty"`
	ErrorMessage   string                  `json:"error_message,omitempty"`
}

type jsonQuotaMetric struct {
	MetricName     string  `json:"metric_name"`
	ResourceType   string  `json:"resource_type"`
	Limit          float64 `json:"limit"`
	CurrentUsage   float64 `json:"current_usage"`
	AvailableQuota float64 `json:"available_quota"`
	PercentUsed    int     `json:"percent_used"`
}

func (r *Reporter) Report(ctx context.Context, result domain.RunResult) error {
	report := jsonReport{
		SourceRegion: result.SourceRegion,
		TargetRegion: result.TargetRegion,
		Comparisons:  make([]jsonComparison, 0, len(result.Comparisons)),
		Resources:    result.Tuples,
	}

	for _, rec := range result.Comparisons {
		item := jsonComparison{
			Provider:       rec.Provider,
			Status:         rec.Status,
			SourceSkuCount: rec.SourceSkuCount,
			TargetSkuCount: rec.TargetSkuCount,
			TotalGap:       rec.TotalGap(),
			OnlyInSource:   rec.OnlyInSource,
			OnlyInTarget:   rec.OnlyInTarget,
		}
		if rec.Err != nil {
			item.ErrorMessage = rec.Err.Error()
		}
		report.Comparisons = append(report.Comparisons, item)

		switch rec.Status {
		case domain.StatusError:
			report.Summary.ProvidersSkipped++
			continue
		case domain.StatusFullMatch:
			report.Summary.FullMatch++
		case domain.StatusAvailableNoSkus:
			report.Summary.AvailableNoSkus++
		case domain.StatusSourceRestricted:
			report.Summary.SourceRestricted++
		case domain.StatusSourceExtended:
			report.Summary.SourceExtended++
		case domain.StatusTargetExtended:
			report.Summary.TargetExtended++
		case domain.StatusPartialMatch:
			report.Summary.PartialMatch++
		}
		report.Summary.ProvidersCompared++
	}

	for _, m := range result.TopConsumers {
		report.TopConsumers = append(report.TopConsumers, jsonQuotaMetric{
			MetricName:     m.MetricName,
			ResourceType:   m.ResourceType,
			Limit:          m.Limit,
			CurrentUsage:   m.CurrentUsage,
			AvailableQuota: m.AvailableQuota(),
			PercentUsed:    m.PercentUsed(),
		})
	}

	encoder := jsonAPI.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	r.logger.Infof(ctx, "JSON report written: %d compared, %d skipped",
		report.Summary.ProvidersCompared, report.Summary.ProvidersSkipped)
	return nil
}
