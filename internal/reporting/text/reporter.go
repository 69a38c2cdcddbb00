package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/skylift/region-advisor/internal/core/domain"
	"github.com/skylift/region-advisor/internal/core/ports"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `mapstructure:"no_color"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	if cfg.NoColor || !isTerminal(os.Stdout) {
		color.NoColor = true
	}

	return &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}, nil
}

func isTerminal(f *os.File) bool {
	stat, _ := f.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) Report(ctx context.Context, result domain.RunResult) error {
	if len(result.Comparisons) == 0 && len(result.TopConsumers) == 0 {
		fmt.Fprintln(r.writer, "No providers compared.")
		return nil
	}

	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)

	fmt.Fprintf(tw, "Region Comparison Report: %s -> %s\n", result.SourceRegion, result.TargetRegion)
	fmt.Fprintln(tw, "==========================================")
	fmt.Fprintln(tw, "Provider\tStatus\tSource SKUs\tTarget SKUs\tGap")

	var skipped []domain.ComparisonRecord
	for _, rec := range result.Comparisons {
		if rec.Status == domain.StatusError {
			skipped = append(skipped, rec)
			continue
		}

		statusStr := string(rec.Status)
		switch rec.Status {
		case domain.StatusFullMatch, domain.StatusAvailableNoSkus:
			statusStr = green(statusStr)
		case domain.StatusSourceRestricted:
			statusStr = red(statusStr)
		case domain.StatusSourceExtended, domain.StatusTargetExtended, domain.StatusPartialMatch:
			statusStr = yellow(statusStr)
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n",
			rec.Provider, statusStr, rec.SourceSkuCount, rec.TargetSkuCount, rec.TotalGap())
	}

	if len(skipped) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Skipped providers (fetch errors):")
		for _, rec := range skipped {
			detail := ""
			if rec.Err != nil {
				detail = rec.Err.Error()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", rec.Provider, red(string(rec.Status)), detail)
		}
	}

	if len(result.TopConsumers) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "Top quota consumers in %s:\n", result.SourceRegion)
		fmt.Fprintln(tw, "Metric\tUsage\tLimit\tUsed %")
		for _, m := range result.TopConsumers {
			fmt.Fprintf(tw, "%s\t%.0f\t%.0f\t%s\n", m.MetricName, m.CurrentUsage, m.Limit, cyan(fmt.Sprintf("%d%%", m.PercentUsed())))
		}
	}

	if len(result.Tuples) > 0 {
		enriched := 0
		for _, t := range result.Tuples {
			if t != nil && t.Quota != nil {
				enriched++
			}
		}
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "Resources enriched with quota data: %d of %d\n", enriched, len(result.Tuples))
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	compared := len(result.Comparisons) - len(skipped)
	r.logger.Infof(ctx, "Report written: %d compared, %d skipped", compared, len(skipped))
	return nil
}
