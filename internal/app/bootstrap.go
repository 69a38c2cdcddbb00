package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"

	"github.com/skylift/region-advisor/internal/adapters/platform/azure"
	"github.com/skylift/region-advisor/internal/cachestore"
	"github.com/skylift/region-advisor/internal/config"
	"github.com/skylift/region-advisor/internal/core/domain"
	"github.com/skylift/region-advisor/internal/core/ports"
	"github.com/skylift/region-advisor/internal/core/service"
	"github.com/skylift/region-advisor/internal/errors"
	"github.com/skylift/region-advisor/internal/log"
	"github.com/skylift/region-advisor/internal/normalize"
	"github.com/skylift/region-advisor/internal/quota"
	jsonreport "github.com/skylift/region-advisor/internal/reporting/json"
	"github.com/skylift/region-advisor/internal/reporting/text"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// BuildApplicationFromViper wires the full dependency graph: config,
// logger, cache store, platform client, normalizer registry, fetcher,
// quota matcher, reporter, engine. The cache handle is threaded through
// explicitly; nothing here is a process-global.
func BuildApplicationFromViper(ctx context.Context, v *viper.Viper) (*Application, error) {
	cfg := config.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseError, "failed to unmarshal configuration")
	}

	logCfg := log.Config{Level: cfg.Settings.LogLevel, Format: cfg.Settings.LogFormat}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
	}
	logger.Infof(ctx, "Logger initialized (Level: %s, Format: %s)", cfg.Settings.LogLevel, cfg.Settings.LogFormat)

	applyFlagOverrides(cfg, v)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(ctx, cfg); err != nil {
		var details strings.Builder
		details.WriteString("Configuration validation failed:")
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range validationErrors {
				details.WriteString(fmt.Sprintf("\n - Field '%s': failed '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		}
		wrappedErr := errors.NewUserFacing(errors.CodeConfigValidation, details.String(), "Please check your configuration file or flags.")
		logger.Errorf(ctx, wrappedErr, "Configuration validation failed")
		return nil, wrappedErr
	}

	cacheLog := logger.WithFields(map[string]any{"component": "cache"})
	cache, err := cachestore.New(cfg.Cache, cacheLog)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to initialize cache store")
	}
	cacheLog.Infof(ctx, "Cache store at %s (TTL %s)", cfg.Cache.Directory, cfg.Cache.TTL())

	if v.GetBool("no_cache") {
		if err := cache.PurgeAll(ctx); err != nil {
			logger.Warnf(ctx, "Cache purge failed: %v", err)
		}
	}

	if cfg.Platform.Azure == nil {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "no platform configured", "Configure the platform.azure section.")
	}
	clientLog := logger.WithFields(map[string]any{"component": "azure-client"})
	client := azure.NewClient(*cfg.Platform.Azure, clientLog)

	registry := service.NewComponentRegistry()
	for _, provider := range cfg.Comparison.Providers {
		if provider == domain.SyntheticDiskProvider {
			continue
		}
		if err := registry.RegisterNormalizer(normalize.NewDefaultNormalizer(provider)); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterNormalizer(normalize.NewDiskNormalizer()); err != nil {
		return nil, err
	}

	fetchLog := logger.WithFields(map[string]any{"component": "fetcher"})
	fetcher, err := azure.NewFetcher(client, cache, registry, cfg.RetryPolicy(), fetchLog)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize fetcher")
	}

	var reporter ports.Reporter
	switch cfg.Settings.ReporterType {
	case text.ReporterTypeText, "":
		reportLog := logger.WithFields(map[string]any{"component": "reporter", "type": text.ReporterTypeText})
		textCfg := cfg.Settings.Reporter.Text
		if textCfg == nil {
			textCfg = config.DefaultConfig().Settings.Reporter.Text
		}
		reporter, err = text.NewReporter(*textCfg, reportLog)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize text reporter")
		}
	case jsonreport.ReporterTypeJSON:
		reportLog := logger.WithFields(map[string]any{"component": "reporter", "type": jsonreport.ReporterTypeJSON})
		jsonCfg := cfg.Settings.Reporter.JSON
		if jsonCfg == nil {
			jsonCfg = &jsonreport.Config{}
		}
		reporter, err = jsonreport.NewReporter(*jsonCfg, reportLog)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize json reporter")
		}
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, fmt.Sprintf("unsupported reporter type: %s", cfg.Settings.ReporterType), "Supported: text, json")
	}

	matcher := quota.NewMatcher()

	engine, err := service.NewRegionComparisonEngine(
		fetcher, fetcher, matcher, reporter,
		logger.WithFields(map[string]any{"component": "engine"}),
		cfg.Settings.Concurrency, cfg.Settings.TopConsumers,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize comparison engine")
	}

	tuples, err := loadResourceTuples(cfg.Comparison.ResourcesFile)
	if err != nil {
		return nil, err
	}
	if len(tuples) > 0 {
		logger.Infof(ctx, "Loaded %d resource tuples for quota enrichment", len(tuples))
	}

	request := ports.ComparisonRequest{
		SourceRegion: cfg.Comparison.SourceRegion,
		TargetRegion: cfg.Comparison.TargetRegion,
		Providers:    cfg.Comparison.Providers,
		Tuples:       tuples,
	}

	logger.Infof(ctx, "Application bootstrap complete")
	return NewApplication(engine, request, logger), nil
}

// applyFlagOverrides maps the run-scoped CLI flags onto the comparison
// section after unmarshalling, so flags win over file values.
func applyFlagOverrides(cfg *config.Config, v *viper.Viper) {
	if s := v.GetString("source_region"); s != "" {
		cfg.Comparison.SourceRegion = s
	}
	if t := v.GetString("target_region"); t != "" {
		cfg.Comparison.TargetRegion = t
	}
	if p := v.GetString("providers_override"); p != "" {
		providers := make([]string, 0)
		for _, item := range strings.Split(p, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				providers = append(providers, trimmed)
			}
		}
		if len(providers) > 0 {
			cfg.Comparison.Providers = providers
		}
	}
	if r := v.GetString("resources"); r != "" {
		cfg.Comparison.ResourcesFile = r
	}
}

func loadResourceTuples(path string) ([]*domain.ResourceTuple, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeConfigReadError,
			fmt.Sprintf("failed to read resources file %s", path),
			"Check that the path exists and is readable.")
	}
	var tuples []*domain.ResourceTuple
	if err := jsonAPI.Unmarshal(raw, &tuples); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseError, "failed to parse resources file")
	}
	return tuples, nil
}
