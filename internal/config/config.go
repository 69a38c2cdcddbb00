package config

import (
	"time"

	"github.com/skylift/region-advisor/internal/adapters/platform/azure"
	"github.com/skylift/region-advisor/internal/cachestore"
	"github.com/skylift/region-advisor/internal/log"
	"github.com/skylift/region-advisor/internal/quota"
	jsonreport "github.com/skylift/region-advisor/internal/reporting/json"
	"github.com/skylift/region-advisor/internal/reporting/text"
)

type Config struct {
	Settings   SettingsConfig    `mapstructure:"settings"`
	Cache      cachestore.Config `mapstructure:"cache" validate:"required"`
	Platform   PlatformConfig    `mapstructure:"platform"`
	Comparison ComparisonConfig  `mapstructure:"comparison"`
}

type SettingsConfig struct {
	LogLevel     log.Level       `mapstructure:"log_level"`
	LogFormat    log.Format      `mapstructure:"log_format"`
	Concurrency  int             `mapstructure:"concurrency" validate:"gte=0"`
	MaxRetries   int             `mapstructure:"max_retries" validate:"gte=0"`
	BaseBackoff  time.Duration   `mapstructure:"base_backoff"`
	TopConsumers int             `mapstructure:"top_consumers" validate:"gte=0"`
	ReporterType string          `mapstructure:"reporter"`
	Reporter     ReporterConfigs `mapstructure:"reporter_config"`
}

type PlatformConfig struct {
	Azure *azure.Config `mapstructure:"azure"`
}

type ComparisonConfig struct {
	SourceRegion string   `mapstructure:"source_region"`
	TargetRegion string   `mapstructure:"target_region"`
	Providers    []string `mapstructure:"providers"`

	// ResourcesFile points at an externally produced JSON list of
	// resource tuples to enrich. Inventory discovery itself lives
	// outside this tool.
	ResourcesFile string `mapstructure:"resources_file"`
}

type ReporterConfigs struct {
	Text *text.Config       `mapstructure:"text,omitempty"`
	JSON *jsonreport.Config `mapstructure:"json,omitempty"`
}

// RetryPolicy derives the fetcher's retry contract from settings.
func (c *Config) RetryPolicy() azure.RetryPolicy {
	policy := azure.DefaultRetryPolicy()
	if c.Settings.MaxRetries > 0 {
		policy.MaxAttempts = c.Settings.MaxRetries
	}
	if c.Settings.BaseBackoff > 0 {
		policy.BaseDelay = c.Settings.BaseBackoff
	}
	return policy
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:     log.LevelInfo,
			LogFormat:    log.FormatText,
			Concurrency:  8,
			MaxRetries:   azure.DefaultMaxAttempts,
			BaseBackoff:  azure.DefaultBaseDelay,
			TopConsumers: quota.DefaultTopN,
			ReporterType: text.ReporterTypeText,
			Reporter: ReporterConfigs{
				Text: &text.Config{NoColor: false},
			},
		},
		Cache: cachestore.Config{
			Directory:  ".region-advisor-cache",
			TTLSeconds: int(cachestore.DefaultTTL / time.Second),
		},
		Platform: PlatformConfig{
			Azure: &azure.Config{Endpoint: azure.DefaultEndpoint},
		},
		Comparison: ComparisonConfig{},
	}
}
