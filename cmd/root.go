package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skylift/region-advisor/internal/app"
	apperrors "github.com/skylift/region-advisor/internal/errors"
)

var (
	cfgFile           string
	logLevel          string
	logFormat         string
	sourceRegion      string
	targetRegion      string
	providersOverride string
	resourcesFile     string
	noCache           bool
)

var rootCmd = &cobra.Command{
	Use:   "region-advisor",
	Short: "Compares provider, SKU, and quota availability between two cloud regions.",
	Long: `Region Advisor fetches per-provider SKU inventories and quota usage for a
source and a target region, diffs them on normalized SKU sets, and reports
availability gaps and quota pressure to support migration planning.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		application, bootstrapErr := app.BuildApplicationFromViper(cmd.Context(), viper.GetViper())
		if bootstrapErr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Application initialization failed: %v\n", bootstrapErr)
			if msg, suggestion, ok := apperrors.GetUserFacingMessage(bootstrapErr); ok {
				fmt.Fprintf(os.Stderr, "Error Details: %s\n", msg)
				if suggestion != "" {
					fmt.Fprintf(os.Stderr, "Suggestion: %s\n", suggestion)
				}
			}
			return bootstrapErr
		}

		runErr := application.Run(cmd.Context())
		if runErr != nil {
			userMsg, suggestion, _ := apperrors.GetUserFacingMessage(runErr)
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", userMsg)
			if suggestion != "" {
				fmt.Fprintf(os.Stderr, "Suggestion: %s\n", suggestion)
			}
			return runErr
		}

		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default is config.yaml or .region-advisor.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log format (text, json)")
	rootCmd.Flags().StringVar(&sourceRegion, "source-region", "", "Region to migrate from")
	rootCmd.Flags().StringVar(&targetRegion, "target-region", "", "Region to migrate to")
	rootCmd.Flags().StringVar(&providersOverride, "providers", "", "Comma-separated provider namespaces to compare (overrides config)")
	rootCmd.Flags().StringVar(&resourcesFile, "resources", "", "Path to a JSON file of resource tuples to enrich with quota data")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "Purge cached API responses before running")

	viper.BindPFlag("settings.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("settings.log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("source_region", rootCmd.Flags().Lookup("source-region"))
	viper.BindPFlag("target_region", rootCmd.Flags().Lookup("target-region"))
	viper.BindPFlag("providers_override", rootCmd.Flags().Lookup("providers"))
	viper.BindPFlag("resources", rootCmd.Flags().Lookup("resources"))
	viper.BindPFlag("no_cache", rootCmd.Flags().Lookup("no-cache"))

	viper.SetEnvPrefix("REGIONADVISOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func initializeConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".region-advisor")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using configuration file:", viper.ConfigFileUsed())
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Fprintln(os.Stderr, "Config file not found, using defaults and environment variables.")
		} else {
			return apperrors.Wrap(err, apperrors.CodeConfigReadError, "failed to read config file")
		}
	}

	return nil
}
