// Package config translates CLI flags and rule files into engine
// configuration.
package config

import (
	"fmt"
	"time"

	"duplicate-charge-detector/internal/analyzer"
	"duplicate-charge-detector/internal/grouper"
	"duplicate-charge-detector/internal/models"
	"duplicate-charge-detector/internal/parsers"
	"duplicate-charge-detector/internal/reporter"
	"duplicate-charge-detector/internal/rules"
)

// AnalyzeOptions collects everything the analyze command can set.
type AnalyzeOptions struct {
	TimeWindowHours     float64
	SimilarityThreshold float64
	SampleSize          int
	SignConvention      string
	RulesFile           string
}

// DefaultAnalyzeOptions returns the engine defaults.
func DefaultAnalyzeOptions() *AnalyzeOptions {
	return &AnalyzeOptions{
		TimeWindowHours:     1,
		SimilarityThreshold: 0.8,
		SampleSize:          20,
		SignConvention:      string(models.SignAuto),
	}
}

// BuildAnalyzerConfig assembles the analyzer configuration from CLI options,
// loading the expected-pair rules file when one is given.
func BuildAnalyzerConfig(opts *AnalyzeOptions) (*analyzer.Config, error) {
	if opts == nil {
		opts = DefaultAnalyzeOptions()
	}
	if opts.TimeWindowHours <= 0 {
		return nil, fmt.Errorf("time window must be positive, got %v hours", opts.TimeWindowHours)
	}

	cfg := &analyzer.Config{
		Detector: &parsers.DetectorConfig{
			SampleSize:     opts.SampleSize,
			SignConvention: models.SignConvention(opts.SignConvention),
		},
		Grouping: &grouper.Config{
			TimeWindow:                  time.Duration(opts.TimeWindowHours * float64(time.Hour)),
			MerchantSimilarityThreshold: opts.SimilarityThreshold,
		},
	}

	if opts.RulesFile != "" {
		loaded, err := rules.LoadRules(opts.RulesFile)
		if err != nil {
			return nil, err
		}
		cfg.Rules = loaded
	}

	return cfg, nil
}

// BuildReportConfig maps the output format name to a reporter configuration.
// Colors are only used for console output on a terminal.
func BuildReportConfig(format string, colorize bool) *reporter.ReportConfig {
	cfg := reporter.DefaultReportConfig()
	cfg.Format = reporter.OutputFormat(format)
	cfg.UseColors = colorize
	return cfg
}
