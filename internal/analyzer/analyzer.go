// Package analyzer orchestrates the analysis pipeline: format detection,
// record normalization, duplicate grouping and expected-pair filtering.
//
// Data flows strictly forward — raw rows to canonical transactions (plus a
// skip list), to candidate groups, to annotated groups — and each run is a
// pure function of the input batch and the configuration. No state survives
// between runs.
package analyzer

import (
	"io"

	"duplicate-charge-detector/internal/grouper"
	"duplicate-charge-detector/internal/models"
	"duplicate-charge-detector/internal/parsers"
	"duplicate-charge-detector/internal/rules"
	"duplicate-charge-detector/pkg/errors"
	"duplicate-charge-detector/pkg/logger"
)

// Config aggregates the per-stage configuration for one analysis run. All
// settings are passed explicitly; repeated runs with different
// configurations cannot interfere with each other.
type Config struct {
	Detector *parsers.DetectorConfig
	Grouping *grouper.Config
	Rules    []rules.Rule
}

// DefaultConfig returns an analysis configuration with stage defaults and
// no expected-pair rules.
func DefaultConfig() *Config {
	return &Config{
		Detector: parsers.DefaultDetectorConfig(),
		Grouping: grouper.DefaultConfig(),
	}
}

// Validate checks every stage's configuration up front, so a bad rule set
// fails the run before any row is touched.
func (c *Config) Validate() error {
	if c.Detector != nil {
		if err := c.Detector.Validate(); err != nil {
			return errors.ConfigError("detector", err)
		}
	}
	if c.Grouping != nil {
		if err := c.Grouping.Validate(); err != nil {
			return errors.ConfigError("grouping", err)
		}
	}
	return rules.ValidateRules(c.Rules)
}

// AnalysisResult is the outcome of a successful run.
type AnalysisResult struct {
	Profile *models.FormatProfile
	Groups  []*models.DuplicateGroup
	Skipped []models.SkippedRow
}

// Analyzer runs the full pipeline over input batches.
type Analyzer struct {
	config   *Config
	detector *parsers.FormatDetector
	grouper  *grouper.Grouper
	filter   *rules.Filter
	logger   logger.Logger
}

// New creates an analyzer, validating all stage configuration.
func New(config *Config) (*Analyzer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	detector, err := parsers.NewFormatDetector(config.Detector)
	if err != nil {
		return nil, err
	}
	g, err := grouper.New(config.Grouping)
	if err != nil {
		return nil, err
	}
	filter, err := rules.NewFilter(config.Rules)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		config:   config,
		detector: detector,
		grouper:  g,
		filter:   filter,
		logger:   logger.GetGlobalLogger().WithComponent("analyzer"),
	}, nil
}

// Analyze runs the pipeline over a batch. A fatal error aborts the run and
// is returned; recoverable row failures end up in the result's skip list.
func (a *Analyzer) Analyze(batch *parsers.Batch) (*AnalysisResult, error) {
	profile, err := a.detector.Detect(batch)
	if err != nil {
		return nil, err
	}

	normalizer, err := parsers.NewRecordNormalizer(profile)
	if err != nil {
		return nil, err
	}
	normalized, err := normalizer.Normalize(batch)
	if err != nil {
		return nil, err
	}

	groups := a.grouper.Group(normalized.Transactions)
	a.filter.Annotate(groups)

	a.logger.WithFields(logger.Fields{
		"rows":         batch.Size(),
		"transactions": len(normalized.Transactions),
		"skipped":      len(normalized.Skipped),
		"groups":       len(groups),
	}).Info("Analysis complete")

	return &AnalysisResult{
		Profile: profile,
		Groups:  groups,
		Skipped: normalized.Skipped,
	}, nil
}

// AnalyzeCSV reads delimited text and runs the pipeline over it.
func (a *Analyzer) AnalyzeCSV(r io.Reader) (*AnalysisResult, error) {
	batch, err := parsers.ReadBatch(r, nil)
	if err != nil {
		return nil, err
	}
	return a.Analyze(batch)
}

// AnalyzeStatement reads a plain-text statement export and runs the
// pipeline over it.
func (a *Analyzer) AnalyzeStatement(r io.Reader) (*AnalysisResult, error) {
	batch, err := parsers.ReadStatement(r)
	if err != nil {
		return nil, err
	}
	return a.Analyze(batch)
}
