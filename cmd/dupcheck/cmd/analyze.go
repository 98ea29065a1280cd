package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"duplicate-charge-detector/cmd/dupcheck/config"
	"duplicate-charge-detector/internal/analyzer"
	"duplicate-charge-detector/internal/parsers"
	"duplicate-charge-detector/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the analyze command
var (
	inputFile           string
	inputFormat         string
	rulesFile           string
	outputFormat        string
	outputFile          string
	timeWindowHours     float64
	similarityThreshold float64
	signConvention      string
	sampleSize          int
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Scan a transaction export for duplicate charges",
	Long: `Analyze reads a transaction export, detects its column layout and
date/amount encodings, and flags groups of same-amount transactions at the
same merchant recorded close together in time.

Transactions matching a configured expected-pair rule (for example a
twice-daily commute fare) are reported but marked as not being errors.

Examples:
  # Basic scan with a one hour window
  dupcheck analyze --input transactions.csv

  # Wider window, expected-pair rules, JSON output
  dupcheck analyze --input export.csv --time-window-hours 24 \
    --rules expected.yaml --format json --output report.json

  # Plain-text statement export instead of CSV
  dupcheck analyze --input statement.txt --input-format statement

  # Source encodes expenses as negative values
  dupcheck analyze --input export.csv --sign-convention expenses_negative`,

	PreRunE: validateAnalyzeFlags,
	RunE:    runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&inputFile, "input", "i", "", "path to the transaction export (required)")
	analyzeCmd.Flags().StringVar(&inputFormat, "input-format", "csv", "input format: csv, statement")
	analyzeCmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "path to an expected-pair rules YAML file")

	analyzeCmd.Flags().StringVarP(&outputFormat, "format", "f", "console", "output format: console, json, csv")
	analyzeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file path (default: stdout)")

	analyzeCmd.Flags().Float64VarP(&timeWindowHours, "time-window-hours", "w", 1, "maximum hours between charges in one group")
	analyzeCmd.Flags().Float64VarP(&similarityThreshold, "similarity-threshold", "t", 0.8, "merchant name similarity threshold (0.0-1.0)")
	analyzeCmd.Flags().StringVar(&signConvention, "sign-convention", "auto", "amount sign convention: auto, expenses_positive, expenses_negative")
	analyzeCmd.Flags().IntVar(&sampleSize, "sample-size", 20, "rows sampled during format detection")

	analyzeCmd.MarkFlagRequired("input")

	viper.BindPFlag("input", analyzeCmd.Flags().Lookup("input"))
	viper.BindPFlag("input-format", analyzeCmd.Flags().Lookup("input-format"))
	viper.BindPFlag("rules", analyzeCmd.Flags().Lookup("rules"))
	viper.BindPFlag("format", analyzeCmd.Flags().Lookup("format"))
	viper.BindPFlag("output", analyzeCmd.Flags().Lookup("output"))
	viper.BindPFlag("time-window-hours", analyzeCmd.Flags().Lookup("time-window-hours"))
	viper.BindPFlag("similarity-threshold", analyzeCmd.Flags().Lookup("similarity-threshold"))
	viper.BindPFlag("sign-convention", analyzeCmd.Flags().Lookup("sign-convention"))
	viper.BindPFlag("sample-size", analyzeCmd.Flags().Lookup("sample-size"))
}

func validateAnalyzeFlags(cmd *cobra.Command, args []string) error {
	// Viper values allow overrides from a config file or DUPCHECK_* env vars
	inputFile = viper.GetString("input")
	inputFormat = viper.GetString("input-format")
	rulesFile = viper.GetString("rules")
	outputFormat = viper.GetString("format")
	outputFile = viper.GetString("output")
	timeWindowHours = viper.GetFloat64("time-window-hours")
	similarityThreshold = viper.GetFloat64("similarity-threshold")
	signConvention = viper.GetString("sign-convention")
	sampleSize = viper.GetInt("sample-size")

	if inputFile == "" {
		return fmt.Errorf("input is required")
	}
	if err := validateFileExists(inputFile, "input file"); err != nil {
		return err
	}
	if rulesFile != "" {
		if err := validateFileExists(rulesFile, "rules file"); err != nil {
			return err
		}
	}

	validInputs := map[string]bool{"csv": true, "statement": true}
	if !validInputs[inputFormat] {
		return fmt.Errorf("invalid input format '%s'. Valid formats: csv, statement", inputFormat)
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if timeWindowHours <= 0 {
		return fmt.Errorf("time window must be positive")
	}
	if similarityThreshold < 0 || similarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be between 0.0 and 1.0")
	}
	if sampleSize <= 0 {
		return fmt.Errorf("sample size must be positive")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Input file: %s (%s)\n", inputFile, inputFormat)
		if rulesFile != "" {
			fmt.Fprintf(os.Stderr, "Rules file: %s\n", rulesFile)
		}
		fmt.Fprintf(os.Stderr, "Time window: %.2g hours, similarity threshold: %.2f\n",
			timeWindowHours, similarityThreshold)
	}

	analyzerConfig, err := config.BuildAnalyzerConfig(&config.AnalyzeOptions{
		TimeWindowHours:     timeWindowHours,
		SimilarityThreshold: similarityThreshold,
		SampleSize:          sampleSize,
		SignConvention:      signConvention,
		RulesFile:           rulesFile,
	})
	if err != nil {
		return err
	}

	engine, err := analyzer.New(analyzerConfig)
	if err != nil {
		return err
	}

	var batch *parsers.Batch
	switch inputFormat {
	case "statement":
		batch, err = parsers.ReadStatementFile(inputFile)
	default:
		batch, err = parsers.ReadBatchFile(inputFile, nil)
	}
	if err != nil {
		return err
	}

	result, runErr := engine.Analyze(batch)
	report := reporter.BuildReport(result, runErr)

	colorize := outputFormat == "console" && outputFile == ""
	generator, err := reporter.NewReportGenerator(config.BuildReportConfig(outputFormat, colorize))
	if err != nil {
		return err
	}

	output := os.Stdout
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	if err := generator.GenerateReport(report, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// A fatal engine error still exits non-zero after the report is written.
	if runErr != nil {
		return runErr
	}

	if viper.GetBool("verbose") && report.Summary != nil {
		fmt.Fprintf(os.Stderr, "\nFlagged %d groups (%d likely errors, %d expected pairs, %d undecided), skipped %d rows.\n",
			report.Summary.TotalGroups, report.Summary.LikelyErrors,
			report.Summary.ExpectedPairs, report.Summary.Undecided,
			report.Summary.SkippedRows)
	}

	return nil
}
