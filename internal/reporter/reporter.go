// Package reporter renders analysis results for people and programs.
//
// Supported output formats:
//   - Console: human-readable output for terminal display
//   - JSON: the structured report contract for programmatic consumption
//   - CSV: flattened group members for spreadsheet applications
//
// The reporter is a pure serialization step. Group ordering, verdicts and
// rationale strings are produced upstream and rendered verbatim here.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"duplicate-charge-detector/internal/models"

	"github.com/fatih/color"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report rendering
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Console formatting options
	UseColors       bool `json:"use_colors"`
	ShowSkippedRows bool `json:"show_skipped_rows"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:          FormatConsole,
		UseColors:       true,
		ShowSkippedRows: true,
		CSVDelimiter:    ',',
		CSVHeaders:      true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders reports in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator with the given configuration.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes the report to the provided writer in the configured
// format.
func (rg *ReportGenerator) GenerateReport(report *Report, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(report, writer)
	case FormatJSON:
		return rg.generateJSONReport(report, writer)
	case FormatCSV:
		return rg.generateCSVReport(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateJSONReport(report *Report, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (rg *ReportGenerator) generateConsoleReport(report *Report, writer io.Writer) error {
	header := rg.sprintf(color.New(color.Bold), "DUPLICATE CHARGE REPORT")
	fmt.Fprintf(writer, "%s\n", header)
	fmt.Fprintf(writer, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	if len(report.Errors) > 0 {
		for _, re := range report.Errors {
			line := rg.sprintf(color.New(color.FgRed, color.Bold), "ERROR [%s]: %s", re.Kind, re.Message)
			fmt.Fprintf(writer, "%s\n", line)
		}
		return nil
	}

	if report.Summary != nil {
		fmt.Fprintf(writer, "Groups flagged:   %d\n", report.Summary.TotalGroups)
		fmt.Fprintf(writer, "Likely errors:    %d\n", report.Summary.LikelyErrors)
		fmt.Fprintf(writer, "Expected pairs:   %d\n", report.Summary.ExpectedPairs)
		fmt.Fprintf(writer, "Undecided:        %d\n", report.Summary.Undecided)
		fmt.Fprintf(writer, "Skipped rows:     %d\n\n", report.Summary.SkippedRows)
	}

	if len(report.Groups) == 0 {
		fmt.Fprintf(writer, "%s\n", rg.sprintf(color.New(color.FgGreen), "No duplicate candidates found."))
	}

	for i, group := range report.Groups {
		label := rg.verdictLabel(group)
		fmt.Fprintf(writer, "Group %d %s\n", i+1, label)
		fmt.Fprintf(writer, "  Reason: %s\n", group.Reason)
		if group.Notes != "" {
			fmt.Fprintf(writer, "  Notes:  %s\n", group.Notes)
		}
		for _, tx := range group.Transactions {
			fmt.Fprintf(writer, "    row %d: %s\n", tx.RowIndex, formatFields(tx.Fields))
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.ShowSkippedRows && len(report.SkippedRows) > 0 {
		fmt.Fprintf(writer, "%s\n", rg.sprintf(color.New(color.FgYellow), "Skipped rows:"))
		for _, skip := range report.SkippedRows {
			fmt.Fprintf(writer, "  row %d: %s\n", skip.RowIndex, skip.Reason)
		}
	}

	return nil
}

func (rg *ReportGenerator) generateCSVReport(report *Report, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"group_id",
			"row_index",
			"is_commute_pair",
			"likely_duplicate_error",
			"reason",
			"notes",
			"row_fields",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, group := range report.Groups {
		for _, tx := range group.Transactions {
			record := []string{
				group.ID,
				fmt.Sprintf("%d", tx.RowIndex),
				fmt.Sprintf("%t", group.IsCommutePair),
				string(group.LikelyDuplicateErr),
				group.Reason,
				group.Notes,
				formatFields(tx.Fields),
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write group member record: %w", err)
			}
		}
	}

	return csvWriter.Error()
}

func (rg *ReportGenerator) verdictLabel(group *ReportGroup) string {
	switch {
	case group.IsCommutePair:
		return rg.sprintf(color.New(color.FgGreen), "[expected pair]")
	case group.LikelyDuplicateErr == models.VerdictLikelyDuplicate:
		return rg.sprintf(color.New(color.FgRed, color.Bold), "[likely duplicate]")
	default:
		return rg.sprintf(color.New(color.FgYellow), "[needs review]")
	}
}

func (rg *ReportGenerator) sprintf(c *color.Color, format string, args ...interface{}) string {
	if !rg.config.UseColors {
		return fmt.Sprintf(format, args...)
	}
	return c.Sprintf(format, args...)
}

func formatFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, key := range sortedKeys(fields) {
		parts = append(parts, fmt.Sprintf("%s=%s", key, fields[key]))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
