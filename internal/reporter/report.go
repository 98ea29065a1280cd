package reporter

import (
	"time"

	"duplicate-charge-detector/internal/analyzer"
	"duplicate-charge-detector/internal/models"
	"duplicate-charge-detector/pkg/errors"
)

// Report is the serialization contract handed to downstream consumers. It
// is a pure rendering of an analysis result: no grouping or filtering logic
// happens here.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Groups      []*ReportGroup  `json:"groups"`
	SkippedRows []SkippedRow    `json:"skipped_rows"`
	Errors      []ReportError   `json:"errors"`
	Summary     *ReportSummary  `json:"summary,omitempty"`
}

// ReportGroup is one flagged group of transactions. Transactions carry the
// original row fields so consumers can display exactly what the source file
// contained.
type ReportGroup struct {
	ID                  string              `json:"id"`
	Transactions        []ReportTransaction `json:"transactions"`
	Reason              string              `json:"reason"`
	IsCommutePair       bool                `json:"is_commute_pair"`
	LikelyDuplicateErr  models.Verdict      `json:"likely_duplicate_error"`
	Notes               string              `json:"notes,omitempty"`
}

// ReportTransaction is one group member: the raw source fields keyed by the
// original header names, plus the zero-based data row index.
type ReportTransaction struct {
	RowIndex int               `json:"row_index"`
	Fields   map[string]string `json:"fields"`
}

// SkippedRow records a data row that could not be normalized.
type SkippedRow struct {
	RowIndex int    `json:"row_index"`
	Reason   string `json:"reason"`
}

// ReportError is a fatal failure, serialized by taxonomy kind.
type ReportError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ReportSummary carries aggregate counts for quick inspection.
type ReportSummary struct {
	TotalGroups    int `json:"total_groups"`
	LikelyErrors   int `json:"likely_errors"`
	ExpectedPairs  int `json:"expected_pairs"`
	Undecided      int `json:"undecided"`
	SkippedRows    int `json:"skipped_rows"`
}

// BuildReport converts an analysis outcome into the report contract. When
// runErr is non-nil the report contains a single errors entry and no
// partial groups; recoverable row failures arrive through the result's skip
// list and never populate errors.
func BuildReport(result *analyzer.AnalysisResult, runErr error) *Report {
	report := &Report{
		GeneratedAt: time.Now().UTC(),
		Groups:      []*ReportGroup{},
		SkippedRows: []SkippedRow{},
		Errors:      []ReportError{},
	}

	if runErr != nil {
		ee := errors.WrapIfNeeded(runErr, errors.CategoryInternal, errors.KindUnexpected, runErr.Error())
		report.Errors = append(report.Errors, ReportError{
			Kind:    string(ee.Kind),
			Message: ee.Message,
		})
		return report
	}
	if result == nil {
		return report
	}

	for _, group := range result.Groups {
		report.Groups = append(report.Groups, buildGroup(group))
	}
	for _, skip := range result.Skipped {
		report.SkippedRows = append(report.SkippedRows, SkippedRow{
			RowIndex: skip.RowIndex,
			Reason:   skip.Reason,
		})
	}
	report.Summary = buildSummary(report)

	return report
}

func buildGroup(group *models.DuplicateGroup) *ReportGroup {
	rg := &ReportGroup{
		ID:                 group.ID,
		Transactions:       make([]ReportTransaction, 0, len(group.Transactions)),
		Reason:             group.Reason,
		IsCommutePair:      group.IsExpected,
		LikelyDuplicateErr: group.Verdict,
		Notes:              group.Notes,
	}
	for _, tx := range group.Transactions {
		rg.Transactions = append(rg.Transactions, ReportTransaction{
			RowIndex: tx.SourceRowIndex,
			Fields:   tx.Raw.Fields(),
		})
	}
	return rg
}

func buildSummary(report *Report) *ReportSummary {
	summary := &ReportSummary{
		TotalGroups: len(report.Groups),
		SkippedRows: len(report.SkippedRows),
	}
	for _, group := range report.Groups {
		switch group.LikelyDuplicateErr {
		case models.VerdictLikelyDuplicate:
			summary.LikelyErrors++
		case models.VerdictNotDuplicate:
			summary.ExpectedPairs++
		default:
			summary.Undecided++
		}
	}
	return summary
}
