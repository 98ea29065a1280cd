// Package models defines the canonical data model for the duplicate-charge
// detection engine: raw input rows, the detected format profile, canonical
// transactions and duplicate groups.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawRow is an ordered mapping from original header strings to cell values.
// Input is preserved verbatim; normalization never mutates a RawRow.
type RawRow struct {
	Index   int
	Headers []string
	Values  []string
}

// Get returns the cell value for a header, matched case-insensitively.
// Returns an empty string if the header is not present.
func (r RawRow) Get(header string) string {
	for i, h := range r.Headers {
		if strings.EqualFold(h, header) && i < len(r.Values) {
			return r.Values[i]
		}
	}
	return ""
}

// At returns the cell value at a column index, or an empty string when the
// row is shorter than the header.
func (r RawRow) At(column int) string {
	if column < 0 || column >= len(r.Values) {
		return ""
	}
	return r.Values[column]
}

// Fields returns the row as a header-to-value map for report serialization.
func (r RawRow) Fields() map[string]string {
	fields := make(map[string]string, len(r.Headers))
	for i, h := range r.Headers {
		if i < len(r.Values) {
			fields[h] = r.Values[i]
		}
	}
	return fields
}

// SignConvention describes how a source file encodes expenses.
type SignConvention string

const (
	// SignAuto infers the convention from the sampled amounts.
	SignAuto SignConvention = "auto"
	// SignExpensesPositive means the source encodes expenses as positive values.
	SignExpensesPositive SignConvention = "expenses_positive"
	// SignExpensesNegative means the source encodes expenses as negative values.
	SignExpensesNegative SignConvention = "expenses_negative"
)

// IsValid checks if the sign convention is supported.
func (s SignConvention) IsValid() bool {
	return s == SignAuto || s == SignExpensesPositive || s == SignExpensesNegative
}

// FormatProfile describes the detected layout of an input batch: which
// columns hold each logical field and how dates and amounts are encoded.
// It is produced once per batch and must be treated as immutable.
type FormatProfile struct {
	DateColumn     int    `json:"date_column"`
	MerchantColumn int    `json:"merchant_column"`
	AmountColumn   int    `json:"amount_column"`
	AccountColumn  int    `json:"account_column"` // -1 when absent
	TimeColumn     int    `json:"time_column"`    // -1 when absent
	DateColumnName string `json:"date_column_name"`
	MerchantName   string `json:"merchant_column_name"`
	AmountName     string `json:"amount_column_name"`

	// DateLayout is the Go reference layout all dates in the batch parse with.
	DateLayout string `json:"date_layout"`

	// DecimalSeparator is '.' or ',' depending on the locale of the amounts.
	DecimalSeparator rune `json:"decimal_separator"`

	// SignMultiplier normalizes amounts to the expense-positive convention:
	// +1 when the source already encodes expenses as positive, -1 otherwise.
	SignMultiplier int `json:"sign_multiplier"`
}

// HasAccount reports whether the batch carries an account column.
func (p *FormatProfile) HasAccount() bool { return p.AccountColumn >= 0 }

// HasTime reports whether the batch carries a time column.
func (p *FormatProfile) HasTime() bool { return p.TimeColumn >= 0 }

// String returns a human-readable description of the profile.
func (p *FormatProfile) String() string {
	return fmt.Sprintf("FormatProfile{date: %q (%s), merchant: %q, amount: %q, sep: %q, sign: %+d}",
		p.DateColumnName, p.DateLayout, p.MerchantName, p.AmountName, p.DecimalSeparator, p.SignMultiplier)
}

// CanonicalTransaction is a transaction after format detection and
// normalization: date, amount and merchant in a single consistent
// representation. Amount is always expense-positive regardless of the
// source file's sign convention. MerchantNormalized is derived
// deterministically from MerchantRaw and used only for comparison, never
// for display.
type CanonicalTransaction struct {
	SourceRowIndex int
	Date           time.Time // calendar date at midnight UTC
	TimeOfDay      time.Duration
	HasTime        bool
	MerchantRaw    string
	MerchantNorm   string
	Amount         decimal.Decimal
	Account        string
	Raw            RawRow
}

// Timestamp combines the calendar date with the clock time. A transaction
// without a time component sits at start-of-day.
func (t *CanonicalTransaction) Timestamp() time.Time {
	return t.Date.Add(t.TimeOfDay)
}

// String returns a string representation of the transaction.
func (t *CanonicalTransaction) String() string {
	ts := t.Date.Format("2006-01-02")
	if t.HasTime {
		ts = t.Timestamp().Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("Transaction{row: %d, merchant: %q, amount: %s, time: %s}",
		t.SourceRowIndex, t.MerchantRaw, t.Amount.String(), ts)
}

// SkippedRow records a row that failed normalization. Skips are diagnostic,
// never fatal: the rest of the batch continues.
type SkippedRow struct {
	RowIndex int    `json:"row_index"`
	Raw      RawRow `json:"-"`
	Reason   string `json:"reason"`
}

// DuplicateGroup is a set of transactions suspected to be the same charge
// recorded more than once. Groups are produced once by the grouper and only
// annotated by the expected-pair filter, never restructured.
type DuplicateGroup struct {
	ID           string
	Transactions []*CanonicalTransaction // ordered by timestamp ascending
	Reason       string
	IsExpected   bool
	Verdict      Verdict
	Notes        string
}

// Size returns the number of member transactions.
func (g *DuplicateGroup) Size() int { return len(g.Transactions) }

// Earliest returns the timestamp of the first member.
func (g *DuplicateGroup) Earliest() time.Time {
	if len(g.Transactions) == 0 {
		return time.Time{}
	}
	return g.Transactions[0].Timestamp()
}

// Latest returns the timestamp of the last member.
func (g *DuplicateGroup) Latest() time.Time {
	if len(g.Transactions) == 0 {
		return time.Time{}
	}
	return g.Transactions[len(g.Transactions)-1].Timestamp()
}

// Amount returns the shared exact amount of the group's members.
func (g *DuplicateGroup) Amount() decimal.Decimal {
	if len(g.Transactions) == 0 {
		return decimal.Zero
	}
	return g.Transactions[0].Amount
}

// MerchantsExactMatch reports whether every member shares an identical
// normalized merchant string, as opposed to membership earned through the
// similarity threshold.
func (g *DuplicateGroup) MerchantsExactMatch() bool {
	if len(g.Transactions) == 0 {
		return false
	}
	first := g.Transactions[0].MerchantNorm
	for _, tx := range g.Transactions[1:] {
		if tx.MerchantNorm != first {
			return false
		}
	}
	return true
}

// TightestGapMinutes returns the smallest gap between adjacent members, in
// whole minutes.
func (g *DuplicateGroup) TightestGapMinutes() int {
	if len(g.Transactions) < 2 {
		return 0
	}
	tightest := time.Duration(-1)
	for i := 1; i < len(g.Transactions); i++ {
		gap := g.Transactions[i].Timestamp().Sub(g.Transactions[i-1].Timestamp())
		if tightest < 0 || gap < tightest {
			tightest = gap
		}
	}
	return int(tightest.Minutes())
}
