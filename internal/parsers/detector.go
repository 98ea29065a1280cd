package parsers

import (
	"fmt"
	"strings"
	"time"

	"duplicate-charge-detector/internal/models"
	"duplicate-charge-detector/pkg/errors"
	"duplicate-charge-detector/pkg/logger"
)

// parseDateStrict parses a date cell with the given layout and truncates the
// result to midnight UTC.
func parseDateStrict(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// DetectorConfig holds configuration for format detection.
type DetectorConfig struct {
	// SampleSize caps how many body rows are inspected during inference.
	SampleSize int `json:"sample_size"`

	// SignConvention optionally overrides sign auto-detection.
	SignConvention models.SignConvention `json:"sign_convention"`
}

// DefaultDetectorConfig returns a configuration with sensible defaults.
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		SampleSize:     20,
		SignConvention: models.SignAuto,
	}
}

// Validate checks the detector configuration.
func (c *DetectorConfig) Validate() error {
	if c.SampleSize <= 0 {
		return fmt.Errorf("sample size must be positive, got %d", c.SampleSize)
	}
	if !c.SignConvention.IsValid() {
		return fmt.Errorf("invalid sign convention: %q", c.SignConvention)
	}
	return nil
}

// FormatDetector infers a FormatProfile from a batch's header row and a
// sample of its body rows. Detection is a pure function of the input: it
// has no side effects and the resulting profile is immutable.
type FormatDetector struct {
	config *DetectorConfig
	logger logger.Logger
}

// NewFormatDetector creates a format detector.
func NewFormatDetector(config *DetectorConfig) (*FormatDetector, error) {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError("detector", err)
	}
	return &FormatDetector{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("format_detector"),
	}, nil
}

// merchantHeaderPriority lists merchant header candidates in priority order.
// Matching is case-insensitive and substring-based, so "Merchant Name" and
// "transaction description" both qualify.
var merchantHeaderPriority = []string{"name", "merchant", "description", "vendor"}

// amountHeaderTerms are accepted amount header substrings.
var amountHeaderTerms = []string{"amount", "total"}

// dateCandidate is one entry in the ordered list of date layouts tried
// during inference.
type dateCandidate struct {
	layout string
	iso    bool
}

var dateCandidates = []dateCandidate{
	{layout: "2006-01-02", iso: true},
	{layout: "01/02/2006"},
	{layout: "02/01/2006"},
	{layout: "2006/01/02"},
	{layout: "01-02-2006"},
	{layout: "02-01-2006"},
	{layout: "Jan 2, 2006"},
	{layout: "January 2, 2006"},
	{layout: "2 Jan 2006"},
	{layout: "2 January 2006"},
}

// Detect infers the format profile for a batch.
func (d *FormatDetector) Detect(batch *Batch) (*models.FormatProfile, error) {
	profile, err := d.mapColumns(batch.Headers)
	if err != nil {
		return nil, err
	}

	sample := batch.Rows
	if len(sample) > d.config.SampleSize {
		sample = sample[:d.config.SampleSize]
	}

	layout, err := d.inferDateLayout(columnValues(sample, profile.DateColumn))
	if err != nil {
		return nil, err
	}
	profile.DateLayout = layout

	separator, multiplier, err := d.inferAmountFormat(columnValues(sample, profile.AmountColumn))
	if err != nil {
		return nil, err
	}
	profile.DecimalSeparator = separator
	profile.SignMultiplier = multiplier

	switch d.config.SignConvention {
	case models.SignExpensesPositive:
		profile.SignMultiplier = 1
	case models.SignExpensesNegative:
		profile.SignMultiplier = -1
	}

	d.logger.WithFields(logger.Fields{
		"date_layout":     profile.DateLayout,
		"sign_multiplier": profile.SignMultiplier,
		"merchant_column": profile.MerchantName,
	}).Debug("Detected format profile")
	return profile, nil
}

// mapColumns matches headers against the per-field candidate lists.
func (d *FormatDetector) mapColumns(headers []string) (*models.FormatProfile, error) {
	profile := &models.FormatProfile{
		DateColumn:     -1,
		MerchantColumn: -1,
		AmountColumn:   -1,
		AccountColumn:  -1,
		TimeColumn:     -1,
	}

	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for i, h := range lowered {
		switch {
		case profile.DateColumn < 0 && strings.Contains(h, "date"):
			profile.DateColumn = i
			profile.DateColumnName = headers[i]
		case profile.AmountColumn < 0 && containsAny(h, amountHeaderTerms):
			profile.AmountColumn = i
			profile.AmountName = headers[i]
		case profile.AccountColumn < 0 && strings.Contains(h, "account"):
			profile.AccountColumn = i
		case profile.TimeColumn < 0 && strings.Contains(h, "time"):
			profile.TimeColumn = i
		}
	}

	// Merchant column follows the priority list, independent of header order.
	for _, term := range merchantHeaderPriority {
		for i, h := range lowered {
			if i == profile.DateColumn || i == profile.AmountColumn ||
				i == profile.AccountColumn || i == profile.TimeColumn {
				continue
			}
			if strings.Contains(h, term) {
				profile.MerchantColumn = i
				profile.MerchantName = headers[i]
				break
			}
		}
		if profile.MerchantColumn >= 0 {
			break
		}
	}
	// Fall back to the first column not claimed by another field.
	if profile.MerchantColumn < 0 {
		for i := range lowered {
			if i != profile.DateColumn && i != profile.AmountColumn &&
				i != profile.AccountColumn && i != profile.TimeColumn {
				profile.MerchantColumn = i
				profile.MerchantName = headers[i]
				break
			}
		}
	}

	if profile.DateColumn < 0 || profile.AmountColumn < 0 {
		var missing []string
		if profile.DateColumn < 0 {
			missing = append(missing, "date")
		}
		if profile.AmountColumn < 0 {
			missing = append(missing, "amount")
		}
		return nil, errors.FormatError(errors.KindMissingColumn,
			fmt.Sprintf("no header maps to required column(s): %s", strings.Join(missing, ", "))).
			WithContext("headers", headers)
	}
	if profile.MerchantColumn < 0 {
		return nil, errors.FormatError(errors.KindMissingColumn,
			"no header usable as the merchant/description column").
			WithContext("headers", headers)
	}
	return profile, nil
}

// inferDateLayout selects the date layout that parses the sample.
//
// A candidate is viable when it parses at least half of the non-empty
// sampled dates. ISO wins outright when viable. Otherwise a candidate that
// observed a day-of-month above 12 outranks candidates whose days all
// stayed at or below 12: a first segment above 12 is impossible as a month,
// so it forces the day-first reading for the whole batch.
func (d *FormatDetector) inferDateLayout(samples []string) (string, error) {
	if len(samples) == 0 {
		return "", errors.FormatError(errors.KindAmbiguousDateFormat,
			"no date values available in the sampled rows")
	}

	type candidateResult struct {
		layout    string
		iso       bool
		parsed    int
		dayOver12 bool
	}

	var viable []candidateResult
	for _, c := range dateCandidates {
		result := candidateResult{layout: c.layout, iso: c.iso}
		for _, s := range samples {
			t, err := parseDateStrict(c.layout, s)
			if err != nil {
				continue
			}
			result.parsed++
			if t.Day() > 12 {
				result.dayOver12 = true
			}
		}
		if result.parsed*2 >= len(samples) {
			viable = append(viable, result)
		}
	}

	if len(viable) == 0 {
		return "", errors.FormatError(errors.KindAmbiguousDateFormat,
			fmt.Sprintf("no date format candidate parses at least half of %d sampled dates", len(samples)))
	}

	for _, v := range viable {
		if v.iso {
			return v.layout, nil
		}
	}
	for _, v := range viable {
		if v.dayOver12 {
			return v.layout, nil
		}
	}
	return viable[0].layout, nil
}

// inferAmountFormat determines the decimal separator and the sign
// multiplier that normalizes amounts to the expense-positive convention.
func (d *FormatDetector) inferAmountFormat(samples []string) (rune, int, error) {
	nonEmpty := 0
	for _, s := range samples {
		if strings.TrimSpace(s) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return 0, 0, errors.FormatError(errors.KindAmountUnparseable,
			"no amount values available in the sampled rows")
	}

	separator := detectDecimalSeparator(samples)

	parsed, negatives := 0, 0
	for _, s := range samples {
		if strings.TrimSpace(s) == "" {
			continue
		}
		amount, err := models.ParseAmount(s, separator)
		if err != nil {
			continue
		}
		parsed++
		if amount.IsNegative() {
			negatives++
		}
	}

	if parsed*2 < nonEmpty {
		return 0, 0, errors.FormatError(errors.KindAmountUnparseable,
			fmt.Sprintf("only %d of %d sampled amount cells parse as numeric", parsed, nonEmpty))
	}

	// Most exports are dominated by expenses. When the majority of amounts
	// are negative (or parenthesized), the file encodes expenses as
	// negative and the multiplier flips them to the expense-positive
	// convention.
	multiplier := 1
	if negatives*2 > parsed {
		multiplier = -1
	}
	return separator, multiplier, nil
}

// detectDecimalSeparator picks ',' only when the sample looks like a
// comma-decimal locale: commas followed by a one- or two-digit tail, or a
// comma appearing after the last dot ("1.234,56").
func detectDecimalSeparator(samples []string) rune {
	commaVotes, dotVotes := 0, 0
	for _, s := range samples {
		s = strings.TrimSpace(s)
		lastComma := strings.LastIndexByte(s, ',')
		lastDot := strings.LastIndexByte(s, '.')
		switch {
		case lastComma < 0 && lastDot < 0:
		case lastDot > lastComma:
			dotVotes++
		case tailDigits(s, lastComma) != 3:
			// a non-3-digit tail after the final comma cannot be a
			// thousands group
			commaVotes++
		default:
			dotVotes++
		}
	}
	if commaVotes > dotVotes {
		return ','
	}
	return '.'
}

// tailDigits counts the digits following position i to the end of the cell.
func tailDigits(s string, i int) int {
	count := 0
	for _, r := range s[i+1:] {
		if r >= '0' && r <= '9' {
			count++
		} else {
			break
		}
	}
	return count
}

func columnValues(rows []models.RawRow, column int) []string {
	var values []string
	for _, row := range rows {
		if v := strings.TrimSpace(row.At(column)); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
