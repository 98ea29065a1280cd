package parsers

import (
	"strings"
	"testing"

	"duplicate-charge-detector/internal/models"
	"duplicate-charge-detector/pkg/errors"
)

func batchFromCSV(t *testing.T, input string) *Batch {
	t.Helper()
	batch, err := ReadBatch(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("ReadBatch failed: %v", err)
	}
	return batch
}

func detect(t *testing.T, input string) *models.FormatProfile {
	t.Helper()
	detector, err := NewFormatDetector(nil)
	if err != nil {
		t.Fatalf("NewFormatDetector failed: %v", err)
	}
	profile, err := detector.Detect(batchFromCSV(t, input))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	return profile
}

func detectErr(t *testing.T, input string) *errors.EngineError {
	t.Helper()
	detector, err := NewFormatDetector(nil)
	if err != nil {
		t.Fatalf("NewFormatDetector failed: %v", err)
	}
	_, err = detector.Detect(batchFromCSV(t, input))
	if err == nil {
		t.Fatal("Detect succeeded, expected error")
	}
	engineErr, ok := errors.AsEngineError(err)
	if !ok {
		t.Fatalf("Detect returned non-engine error: %v", err)
	}
	return engineErr
}

func TestDetectColumnMapping(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		dateColumn   int
		merchantName string
		amountName   string
	}{
		{
			name: "standard headers",
			input: "Date,Description,Amount\n" +
				"2025-01-02,COFFEE,5.75\n",
			dateColumn:   0,
			merchantName: "Description",
			amountName:   "Amount",
		},
		{
			name: "substring and mixed-case headers",
			input: "Transaction Date,Merchant Name,Total Charged\n" +
				"2025-01-02,COFFEE,5.75\n",
			dateColumn:   0,
			merchantName: "Merchant Name",
			amountName:   "Total Charged",
		},
		{
			name: "name outranks description",
			input: "date,details description,cardholder name,amount\n" +
				"2025-01-02,card payment,COFFEE,5.75\n",
			dateColumn:   0,
			merchantName: "cardholder name",
			amountName:   "amount",
		},
		{
			name: "fallback to unclaimed column",
			input: "Posted Date,Details,Amount\n" +
				"2025-01-02,COFFEE,5.75\n",
			dateColumn:   0,
			merchantName: "Details",
			amountName:   "Amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := detect(t, tt.input)
			if profile.DateColumn != tt.dateColumn {
				t.Errorf("DateColumn = %d, want %d", profile.DateColumn, tt.dateColumn)
			}
			if profile.MerchantName != tt.merchantName {
				t.Errorf("MerchantName = %q, want %q", profile.MerchantName, tt.merchantName)
			}
			if profile.AmountName != tt.amountName {
				t.Errorf("AmountName = %q, want %q", profile.AmountName, tt.amountName)
			}
		})
	}
}

func TestDetectOptionalColumns(t *testing.T) {
	profile := detect(t, "Date,Description,Amount,Account,Time\n"+
		"2025-01-02,COFFEE,5.75,Chase,09:00\n")
	if !profile.HasAccount() {
		t.Error("HasAccount() = false, want true")
	}
	if !profile.HasTime() {
		t.Error("HasTime() = false, want true")
	}

	profile = detect(t, "Date,Description,Amount\n2025-01-02,COFFEE,5.75\n")
	if profile.HasAccount() || profile.HasTime() {
		t.Error("optional columns detected where none exist")
	}
}

func TestDetectMissingColumn(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no date header", "Description,Amount\nCOFFEE,5.75\n"},
		{"no amount header", "Date,Description\n2025-01-02,COFFEE\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engineErr := detectErr(t, tt.input)
			if engineErr.Kind != errors.KindMissingColumn {
				t.Errorf("Kind = %q, want %q", engineErr.Kind, errors.KindMissingColumn)
			}
			if !engineErr.Fatal() {
				t.Error("MissingColumn should be fatal")
			}
		})
	}
}

func TestDetectDateLayout(t *testing.T) {
	tests := []struct {
		name   string
		rows   []string
		layout string
	}{
		{
			name:   "iso preferred",
			rows:   []string{"2025-01-02", "2025-01-05", "2025-02-10"},
			layout: "2006-01-02",
		},
		{
			name: "day over 12 forces day-first",
			// 13 and 27 cannot be months, so MM/DD is not viable.
			rows:   []string{"13/01/2025", "27/01/2025", "05/02/2025"},
			layout: "02/01/2006",
		},
		{
			name:   "ambiguous defaults to month-first",
			rows:   []string{"01/02/2025", "03/04/2025"},
			layout: "01/02/2006",
		},
		{
			name:   "textual month",
			rows:   []string{"Jan 2, 2025", "Feb 10, 2025"},
			layout: "Jan 2, 2006",
		},
		{
			name:   "dashed day-first",
			rows:   []string{"25-12-2025", "26-12-2025"},
			layout: "02-01-2006",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			sb.WriteString("Date,Description,Amount\n")
			for _, d := range tt.rows {
				sb.WriteString("\"" + d + "\",COFFEE,5.75\n")
			}
			profile := detect(t, sb.String())
			if profile.DateLayout != tt.layout {
				t.Errorf("DateLayout = %q, want %q", profile.DateLayout, tt.layout)
			}
		})
	}
}

func TestDetectAmbiguousDateFormat(t *testing.T) {
	engineErr := detectErr(t, "Date,Description,Amount\n"+
		"02.01.2025,COFFEE,5.75\n"+
		"03.01.2025,COFFEE,5.75\n")
	if engineErr.Kind != errors.KindAmbiguousDateFormat {
		t.Errorf("Kind = %q, want %q", engineErr.Kind, errors.KindAmbiguousDateFormat)
	}
}

func TestDetectMixedDatesBelowThreshold(t *testing.T) {
	// Only one of three rows parses with any candidate; below the 50%
	// viability threshold the batch is rejected rather than guessed at.
	engineErr := detectErr(t, "Date,Description,Amount\n"+
		"2025-01-02,COFFEE,5.75\n"+
		"last tuesday,COFFEE,5.75\n"+
		"soon,COFFEE,5.75\n")
	if engineErr.Kind != errors.KindAmbiguousDateFormat {
		t.Errorf("Kind = %q, want %q", engineErr.Kind, errors.KindAmbiguousDateFormat)
	}
}

func TestDetectSignConvention(t *testing.T) {
	tests := []struct {
		name       string
		amounts    []string
		convention models.SignConvention
		multiplier int
	}{
		{
			name:       "expenses positive majority",
			amounts:    []string{"5.75", "42.10", "-20.00"},
			convention: models.SignAuto,
			multiplier: 1,
		},
		{
			name:       "expenses negative majority",
			amounts:    []string{"-5.75", "-42.10", "1500.00"},
			convention: models.SignAuto,
			multiplier: -1,
		},
		{
			name:       "parenthesized majority",
			amounts:    []string{"(5.75)", "(42.10)", "1500.00"},
			convention: models.SignAuto,
			multiplier: -1,
		},
		{
			name:       "override expenses_positive",
			amounts:    []string{"-5.75", "-42.10"},
			convention: models.SignExpensesPositive,
			multiplier: 1,
		},
		{
			name:       "override expenses_negative",
			amounts:    []string{"5.75", "42.10"},
			convention: models.SignExpensesNegative,
			multiplier: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			sb.WriteString("Date,Description,Amount\n")
			for _, a := range tt.amounts {
				sb.WriteString("2025-01-02,COFFEE,\"" + a + "\"\n")
			}
			detector, err := NewFormatDetector(&DetectorConfig{
				SampleSize:     20,
				SignConvention: tt.convention,
			})
			if err != nil {
				t.Fatalf("NewFormatDetector failed: %v", err)
			}
			profile, err := detector.Detect(batchFromCSV(t, sb.String()))
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if profile.SignMultiplier != tt.multiplier {
				t.Errorf("SignMultiplier = %d, want %d", profile.SignMultiplier, tt.multiplier)
			}
		})
	}
}

func TestDetectDecimalSeparator(t *testing.T) {
	profile := detect(t, "Date,Description,Amount\n"+
		"2025-01-02,COFFEE,\"1.234,56\"\n"+
		"2025-01-03,COFFEE,\"12,50\"\n")
	if profile.DecimalSeparator != ',' {
		t.Errorf("DecimalSeparator = %q, want ','", profile.DecimalSeparator)
	}

	profile = detect(t, "Date,Description,Amount\n"+
		"2025-01-02,COFFEE,\"1,234.56\"\n"+
		"2025-01-03,COFFEE,12.50\n")
	if profile.DecimalSeparator != '.' {
		t.Errorf("DecimalSeparator = %q, want '.'", profile.DecimalSeparator)
	}
}

func TestDetectAmountUnparseable(t *testing.T) {
	engineErr := detectErr(t, "Date,Description,Amount\n"+
		"2025-01-02,COFFEE,five dollars\n"+
		"2025-01-03,COFFEE,a lot\n"+
		"2025-01-04,COFFEE,5.75\n")
	if engineErr.Kind != errors.KindAmountUnparseable {
		t.Errorf("Kind = %q, want %q", engineErr.Kind, errors.KindAmountUnparseable)
	}
}

func TestDetectSampleSizeCap(t *testing.T) {
	// Rows beyond the sample must not influence inference: the garbage
	// amounts after the cap would otherwise fail detection.
	var sb strings.Builder
	sb.WriteString("Date,Description,Amount\n")
	for i := 0; i < 5; i++ {
		sb.WriteString("2025-01-02,COFFEE,5.75\n")
	}
	for i := 0; i < 20; i++ {
		sb.WriteString("2025-01-03,COFFEE,garbage\n")
	}

	detector, err := NewFormatDetector(&DetectorConfig{SampleSize: 5, SignConvention: models.SignAuto})
	if err != nil {
		t.Fatalf("NewFormatDetector failed: %v", err)
	}
	profile, err := detector.Detect(batchFromCSV(t, sb.String()))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if profile.DateLayout != "2006-01-02" {
		t.Errorf("DateLayout = %q, want ISO", profile.DateLayout)
	}
}

func TestDetectorConfigValidation(t *testing.T) {
	if _, err := NewFormatDetector(&DetectorConfig{SampleSize: 0, SignConvention: models.SignAuto}); err == nil {
		t.Error("expected error for zero sample size")
	}
	if _, err := NewFormatDetector(&DetectorConfig{SampleSize: 10, SignConvention: "sometimes"}); err == nil {
		t.Error("expected error for invalid sign convention")
	}
}
