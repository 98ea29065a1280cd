package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("invalid test date %q: %v", value, err)
	}
	return d.UTC()
}

func TestRawRowAccessors(t *testing.T) {
	row := RawRow{
		Index:   3,
		Headers: []string{"Date", "Description", "Amount"},
		Values:  []string{"2025-01-02", "COFFEE", "5.75"},
	}

	if got := row.Get("description"); got != "COFFEE" {
		t.Errorf("Get(description) = %q, want COFFEE", got)
	}
	if got := row.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
	if got := row.At(2); got != "5.75" {
		t.Errorf("At(2) = %q, want 5.75", got)
	}
	if got := row.At(9); got != "" {
		t.Errorf("At(9) = %q, want empty", got)
	}

	fields := row.Fields()
	if len(fields) != 3 || fields["Amount"] != "5.75" {
		t.Errorf("Fields() = %v", fields)
	}
}

func TestRawRowShorterThanHeader(t *testing.T) {
	row := RawRow{
		Headers: []string{"Date", "Description", "Amount"},
		Values:  []string{"2025-01-02"},
	}
	if got := row.At(2); got != "" {
		t.Errorf("At(2) on short row = %q, want empty", got)
	}
	if fields := row.Fields(); len(fields) != 1 {
		t.Errorf("Fields() on short row = %v, want 1 entry", fields)
	}
}

func TestTransactionTimestamp(t *testing.T) {
	tx := &CanonicalTransaction{
		Date:      mustDate(t, "2025-03-01"),
		TimeOfDay: 9*time.Hour + 30*time.Minute,
		HasTime:   true,
	}
	want := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	if got := tx.Timestamp(); !got.Equal(want) {
		t.Errorf("Timestamp() = %v, want %v", got, want)
	}

	dateOnly := &CanonicalTransaction{Date: mustDate(t, "2025-03-01")}
	if got := dateOnly.Timestamp(); !got.Equal(mustDate(t, "2025-03-01")) {
		t.Errorf("date-only Timestamp() = %v, want start of day", got)
	}
}

func TestGroupHelpers(t *testing.T) {
	amount := decimal.RequireFromString("5.75")
	group := &DuplicateGroup{
		Transactions: []*CanonicalTransaction{
			{Date: mustDate(t, "2025-03-01"), TimeOfDay: 9 * time.Hour, HasTime: true, MerchantNorm: "starbucks", Amount: amount},
			{Date: mustDate(t, "2025-03-01"), TimeOfDay: 9*time.Hour + 3*time.Minute, HasTime: true, MerchantNorm: "starbucks", Amount: amount},
			{Date: mustDate(t, "2025-03-01"), TimeOfDay: 10 * time.Hour, HasTime: true, MerchantNorm: "starbucks", Amount: amount},
		},
	}

	if group.Size() != 3 {
		t.Errorf("Size() = %d, want 3", group.Size())
	}
	if !group.Amount().Equal(amount) {
		t.Errorf("Amount() = %s, want %s", group.Amount(), amount)
	}
	if !group.MerchantsExactMatch() {
		t.Error("MerchantsExactMatch() = false, want true")
	}
	if got := group.TightestGapMinutes(); got != 3 {
		t.Errorf("TightestGapMinutes() = %d, want 3", got)
	}
	if !group.Earliest().Before(group.Latest()) {
		t.Error("Earliest() should precede Latest()")
	}

	group.Transactions[2].MerchantNorm = "starbucks store"
	if group.MerchantsExactMatch() {
		t.Error("MerchantsExactMatch() = true after divergence, want false")
	}
}

func TestVerdictJSON(t *testing.T) {
	tests := []struct {
		verdict  Verdict
		expected string
	}{
		{VerdictLikelyDuplicate, `true`},
		{VerdictNotDuplicate, `false`},
		{VerdictUndecided, `"undecided"`},
	}

	for _, tt := range tests {
		t.Run(string(tt.verdict), func(t *testing.T) {
			data, err := json.Marshal(tt.verdict)
			if err != nil {
				t.Fatalf("Marshal(%q) error: %v", tt.verdict, err)
			}
			if string(data) != tt.expected {
				t.Errorf("Marshal(%q) = %s, want %s", tt.verdict, data, tt.expected)
			}

			var back Verdict
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", data, err)
			}
			if back != tt.verdict {
				t.Errorf("round trip = %q, want %q", back, tt.verdict)
			}
		})
	}
}

func TestVerdictJSONInvalid(t *testing.T) {
	if _, err := json.Marshal(Verdict("maybe")); err == nil {
		t.Error("expected error marshaling invalid verdict")
	}
	var v Verdict
	if err := json.Unmarshal([]byte(`"maybe"`), &v); err == nil {
		t.Error("expected error unmarshaling invalid verdict")
	}
}
