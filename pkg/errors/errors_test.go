package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		kind     Kind
		exitCode int
	}{
		{KindMissingColumn, 3},
		{KindAmbiguousDateFormat, 3},
		{KindAmountUnparseable, 3},
		{KindEmptyResult, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := FormatError(tt.kind, "boom")
			if err.Category != CategoryFormat {
				t.Errorf("Category = %q, want format", err.Category)
			}
			if err.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", err.Kind, tt.kind)
			}
			if !err.Fatal() {
				t.Error("format errors must be fatal")
			}
			if err.GetExitCode() != tt.exitCode {
				t.Errorf("GetExitCode() = %d, want %d", err.GetExitCode(), tt.exitCode)
			}
			if err.Suggestion == "" {
				t.Error("format errors should carry a suggestion")
			}
		})
	}
}

func TestRowErrorIsRecoverable(t *testing.T) {
	err := RowError(7, "bad cell", nil)
	if err.Fatal() {
		t.Error("row errors must be recoverable")
	}
	if err.Kind != KindRowParse {
		t.Errorf("Kind = %q, want %q", err.Kind, KindRowParse)
	}
	if err.Context["row_index"] != 7 {
		t.Errorf("row_index = %v, want 7", err.Context["row_index"])
	}
}

func TestConfigError(t *testing.T) {
	cause := fmt.Errorf("repeats must be positive")
	err := ConfigError("expected_pairs", cause)
	if err.Kind != KindConfigValidation {
		t.Errorf("Kind = %q", err.Kind)
	}
	if !err.Fatal() {
		t.Error("config errors must be fatal")
	}
	if err.GetExitCode() != 4 {
		t.Errorf("GetExitCode() = %d, want 4", err.GetExitCode())
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestFileErrorMessages(t *testing.T) {
	tests := []struct {
		kind    Kind
		snippet string
	}{
		{KindFileNotFound, "not found"},
		{KindFilePermission, "permission denied"},
		{KindFileUnreadable, "cannot read"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := FileError(tt.kind, "/tmp/input.csv", nil)
			if !strings.Contains(err.Message, tt.snippet) {
				t.Errorf("Message = %q, want substring %q", err.Message, tt.snippet)
			}
			if err.Context["file_path"] != "/tmp/input.csv" {
				t.Errorf("file_path context = %v", err.Context["file_path"])
			}
			if err.GetExitCode() != 2 {
				t.Errorf("GetExitCode() = %d, want 2", err.GetExitCode())
			}
		})
	}
}

func TestErrorStringIncludesSuggestion(t *testing.T) {
	err := New(CategoryFormat, KindMissingColumn, "no date column").
		WithSuggestion("add a header row")
	if !strings.Contains(err.Error(), "no date column") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !strings.Contains(err.Error(), "add a header row") {
		t.Errorf("Error() = %q, want suggestion included", err.Error())
	}
}

func TestAsEngineError(t *testing.T) {
	engineErr := New(CategoryRow, KindRowParse, "bad row")
	wrapped := fmt.Errorf("outer: %w", engineErr)

	got, ok := AsEngineError(wrapped)
	if !ok || got != engineErr {
		t.Error("AsEngineError failed to unwrap the chain")
	}

	if _, ok := AsEngineError(fmt.Errorf("plain")); ok {
		t.Error("AsEngineError matched a plain error")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	engineErr := New(CategoryConfig, KindConfigValidation, "bad rule")
	if got := WrapIfNeeded(engineErr, CategoryInternal, KindUnexpected, "ignored"); got != engineErr {
		t.Error("WrapIfNeeded should pass an existing EngineError through")
	}

	plain := fmt.Errorf("plain")
	got := WrapIfNeeded(plain, CategoryInternal, KindUnexpected, "wrapped")
	if got.Kind != KindUnexpected || got.Cause != plain {
		t.Errorf("WrapIfNeeded = %+v", got)
	}

	if WrapIfNeeded(nil, CategoryInternal, KindUnexpected, "x") != nil {
		t.Error("WrapIfNeeded(nil) should be nil")
	}
}

func TestRowErrorList(t *testing.T) {
	var list RowErrorList
	list.Add(RowError(0, "first", nil))
	list.Add(nil)
	list.Add(RowError(2, "second", nil))

	if len(list.Errors) != 2 {
		t.Errorf("len = %d, want 2", len(list.Errors))
	}
}
