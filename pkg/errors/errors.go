// Package errors defines the error taxonomy for the duplicate-charge
// detection engine.
//
// Errors are divided into fatal and recoverable kinds. Fatal errors (a
// missing column, an undetectable date format, unparseable amounts, an empty
// result, invalid rule configuration) abort an analysis run and surface as a
// single report error entry. Recoverable errors (a single malformed row) are
// aggregated into the skipped-rows list and never abort the batch.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Category groups errors by the stage of the pipeline that produced them.
type Category string

const (
	CategoryFile     Category = "file"
	CategoryFormat   Category = "format"
	CategoryRow      Category = "row"
	CategoryConfig   Category = "config"
	CategoryInternal Category = "internal"
)

// Kind identifies the specific failure within a category. The kind string is
// what appears in the report's errors list.
type Kind string

const (
	// Format errors (fatal)
	KindMissingColumn       Kind = "MissingColumn"
	KindAmbiguousDateFormat Kind = "AmbiguousOrNoDateFormat"
	KindAmountUnparseable   Kind = "AmountUnparseable"
	KindEmptyResult         Kind = "EmptyResult"

	// Row errors (recoverable)
	KindRowParse Kind = "RowParseError"

	// Configuration errors (fatal)
	KindConfigValidation Kind = "ConfigValidationError"

	// File errors (fatal)
	KindFileNotFound   Kind = "FileNotFound"
	KindFilePermission Kind = "FilePermission"
	KindFileUnreadable Kind = "FileUnreadable"

	// Internal errors (fatal)
	KindUnexpected Kind = "UnexpectedError"
)

// Context carries additional key/value information about an error.
type Context map[string]interface{}

// EngineError is the error type produced by every stage of the engine.
type EngineError struct {
	Category   Category          `json:"category"`
	Kind       Kind              `json:"kind"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Fatal reports whether the error aborts the analysis run. Only row-level
// parse errors are recoverable.
func (e *EngineError) Fatal() bool {
	return e.Kind != KindRowParse
}

// GetExitCode returns an appropriate process exit code for the error.
func (e *EngineError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryFormat, CategoryRow:
		return 3
	case CategoryConfig:
		return 4
	case CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds a key/value pair to the error context.
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a hint for fixing the error.
func (e *EngineError) WithSuggestion(suggestion string) *EngineError {
	e.Suggestion = suggestion
	return e
}

// New creates a new EngineError.
func New(category Category, kind Kind, message string) *EngineError {
	return &EngineError{
		Category:   category,
		Kind:       kind,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with engine error context.
func Wrap(err error, category Category, kind Kind, message string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Kind:       kind,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// FormatError creates a fatal format-detection error.
func FormatError(kind Kind, message string) *EngineError {
	e := New(CategoryFormat, kind, message)
	switch kind {
	case KindMissingColumn:
		e.Suggestion = "ensure the file has a header row with date and amount columns"
	case KindAmbiguousDateFormat:
		e.Suggestion = "use a consistent date format such as YYYY-MM-DD for every row"
	case KindAmountUnparseable:
		e.Suggestion = "amounts must be numeric, optionally with a currency symbol and thousands separators"
	case KindEmptyResult:
		e.Suggestion = "check the skipped-rows diagnostics: every row failed to parse"
	}
	return e
}

// RowError creates a recoverable row-level parse error.
func RowError(rowIndex int, reason string, cause error) *EngineError {
	var e *EngineError
	if cause != nil {
		e = Wrap(cause, CategoryRow, KindRowParse, reason)
	} else {
		e = New(CategoryRow, KindRowParse, reason)
	}
	return e.WithContext("row_index", rowIndex)
}

// ConfigError creates a fatal configuration validation error.
func ConfigError(setting string, cause error) *EngineError {
	message := fmt.Sprintf("invalid configuration for %s", setting)
	var e *EngineError
	if cause != nil {
		e = Wrap(cause, CategoryConfig, KindConfigValidation, message)
	} else {
		e = New(CategoryConfig, KindConfigValidation, message)
	}
	return e.
		WithSuggestion("check the rule windows, repeat counts and engine tolerances").
		WithContext("setting", setting)
}

// FileError creates a file access error.
func FileError(kind Kind, path string, cause error) *EngineError {
	var message, suggestion string
	switch kind {
	case KindFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check that the file path is correct and the file exists"
	case KindFilePermission:
		message = fmt.Sprintf("permission denied reading file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	default:
		message = fmt.Sprintf("cannot read file: %s", path)
		suggestion = "verify the file is a readable text file"
	}
	var e *EngineError
	if cause != nil {
		e = Wrap(cause, CategoryFile, kind, message)
	} else {
		e = New(CategoryFile, kind, message)
	}
	return e.WithSuggestion(suggestion).WithContext("file_path", path)
}

// InternalError creates an internal error for unexpected conditions.
func InternalError(operation string, cause error) *EngineError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	var e *EngineError
	if cause != nil {
		e = Wrap(cause, CategoryInternal, KindUnexpected, message)
	} else {
		e = New(CategoryInternal, KindUnexpected, message)
	}
	return e.WithContext("operation", operation)
}

// IsEngineError checks if an error is an EngineError.
func IsEngineError(err error) bool {
	_, ok := err.(*EngineError)
	return ok
}

// AsEngineError extracts an EngineError from an error chain.
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error unless it already is an EngineError.
func WrapIfNeeded(err error, category Category, kind Kind, message string) *EngineError {
	if err == nil {
		return nil
	}
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr
	}
	return Wrap(err, category, kind, message)
}

// RowErrorList aggregates recoverable row errors collected during
// normalization.
type RowErrorList struct {
	Errors []*EngineError
}

// Add appends a row error to the list.
func (l *RowErrorList) Add(err *EngineError) {
	if err != nil {
		l.Errors = append(l.Errors, err)
	}
}

// HasErrors returns true if any errors were collected.
func (l *RowErrorList) HasErrors() bool {
	return len(l.Errors) > 0
}

// Error returns a formatted summary of the collected errors.
func (l *RowErrorList) Error() string {
	switch len(l.Errors) {
	case 0:
		return "no errors"
	case 1:
		return l.Errors[0].Error()
	}
	counts := make(map[Kind]int)
	for _, err := range l.Errors {
		counts[err.Kind]++
	}
	var parts []string
	for kind, count := range counts {
		parts = append(parts, fmt.Sprintf("%s: %d", kind, count))
	}
	return fmt.Sprintf("%d row errors occurred (%s)", len(l.Errors), strings.Join(parts, ", "))
}
