// Package parsers turns raw tabular exports into canonical transactions.
//
// The pipeline is: read a Batch (header plus verbatim rows), detect its
// FormatProfile from the header and a row sample, then normalize every row
// against the profile. Row-level failures are collected as skipped rows and
// never abort the batch; only structural problems (no usable date or amount
// column, no viable date format, unparseable amounts, an empty result) are
// fatal.
//
// Two inputs are supported: delimited text (CSV) and the plain-text
// statement export format (one "Date: ..., Name: ..., Amount: ..." line per
// transaction).
package parsers

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"duplicate-charge-detector/internal/models"
	"duplicate-charge-detector/pkg/errors"
	"duplicate-charge-detector/pkg/logger"
)

// ParseConfig holds configuration for reading delimited input.
type ParseConfig struct {
	Delimiter        rune `json:"delimiter"`
	TrimLeadingSpace bool `json:"trim_leading_space"`
	SkipEmptyRows    bool `json:"skip_empty_rows"`
}

// DefaultParseConfig returns a configuration with sensible defaults.
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
	}
}

// Batch is a fully read input: the header row plus every body row verbatim.
// All engine inputs are supplied in full before processing starts.
type Batch struct {
	Headers []string
	Rows    []models.RawRow
}

// Size returns the number of body rows in the batch.
func (b *Batch) Size() int { return len(b.Rows) }

// ReadBatch reads delimited text into a Batch. The first record is the
// header row; body rows are preserved verbatim, indexed from zero.
func ReadBatch(r io.Reader, config *ParseConfig) (*Batch, error) {
	if config == nil {
		config = DefaultParseConfig()
	}
	log := logger.GetGlobalLogger().WithComponent("batch_reader")

	reader := csv.NewReader(r)
	reader.Comma = config.Delimiter
	reader.TrimLeadingSpace = config.TrimLeadingSpace
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, errors.FormatError(errors.KindMissingColumn,
			"input is empty: no header row found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryFormat, errors.KindMissingColumn,
			"unable to read header row")
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	batch := &Batch{Headers: headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed CSV lines are structural, not row-level: the
			// reader cannot reliably resynchronize after them.
			return nil, errors.Wrap(err, errors.CategoryFormat, errors.KindMissingColumn,
				"unable to read input rows")
		}
		if config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}
		batch.Rows = append(batch.Rows, models.RawRow{
			Index:   len(batch.Rows),
			Headers: headers,
			Values:  record,
		})
	}

	log.WithFields(logger.Fields{
		"headers": len(batch.Headers),
		"rows":    len(batch.Rows),
	}).Debug("Read input batch")
	return batch, nil
}

// ReadBatchFile reads a delimited file into a Batch.
func ReadBatchFile(path string, config *ParseConfig) (*Batch, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.KindFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.KindFilePermission, path, err)
		}
		return nil, errors.FileError(errors.KindFileUnreadable, path, err)
	}
	defer file.Close()
	return ReadBatch(file, config)
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
