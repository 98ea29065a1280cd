package parsers

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"duplicate-charge-detector/internal/models"
	"duplicate-charge-detector/pkg/errors"
	"duplicate-charge-detector/pkg/logger"
)

// statementLine matches one transaction line of the plain-text statement
// export format:
//
//	Date: 2024-01-01, Name: COFFEE SHOP, Amount: $-3.50[, Account: Chase]
//
// Banner and summary lines around the transactions do not match and are
// ignored.
var statementLine = regexp.MustCompile(
	`^Date:\s*(?P<date>[^,]+),\s*Name:\s*(?P<name>.+?),\s*Amount:\s*(?P<amount>[^,]+?)(?:,\s*Account:\s*(?P<account>.+?))?\s*$`)

// statementHeaders is the synthesized header row for statement batches.
var statementHeaders = []string{"Date", "Name", "Amount", "Account"}

// ReadStatement converts a plain-text statement export into a Batch with
// synthesized Date/Name/Amount/Account headers, so the same detection and
// normalization pipeline handles both input formats.
func ReadStatement(r io.Reader) (*Batch, error) {
	log := logger.GetGlobalLogger().WithComponent("statement_reader")

	batch := &Batch{Headers: statementHeaders}
	scanner := bufio.NewScanner(r)
	lines := 0
	for scanner.Scan() {
		lines++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m := statementLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		batch.Rows = append(batch.Rows, models.RawRow{
			Index:   len(batch.Rows),
			Headers: statementHeaders,
			Values: []string{
				strings.TrimSpace(m[1]),
				strings.TrimSpace(m[2]),
				strings.TrimSpace(m[3]),
				strings.TrimSpace(m[4]),
			},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryFile, errors.KindFileUnreadable,
			"unable to read statement text")
	}

	if len(batch.Rows) == 0 {
		return nil, errors.FormatError(errors.KindEmptyResult,
			"statement text contains no transaction lines")
	}

	log.WithFields(logger.Fields{
		"lines":        lines,
		"transactions": len(batch.Rows),
	}).Debug("Read statement batch")
	return batch, nil
}

// ReadStatementFile reads a plain-text statement export file into a Batch.
func ReadStatementFile(path string) (*Batch, error) {
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
	return ReadStatement(file)
}
