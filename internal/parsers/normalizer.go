package parsers

import (
	"fmt"
	"strings"

	"duplicate-charge-detector/internal/models"
	"duplicate-charge-detector/pkg/errors"
	"duplicate-charge-detector/pkg/logger"
)

// RecordNormalizer applies a detected FormatProfile to every row of a
// batch, producing canonical transactions. Rows that fail to parse are
// recorded as skipped and never abort the batch.
type RecordNormalizer struct {
	profile *models.FormatProfile
	logger  logger.Logger
}

// NewRecordNormalizer creates a normalizer bound to an immutable profile.
func NewRecordNormalizer(profile *models.FormatProfile) (*RecordNormalizer, error) {
	if profile == nil {
		return nil, errors.InternalError("normalizer creation",
			fmt.Errorf("format profile is required"))
	}
	return &RecordNormalizer{
		profile: profile,
		logger:  logger.GetGlobalLogger().WithComponent("record_normalizer"),
	}, nil
}

// NormalizeResult holds the canonical transactions (in original row order)
// and the diagnostics for every row that could not be parsed.
type NormalizeResult struct {
	Transactions []*models.CanonicalTransaction
	Skipped      []models.SkippedRow
}

// Normalize converts every row of the batch. It fails with EmptyResult only
// when a non-empty input produced no canonical transactions at all.
func (n *RecordNormalizer) Normalize(batch *Batch) (*NormalizeResult, error) {
	result := &NormalizeResult{}

	for _, row := range batch.Rows {
		tx, reason := n.normalizeRow(row)
		if tx == nil {
			result.Skipped = append(result.Skipped, models.SkippedRow{
				RowIndex: row.Index,
				Raw:      row,
				Reason:   reason,
			})
			n.logger.WithFields(logger.Fields{
				"row_index": row.Index,
				"reason":    reason,
			}).Debug("Skipped row")
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}

	if len(batch.Rows) > 0 && len(result.Transactions) == 0 {
		return nil, errors.FormatError(errors.KindEmptyResult,
			fmt.Sprintf("all %d rows failed to parse", len(batch.Rows))).
			WithContext("skipped_rows", len(result.Skipped))
	}

	n.logger.WithFields(logger.Fields{
		"transactions": len(result.Transactions),
		"skipped":      len(result.Skipped),
	}).Info("Normalized batch")
	return result, nil
}

// normalizeRow converts one row, returning a nil transaction and a skip
// reason on failure.
func (n *RecordNormalizer) normalizeRow(row models.RawRow) (*models.CanonicalTransaction, string) {
	dateCell := strings.TrimSpace(row.At(n.profile.DateColumn))
	if dateCell == "" {
		return nil, "empty date cell"
	}
	date, err := parseDateStrict(n.profile.DateLayout, dateCell)
	if err != nil {
		return nil, fmt.Sprintf("date %q does not match detected format %s", dateCell, n.profile.DateLayout)
	}

	amountCell := strings.TrimSpace(row.At(n.profile.AmountColumn))
	if amountCell == "" {
		return nil, "empty amount cell"
	}
	amount, err := models.ParseAmount(amountCell, n.profile.DecimalSeparator)
	if err != nil {
		return nil, fmt.Sprintf("amount %q is not numeric", amountCell)
	}
	if n.profile.SignMultiplier < 0 {
		amount = amount.Neg()
	}

	merchantRaw := strings.TrimSpace(row.At(n.profile.MerchantColumn))
	if merchantRaw == "" {
		merchantRaw = "Unknown"
	}

	tx := &models.CanonicalTransaction{
		SourceRowIndex: row.Index,
		Date:           date,
		MerchantRaw:    merchantRaw,
		MerchantNorm:   models.NormalizeMerchant(merchantRaw),
		Amount:         amount,
		Raw:            row,
	}

	if n.profile.HasAccount() {
		tx.Account = strings.TrimSpace(row.At(n.profile.AccountColumn))
	}
	if n.profile.HasTime() {
		timeCell := strings.TrimSpace(row.At(n.profile.TimeColumn))
		if timeCell != "" {
			offset, err := models.ParseClockTime(timeCell)
			if err != nil {
				// A bad clock time degrades to a date-only transaction
				// rather than losing the row.
				n.logger.WithFields(logger.Fields{
					"row_index": row.Index,
					"time_cell": timeCell,
				}).Debug("Unparseable time cell, keeping date-only timestamp")
			} else {
				tx.TimeOfDay = offset
				tx.HasTime = true
			}
		}
	}

	return tx, ""
}
