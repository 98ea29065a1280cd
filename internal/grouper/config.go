// Package grouper partitions canonical transactions into candidate
// duplicate groups using exact-amount equality, merchant similarity and a
// time-window constraint with chained (transitive) membership.
package grouper

import (
	"fmt"
	"time"
)

// Config holds the grouping tolerances.
type Config struct {
	// TimeWindow is the maximum timestamp delta between a transaction and
	// the latest member of an open group for the transaction to join it.
	TimeWindow time.Duration `json:"time_window"`

	// MerchantSimilarityThreshold is the minimum edit-distance ratio for
	// two normalized merchant strings to count as the same merchant.
	// Exact equality and substring containment always qualify.
	MerchantSimilarityThreshold float64 `json:"merchant_similarity_threshold"`
}

// DefaultConfig returns grouping defaults: a one-hour window and a 0.8
// similarity threshold.
func DefaultConfig() *Config {
	return &Config{
		TimeWindow:                  time.Hour,
		MerchantSimilarityThreshold: 0.8,
	}
}

// Validate checks the grouping configuration.
func (c *Config) Validate() error {
	if c.TimeWindow <= 0 {
		return fmt.Errorf("time window must be positive, got %s", c.TimeWindow)
	}
	if c.MerchantSimilarityThreshold <= 0 || c.MerchantSimilarityThreshold > 1 {
		return fmt.Errorf("merchant similarity threshold must be in (0, 1], got %f",
			c.MerchantSimilarityThreshold)
	}
	return nil
}

// SpansWholeDays reports whether the window is wide enough to group
// transactions that carry no clock time. Such transactions sit at
// start-of-day, so anything narrower than a day would compare fabricated
// zero offsets rather than real event times.
func (c *Config) SpansWholeDays() bool {
	return c.TimeWindow >= 24*time.Hour
}
