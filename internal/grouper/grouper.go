package grouper

import (
	"sort"

	"duplicate-charge-detector/internal/models"
	"duplicate-charge-detector/pkg/errors"
	"duplicate-charge-detector/pkg/logger"

	"github.com/google/uuid"
)

// Grouper builds candidate duplicate groups.
//
// Membership is chained, not pairwise-exhaustive: if A and B are within the
// window and B and C are within the window, all three join one group even
// when A and C individually exceed it. This favors recall for legitimate
// billing clusters (three quick retries of the same charge) at the cost of
// occasionally grouping transactions that are individually far apart. The
// trade-off is deliberate.
type Grouper struct {
	config *Config
	logger logger.Logger
}

// New creates a grouper with the given configuration.
func New(config *Config) (*Grouper, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError("grouper", err)
	}
	return &Grouper{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("grouper"),
	}, nil
}

// Group partitions transactions into candidate duplicate groups of size two
// or more, ordered by each group's earliest timestamp. Reason and verdict
// fields are left for the expected-pair filter; a transaction belongs to at
// most one group.
func (g *Grouper) Group(transactions []*models.CanonicalTransaction) []*models.DuplicateGroup {
	if len(transactions) < 2 {
		return nil
	}

	sorted := make([]*models.CanonicalTransaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if cmp := sorted[i].Amount.Cmp(sorted[j].Amount); cmp != 0 {
			return cmp < 0
		}
		ti, tj := sorted[i].Timestamp(), sorted[j].Timestamp()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return sorted[i].SourceRowIndex < sorted[j].SourceRowIndex
	})

	var groups []*models.DuplicateGroup
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || !sorted[i].Amount.Equal(sorted[start].Amount) {
			groups = append(groups, g.groupBucket(sorted[start:i])...)
			start = i
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		ei, ej := groups[i].Earliest(), groups[j].Earliest()
		if !ei.Equal(ej) {
			return ei.Before(ej)
		}
		return groups[i].Transactions[0].SourceRowIndex < groups[j].Transactions[0].SourceRowIndex
	})

	g.logger.WithFields(logger.Fields{
		"transactions": len(transactions),
		"groups":       len(groups),
	}).Info("Built candidate duplicate groups")
	return groups
}

// groupBucket scans one exact-amount bucket in timestamp order. A
// transaction joins the most recently opened group when it is within the
// window of that group's latest member and its merchant matches at least
// one existing member; otherwise it opens a new group.
func (g *Grouper) groupBucket(bucket []*models.CanonicalTransaction) []*models.DuplicateGroup {
	var open [][]*models.CanonicalTransaction

	for _, tx := range bucket {
		joined := false
		if len(open) > 0 {
			latest := open[len(open)-1]
			if g.withinWindow(latest[len(latest)-1], tx) && g.sameMerchantAsAny(latest, tx) {
				open[len(open)-1] = append(latest, tx)
				joined = true
			}
		}
		if !joined {
			open = append(open, []*models.CanonicalTransaction{tx})
		}
	}

	var groups []*models.DuplicateGroup
	for _, members := range open {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, &models.DuplicateGroup{
			ID:           uuid.NewString(),
			Transactions: members,
			Verdict:      models.VerdictUndecided,
		})
	}
	return groups
}

// withinWindow checks the time-window constraint between a group's latest
// member and a candidate. Members without a clock time sit at start-of-day
// and only group when the window spans whole days.
func (g *Grouper) withinWindow(latest, candidate *models.CanonicalTransaction) bool {
	if (!latest.HasTime || !candidate.HasTime) && !g.config.SpansWholeDays() {
		return false
	}
	delta := candidate.Timestamp().Sub(latest.Timestamp())
	return delta <= g.config.TimeWindow
}

// sameMerchantAsAny checks the merchant constraint against every existing
// member of a group.
func (g *Grouper) sameMerchantAsAny(members []*models.CanonicalTransaction, tx *models.CanonicalTransaction) bool {
	for _, m := range members {
		if CompareMerchants(m.MerchantNorm, tx.MerchantNorm, g.config.MerchantSimilarityThreshold) != MerchantDifferent {
			return true
		}
	}
	return false
}
