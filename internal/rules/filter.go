package rules

import (
	"fmt"

	"duplicate-charge-detector/internal/models"
	"duplicate-charge-detector/pkg/errors"
	"duplicate-charge-detector/pkg/logger"
)

// Filter annotates candidate duplicate groups with expected-pair outcomes
// and duplicate-likelihood verdicts. It never restructures groups.
type Filter struct {
	rules  []Rule
	logger logger.Logger
}

// NewFilter creates a filter over a validated rule set. Rules are evaluated
// in declaration order; the first rule that fully applies to a group wins.
func NewFilter(ruleSet []Rule) (*Filter, error) {
	if err := ValidateRules(ruleSet); err != nil {
		return nil, err
	}
	return &Filter{
		rules:  ruleSet,
		logger: logger.GetGlobalLogger().WithComponent("expected_pair_filter"),
	}, nil
}

// Annotate assigns reason, expected-pair status and verdict to every group
// in place. Group order and membership are preserved.
func (f *Filter) Annotate(groups []*models.DuplicateGroup) {
	expected := 0
	for _, group := range groups {
		f.annotateGroup(group)
		if group.IsExpected {
			expected++
		}
	}
	f.logger.WithFields(logger.Fields{
		"groups":         len(groups),
		"expected_pairs": expected,
	}).Info("Annotated candidate groups")
}

func (f *Filter) annotateGroup(group *models.DuplicateGroup) {
	group.Reason = buildReason(group)

	partialFit := ""
	for i := range f.rules {
		rule := &f.rules[i]
		if !merchantMatchesAll(rule, group) {
			continue
		}
		if applies, windowsUsed := f.ruleApplies(rule, group); applies {
			group.IsExpected = true
			group.Verdict = models.VerdictNotDuplicate
			group.Notes = fmt.Sprintf("expected pair: rule %q matched across windows %s",
				rule.MerchantPattern, windowsUsed)
			return
		}
		if partialFit == "" {
			partialFit = rule.MerchantPattern
		}
	}

	group.IsExpected = false
	switch {
	case partialFit != "":
		group.Verdict = models.VerdictUndecided
		group.Notes = fmt.Sprintf("rule %q matched the merchant but the time-of-day pattern did not fit; needs review",
			partialFit)
	case group.Size() == 2 && group.MerchantsExactMatch():
		group.Verdict = models.VerdictLikelyDuplicate
		group.Notes = "two charges with identical amount and merchant"
	case group.Size() > 2:
		group.Verdict = models.VerdictUndecided
		group.Notes = fmt.Sprintf("%d same-amount charges; needs review", group.Size())
	default:
		group.Verdict = models.VerdictUndecided
		group.Notes = "merchants matched only by similarity; needs review"
	}
}

// ruleApplies checks the expected-pair conditions for one group: the group
// size equals the expected repeat count, every member falls in a window,
// each window holds at most one member, and at least two distinct windows
// are used. A single-window rule can therefore never mark an expected pair.
func (f *Filter) ruleApplies(rule *Rule, group *models.DuplicateGroup) (bool, string) {
	if group.Size() != rule.ExpectedRepeats {
		return false, ""
	}

	used := make(map[int]bool, len(rule.Windows))
	for _, tx := range group.Transactions {
		if !tx.HasTime {
			// no clock time means no window assignment
			return false, ""
		}
		w := rule.WindowFor(tx.TimeOfDay)
		if w < 0 || used[w] {
			return false, ""
		}
		used[w] = true
	}
	if len(used) < 2 {
		return false, ""
	}

	names := ""
	for i, w := range rule.Windows {
		if used[i] {
			if names != "" {
				names += ", "
			}
			names += w.String()
		}
	}
	return true, names
}

// merchantMatchesAll reports whether the rule's pattern matches every
// member's normalized merchant.
func merchantMatchesAll(rule *Rule, group *models.DuplicateGroup) bool {
	for _, tx := range group.Transactions {
		if !rule.MatchesMerchant(tx.MerchantNorm) {
			return false
		}
	}
	return true
}

// buildReason renders the group's human-readable rationale.
func buildReason(group *models.DuplicateGroup) string {
	return fmt.Sprintf("same amount $%s, merchant %s, %d minutes apart",
		group.Amount().StringFixed(2),
		group.Transactions[0].MerchantRaw,
		group.TightestGapMinutes())
}

// AnnotateWithDefaults is a convenience for callers without any configured
// rules: every group gets a verdict from the structural conditions alone.
func AnnotateWithDefaults(groups []*models.DuplicateGroup) error {
	filter, err := NewFilter(nil)
	if err != nil {
		return errors.WrapIfNeeded(err, errors.CategoryConfig, errors.KindConfigValidation,
			"default filter construction failed")
	}
	filter.Annotate(groups)
	return nil
}
