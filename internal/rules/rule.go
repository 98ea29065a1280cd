// Package rules implements the expected-pair exception mechanism: a small
// declarative rule set (merchant pattern, time-of-day windows, expected
// repeat count) evaluated by a single filter step, so new exception rules
// can be added without touching the grouping algorithm.
package rules

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"duplicate-charge-detector/internal/models"
	"duplicate-charge-detector/pkg/errors"

	"gopkg.in/yaml.v3"
)

// Window is an inclusive time-of-day interval. A member whose clock time
// equals Start or End is inside the window.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// Contains reports whether a time-of-day offset falls inside the window.
func (w Window) Contains(offset time.Duration) bool {
	return offset >= w.Start && offset <= w.End
}

// String renders the window as HH:MM-HH:MM.
func (w Window) String() string {
	return models.FormatClockTime(w.Start) + "-" + models.FormatClockTime(w.End)
}

// Rule describes one legitimate recurring same-amount charge pattern, such
// as a twice-daily commute fare. Rules are supplied as configuration and
// never mutated by the engine.
type Rule struct {
	// MerchantPattern is matched case-insensitively as a substring against
	// every group member's normalized merchant.
	MerchantPattern string

	// Windows are the time-of-day intervals the repeats are expected in,
	// in declaration order.
	Windows []Window

	// ExpectedRepeats is the exact group size the rule applies to.
	ExpectedRepeats int
}

// Validate checks a single rule's invariants.
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.MerchantPattern) == "" {
		return fmt.Errorf("merchant pattern cannot be empty")
	}
	if r.ExpectedRepeats <= 0 {
		return fmt.Errorf("expected repeats must be positive, got %d", r.ExpectedRepeats)
	}
	if len(r.Windows) == 0 {
		return fmt.Errorf("rule %q has no time-of-day windows", r.MerchantPattern)
	}
	for _, w := range r.Windows {
		if w.Start < 0 || w.End >= 24*time.Hour {
			return fmt.Errorf("rule %q window %s is outside the day", r.MerchantPattern, w)
		}
		if w.Start > w.End {
			return fmt.Errorf("rule %q window %s ends before it starts", r.MerchantPattern, w)
		}
	}

	// Boundaries are inclusive, so even a shared boundary is an overlap.
	ordered := make([]Window, len(r.Windows))
	copy(ordered, r.Windows)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Start <= ordered[i-1].End {
			return fmt.Errorf("rule %q has overlapping windows %s and %s",
				r.MerchantPattern, ordered[i-1], ordered[i])
		}
	}
	return nil
}

// MatchesMerchant reports whether the rule's pattern matches a normalized
// merchant string.
func (r *Rule) MatchesMerchant(merchantNorm string) bool {
	return strings.Contains(merchantNorm, strings.ToLower(strings.TrimSpace(r.MerchantPattern)))
}

// WindowFor returns the index of the window containing the offset, or -1.
func (r *Rule) WindowFor(offset time.Duration) int {
	for i, w := range r.Windows {
		if w.Contains(offset) {
			return i
		}
	}
	return -1
}

// ValidateRules checks a whole rule set, wrapping the first failure as a
// fatal configuration error.
func ValidateRules(ruleSet []Rule) error {
	for i := range ruleSet {
		if err := ruleSet[i].Validate(); err != nil {
			return errors.ConfigError("expected_pairs", err).
				WithContext("rule_index", i)
		}
	}
	return nil
}

// ruleFile is the on-disk YAML shape of the rule configuration. The field
// names match the engine's external configuration contract.
type ruleFile struct {
	ExpectedPairs []ruleYAML `yaml:"expected_pairs"`
}

type ruleYAML struct {
	MerchantPattern string       `yaml:"merchant_pattern"`
	Windows         []windowYAML `yaml:"windows"`
	Repeats         int          `yaml:"repeats"`
}

type windowYAML struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// LoadRules reads and validates an expected-pair rules file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.KindFileNotFound, path, err)
		}
		return nil, errors.FileError(errors.KindFileUnreadable, path, err)
	}
	return ParseRules(data)
}

// ParseRules parses and validates YAML rule configuration.
func ParseRules(data []byte) ([]Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.ConfigError("expected_pairs", err).
			WithSuggestion("check the YAML syntax of the rules file")
	}

	ruleSet := make([]Rule, 0, len(file.ExpectedPairs))
	for _, raw := range file.ExpectedPairs {
		rule := Rule{
			MerchantPattern: raw.MerchantPattern,
			ExpectedRepeats: raw.Repeats,
		}
		for _, w := range raw.Windows {
			start, err := models.ParseClockTime(w.Start)
			if err != nil {
				return nil, errors.ConfigError("expected_pairs", err).
					WithContext("window_start", w.Start)
			}
			end, err := models.ParseClockTime(w.End)
			if err != nil {
				return nil, errors.ConfigError("expected_pairs", err).
					WithContext("window_end", w.End)
			}
			rule.Windows = append(rule.Windows, Window{Start: start, End: end})
		}
		ruleSet = append(ruleSet, rule)
	}

	if err := ValidateRules(ruleSet); err != nil {
		return nil, err
	}
	return ruleSet, nil
}
