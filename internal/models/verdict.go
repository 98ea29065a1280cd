package models

import "fmt"

// Verdict is the engine's duplicate-likelihood call for a group. It is
// tri-state: a group is either a likely duplicate error, clearly not one, or
// ambiguous enough that a human has to decide.
type Verdict string

const (
	// VerdictLikelyDuplicate marks a group the engine is confident about:
	// exactly two members with exactly matching amount and merchant and no
	// expected-pair rule applying.
	VerdictLikelyDuplicate Verdict = "true"

	// VerdictNotDuplicate marks a group suppressed by an expected-pair rule.
	VerdictNotDuplicate Verdict = "false"

	// VerdictUndecided marks ambiguous groups (more than two members,
	// similarity-based merchant matches, or partially fitting rules) that
	// must be surfaced for human confirmation.
	VerdictUndecided Verdict = "undecided"
)

// IsValid checks if the verdict is one of the three defined states.
func (v Verdict) IsValid() bool {
	return v == VerdictLikelyDuplicate || v == VerdictNotDuplicate || v == VerdictUndecided
}

// MarshalJSON emits decided verdicts as JSON booleans and the undecided
// state as the string "undecided", matching the report contract.
func (v Verdict) MarshalJSON() ([]byte, error) {
	switch v {
	case VerdictLikelyDuplicate:
		return []byte("true"), nil
	case VerdictNotDuplicate:
		return []byte("false"), nil
	case VerdictUndecided:
		return []byte(`"undecided"`), nil
	}
	return nil, fmt.Errorf("invalid verdict: %q", string(v))
}

// UnmarshalJSON accepts the boolean forms and the "undecided" string.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*v = VerdictLikelyDuplicate
	case "false":
		*v = VerdictNotDuplicate
	case `"undecided"`:
		*v = VerdictUndecided
	default:
		return fmt.Errorf("invalid verdict value: %s", string(data))
	}
	return nil
}
