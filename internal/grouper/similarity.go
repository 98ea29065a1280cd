package grouper

import "strings"

// MerchantMatch classifies how two normalized merchant strings relate.
type MerchantMatch int

const (
	// MerchantDifferent means the strings do not qualify as the same merchant.
	MerchantDifferent MerchantMatch = iota
	// MerchantSimilar means the strings qualify through containment or the
	// edit-distance ratio, but are not identical.
	MerchantSimilar
	// MerchantExact means the normalized strings are identical.
	MerchantExact
)

// CompareMerchants classifies two normalized merchant strings. Exact
// equality always qualifies; one string containing the other, or an
// edit-distance ratio at or above the threshold, qualifies as similar.
func CompareMerchants(a, b string, threshold float64) MerchantMatch {
	if a == b {
		if a == "" {
			return MerchantDifferent
		}
		return MerchantExact
	}
	if a == "" || b == "" {
		return MerchantDifferent
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return MerchantSimilar
	}
	if similarityRatio(a, b) >= threshold {
		return MerchantSimilar
	}
	return MerchantDifferent
}

// similarityRatio computes 1 - editDistance/maxLen over runes.
func similarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(editDistance(ra, rb))/float64(longest)
}

// editDistance computes the Levenshtein distance with a two-row DP table.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
