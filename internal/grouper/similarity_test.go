package grouper

import "testing"

func TestCompareMerchants(t *testing.T) {
	tests := []struct {
		name      string
		a, b      string
		threshold float64
		expected  MerchantMatch
	}{
		{"identical", "starbucks", "starbucks", 0.8, MerchantExact},
		{"both empty", "", "", 0.8, MerchantDifferent},
		{"one empty", "starbucks", "", 0.8, MerchantDifferent},
		{"containment", "starbucks store 123", "starbucks", 0.8, MerchantSimilar},
		{"containment reversed", "starbucks", "starbucks store 123", 0.8, MerchantSimilar},
		{"one edit within threshold", "starbucks", "starbuckz", 0.8, MerchantSimilar},
		{"unrelated", "starbucks", "grocery mart", 0.8, MerchantDifferent},
		{"tight threshold rejects edits", "starbucks", "starbsckz", 0.95, MerchantDifferent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareMerchants(tt.a, tt.b, tt.threshold); got != tt.expected {
				t.Errorf("CompareMerchants(%q, %q, %v) = %v, want %v",
					tt.a, tt.b, tt.threshold, got, tt.expected)
			}
		})
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
	}

	for _, tt := range tests {
		if got := editDistance([]rune(tt.a), []rune(tt.b)); got != tt.expected {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestSimilarityRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"starbucks", "starbuckz"},
		{"coffee shop", "coffee shoppe"},
	}
	for _, p := range pairs {
		if similarityRatio(p[0], p[1]) != similarityRatio(p[1], p[0]) {
			t.Errorf("similarityRatio(%q, %q) not symmetric", p[0], p[1])
		}
	}
}
