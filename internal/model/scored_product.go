package model

import "sort"

// ScoredProduct pairs a product with its desirability score.
type ScoredProduct struct {
	Product Product
	Score   float64
}

// ScoredProducts supports ranking products by desirability.
type ScoredProducts []ScoredProduct

// Len implements sort.Interface.
func (s ScoredProducts) Len() int {
	return len(s)
}

// Less implements sort.Interface - higher scores come first.
func (s ScoredProducts) Less(i, j int) bool {
	return s[i].Score > s[j].Score
}

// Swap implements sort.Interface.
func (s ScoredProducts) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Sort orders by score descending, keeping the current order among equal scores.
func (s ScoredProducts) Sort() {
	sort.Stable(s)
}
