package model

import "math"

// PreferenceBundle carries caller-supplied interest signals for one request.
// A nil entry in ProductScores is a missing score and counts as 0.0.
type PreferenceBundle struct {
	ProductScores  map[int64]*float64 `yaml:"product_scores" json:"product_scores"`
	CategoryScores map[string]float64 `yaml:"category_scores" json:"category_scores"`
}

// HasProductScores reports whether the bundle names at least one product.
func (b *PreferenceBundle) HasProductScores() bool {
	return b != nil && len(b.ProductScores) > 0
}

// HasCategoryScores reports whether the bundle names at least one category.
func (b *PreferenceBundle) HasCategoryScores() bool {
	return b != nil && len(b.CategoryScores) > 0
}

// ProductScore returns the score for a product, 0.0 when absent, null or NaN.
func (b *PreferenceBundle) ProductScore(id int64) float64 {
	if b == nil {
		return 0
	}
	if score := b.ProductScores[id]; score != nil && !math.IsNaN(*score) {
		return *score
	}
	return 0
}

// CategoryScore returns the score for a category name, 0.0 when absent or NaN.
func (b *PreferenceBundle) CategoryScore(name string) float64 {
	if b == nil || name == "" {
		return 0
	}
	if score := b.CategoryScores[name]; !math.IsNaN(score) {
		return score
	}
	return 0
}

// Desirability combines a product's own score with its category's score.
// The category term only participates once the bundle has any category
// scores at all; a product in an unscored category then contributes 0.
func (b *PreferenceBundle) Desirability(p *Product) float64 {
	score := b.ProductScore(p.ID)
	if b.HasCategoryScores() {
		score += b.CategoryScore(p.CategoryName())
	}
	return score
}

// ScoreOf is a convenience for building ProductScores literals.
func ScoreOf(v float64) *float64 {
	return &v
}
