package engine

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

// addMostSearched adds the single highest-scoring product that is not yet
// accumulated.
func (r *Recommender) addMostSearched(ctx context.Context, catalog service.ProductLookup, prefs *model.PreferenceBundle, acc *Accumulator) {
	var (
		bestID    int64
		bestScore float64
		found     bool
	)
	for id := range prefs.ProductScores {
		if acc.Contains(id) {
			continue
		}
		score := prefs.ProductScore(id)
		if !found || score > bestScore || (score == bestScore && id < bestID) {
			bestID, bestScore, found = id, score, true
		}
	}
	if !found {
		return
	}

	product, err := catalog.GetProduct(ctx, bestID)
	if err != nil {
		slog.Warn("Most searched product lookup failed", "product_id", bestID, "error", err)
		return
	}
	if product == nil {
		slog.Debug("Most searched product does not exist", "product_id", bestID)
		return
	}

	score := prefs.Desirability(product)
	acc.Add(Candidate{Product: *product, Tier: TierMostSearched, Score: &score})
}

// addPreferenceScored adds every resolvable scored product, most desirable first.
func (r *Recommender) addPreferenceScored(ctx context.Context, catalog service.ProductLookup, prefs *model.PreferenceBundle, acc *Accumulator) {
	ids := make([]int64, 0, len(prefs.ProductScores))
	for id := range prefs.ProductScores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products, err := catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		slog.Warn("Preference product lookup failed", "count", len(ids), "error", err)
		return
	}

	scored := make(model.ScoredProducts, len(products))
	for i := range products {
		scored[i] = model.ScoredProduct{
			Product: products[i],
			Score:   prefs.Desirability(&products[i]),
		}
	}

	// Order by ID first so equal scores rank deterministically.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Product.ID < scored[j].Product.ID })
	scored.Sort()

	added := 0
	for i := range scored {
		score := scored[i].Score
		if acc.Add(Candidate{Product: scored[i].Product, Tier: TierPreference, Score: &score}) {
			added++
		}
	}
	slog.Debug("Added preference candidates", "resolved", len(products), "added", added)
}
