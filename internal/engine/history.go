package engine

import (
	"context"
	"log/slog"

	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

// addPurchaseHistory adds the best-rated of the account's most frequently
// bought products.
func (r *Recommender) addPurchaseHistory(ctx context.Context, catalog service.PurchaseHistory, login string, acc *Accumulator) {
	records, err := catalog.GetMostFrequentPurchases(ctx, login)
	if err != nil {
		slog.Warn("Purchase history unavailable", "login", login, "error", err)
		return
	}

	best, ok := bestRatedPurchase(records)
	if !ok {
		return
	}

	acc.Add(Candidate{Product: best.Product, Tier: TierHistory})
	slog.Debug("Added purchase history candidate", "product_id", best.Product.ID, "rating", best.RatingValue())
}

// bestRatedPurchase picks the record with the highest rating. Ties go to the
// smallest product ID, then to the most recent purchase.
func bestRatedPurchase(records []model.PurchaseRecord) (model.PurchaseRecord, bool) {
	if len(records) == 0 {
		return model.PurchaseRecord{}, false
	}

	best := records[0]
	for _, rec := range records[1:] {
		if betterPurchase(&rec, &best) {
			best = rec
		}
	}
	return best, true
}

func betterPurchase(a, b *model.PurchaseRecord) bool {
	if a.RatingValue() != b.RatingValue() {
		return a.RatingValue() > b.RatingValue()
	}
	if a.Product.ID != b.Product.ID {
		return a.Product.ID < b.Product.ID
	}
	return a.PurchasedAt.After(b.PurchasedAt)
}
