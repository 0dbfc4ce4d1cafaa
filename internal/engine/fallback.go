package engine

import (
	"container/heap"
	"context"
	"log/slog"

	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

type scoredCategory struct {
	name  string
	score float64
}

// categoryQueue is a max-heap of categories by score, ties by name.
type categoryQueue []scoredCategory

func (q categoryQueue) Len() int { return len(q) }

func (q categoryQueue) Less(i, j int) bool {
	if q[i].score != q[j].score {
		return q[i].score > q[j].score
	}
	return q[i].name < q[j].name
}

func (q categoryQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *categoryQueue) Push(x any) {
	*q = append(*q, x.(scoredCategory))
}

func (q *categoryQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func newCategoryQueue(scores map[string]float64) *categoryQueue {
	q := make(categoryQueue, 0, len(scores))
	for name, score := range scores {
		q = append(q, scoredCategory{name: name, score: score})
	}
	heap.Init(&q)
	return &q
}

// addCategoryFallback adds whole categories, best-scored first, until the
// accumulator holds count candidates.
func (r *Recommender) addCategoryFallback(ctx context.Context, catalog service.CategoryLookup, prefs *model.PreferenceBundle, count int, acc *Accumulator) {
	queue := newCategoryQueue(prefs.CategoryScores)

	for acc.Len() < count && queue.Len() > 0 {
		next := heap.Pop(queue).(scoredCategory)

		category, err := catalog.GetCategoryByName(ctx, next.name)
		if err != nil {
			slog.Warn("Category lookup failed", "category", next.name, "error", err)
			continue
		}
		if category == nil {
			slog.Debug("Scored category does not exist", "category", next.name)
			continue
		}

		products, err := catalog.GetProductsInCategory(ctx, *category)
		if err != nil {
			slog.Warn("Category products lookup failed", "category", next.name, "error", err)
			continue
		}

		added := acc.AddAll(products, TierCategory)
		slog.Debug("Added category candidates", "category", next.name, "score", next.score, "added", added)
	}
}
