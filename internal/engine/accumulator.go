package engine

import (
	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

// Tier names the stage that first contributed a candidate.
type Tier string

// Recommendation tiers.
const (
	TierHistory      Tier = "history"
	TierMostSearched Tier = "most_searched"
	TierPreference   Tier = "preference"
	TierCategory     Tier = "category"
)

// SupplierTier returns the tier tag of a generic supplier.
func SupplierTier(kind service.SupplierKind) Tier {
	return Tier("supplier:" + string(kind))
}

// Candidate is one recommended product and why it was picked.
type Candidate struct {
	// Score is the desirability score, set only by the preference tiers.
	Score   *float64      `json:"score,omitempty"`
	Tier    Tier          `json:"tier"`
	Product model.Product `json:"product"`
}

// Accumulator is an ordered, duplicate-free sequence of candidates keyed by
// product ID. The first insertion of a product wins.
type Accumulator struct {
	seen  map[int64]struct{}
	items []Candidate
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		seen: make(map[int64]struct{}),
	}
}

// Add appends a candidate unless its product is already present.
// It reports whether the candidate was added.
func (a *Accumulator) Add(c Candidate) bool {
	if _, ok := a.seen[c.Product.ID]; ok {
		return false
	}
	a.seen[c.Product.ID] = struct{}{}
	a.items = append(a.items, c)
	return true
}

// AddAll appends every product with the same tier and returns how many were new.
func (a *Accumulator) AddAll(products []model.Product, tier Tier) int {
	added := 0
	for i := range products {
		if a.Add(Candidate{Product: products[i], Tier: tier}) {
			added++
		}
	}
	return added
}

// Contains reports whether a product ID has been accumulated.
func (a *Accumulator) Contains(id int64) bool {
	_, ok := a.seen[id]
	return ok
}

// Len returns the number of accumulated candidates.
func (a *Accumulator) Len() int {
	return len(a.items)
}

// Retain keeps only the candidates matching keep, preserving order.
// It returns the number of candidates removed.
func (a *Accumulator) Retain(keep func(Candidate) bool) int {
	kept := a.items[:0]
	for _, c := range a.items {
		if keep(c) {
			kept = append(kept, c)
			continue
		}
		delete(a.seen, c.Product.ID)
	}
	removed := len(a.items) - len(kept)
	clear(a.items[len(kept):])
	a.items = kept
	return removed
}

// Head returns a copy of the first n candidates in insertion order.
func (a *Accumulator) Head(n int) []Candidate {
	if n < 0 {
		n = 0
	}
	if n > len(a.items) {
		n = len(a.items)
	}
	head := make([]Candidate, n)
	copy(head, a.items[:n])
	return head
}
