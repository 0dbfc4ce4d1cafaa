package model

import (
	"fmt"
	"time"
)

// Rating is the desirability value a customer assigns to a product after buying it.
type Rating struct {
	Value int
}

// Validate ensures the rating is within the accepted range.
func (r *Rating) Validate() error {
	if r.Value < MinRating || r.Value > MaxRating {
		return fmt.Errorf("rating must be between %d and %d, got %d", MinRating, MaxRating, r.Value)
	}
	return nil
}

// Rating bounds.
const (
	MinRating = 0
	MaxRating = 5
)

// PurchaseRecord is a historical ordered-product fact for one account.
type PurchaseRecord struct {
	PurchasedAt  time.Time
	Rating       *Rating
	AccountLogin string
	Product      Product
	ID           int64
}

// RatingValue returns the rating of the purchase, treating an unrated purchase as 0.
func (r *PurchaseRecord) RatingValue() int {
	if r.Rating == nil {
		return 0
	}
	return r.Rating.Value
}
