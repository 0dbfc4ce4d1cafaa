package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProduct_Available(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    bool
	}{
		{
			name:    "in stock and active",
			product: Product{ID: 1, Quantity: 3},
			want:    true,
		},
		{
			name:    "archival with stock",
			product: Product{ID: 2, Quantity: 3, Archival: true},
			want:    false,
		},
		{
			name:    "out of stock",
			product: Product{ID: 3, Quantity: 0},
			want:    false,
		},
		{
			name:    "negative quantity",
			product: Product{ID: 4, Quantity: -1},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.Available())
		})
	}
}

func TestProducts_Available(t *testing.T) {
	products := Products{
		{ID: 1, Quantity: 1},
		{ID: 2, Quantity: 0},
		{ID: 3, Quantity: 5, Archival: true},
		{ID: 4, Quantity: 2},
	}

	assert.Equal(t, []int64{1, 4}, products.Available().IDs())
}

func TestPurchaseRecord_RatingValue(t *testing.T) {
	unrated := PurchaseRecord{ID: 1}
	rated := PurchaseRecord{ID: 2, Rating: &Rating{Value: 4}}

	assert.Equal(t, 0, unrated.RatingValue())
	assert.Equal(t, 4, rated.RatingValue())
}

func TestRating_Validate(t *testing.T) {
	assert.NoError(t, (&Rating{Value: 0}).Validate())
	assert.NoError(t, (&Rating{Value: 5}).Validate())
	assert.EqualError(t, (&Rating{Value: 6}).Validate(), "rating must be between 0 and 5, got 6")
	assert.Error(t, (&Rating{Value: -1}).Validate())
}
