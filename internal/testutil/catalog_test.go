package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogBuilder(t *testing.T) {
	db := SetupTestDB(t)
	db.Catalog().
		WithProducts(
			Product(1, "Kettle").InCategory("Kitchen").Priced(30),
			Product(2, "Toaster").InCategory("Kitchen").Stock(0),
			Product(3, "Lamp").Archived(),
		).
		WithAccount("ada").
		WithPurchase("ada", 1, 4).
		WithPurchase("ada", 1, Unrated).
		MustBuild()

	ctx := context.Background()

	kettle, err := db.Storage.GetProduct(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, kettle)
	assert.Equal(t, "Kitchen", kettle.CategoryName())
	assert.InDelta(t, 30.0, kettle.Price, 1e-9)

	available, err := db.Storage.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, int64(1), available[0].ID)

	records, err := db.Storage.GetMostFrequentPurchases(ctx, "ada")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Nil(t, records[0].Rating, "the later purchase is unrated")
	assert.Equal(t, 4, records[1].RatingValue())
}

func TestCatalogBuilder_ReportsFailingStep(t *testing.T) {
	db := SetupTestDB(t)
	err := db.Catalog().
		WithAccount("ada").
		WithPurchase("ada", 99, 1).
		Build(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog step 2")
}
