package service

import (
	"context"

	"github.com/Veraticus/storefront-picks/internal/model"
)

// SupplierQuery returns the query method of suppliers for a supplier kind.
func SupplierQuery(suppliers ProductSuppliers, kind SupplierKind) (func(context.Context) ([]model.Product, error), bool) {
	switch kind {
	case SupplierBestRated:
		return suppliers.GetBestRatedProducts, true
	case SupplierNewest:
		return suppliers.GetNewestProducts, true
	case SupplierCheapest:
		return suppliers.GetCheapestProducts, true
	case SupplierRunningOut:
		return suppliers.GetRunningOutProducts, true
	case SupplierAvailable:
		return suppliers.GetAvailableProducts, true
	default:
		return nil, false
	}
}
