package model

import "time"

// Product represents a catalog item that can be recommended.
type Product struct {
	CreatedAt time.Time `json:"created_at"`
	Category  *Category `json:"category,omitempty"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	ID        int64     `json:"id"`
	Quantity  int       `json:"quantity"`
	Archival  bool      `json:"archival"`
}

// Available reports whether the product can be offered to a customer.
// Archival (retired) products and products without stock are never available.
func (p *Product) Available() bool {
	return !p.Archival && p.Quantity > 0
}

// CategoryName returns the name of the product's category, or "" if it has none.
func (p *Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// Products is a slice of Product with lookup helpers.
type Products []Product

// IDs returns the product identities in slice order.
func (ps Products) IDs() []int64 {
	ids := make([]int64, len(ps))
	for i := range ps {
		ids[i] = ps[i].ID
	}
	return ids
}

// Available returns only the products that are currently available.
func (ps Products) Available() Products {
	result := make(Products, 0, len(ps))
	for _, p := range ps {
		if p.Available() {
			result = append(result, p)
		}
	}
	return result
}
