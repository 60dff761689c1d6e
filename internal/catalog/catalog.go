// Package catalog provides read-only product lookup for the cart and checkout.
package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Catalog is the read-only product source. GetProduct returns
// ErrProductNotFound for unknown ids.
type Catalog interface {
	GetAllProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// Index maps products by id.
func Index(products []domain.Product) map[int64]domain.Product {
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID
}
