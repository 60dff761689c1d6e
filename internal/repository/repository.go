package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	ErrCookieTooLarge = errors.New("cart cookie exceeds size limit")
	ErrWriteFailed    = errors.New("cart write failed")
)

// CartStore holds the raw line items of one guest cart.
// Load never fails: a corrupt blob reads as an empty cart.
type CartStore interface {
	Load(ctx context.Context) []domain.LineItem
	Save(ctx context.Context, items []domain.LineItem) error
	Clear(ctx context.Context) error
}
