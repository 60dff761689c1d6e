package cache

import (
	"context"
	"errors"
	"fmt"
)

// ViewCache stores rendered page views (cart and product) keyed by path.
// Entries are advisory: every mutation invalidates what it touches.
type ViewCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, view []byte) error
	Invalidate(ctx context.Context, keys ...string) error
}

var ErrCacheMiss = errors.New("cache miss")

const ProductListKey = "view:products"

func CartViewKey(guestID string) string {
	return fmt.Sprintf("view:cart:%s", guestID)
}

func ProductViewKey(productID int64) string {
	return fmt.Sprintf("view:product:%d", productID)
}

// Nop never holds anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

func (Nop) Set(context.Context, string, []byte) error { return nil }

func (Nop) Invalidate(context.Context, ...string) error { return nil }
