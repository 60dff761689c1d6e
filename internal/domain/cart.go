package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxCartItems       = 20
	MaxQuantityPerItem = 10
)

// LineItem is one product-quantity pairing of a guest cart. ProductID is its identity.
type LineItem struct {
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// Valid reports whether the item may be kept in a stored cart.
func (i LineItem) Valid() bool {
	return i.ProductID > 0 && i.Quantity >= 1 && i.Quantity <= MaxQuantityPerItem
}

// CartLine is a line item joined with its catalog record. Product is nil
// when the product was discontinued.
type CartLine struct {
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
	Product   *Product  `json:"product"`
}

type Summary struct {
	TotalItems  int             `json:"totalItems"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	UniqueItems int             `json:"uniqueItems"`
}

// TotalQuantity sums the quantities of all items.
func TotalQuantity(items []LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// TotalWeight sums weight times quantity over lines that still have a
// catalog record.
func TotalWeight(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if line.Product == nil {
			continue
		}
		total = total.Add(decimal.NewFromFloat(line.Product.Weight).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
