package domain

import "github.com/shopspring/decimal"

// Product is the catalog record a line item refers to. Weight is in kilograms.
type Product struct {
	ID          int64           `json:"id" db:"id" yaml:"id"`
	Name        string          `json:"name" db:"name" yaml:"name"`
	Description string          `json:"description" db:"description" yaml:"description"`
	Price       decimal.Decimal `json:"price" db:"price" yaml:"price"`
	Weight      float64         `json:"weight" db:"weight" yaml:"weight"`
	Stock       int             `json:"stock" db:"stock" yaml:"stock"`
	Category    string          `json:"category" db:"category" yaml:"category"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}
