package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"gopkg.in/yaml.v3"
)

// Static serves a fixed product list held in memory.
type Static struct {
	products []domain.Product
	byID     map[int64]domain.Product
}

func NewStatic(products []domain.Product) *Static {
	return &Static{
		products: products,
		byID:     Index(products),
	}
}

// LoadStatic reads a YAML document with a top-level "products" list.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var doc struct {
		Products []domain.Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	for _, p := range doc.Products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("catalog file %s: product %q has invalid id %d", path, p.Name, p.ID)
		}
	}
	return NewStatic(doc.Products), nil
}

func (s *Static) GetAllProducts(context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *Static) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}
