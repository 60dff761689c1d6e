package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStatic(t *testing.T) {
	c, err := catalog.LoadStatic("testdata/products.yaml")
	require.NoError(t, err)

	products, err := c.GetAllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	hub, err := c.GetProduct(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "USB-C Hub", hub.Name)
	assert.True(t, decimal.RequireFromString("15000.50").Equal(hub.Price))
	assert.Equal(t, 0, hub.Stock)
}

func TestLoadStatic_UnknownProduct(t *testing.T) {
	c, err := catalog.LoadStatic("testdata/products.yaml")
	require.NoError(t, err)

	_, err = c.GetProduct(context.Background(), 42)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestLoadStatic_InvalidID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - id: 0\n    name: Ghost\n"), 0o600))

	_, err := catalog.LoadStatic(path)
	assert.ErrorContains(t, err, "invalid id")
}

func TestLoadStatic_MissingFile(t *testing.T) {
	_, err := catalog.LoadStatic("testdata/missing.yaml")
	assert.Error(t, err)
}
