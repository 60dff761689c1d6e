package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductHandler struct {
	catalog catalog.Catalog
	views   *viewReader
	timeout time.Duration
	logger  *zap.Logger
}

func NewProductHandler(c catalog.Catalog, views cache.ViewCache, timeout time.Duration, l *zap.Logger) *ProductHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &ProductHandler{
		catalog: c,
		views:   newViewReader(views, l),
		timeout: timeout,
		logger:  l,
	}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	body, err := h.views.read(ctx, cache.ProductListKey, func(ctx context.Context) (any, error) {
		products, err := h.catalog.GetAllProducts(ctx)
		if err != nil {
			return nil, err
		}
		return &ProductsResponse{Products: products}, nil
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondRaw(w, http.StatusOK, body)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_argument", "productId: must be a positive integer")
		return
	}

	body, err := h.views.read(ctx, cache.ProductViewKey(productID), func(ctx context.Context) (any, error) {
		p, err := h.catalog.GetProduct(ctx, productID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, &service.NotFoundError{ProductID: productID}
		}
		return p, err
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondRaw(w, http.StatusOK, body)
}
