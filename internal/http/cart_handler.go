package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/shipping"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartHandler struct {
	cart    *service.CartService
	engine  *shipping.Engine
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(cart *service.CartService, engine *shipping.Engine, timeout time.Duration, l *zap.Logger) *CartHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &CartHandler{
		cart:    cart,
		engine:  engine,
		timeout: timeout,
		logger:  l,
	}
}

type AddItemResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	CartSize int    `json:"cartSize"`
}

type CartResponse struct {
	Items    []domain.CartLine `json:"items"`
	Summary  domain.Summary    `json:"summary"`
	Shipping shipping.Summary  `json:"shipping"`
}

// GetCart builds the view from the live catalog on every request.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := getSession(ctx)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "missing guest session")
		return
	}
	h.respondCart(w, r.WithContext(ctx), sess)
}

// AddItem reads productId and an optional quantity from the form.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := getSession(ctx)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "missing guest session")
		return
	}

	size, err := h.cart.AddItem(ctx, sess, r.FormValue("productId"), r.FormValue("quantity"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, AddItemResponse{
		Success:  true,
		Message:  "Item added to cart",
		CartSize: size,
	})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := getSession(ctx)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "missing guest session")
		return
	}

	if err := h.cart.UpdateQuantity(ctx, sess, chi.URLParam(r, "product_id"), r.FormValue("quantity")); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	h.respondCart(w, r, sess)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := getSession(ctx)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "missing guest session")
		return
	}

	if err := h.cart.RemoveItem(ctx, sess, chi.URLParam(r, "product_id")); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	h.respondCart(w, r, sess)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := getSession(ctx)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "missing guest session")
		return
	}

	if err := h.cart.ClearCart(ctx, sess); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	h.respondCart(w, r, sess)
}

// respondCart renders the cart from the stored items and the live catalog.
func (h *CartHandler) respondCart(w http.ResponseWriter, r *http.Request, sess service.Session) {
	view, err := h.buildCart(r.Context(), sess)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) buildCart(ctx context.Context, sess service.Session) (*CartResponse, error) {
	view, err := h.cart.GetCartView(ctx, sess)
	if err != nil {
		return nil, err
	}
	weight := domain.TotalWeight(view.Items).InexactFloat64()
	return &CartResponse{
		Items:    view.Items,
		Summary:  view.Summary,
		Shipping: shipping.Summarize(h.engine.Estimate(view.Summary.TotalValue, weight)),
	}, nil
}
