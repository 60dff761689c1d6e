package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	flow    *checkout.Flow
	timeout time.Duration
	logger  *zap.Logger
}

func NewCheckoutHandler(flow *checkout.Flow, timeout time.Duration, l *zap.Logger) *CheckoutHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &CheckoutHandler{flow: flow, timeout: timeout, logger: l}
}

func (h *CheckoutHandler) Review(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := getSession(ctx)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "missing guest session")
		return
	}

	summary, err := h.flow.Prepare(ctx, sess, r.URL.Query().Get("method"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// PlaceOrder reads the contact fields and shippingMethod from the form.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := getSession(ctx)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "missing guest session")
		return
	}

	contact := checkout.Contact{
		FirstName: r.FormValue("firstName"),
		LastName:  r.FormValue("lastName"),
		Email:     r.FormValue("email"),
		Phone:     r.FormValue("phone"),
	}
	conf, err := h.flow.PlaceOrder(ctx, sess, contact, r.FormValue("shippingMethod"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, conf)
}
