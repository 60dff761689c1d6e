package http

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/shipping"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ShippingHandler struct {
	engine *shipping.Engine
	logger *zap.Logger
}

func NewShippingHandler(engine *shipping.Engine, l *zap.Logger) *ShippingHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &ShippingHandler{engine: engine, logger: l}
}

type EstimateResponse struct {
	shipping.Estimate
	Summary shipping.Summary `json:"summary"`
}

// Estimate prices shipping for ?subtotal=&weight= without touching the cart.
func (h *ShippingHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	subtotal, err := decimal.NewFromString(strings.TrimSpace(q.Get("subtotal")))
	if err != nil || subtotal.IsNegative() {
		handleServiceError(w, r, h.logger, &service.ValidationError{Field: "subtotal", Reason: "must be a non-negative number"})
		return
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(q.Get("weight")), 64)
	if err != nil || weight < 0 || math.IsInf(weight, 0) || math.IsNaN(weight) {
		handleServiceError(w, r, h.logger, &service.ValidationError{Field: "weight", Reason: "must be a non-negative number"})
		return
	}

	estimate := h.engine.Estimate(subtotal, weight)
	respondJSON(w, http.StatusOK, EstimateResponse{
		Estimate: estimate,
		Summary:  shipping.Summarize(estimate),
	})
}
