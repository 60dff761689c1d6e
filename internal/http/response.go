package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
		respondRaw(w, http.StatusInternalServerError, []byte(`{"error":"internal server error","code":"internal_error"}`))
		return
	}
	respondRaw(w, status, body)
}

func respondRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		zap.L().Debug("failed to write response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: getRequestID(r.Context()),
	})
}

// handleServiceError converts service errors to HTTP responses. Unknown
// errors are logged and reported without detail.
func handleServiceError(w http.ResponseWriter, r *http.Request, base *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondError(w, r, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrOutOfStock):
		respondError(w, r, http.StatusConflict, "out_of_stock", err.Error())
	case errors.Is(err, service.ErrStockExceeded):
		respondError(w, r, http.StatusConflict, "stock_exceeded", err.Error())
	case errors.Is(err, service.ErrPersistence):
		respondError(w, r, http.StatusInternalServerError, "persistence_failed", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.FromContext(r.Context(), base).Error("request failed", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
