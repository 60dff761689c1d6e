package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const GuestCookieName = "guest_id"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sessionKey
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = logger.WithFields(ctx, zap.String("request_id", requestID))
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs one line per request once the handler returns.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.FromContext(r.Context(), base).Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// GuestMiddleware identifies the visitor by the guest_id cookie, issuing a
// new id when missing, and binds a cookie-backed cart to the request.
func GuestMiddleware(cookies *repository.CookieStoreFactory, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guestID := ""
			if c, err := r.Cookie(GuestCookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					guestID = c.Value
				}
			}
			if guestID == "" {
				guestID = uuid.NewString()
			}
			// refreshed on every request so it never expires before guest_cart
			http.SetCookie(w, &http.Cookie{
				Name:     GuestCookieName,
				Value:    guestID,
				Path:     "/",
				MaxAge:   int(repository.CartCookieTTL.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			r = r.WithContext(logger.WithFields(r.Context(), zap.String("guest_id", guestID)))
			sess := service.Session{
				GuestID: guestID,
				Cart:    cookies.For(w, r),
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
		})
	}
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func getSession(ctx context.Context) (service.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(service.Session)
	return sess, ok
}
