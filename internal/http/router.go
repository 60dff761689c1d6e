package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/shipping"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Cart           *service.CartService
	Catalog        catalog.Catalog
	Checkout       *checkout.Flow
	Shipping       *shipping.Engine
	Views          cache.ViewCache
	Cookies        *repository.CookieStoreFactory
	SecureCookies  bool
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// NewRouter wires the storefront API behind chi and OpenTelemetry.
func NewRouter(cfg RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}

	cartHandler := NewCartHandler(cfg.Cart, cfg.Shipping, cfg.RequestTimeout, l)
	productHandler := NewProductHandler(cfg.Catalog, cfg.Views, cfg.RequestTimeout, l)
	shippingHandler := NewShippingHandler(cfg.Shipping, l)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout, cfg.RequestTimeout, l)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(l))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", productHandler.List)
		r.Get("/products/{product_id}", productHandler.Get)
		r.Get("/shipping/estimate", shippingHandler.Estimate)

		r.Group(func(r chi.Router) {
			r.Use(GuestMiddleware(cfg.Cookies, cfg.SecureCookies))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			})
			r.Get("/checkout", checkoutHandler.Review)
			r.Post("/checkout", checkoutHandler.PlaceOrder)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
