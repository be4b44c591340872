package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type Handlers struct {
	Cart     *CartHandler
	Shipping *ShippingHandler
	Orders   *OrdersHandler
	Payments *PaymentHandler
}

// NewRouter mounts the storefront API under /api/v1 and wraps it in
// OpenTelemetry instrumentation.
func NewRouter(cfg RouterConfig, h Handlers, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Group(func(r chi.Router) {
			r.Use(GuestMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{productId}", h.Cart.UpdateQuantity)
				r.Delete("/items/{productId}", h.Cart.RemoveItem)
			})

			r.Post("/shipping/calculate", h.Shipping.Calculate)

			r.Post("/orders/initiate", h.Orders.Initiate)
			r.Get("/orders/{orderId}", h.Orders.GetOrder)

			r.Route("/payments", func(r chi.Router) {
				r.Post("/create", h.Payments.CreateOrder)
				r.Post("/verify", h.Payments.Verify)
				r.Get("/key", h.Payments.Key)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront-api")
}
