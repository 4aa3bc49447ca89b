package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miska12345/OpenMarket-sub000/internal/service"
	"github.com/miska12345/OpenMarket-sub000/pkg/health"
	"github.com/miska12345/OpenMarket-sub000/pkg/middleware"
)

// RouterDeps bundles the services the router exposes.
type RouterDeps struct {
	Checkout *service.CheckoutService
	Carts    *service.CartService
	Orders   *service.OrderService
	Items    *service.ItemService
	Orgs     *service.OrganizationService
	Stamps   *service.StampService
	Health   *health.Handler
	JWTKey   string
	Logger   *slog.Logger
}

// NewRouter creates a chi router with all marketplace routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("openmarket"))

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	checkoutHandler := NewCheckoutHandler(deps.Checkout, deps.Carts, deps.Logger)
	cartHandler := NewCartHandler(deps.Carts, deps.Logger)
	orderHandler := NewOrderHandler(deps.Orders, deps.Logger)
	itemHandler := NewItemHandler(deps.Items, deps.Logger)
	orgHandler := NewOrganizationHandler(deps.Orgs, deps.Stamps, deps.Logger)
	stampHandler := NewStampHandler(deps.Stamps, deps.Logger)

	auth := middleware.JWTAuth(deps.JWTKey, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		// Public catalog
		r.Get("/items", itemHandler.ListItems)
		r.Get("/items/{id}", itemHandler.GetItem)
		r.Get("/orgs", orgHandler.ListOrganizations)
		r.Get("/orgs/{id}", orgHandler.GetOrganization)
		r.Get("/orgs/{id}/stamps", orgHandler.ListOrgStampEvents)
		r.Get("/stamps/{slug}", stampHandler.GetStampEvent)

		// Seller operations
		r.Post("/items", itemHandler.CreateItem)
		r.Patch("/items/{id}/stock", itemHandler.AdjustStock)
		r.Post("/orgs", orgHandler.CreateOrganization)
		r.Post("/stamps", stampHandler.CreateStampEvent)
		r.Get("/orgs/{id}/orders", orderHandler.ListOrgOrders)

		// Buyer operations, authenticated
		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/checkout", checkoutHandler.Checkout)
			r.Get("/orders", orderHandler.ListOrders)
			r.Get("/orders/{id}", orderHandler.GetOrder)
			r.Get("/cart", cartHandler.GetCart)
			r.Put("/cart/items/{itemId}", cartHandler.SetCartItem)
			r.Delete("/cart", cartHandler.ClearCart)
		})
	})

	return r
}
