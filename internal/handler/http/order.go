package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/miska12345/OpenMarket-sub000/internal/service"
	"github.com/miska12345/OpenMarket-sub000/pkg/httputil"
	"github.com/miska12345/OpenMarket-sub000/pkg/middleware"
	"github.com/miska12345/OpenMarket-sub000/pkg/pagination"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// GetOrder handles GET /api/v1/orders/{id}
// @Summary Get order by ID
// @Description Returns one of the calling buyer's orders.
// @Tags orders
// @Produce json
// @Param id path string true "Order UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.UserIDFromContext(r.Context())

	order, err := h.service.Get(r.Context(), buyerID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// ListOrders handles GET /api/v1/orders
// @Summary List the buyer's orders
// @Description Returns the calling buyer's orders, newest first, optionally filtered by status.
// @Tags orders
// @Produce json
// @Param status query string false "Order status filter"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/orders [get]
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.UserIDFromContext(r.Context())
	params := pagination.FromRequest(r)

	var status *string
	if s := r.URL.Query().Get("status"); s != "" {
		status = &s
	}

	result, err := h.service.ListByBuyer(r.Context(), buyerID, status, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// ListOrgOrders handles GET /api/v1/orgs/{id}/orders
// @Summary List a seller's orders
// @Tags orders
// @Produce json
// @Param id path string true "Organization UUID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/orgs/{id}/orders [get]
func (h *OrderHandler) ListOrgOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	result, err := h.service.ListByOrg(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
