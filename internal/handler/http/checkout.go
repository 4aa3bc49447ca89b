package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/service"
	"github.com/miska12345/OpenMarket-sub000/pkg/httputil"
	"github.com/miska12345/OpenMarket-sub000/pkg/middleware"
)

// CheckoutHandler handles HTTP requests for the checkout endpoint.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	carts    *service.CartService
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(checkout *service.CheckoutService, carts *service.CartService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		carts:    carts,
		logger:   logger,
	}
}

// CheckoutRequest is the JSON request body for a checkout. Items maps
// item id to requested quantity. When omitted, the buyer's saved cart
// is checked out instead.
type CheckoutRequest struct {
	Items map[int64]int `json:"items"`
}

// Checkout handles POST /api/v1/checkout
// @Summary Check out a cart
// @Description Processes a multi-seller cart and returns the partitioned result: paid orders, action-required orders, and per-item failures.
// @Tags checkout
// @Accept json
// @Produce json
// @Param request body CheckoutRequest true "Cart to check out"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/checkout [post]
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.UserIDFromContext(r.Context())
	if buyerID == "" {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "missing user identity"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	cart := domain.Cart(req.Items)
	if len(cart) == 0 {
		// Fall back to the saved cart.
		saved, err := h.carts.Get(r.Context(), buyerID)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		cart = saved
	}

	result := h.checkout.Checkout(r.Context(), buyerID, cart)

	if result.Code == domain.CheckoutCodeNone && len(result.Orders)+len(result.ActionRequired) > 0 {
		// The purchased cart has served its purpose.
		if err := h.carts.Clear(r.Context(), buyerID); err != nil {
			h.logger.WarnContext(r.Context(), "cart clear after checkout failed",
				slog.String("buyer_id", buyerID),
				slog.String("error", err.Error()),
			)
		}
	}

	status := http.StatusOK
	if result.Code == domain.CheckoutCodeInternalServiceError {
		status = http.StatusInternalServerError
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: result})
}
