package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/miska12345/OpenMarket-sub000/internal/service"
	"github.com/miska12345/OpenMarket-sub000/pkg/httputil"
	"github.com/miska12345/OpenMarket-sub000/pkg/middleware"
	"github.com/miska12345/OpenMarket-sub000/pkg/validator"
)

// CartHandler handles HTTP requests for the buyer's saved cart.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// SetCartItemRequest is the JSON request body for setting a cart line.
type SetCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// GetCart handles GET /api/v1/cart
// @Summary Get the saved cart
// @Tags cart
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/cart [get]
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.UserIDFromContext(r.Context())

	cart, err := h.service.Get(r.Context(), buyerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// SetCartItem handles PUT /api/v1/cart/items/{itemId}
// @Summary Set the quantity for one cart line
// @Description Sets the saved quantity for an item; zero removes the line.
// @Tags cart
// @Accept json
// @Produce json
// @Param itemId path int true "Item ID"
// @Param request body SetCartItemRequest true "Quantity"
// @Success 204
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/cart/items/{itemId} [put]
func (h *CartHandler) SetCartItem(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.UserIDFromContext(r.Context())

	itemID, ok := parseItemID(w, chi.URLParam(r, "itemId"))
	if !ok {
		return
	}

	var req SetCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.SetItem(r.Context(), buyerID, itemID, req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearCart handles DELETE /api/v1/cart
// @Summary Clear the saved cart
// @Tags cart
// @Success 204
// @Router /api/v1/cart [delete]
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.UserIDFromContext(r.Context())

	if err := h.service.Clear(r.Context(), buyerID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
