package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/miska12345/OpenMarket-sub000/internal/repository"
	"github.com/miska12345/OpenMarket-sub000/internal/service"
	"github.com/miska12345/OpenMarket-sub000/pkg/httputil"
	"github.com/miska12345/OpenMarket-sub000/pkg/pagination"
	"github.com/miska12345/OpenMarket-sub000/pkg/validator"
)

// ItemHandler handles HTTP requests for item endpoints.
type ItemHandler struct {
	service *service.ItemService
	logger  *slog.Logger
}

// NewItemHandler creates a new item HTTP handler.
func NewItemHandler(svc *service.ItemService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		service: svc,
		logger:  logger,
	}
}

func parseItemID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid item id"},
		})
		return 0, false
	}
	return id, true
}

// CreateItem handles POST /api/v1/items
// @Summary List a new item
// @Tags items
// @Accept json
// @Produce json
// @Param request body service.CreateItemInput true "Item data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/items [post]
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var input service.CreateItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(input); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	item, err := h.service.Create(r.Context(), &input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: item})
}

// GetItem handles GET /api/v1/items/{id}
// @Summary Get item by ID
// @Tags items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/items/{id} [get]
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseItemID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// ListItems handles GET /api/v1/items
// @Summary List items
// @Tags items
// @Produce json
// @Param org_id query string false "Filter by organization"
// @Param category query string false "Filter by category"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/items [get]
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	var filter repository.ItemFilter
	if v := r.URL.Query().Get("org_id"); v != "" {
		filter.OrgID = &v
	}
	if v := r.URL.Query().Get("category"); v != "" {
		filter.Category = &v
	}

	result, err := h.service.List(r.Context(), filter, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// AdjustStockRequest is the body for a stock adjustment.
type AdjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// AdjustStock handles PATCH /api/v1/items/{id}/stock
// @Summary Adjust item stock
// @Description Applies a signed delta to an item's stock. Rejected if stock would go negative.
// @Tags items
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param request body AdjustStockRequest true "Stock delta"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/items/{id}/stock [patch]
func (h *ItemHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseItemID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AdjustStockRequest
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

	item, err := h.service.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}
