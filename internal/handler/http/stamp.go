package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/miska12345/OpenMarket-sub000/internal/service"
	"github.com/miska12345/OpenMarket-sub000/pkg/httputil"
	"github.com/miska12345/OpenMarket-sub000/pkg/validator"
)

// StampHandler handles HTTP requests for loyalty stamp events.
type StampHandler struct {
	service *service.StampService
	logger  *slog.Logger
}

// NewStampHandler creates a new stamp event HTTP handler.
func NewStampHandler(svc *service.StampService, logger *slog.Logger) *StampHandler {
	return &StampHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateStampEvent handles POST /api/v1/stamps
// @Summary Launch a stamp event
// @Tags stamps
// @Accept json
// @Produce json
// @Param request body service.CreateStampEventInput true "Stamp event data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/stamps [post]
func (h *StampHandler) CreateStampEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var input service.CreateStampEventInput
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

	ev, err := h.service.Create(r.Context(), &input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: ev})
}

// GetStampEvent handles GET /api/v1/stamps/{slug}
// @Summary Get stamp event by slug
// @Tags stamps
// @Produce json
// @Param slug path string true "Stamp event slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/stamps/{slug} [get]
func (h *StampHandler) GetStampEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ev})
}
