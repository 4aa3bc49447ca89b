package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/miska12345/OpenMarket-sub000/internal/service"
	"github.com/miska12345/OpenMarket-sub000/pkg/httputil"
	"github.com/miska12345/OpenMarket-sub000/pkg/pagination"
	"github.com/miska12345/OpenMarket-sub000/pkg/validator"
)

// OrganizationHandler handles HTTP requests for seller organizations.
type OrganizationHandler struct {
	service *service.OrganizationService
	stamps  *service.StampService
	logger  *slog.Logger
}

// NewOrganizationHandler creates a new organization HTTP handler.
func NewOrganizationHandler(svc *service.OrganizationService, stamps *service.StampService, logger *slog.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		service: svc,
		stamps:  stamps,
		logger:  logger,
	}
}

// CreateOrganization handles POST /api/v1/orgs
// @Summary Register a seller organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param request body service.CreateOrganizationInput true "Organization data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/orgs [post]
func (h *OrganizationHandler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var input service.CreateOrganizationInput
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

	org, err := h.service.Create(r.Context(), &input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: org})
}

// GetOrganization handles GET /api/v1/orgs/{id}
// @Summary Get organization by ID
// @Tags organizations
// @Produce json
// @Param id path string true "Organization UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/orgs/{id} [get]
func (h *OrganizationHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: org})
}

// ListOrganizations handles GET /api/v1/orgs
// @Summary List organizations
// @Tags organizations
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/orgs [get]
func (h *OrganizationHandler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// ListOrgStampEvents handles GET /api/v1/orgs/{id}/stamps
// @Summary List an organization's stamp events
// @Tags stamps
// @Produce json
// @Param id path string true "Organization UUID"
// @Param active query bool false "Only events currently running"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/orgs/{id}/stamps [get]
func (h *OrganizationHandler) ListOrgStampEvents(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	events, err := h.stamps.ListByOrg(r.Context(), chi.URLParam(r, "id"), activeOnly)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: events})
}
