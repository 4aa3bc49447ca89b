package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/repository"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
	"github.com/miska12345/OpenMarket-sub000/pkg/pagination"
)

// OrganizationService manages seller organizations.
type OrganizationService struct {
	orgs   repository.OrganizationRepository
	logger *slog.Logger
}

// NewOrganizationService creates the organization service.
func NewOrganizationService(orgs repository.OrganizationRepository, logger *slog.Logger) *OrganizationService {
	return &OrganizationService{
		orgs:   orgs,
		logger: logger,
	}
}

// CreateOrganizationInput holds the fields for registering a seller.
type CreateOrganizationInput struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"max=4096"`
	LogoURL     string `json:"logo_url" validate:"omitempty,url"`
	CurrencyID  string `json:"currency_id" validate:"required,len=3"`
}

// Create registers a new seller organization.
func (s *OrganizationService) Create(ctx context.Context, input *CreateOrganizationInput) (*domain.Organization, error) {
	org := &domain.Organization{
		Name:        input.Name,
		Description: input.Description,
		LogoURL:     input.LogoURL,
		CurrencyID:  input.CurrencyID,
	}

	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "organization created",
		slog.String("org_id", org.ID),
		slog.String("name", org.Name),
	)

	return org, nil
}

// Get retrieves a single organization.
func (s *OrganizationService) Get(ctx context.Context, id string) (*domain.Organization, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("organization", id)
		}
		return nil, err
	}
	return org, nil
}

// List returns organizations as a paginated result.
func (s *OrganizationService) List(ctx context.Context, params pagination.Params) (*pagination.Result[domain.Organization], error) {
	orgs, total, err := s.orgs.List(ctx, params.Page, params.PerPage)
	if err != nil {
		return nil, err
	}

	result := pagination.NewResult(orgs, total, params)
	return &result, nil
}
