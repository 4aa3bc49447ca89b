package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/repository"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
	"github.com/miska12345/OpenMarket-sub000/pkg/pagination"
)

// ItemService manages marketplace item listings.
type ItemService struct {
	items  repository.ItemRepository
	orgs   repository.OrganizationRepository
	logger *slog.Logger
}

// NewItemService creates the item service.
func NewItemService(items repository.ItemRepository, orgs repository.OrganizationRepository, logger *slog.Logger) *ItemService {
	return &ItemService{
		items:  items,
		orgs:   orgs,
		logger: logger,
	}
}

// CreateItemInput holds the fields for listing a new item.
type CreateItemInput struct {
	OrgID       string `json:"org_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"max=4096"`
	Category    string `json:"category" validate:"max=100"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Price       int64  `json:"price" validate:"gte=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

// Create lists a new item under the given organization. The item takes
// the organization's settlement currency.
func (s *ItemService) Create(ctx context.Context, input *CreateItemInput) (*domain.Item, error) {
	org, err := s.orgs.GetByID(ctx, input.OrgID)
	if err != nil {
		return nil, err
	}

	item := &domain.Item{
		OrgID:       org.ID,
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		ImageURL:    input.ImageURL,
		Price:       input.Price,
		CurrencyID:  org.CurrencyID,
		Stock:       input.Stock,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item created",
		slog.Int64("item_id", item.ID),
		slog.String("org_id", item.OrgID),
	)

	return item, nil
}

// Get retrieves a single item.
func (s *ItemService) Get(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("item", strconv.FormatInt(id, 10))
		}
		return nil, err
	}
	return item, nil
}

// List returns items matching the filter as a paginated result.
func (s *ItemService) List(ctx context.Context, filter repository.ItemFilter, params pagination.Params) (*pagination.Result[domain.Item], error) {
	filter.Page = params.Page
	filter.PerPage = params.PerPage

	items, total, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := pagination.NewResult(items, total, params)
	return &result, nil
}

// AdjustStock applies a signed delta to an item's stock. A delta that
// would take stock below zero is rejected.
func (s *ItemService) AdjustStock(ctx context.Context, id int64, delta int) (*domain.Item, error) {
	item, err := s.items.AdjustStock(ctx, id, delta)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("item", strconv.FormatInt(id, 10))
		}
		if errors.Is(err, apperrors.ErrInvalidInput) {
			return nil, apperrors.InvalidInput("stock cannot go below zero")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "item stock adjusted",
		slog.Int64("item_id", item.ID),
		slog.Int("delta", delta),
		slog.Int("stock", item.Stock),
	)

	return item, nil
}
