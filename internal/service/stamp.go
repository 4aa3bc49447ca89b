package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/repository"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
	"github.com/miska12345/OpenMarket-sub000/pkg/slug"
)

// StampService manages seller loyalty stamp events.
type StampService struct {
	stamps repository.StampRepository
	orgs   repository.OrganizationRepository
	logger *slog.Logger
}

// NewStampService creates the stamp event service.
func NewStampService(stamps repository.StampRepository, orgs repository.OrganizationRepository, logger *slog.Logger) *StampService {
	return &StampService{
		stamps: stamps,
		orgs:   orgs,
		logger: logger,
	}
}

// CreateStampEventInput holds the fields for launching a stamp event.
type CreateStampEventInput struct {
	OrgID        string    `json:"org_id" validate:"required,uuid"`
	Title        string    `json:"title" validate:"required,min=1,max=255"`
	Description  string    `json:"description" validate:"max=4096"`
	RewardPoints int       `json:"reward_points" validate:"gte=0"`
	StartsAt     time.Time `json:"starts_at" validate:"required"`
	EndsAt       time.Time `json:"ends_at" validate:"required"`
}

// Create launches a new stamp event for an organization. The event slug
// is derived from the title.
func (s *StampService) Create(ctx context.Context, input *CreateStampEventInput) (*domain.StampEvent, error) {
	if !input.EndsAt.After(input.StartsAt) {
		return nil, apperrors.InvalidInput("ends_at must be after starts_at")
	}

	if _, err := s.orgs.GetByID(ctx, input.OrgID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("organization", input.OrgID)
		}
		return nil, err
	}

	ev := &domain.StampEvent{
		OrgID:        input.OrgID,
		Title:        input.Title,
		Slug:         slug.Generate(input.Title),
		Description:  input.Description,
		RewardPoints: input.RewardPoints,
		StartsAt:     input.StartsAt,
		EndsAt:       input.EndsAt,
	}

	if err := s.stamps.Create(ctx, ev); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stamp event created",
		slog.String("event_id", ev.ID),
		slog.String("org_id", ev.OrgID),
		slog.String("slug", ev.Slug),
	)

	return ev, nil
}

// GetBySlug retrieves a stamp event by slug.
func (s *StampService) GetBySlug(ctx context.Context, eventSlug string) (*domain.StampEvent, error) {
	ev, err := s.stamps.GetBySlug(ctx, eventSlug)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("stamp event", eventSlug)
		}
		return nil, err
	}
	return ev, nil
}

// ListByOrg returns an organization's stamp events, optionally only
// those currently running.
func (s *StampService) ListByOrg(ctx context.Context, orgID string, activeOnly bool) ([]domain.StampEvent, error) {
	events, err := s.stamps.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return events, nil
	}

	now := time.Now().UTC()
	active := make([]domain.StampEvent, 0, len(events))
	for _, ev := range events {
		if ev.Active(now) {
			active = append(active, ev)
		}
	}
	return active, nil
}
