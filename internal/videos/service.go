package videos

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/internal/models"
)

// Service applies input validation on top of a Store. Reads and counter
// updates pass straight through to the embedded Store.
type Service struct {
	Store
	validate *validator.Validate
}

// NewService creates a video service.
func NewService(store Store) *Service {
	return &Service{Store: store, validate: validator.New()}
}

// Create validates and persists a new video.
func (s *Service) Create(ctx context.Context, v *models.Video) error {
	if err := s.validate.Struct(v); err != nil {
		return apperror.FromValidator(err)
	}
	return s.Store.Create(ctx, v)
}

// Patch applies the non-nil fields of p to the video and saves it.
func (s *Service) Patch(ctx context.Context, id int64, p models.VideoPatch) (*models.Video, error) {
	v, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Apply(v)
	if err := s.validate.Struct(v); err != nil {
		return nil, apperror.FromValidator(err)
	}
	if err := s.Store.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}
