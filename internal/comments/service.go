package comments

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/vidpulse/backend/internal/apperror"
	"github.com/vidpulse/backend/internal/models"
)

// VideoGetter resolves the video a comment belongs to.
type VideoGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Video, error)
}

// Service applies input validation and the video reference check on top of a Store.
type Service struct {
	Store
	videos   VideoGetter
	validate *validator.Validate
}

// NewService creates a comment service.
func NewService(store Store, videos VideoGetter) *Service {
	return &Service{Store: store, videos: videos, validate: validator.New()}
}

// Create validates the comment, checks that its video exists and persists it.
func (s *Service) Create(ctx context.Context, c *models.Comment) error {
	if err := s.validate.Struct(c); err != nil {
		return apperror.FromValidator(err)
	}
	if _, err := s.videos.GetByID(ctx, c.VideoID); err != nil {
		return err
	}
	return s.Store.Create(ctx, c)
}

// Patch applies the non-nil fields of p to the comment and saves it.
func (s *Service) Patch(ctx context.Context, id int64, p models.CommentPatch) (*models.Comment, error) {
	c, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Apply(c)
	if err := s.validate.Struct(c); err != nil {
		return nil, apperror.FromValidator(err)
	}
	if err := s.Store.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
