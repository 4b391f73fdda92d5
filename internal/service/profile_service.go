package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-portal/internal/models"
)

// ProfileStore reads profile records.
type ProfileStore interface {
	List(ctx context.Context, filter models.ProfileFilter) ([]models.UserProfile, error)
}

// ProfileService lists the caller's profile records.
type ProfileService struct {
	repo   ProfileStore
	logger *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo ProfileStore, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, logger: logger}
}

// List returns the profiles owned by identity. A failed fetch yields an empty list.
func (s *ProfileService) List(ctx context.Context, identity models.Identity) []models.UserProfile {
	profiles, err := s.repo.List(ctx, models.ProfileFilter{ProfileOwner: identity.UserID})
	if err != nil {
		s.logger.Warn("failed to load profiles", zap.String("user_id", identity.UserID), zap.Error(err))
		return []models.UserProfile{}
	}
	if profiles == nil {
		return []models.UserProfile{}
	}
	return profiles
}
