package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-portal/internal/models"
)

// ProfileRepository manages user_profiles rows.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// List returns profiles matching the filter.
func (r *ProfileRepository) List(ctx context.Context, filter models.ProfileFilter) ([]models.UserProfile, error) {
	var conditions []string
	var args []interface{}
	if filter.Email != "" {
		conditions = append(conditions, fmt.Sprintf("email = $%d", len(args)+1))
		args = append(args, filter.Email)
	}
	if filter.ProfileOwner != "" {
		conditions = append(conditions, fmt.Sprintf("profile_owner = $%d", len(args)+1))
		args = append(args, filter.ProfileOwner)
	}

	query := "SELECT id, email, profile_owner, created_at, updated_at FROM user_profiles"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC"

	profiles := make([]models.UserProfile, 0)
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// Upsert creates the profile or touches updated_at when the owner already has it.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.UserProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO user_profiles (id, email, profile_owner, created_at, updated_at)
VALUES (:id, :email, :profile_owner, :created_at, :updated_at)
ON CONFLICT (profile_owner, email) DO UPDATE SET updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
