package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-portal/internal/models"
)

type fakeProfileStore struct {
	profiles []models.UserProfile
	err      error
	filter   models.ProfileFilter
}

func (f *fakeProfileStore) List(ctx context.Context, filter models.ProfileFilter) ([]models.UserProfile, error) {
	f.filter = filter
	return f.profiles, f.err
}

func TestProfileServiceListsOwnedProfiles(t *testing.T) {
	store := &fakeProfileStore{profiles: []models.UserProfile{{ID: "p1", Email: "alice@x.com", ProfileOwner: "u-alice"}}}
	svc := NewProfileService(store, nil)

	profiles := svc.List(context.Background(), alice)
	require.Len(t, profiles, 1)
	assert.Equal(t, "u-alice", store.filter.ProfileOwner)
}

func TestProfileServiceFallsBackToEmpty(t *testing.T) {
	svc := NewProfileService(&fakeProfileStore{err: errors.New("denied")}, nil)
	profiles := svc.List(context.Background(), alice)
	assert.NotNil(t, profiles)
	assert.Empty(t, profiles)
}
