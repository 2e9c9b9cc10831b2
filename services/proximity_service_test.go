package services

import (
	"context"
	"testing"
	"time"

	"spark_server/models"
	"spark_server/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProximityService() (*ProximityService, *MemoryLocationStore, *MemoryProfileStore) {
	locations := NewMemoryLocationStore()
	profiles := NewMemoryProfileStore()
	matcher := &ProximityService{
		Locations:    locations,
		Profiles:     &UserProfileService{Store: profiles},
		RadiusMeters: 100,
		MaxSampleAge: 15 * time.Minute,
	}
	return matcher, locations, profiles
}

func sampleAt(userID string, lat, lon float64, at time.Time) models.LocationSample {
	return models.LocationSample{UserID: userID, Latitude: lat, Longitude: lon, CapturedAt: at}
}

func TestFindCandidates(t *testing.T) {
	matcher, locations, profiles := newTestProximityService()
	ctx := context.Background()
	now := time.Now()

	profiles.Put(models.UserProfile{UserID: "alice", Discoverable: true})
	profiles.Put(models.UserProfile{UserID: "bob", Discoverable: true})
	profiles.Put(models.UserProfile{UserID: "carol", Discoverable: true})

	// bob at the same spot, carol ~6km away
	require.NoError(t, locations.SaveSample(ctx, sampleAt("bob", 37.5665, 126.9780, now)))
	require.NoError(t, locations.SaveSample(ctx, sampleAt("carol", 37.6000, 127.0200, now)))

	candidates, err := matcher.FindCandidates(ctx, sampleAt("alice", 37.5665, 126.9780, now))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "bob", candidates[0].UserID)
	assert.Less(t, candidates[0].Distance, 100.0)
}

func TestFindCandidates_ExcludesSelf(t *testing.T) {
	matcher, locations, profiles := newTestProximityService()
	ctx := context.Background()
	now := time.Now()

	profiles.Put(models.UserProfile{UserID: "alice", Discoverable: true})
	require.NoError(t, locations.SaveSample(ctx, sampleAt("alice", 37.5665, 126.9780, now)))

	candidates, err := matcher.FindCandidates(ctx, sampleAt("alice", 37.5665, 126.9780, now))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFindCandidates_ExcludesOptedOut(t *testing.T) {
	matcher, locations, profiles := newTestProximityService()
	ctx := context.Background()
	now := time.Now()

	profiles.Put(models.UserProfile{UserID: "alice", Discoverable: true})
	profiles.Put(models.UserProfile{UserID: "bob", Discoverable: false})
	require.NoError(t, locations.SaveSample(ctx, sampleAt("bob", 37.5665, 126.9780, now)))

	candidates, err := matcher.FindCandidates(ctx, sampleAt("alice", 37.5665, 126.9780, now))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFindCandidates_ExcludesBlockedEitherDirection(t *testing.T) {
	matcher, locations, profiles := newTestProximityService()
	ctx := context.Background()
	now := time.Now()

	profiles.Put(models.UserProfile{UserID: "alice", Discoverable: true, Blocked: []string{"bob"}})
	profiles.Put(models.UserProfile{UserID: "bob", Discoverable: true})
	profiles.Put(models.UserProfile{UserID: "carol", Discoverable: true, Blocked: []string{"alice"}})
	require.NoError(t, locations.SaveSample(ctx, sampleAt("bob", 37.5665, 126.9780, now)))
	require.NoError(t, locations.SaveSample(ctx, sampleAt("carol", 37.5665, 126.9780, now)))

	candidates, err := matcher.FindCandidates(ctx, sampleAt("alice", 37.5665, 126.9780, now))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFindCandidates_ExcludesStaleSamples(t *testing.T) {
	matcher, locations, profiles := newTestProximityService()
	ctx := context.Background()
	now := time.Now()

	profiles.Put(models.UserProfile{UserID: "bob", Discoverable: true})
	require.NoError(t, locations.SaveSample(ctx, sampleAt("bob", 37.5665, 126.9780, now.Add(-time.Hour))))

	candidates, err := matcher.FindCandidates(ctx, sampleAt("alice", 37.5665, 126.9780, now))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFindCandidates_InvalidCoordinates(t *testing.T) {
	matcher, _, _ := newTestProximityService()

	_, err := matcher.FindCandidates(context.Background(), sampleAt("alice", 91, 0, time.Now()))
	assert.ErrorIs(t, err, utils.ErrInvalidCoordinates)
}
