package services

import (
	"context"
	"fmt"
	"time"

	"spark_server/models"
	"spark_server/utils"
)

// Candidate is a user whose latest known location falls inside the proximity
// radius of a fresh sample.
type Candidate struct {
	UserID   string
	Distance float64 // meters
}

// ProximityService finds nearby users for a newly ingested sample. Pure
// computation over the latest-location snapshot; candidate order carries no
// meaning, every candidate is evaluated independently by the deduplicator.
type ProximityService struct {
	Locations LocationStore
	Profiles  *UserProfileService

	RadiusMeters float64
	MaxSampleAge time.Duration // candidates with older samples are ignored; 0 disables the check
}

// FindCandidates returns every other user within RadiusMeters of the sample,
// excluding the sample's own user, users who have opted out of proximity
// discovery, and pairs where either side has blocked the other.
func (p *ProximityService) FindCandidates(ctx context.Context, sample models.LocationSample) ([]Candidate, error) {
	if err := utils.ValidateCoordinates(sample.Latitude, sample.Longitude); err != nil {
		return nil, err
	}

	latest, err := p.Locations.LatestAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest locations: %w", err)
	}

	var candidates []Candidate
	for _, other := range latest {
		if other.UserID == sample.UserID {
			continue
		}
		if utils.ValidateCoordinates(other.Latitude, other.Longitude) != nil {
			continue // never let a bad stored sample match everywhere
		}
		if p.MaxSampleAge > 0 && sample.CapturedAt.Sub(other.CapturedAt) > p.MaxSampleAge {
			continue
		}

		distance := utils.HaversineDistance(sample.Latitude, sample.Longitude, other.Latitude, other.Longitude)
		if distance > p.RadiusMeters {
			continue
		}

		discoverable, err := p.Profiles.Discoverable(ctx, other.UserID)
		if err != nil {
			return nil, err
		}
		if !discoverable {
			continue
		}
		blocked, err := p.Profiles.Blocked(ctx, sample.UserID, other.UserID)
		if err != nil {
			return nil, err
		}
		if blocked {
			continue
		}

		candidates = append(candidates, Candidate{UserID: other.UserID, Distance: distance})
	}
	return candidates, nil
}
