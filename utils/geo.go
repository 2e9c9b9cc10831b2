package utils

import (
	"errors"
	"math"
	"strings"
)

// ErrInvalidCoordinates is returned when a latitude or longitude is outside
// the valid decimal-degree range. Bad coordinates must fail fast rather than
// silently matching everywhere.
var ErrInvalidCoordinates = errors.New("latitude or longitude out of range")

// HaversineDistance returns the great-circle distance in meters between two
// lat/lon points on a sphere of Earth's mean radius.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0 // Earth radius in meters
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// ValidateCoordinates checks that lat is in [-90,90] and lon in [-180,180].
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// PairKey derives the canonical, order-independent key for two user IDs:
// the IDs sorted lexicographically and joined with '#'.
// PairKey(a, b) == PairKey(b, a).
func PairKey(userA, userB string) string {
	if strings.Compare(userA, userB) > 0 {
		userA, userB = userB, userA
	}
	return userA + "#" + userB
}

// OrderPair returns the two IDs in canonical (lexicographic) order.
func OrderPair(userA, userB string) (string, string) {
	if strings.Compare(userA, userB) > 0 {
		return userB, userA
	}
	return userA, userB
}
