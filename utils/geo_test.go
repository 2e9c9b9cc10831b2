package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	// Same point
	assert.Equal(t, 0.0, HaversineDistance(37.5665, 126.9780, 37.5665, 126.9780))

	// Seoul city hall to a point ~6km northeast
	d := HaversineDistance(37.5665, 126.9780, 37.6000, 127.0200)
	assert.InDelta(t, 5300, d, 1000, "expected roughly 5-6km, got %f", d)
	assert.Greater(t, d, 100.0)

	// Two points ~111m apart (0.001 degrees of latitude)
	d = HaversineDistance(37.5665, 126.9780, 37.5675, 126.9780)
	assert.InDelta(t, 111, d, 5)
}

func TestValidateCoordinates(t *testing.T) {
	require.NoError(t, ValidateCoordinates(37.5665, 126.9780))
	require.NoError(t, ValidateCoordinates(-90, -180))
	require.NoError(t, ValidateCoordinates(90, 180))

	assert.ErrorIs(t, ValidateCoordinates(90.1, 0), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidateCoordinates(-90.1, 0), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidateCoordinates(0, 180.1), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidateCoordinates(0, -180.1), ErrInvalidCoordinates)
}

func TestPairKeyOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("alice", "bob"), PairKey("bob", "alice"))
	assert.Equal(t, "alice#bob", PairKey("bob", "alice"))
	assert.NotEqual(t, PairKey("alice", "bob"), PairKey("alice", "carol"))

	a, b := OrderPair("bob", "alice")
	assert.Equal(t, "alice", a)
	assert.Equal(t, "bob", b)
}
