package models

import "time"

// LocationSample is one reported position for a user. Samples are immutable;
// a newer sample supersedes an older one but never deletes it.
type LocationSample struct {
	UserID     string    `dynamodbav:"userId" json:"userId"`         // ✅ Partition Key
	CapturedAt time.Time `dynamodbav:"capturedAt" json:"capturedAt"` // ✅ Sort Key (history table)
	Latitude   float64   `dynamodbav:"latitude" json:"latitude"`
	Longitude  float64   `dynamodbav:"longitude" json:"longitude"`
	Accuracy   float64   `dynamodbav:"accuracy,omitempty" json:"accuracy,omitempty"` // meters, 0 = unknown
}

// LocationsTable holds the full per-user sample history (PK userId, SK capturedAt).
const LocationsTable = "Locations"

// LatestLocationsTable holds exactly one row per user, overwritten on every update.
const LatestLocationsTable = "LatestLocations"
