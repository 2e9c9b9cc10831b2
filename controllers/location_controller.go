package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"spark_server/models"
	"spark_server/services"
	"spark_server/utils"
)

// LocationController handles location update ingestion and reads.
type LocationController struct {
	Queue     *services.IngestQueue
	Locations services.LocationStore
}

// NewLocationController creates a new LocationController instance
func NewLocationController(queue *services.IngestQueue, locations services.LocationStore) *LocationController {
	return &LocationController{Queue: queue, Locations: locations}
}

// HandleUpdateLocation accepts a location update, validates it synchronously
// and enqueues it for the matching pipeline. Responds 202: the caller never
// waits on matching outcomes.
func (lc *LocationController) HandleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		http.Error(w, "Missing X-User-Id header", http.StatusUnauthorized)
		return
	}

	var request struct {
		Latitude   *float64   `json:"latitude"`
		Longitude  *float64   `json:"longitude"`
		Accuracy   float64    `json:"accuracy,omitempty"`
		CapturedAt *time.Time `json:"capturedAt,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if request.Latitude == nil || request.Longitude == nil {
		http.Error(w, "latitude and longitude are required", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateCoordinates(*request.Latitude, *request.Longitude); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	capturedAt := time.Now().UTC()
	if request.CapturedAt != nil {
		capturedAt = request.CapturedAt.UTC()
	}

	jobID, err := lc.Queue.Enqueue(models.LocationSample{
		UserID:     userID,
		Latitude:   *request.Latitude,
		Longitude:  *request.Longitude,
		Accuracy:   request.Accuracy,
		CapturedAt: capturedAt,
	})
	if err != nil {
		if errors.Is(err, services.ErrQueueUnavailable) {
			http.Error(w, "Location ingestion temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		log.Printf("❌ Failed to enqueue location for %s: %v", userID, err)
		http.Error(w, "Failed to enqueue location", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"jobId": jobID})
}

// HandleGetLatestLocation returns the caller's most recently recorded sample.
func (lc *LocationController) HandleGetLatestLocation(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		http.Error(w, "Missing X-User-Id header", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sample, err := lc.Locations.Latest(ctx, userID)
	if err != nil {
		log.Printf("❌ Failed to fetch latest location for %s: %v", userID, err)
		http.Error(w, "Failed to fetch latest location", http.StatusInternalServerError)
		return
	}
	if sample == nil {
		http.Error(w, "No location recorded", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sample)
}
