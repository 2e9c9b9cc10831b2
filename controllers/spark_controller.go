package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"spark_server/services"

	"github.com/gorilla/mux"
)

// SparkController handles API requests for sparks
type SparkController struct {
	SparkService *services.SparkService
}

// NewSparkController creates a new SparkController instance
func NewSparkController(sparkService *services.SparkService) *SparkController {
	return &SparkController{SparkService: sparkService}
}

// HandleListSparks returns every spark involving the caller with the peer's
// public profile summary.
func (sc *SparkController) HandleListSparks(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		http.Error(w, "Missing X-User-Id header", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sparks, err := sc.SparkService.ListSparks(ctx, userID)
	if err != nil {
		log.Printf("❌ Failed to list sparks for %s: %v", userID, err)
		http.Error(w, "Failed to fetch sparks", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sparks)
}

// HandleGetSpark returns a single spark. Missing spark and non-participant
// caller both respond 404.
func (sc *SparkController) HandleGetSpark(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		http.Error(w, "Missing X-User-Id header", http.StatusUnauthorized)
		return
	}
	sparkID := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	spark, err := sc.SparkService.GetSpark(ctx, sparkID, userID)
	if err != nil {
		if errors.Is(err, services.ErrSparkNotFound) {
			http.Error(w, "Spark not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Failed to fetch spark %s: %v", sparkID, err)
		http.Error(w, "Failed to fetch spark", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spark)
}

// HandleRespond applies an accept or decline from the caller.
func (sc *SparkController) HandleRespond(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		http.Error(w, "Missing X-User-Id header", http.StatusUnauthorized)
		return
	}
	sparkID := mux.Vars(r)["id"]

	var request struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if request.Action != "accept" && request.Action != "decline" {
		http.Error(w, "action must be \"accept\" or \"decline\"", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	spark, err := sc.SparkService.Respond(ctx, sparkID, userID, request.Action)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSparkNotFound):
			http.Error(w, "Spark not found", http.StatusNotFound)
		case errors.Is(err, services.ErrNotParticipant):
			http.Error(w, "Not a participant in this spark", http.StatusForbidden)
		case errors.Is(err, services.ErrAlreadyResolved):
			http.Error(w, "Spark is already resolved", http.StatusConflict)
		default:
			log.Printf("❌ Failed to respond to spark %s: %v", sparkID, err)
			http.Error(w, "Failed to respond to spark", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spark)
}

// HandleCreateSpark creates a user-initiated spark, subject to the same
// pair cooldown as proximity detection.
func (sc *SparkController) HandleCreateSpark(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		http.Error(w, "Missing X-User-Id header", http.StatusUnauthorized)
		return
	}

	var request struct {
		TargetUserID string  `json:"targetUserId"`
		Type         string  `json:"type"`
		Message      *string `json:"message,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if request.TargetUserID == "" || request.TargetUserID == userID {
		http.Error(w, "targetUserId is required and must differ from the caller", http.StatusBadRequest)
		return
	}
	if request.Type == "" {
		request.Type = "manual"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	spark, err := sc.SparkService.CreateManual(ctx, userID, request.TargetUserID, request.Type, request.Message)
	if err != nil {
		var cooldownErr *services.CooldownError
		switch {
		case errors.As(err, &cooldownErr):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":             "Pair is on cooldown",
				"retryAfterSeconds": int(cooldownErr.Remaining.Seconds()),
			})
		case errors.Is(err, services.ErrBlocked):
			http.Error(w, "Cannot create a spark with this user", http.StatusForbidden)
		default:
			log.Printf("❌ Failed to create spark for %s -> %s: %v", userID, request.TargetUserID, err)
			http.Error(w, "Failed to create spark", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(spark)
}
