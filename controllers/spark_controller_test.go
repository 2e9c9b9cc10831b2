package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spark_server/models"
	"spark_server/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSparkFixture() (*mux.Router, *services.SparkService, *services.MemoryProfileStore) {
	profiles := services.NewMemoryProfileStore()
	sparkService := &services.SparkService{
		Store:     services.NewMemorySparkStore(),
		Profiles:  &services.UserProfileService{Store: profiles},
		Cooldowns: &services.CooldownService{Store: services.NewMemoryCooldownStore(), Cooldown: 5 * time.Minute},
		Expiry:    72 * time.Hour,
	}

	r := mux.NewRouter()
	controller := NewSparkController(sparkService)
	r.HandleFunc("/api/sparks", controller.HandleListSparks).Methods("GET")
	r.HandleFunc("/api/sparks", controller.HandleCreateSpark).Methods("POST")
	r.HandleFunc("/api/sparks/{id}", controller.HandleGetSpark).Methods("GET")
	r.HandleFunc("/api/sparks/{id}/respond", controller.HandleRespond).Methods("POST")
	return r, sparkService, profiles
}

func doJSON(router *mux.Router, method, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListSparks(t *testing.T) {
	router, sparkService, profiles := newSparkFixture()
	profiles.Put(models.UserProfile{UserID: "bob", Name: "Bob"})

	_, err := sparkService.CreateSpark(context.Background(), "alice", "bob", models.SparkTypeProximity, nil)
	require.NoError(t, err)

	rec := doJSON(router, "GET", "/api/sparks", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sparks []models.SparkWithProfile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sparks))
	require.Len(t, sparks, 1)
	assert.Equal(t, "bob", sparks[0].PeerID)
	assert.Equal(t, "Bob", sparks[0].PeerName)

	rec = doJSON(router, "GET", "/api/sparks", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetSpark(t *testing.T) {
	router, sparkService, _ := newSparkFixture()

	spark, err := sparkService.CreateSpark(context.Background(), "alice", "bob", models.SparkTypeProximity, nil)
	require.NoError(t, err)

	rec := doJSON(router, "GET", "/api/sparks/"+spark.SparkID, "alice", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Non-participant and missing spark are both 404.
	rec = doJSON(router, "GET", "/api/sparks/"+spark.SparkID, "mallory", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(router, "GET", "/api/sparks/missing", "alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRespondEndpoint(t *testing.T) {
	router, sparkService, _ := newSparkFixture()

	spark, err := sparkService.CreateSpark(context.Background(), "alice", "bob", models.SparkTypeProximity, nil)
	require.NoError(t, err)

	rec := doJSON(router, "POST", "/api/sparks/"+spark.SparkID+"/respond", "alice", `{"action":"accept"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Spark
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, models.SparkStatusAccepted, updated.Status)

	// Invalid action
	rec = doJSON(router, "POST", "/api/sparks/"+spark.SparkID+"/respond", "bob", `{"action":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Stranger
	rec = doJSON(router, "POST", "/api/sparks/"+spark.SparkID+"/respond", "mallory", `{"action":"accept"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Resolve, then respond again
	rec = doJSON(router, "POST", "/api/sparks/"+spark.SparkID+"/respond", "bob", `{"action":"decline"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(router, "POST", "/api/sparks/"+spark.SparkID+"/respond", "bob", `{"action":"decline"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown spark
	rec = doJSON(router, "POST", "/api/sparks/missing/respond", "alice", `{"action":"accept"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSparkEndpoint(t *testing.T) {
	router, _, profiles := newSparkFixture()
	profiles.Put(models.UserProfile{UserID: "alice", Discoverable: true})
	profiles.Put(models.UserProfile{UserID: "bob", Discoverable: true})

	rec := doJSON(router, "POST", "/api/sparks", "alice", `{"targetUserId":"bob","type":"interest"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var spark models.Spark
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&spark))
	assert.Equal(t, models.SparkTypeInterest, spark.Type)

	// Same pair inside the cooldown window: 409 with a retry hint.
	rec = doJSON(router, "POST", "/api/sparks", "bob", `{"targetUserId":"alice"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Greater(t, body["retryAfterSeconds"].(float64), 0.0)

	// Self-spark rejected.
	rec = doJSON(router, "POST", "/api/sparks", "alice", `{"targetUserId":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
