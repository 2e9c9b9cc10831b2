package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"spark_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineFixture struct {
	pipeline *MatchPipeline
	sparks   *MemorySparkStore
	profiles *MemoryProfileStore
	clock    *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	locations := NewMemoryLocationStore()
	profiles := NewMemoryProfileStore()
	sparkStore := NewMemorySparkStore()
	profileService := &UserProfileService{Store: profiles}
	cooldowns := &CooldownService{Store: NewMemoryCooldownStore(), Cooldown: 300 * time.Second}
	sparks := &SparkService{
		Store:     sparkStore,
		Profiles:  profileService,
		Cooldowns: cooldowns,
		Expiry:    72 * time.Hour,
		Now:       clock.Now,
	}
	matcher := &ProximityService{
		Locations:    locations,
		Profiles:     profileService,
		RadiusMeters: 100,
		MaxSampleAge: 15 * time.Minute,
	}
	pipeline := &MatchPipeline{
		Locations: locations,
		Matcher:   matcher,
		Cooldowns: cooldowns,
		Sparks:    sparks,
		Now:       clock.Now,
	}

	profiles.Put(models.UserProfile{UserID: "alice", Discoverable: true})
	profiles.Put(models.UserProfile{UserID: "bob", Discoverable: true})

	return &pipelineFixture{pipeline: pipeline, sparks: sparkStore, profiles: profiles, clock: clock}
}

func (f *pipelineFixture) submit(t *testing.T, userID string, lat, lon float64) {
	t.Helper()
	err := f.pipeline.ProcessSample(context.Background(), models.LocationSample{
		UserID:     userID,
		Latitude:   lat,
		Longitude:  lon,
		CapturedAt: f.clock.Now(),
	})
	require.NoError(t, err)
}

func (f *pipelineFixture) pairSparks(t *testing.T, userA, userB string) []models.Spark {
	t.Helper()
	all, err := f.sparks.ListByUser(context.Background(), userA)
	require.NoError(t, err)
	var pair []models.Spark
	for _, spark := range all {
		if spark.Participant(userB) {
			pair = append(pair, spark)
		}
	}
	return pair
}

// Two users at the same spot produce exactly one pending proximity spark,
// a repeat inside the cooldown window produces none, and a repeat after the
// window produces a second, distinct spark.
func TestPipeline_CooldownScenario(t *testing.T) {
	f := newPipelineFixture(t)
	t0 := f.clock.Now()

	f.submit(t, "alice", 37.5665, 126.9780)
	f.clock.Set(t0.Add(1 * time.Second))
	f.submit(t, "bob", 37.5665, 126.9780)

	sparks := f.pairSparks(t, "alice", "bob")
	require.Len(t, sparks, 1)
	assert.Equal(t, models.SparkStatusPending, sparks[0].Status)
	assert.Equal(t, models.SparkTypeProximity, sparks[0].Type)

	// Within the 300s cooldown: no new spark.
	f.clock.Set(t0.Add(10 * time.Second))
	f.submit(t, "alice", 37.5665, 126.9780)
	f.submit(t, "bob", 37.5665, 126.9780)
	assert.Len(t, f.pairSparks(t, "alice", "bob"), 1)

	// After the cooldown: a second, distinct spark.
	f.clock.Set(t0.Add(310 * time.Second))
	f.submit(t, "alice", 37.5665, 126.9780)
	sparks = f.pairSparks(t, "alice", "bob")
	require.Len(t, sparks, 2)
	assert.NotEqual(t, sparks[0].SparkID, sparks[1].SparkID)
}

func TestPipeline_TooFarApartNoSpark(t *testing.T) {
	f := newPipelineFixture(t)

	f.submit(t, "alice", 37.5665, 126.9780)
	f.submit(t, "bob", 37.6000, 127.0200) // ~6km away

	assert.Empty(t, f.pairSparks(t, "alice", "bob"))
}

// N concurrent jobs referencing the same pair produce exactly one spark,
// regardless of interleaving.
func TestPipeline_ConcurrentUpdatesExactlyOneSpark(t *testing.T) {
	f := newPipelineFixture(t)

	const jobs = 16
	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		user := "alice"
		if i%2 == 1 {
			user = "bob"
		}
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			err := f.pipeline.ProcessSample(context.Background(), models.LocationSample{
				UserID:     user,
				Latitude:   37.5665,
				Longitude:  126.9780,
				CapturedAt: f.clock.Now(),
			})
			assert.NoError(t, err)
		}(user)
	}
	wg.Wait()

	assert.Len(t, f.pairSparks(t, "alice", "bob"), 1)
}

// A retried job that already produced a spark must not produce a second one:
// the ledger entry from the first success blocks the retry.
func TestPipeline_RetryIsIdempotent(t *testing.T) {
	f := newPipelineFixture(t)

	f.submit(t, "alice", 37.5665, 126.9780)
	f.submit(t, "bob", 37.5665, 126.9780)
	require.Len(t, f.pairSparks(t, "alice", "bob"), 1)

	// Simulate the queue redelivering bob's job after a timeout.
	f.submit(t, "bob", 37.5665, 126.9780)
	assert.Len(t, f.pairSparks(t, "alice", "bob"), 1)
}

// Invalid coordinates that slipped past ingress are dropped, not retried.
func TestPipeline_InvalidSampleDropped(t *testing.T) {
	f := newPipelineFixture(t)

	err := f.pipeline.ProcessSample(context.Background(), models.LocationSample{
		UserID:     "alice",
		Latitude:   123.0, // out of range
		Longitude:  0,
		CapturedAt: f.clock.Now(),
	})
	require.NoError(t, err)
	assert.Empty(t, f.pairSparks(t, "alice", "bob"))
}

// End to end through the queue: concurrent enqueues for both users still
// yield exactly one spark.
func TestPipeline_ThroughQueue(t *testing.T) {
	f := newPipelineFixture(t)

	queue := NewIngestQueue(4, 64, f.pipeline.ProcessSample)
	queue.Start(context.Background())

	for i := 0; i < 10; i++ {
		for _, user := range []string{"alice", "bob"} {
			_, err := queue.Enqueue(models.LocationSample{
				UserID:     user,
				Latitude:   37.5665,
				Longitude:  126.9780,
				CapturedAt: f.clock.Now(),
			})
			require.NoError(t, err)
		}
	}
	queue.Close()

	assert.Len(t, f.pairSparks(t, "alice", "bob"), 1)
}
