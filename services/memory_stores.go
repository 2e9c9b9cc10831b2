package services

import (
	"context"
	"sync"
	"time"

	"spark_server/models"
)

// In-memory store implementations mirroring the DynamoDB conditional-write
// semantics. Used by the test suite and by single-process development runs
// where no AWS backend is available. The mutex plays the role DynamoDB's
// conditional writes play in production: check and write are one atomic step.

// MemoryLocationStore implements LocationStore.
type MemoryLocationStore struct {
	mu      sync.RWMutex
	latest  map[string]models.LocationSample
	history map[string][]models.LocationSample
}

func NewMemoryLocationStore() *MemoryLocationStore {
	return &MemoryLocationStore{
		latest:  make(map[string]models.LocationSample),
		history: make(map[string][]models.LocationSample),
	}
}

func (s *MemoryLocationStore) SaveSample(ctx context.Context, sample models.LocationSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[sample.UserID] = append(s.history[sample.UserID], sample)
	s.latest[sample.UserID] = sample
	return nil
}

func (s *MemoryLocationStore) Latest(ctx context.Context, userID string) (*models.LocationSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sample, ok := s.latest[userID]
	if !ok {
		return nil, nil
	}
	return &sample, nil
}

func (s *MemoryLocationStore) LatestAll(ctx context.Context) ([]models.LocationSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	samples := make([]models.LocationSample, 0, len(s.latest))
	for _, sample := range s.latest {
		samples = append(samples, sample)
	}
	return samples, nil
}

// MemoryCooldownStore implements CooldownStore with the same conditional
// semantics as the DynamoDB ledger.
type MemoryCooldownStore struct {
	mu      sync.Mutex
	entries map[string]models.CooldownEntry
}

func NewMemoryCooldownStore() *MemoryCooldownStore {
	return &MemoryCooldownStore{entries: make(map[string]models.CooldownEntry)}
}

func (s *MemoryCooldownStore) Insert(ctx context.Context, entry models.CooldownEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.PairKey]; exists {
		return ErrConditionFailed
	}
	s.entries[entry.PairKey] = entry
	return nil
}

func (s *MemoryCooldownStore) Refresh(ctx context.Context, entry models.CooldownEntry, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, exists := s.entries[entry.PairKey]
	if !exists || existing.LastEncounterAt.After(cutoff) {
		return ErrConditionFailed
	}
	s.entries[entry.PairKey] = entry
	return nil
}

func (s *MemoryCooldownStore) Get(ctx context.Context, pairKey string) (*models.CooldownEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[pairKey]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// MemorySparkStore implements SparkStore.
type MemorySparkStore struct {
	mu     sync.Mutex
	sparks map[string]models.Spark
}

func NewMemorySparkStore() *MemorySparkStore {
	return &MemorySparkStore{sparks: make(map[string]models.Spark)}
}

func (s *MemorySparkStore) Put(ctx context.Context, spark models.Spark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sparks[spark.SparkID] = spark
	return nil
}

func (s *MemorySparkStore) Get(ctx context.Context, sparkID string) (*models.Spark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spark, ok := s.sparks[sparkID]
	if !ok {
		return nil, nil
	}
	return &spark, nil
}

func (s *MemorySparkStore) UpdateIfStatus(ctx context.Context, spark models.Spark, expectedStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.sparks[spark.SparkID]
	if !ok || existing.Status != expectedStatus {
		return ErrConditionFailed
	}
	s.sparks[spark.SparkID] = spark
	return nil
}

func (s *MemorySparkStore) ListByUser(ctx context.Context, userID string) ([]models.Spark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sparks []models.Spark
	for _, spark := range s.sparks {
		if spark.Participant(userID) {
			sparks = append(sparks, spark)
		}
	}
	return sparks, nil
}

func (s *MemorySparkStore) ListPending(ctx context.Context) ([]models.Spark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sparks []models.Spark
	for _, spark := range s.sparks {
		if spark.Status == models.SparkStatusPending {
			sparks = append(sparks, spark)
		}
	}
	return sparks, nil
}

// MemoryProfileStore implements ProfileStore.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]models.UserProfile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]models.UserProfile)}
}

func (s *MemoryProfileStore) Put(profile models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile
}

func (s *MemoryProfileStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}
