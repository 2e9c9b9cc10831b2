package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"spark_server/models"
	"spark_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// SparkStore persists sparks. UpdateIfStatus is a compare-and-set: the write
// only lands if the stored status still equals expectedStatus, which keeps
// concurrent responses and the expiry sweep from clobbering each other.
type SparkStore interface {
	Put(ctx context.Context, spark models.Spark) error
	Get(ctx context.Context, sparkID string) (*models.Spark, error)
	UpdateIfStatus(ctx context.Context, spark models.Spark, expectedStatus string) error
	ListByUser(ctx context.Context, userID string) ([]models.Spark, error)
	ListPending(ctx context.Context) ([]models.Spark, error)
}

// Notifier is told about new sparks and status changes. Implemented by the
// socket dispatcher; nil disables notifications.
type Notifier interface {
	SparkCreated(spark models.Spark)
	SparkUpdated(spark models.Spark)
}

// SparkService owns the spark state machine: creation after a successful
// cooldown claim, responses, and the time-based expiry sweep. Transitions are
// one-directional and terminal states never transition again.
type SparkService struct {
	Store     SparkStore
	Profiles  *UserProfileService
	Cooldowns *CooldownService // used only by CreateManual; the matching path claims before calling CreateSpark
	Notifier  Notifier
	Expiry    time.Duration

	Now func() time.Time // defaults to time.Now
}

func (ss *SparkService) now() time.Time {
	if ss.Now != nil {
		return ss.Now()
	}
	return time.Now()
}

// CreateSpark creates a pending spark between two users. Callers on the
// matching path must hold a successful cooldown claim; the claim's atomicity
// is the duplicate guard, so creation is deliberately not re-checked here.
func (ss *SparkService) CreateSpark(ctx context.Context, userA, userB, sparkType string, message *string) (models.Spark, error) {
	a, b := utils.OrderPair(userA, userB)
	now := ss.now()
	spark := models.Spark{
		SparkID:     uuid.NewString(),
		PairKey:     utils.PairKey(a, b),
		UserAID:     a,
		UserBID:     b,
		Type:        sparkType,
		Status:      models.SparkStatusPending,
		Message:     message,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ss.Expiry),
		LastUpdated: now,
	}

	if err := ss.Store.Put(ctx, spark); err != nil {
		return models.Spark{}, fmt.Errorf("failed to create spark: %w", err)
	}
	log.Printf("created %s spark %s for pair %s", spark.Type, spark.SparkID, spark.PairKey)

	if ss.Notifier != nil {
		ss.Notifier.SparkCreated(spark)
	}
	return spark, nil
}

// CreateManual creates a user-initiated spark (manual, interest, activity...)
// subject to the same pair cooldown as the matching path.
func (ss *SparkService) CreateManual(ctx context.Context, actorID, targetID, sparkType string, message *string) (models.Spark, error) {
	if !models.ValidSparkType(sparkType) {
		return models.Spark{}, fmt.Errorf("unsupported spark type: %s", sparkType)
	}

	blocked, err := ss.Profiles.Blocked(ctx, actorID, targetID)
	if err != nil {
		return models.Spark{}, err
	}
	if blocked {
		return models.Spark{}, ErrBlocked
	}

	result, err := ss.Cooldowns.TryClaim(ctx, utils.PairKey(actorID, targetID), ss.now())
	if err != nil {
		return models.Spark{}, err
	}
	if !result.Claimed {
		return models.Spark{}, &CooldownError{Remaining: result.Remaining}
	}

	return ss.CreateSpark(ctx, actorID, targetID, sparkType, message)
}

// Respond applies an accept or decline from one participant. Fails with
// ErrNotParticipant when the caller is not one of the two users and
// ErrAlreadyResolved when the spark is already terminal. A repeat of a
// response the caller already gave is a no-op, never a double transition.
func (ss *SparkService) Respond(ctx context.Context, sparkID, actingUserID, action string) (models.Spark, error) {
	if action != models.ActionAccept && action != models.ActionDecline {
		return models.Spark{}, fmt.Errorf("unsupported action: %s", action)
	}

	for attempt := 0; attempt < 2; attempt++ {
		spark, err := ss.Store.Get(ctx, sparkID)
		if err != nil {
			return models.Spark{}, err
		}
		if spark == nil {
			return models.Spark{}, ErrSparkNotFound
		}
		if !spark.Participant(actingUserID) {
			return models.Spark{}, ErrNotParticipant
		}
		if models.TerminalStatus(spark.Status) {
			return models.Spark{}, ErrAlreadyResolved
		}

		updated, changed := applyResponse(*spark, actingUserID, action)
		if !changed {
			return *spark, nil
		}
		updated.LastUpdated = ss.now()

		err = ss.Store.UpdateIfStatus(ctx, updated, spark.Status)
		if errors.Is(err, ErrConditionFailed) {
			continue // raced a concurrent response or the sweep; re-read and re-decide
		}
		if err != nil {
			return models.Spark{}, fmt.Errorf("failed to update spark %s: %w", sparkID, err)
		}

		if ss.Notifier != nil {
			ss.Notifier.SparkUpdated(updated)
		}
		return updated, nil
	}
	return models.Spark{}, ErrAlreadyResolved
}

// applyResponse computes the next spark value for a participant's action.
// Matched requires both parties' affirmative action; a decline lands on
// declined when nobody had accepted yet and on rejected when it shuts down
// the other side's standing accept.
func applyResponse(spark models.Spark, actingUserID, action string) (models.Spark, bool) {
	var own, other *string
	if actingUserID == spark.UserAID {
		own, other = &spark.AResponse, &spark.BResponse
	} else {
		own, other = &spark.BResponse, &spark.AResponse
	}

	if *own == action {
		return spark, false
	}
	*own = action

	switch action {
	case models.ActionAccept:
		if *other == models.ActionAccept {
			spark.Status = models.SparkStatusMatched
		} else {
			spark.Status = models.SparkStatusAccepted
		}
	case models.ActionDecline:
		if *other == models.ActionAccept {
			spark.Status = models.SparkStatusRejected
		} else {
			spark.Status = models.SparkStatusDeclined
		}
	}
	return spark, true
}

// ExpireSweep transitions pending sparks past their deadline to expired.
// Idempotent: resolved or already-expired sparks are untouched, and the
// conditional update means a response racing the sweep always wins cleanly.
func (ss *SparkService) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	pending, err := ss.Store.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending sparks: %w", err)
	}

	expired := 0
	for _, spark := range pending {
		if !now.After(spark.ExpiresAt) {
			continue
		}
		update := spark
		update.Status = models.SparkStatusExpired
		update.LastUpdated = now

		err := ss.Store.UpdateIfStatus(ctx, update, models.SparkStatusPending)
		if errors.Is(err, ErrConditionFailed) {
			continue // resolved underneath us, nothing to do
		}
		if err != nil {
			return expired, fmt.Errorf("failed to expire spark %s: %w", spark.SparkID, err)
		}
		expired++
		if ss.Notifier != nil {
			ss.Notifier.SparkUpdated(update)
		}
	}
	if expired > 0 {
		log.Printf("expiry sweep transitioned %d sparks", expired)
	}
	return expired, nil
}

// ListSparks returns every spark the user participates in, each enriched
// with the peer's public profile summary.
func (ss *SparkService) ListSparks(ctx context.Context, userID string) ([]models.SparkWithProfile, error) {
	sparks, err := ss.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sparks for %s: %w", userID, err)
	}

	enriched := make([]models.SparkWithProfile, 0, len(sparks))
	for _, spark := range sparks {
		enriched = append(enriched, ss.withProfile(ctx, spark, userID))
	}
	return enriched, nil
}

// GetSpark returns a single spark. A missing spark and a spark the caller is
// not part of are indistinguishable to the caller.
func (ss *SparkService) GetSpark(ctx context.Context, sparkID, callerID string) (models.SparkWithProfile, error) {
	spark, err := ss.Store.Get(ctx, sparkID)
	if err != nil {
		return models.SparkWithProfile{}, err
	}
	if spark == nil || !spark.Participant(callerID) {
		return models.SparkWithProfile{}, ErrSparkNotFound
	}
	return ss.withProfile(ctx, *spark, callerID), nil
}

func (ss *SparkService) withProfile(ctx context.Context, spark models.Spark, callerID string) models.SparkWithProfile {
	peerID := spark.PeerOf(callerID)
	result := models.SparkWithProfile{Spark: spark, PeerID: peerID}

	name, photos, err := ss.Profiles.Summary(ctx, peerID)
	if err != nil {
		log.Printf("failed to load profile summary for %s: %v", peerID, err)
		return result
	}
	result.PeerName = name
	result.PeerPhotos = photos
	return result
}

// DynamoSparkStore implements SparkStore against the Sparks table with GSIs
// on pairKey and on each participant column.
type DynamoSparkStore struct {
	Dynamo *DynamoService
}

func (s *DynamoSparkStore) Put(ctx context.Context, spark models.Spark) error {
	return s.Dynamo.PutItem(ctx, models.SparksTable, spark)
}

func (s *DynamoSparkStore) Get(ctx context.Context, sparkID string) (*models.Spark, error) {
	key := map[string]types.AttributeValue{
		"sparkId": &types.AttributeValueMemberS{Value: sparkID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.SparksTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	var spark models.Spark
	if err := attributevalue.UnmarshalMap(item, &spark); err != nil {
		return nil, fmt.Errorf("failed to unmarshal spark: %w", err)
	}
	return &spark, nil
}

func (s *DynamoSparkStore) UpdateIfStatus(ctx context.Context, spark models.Spark, expectedStatus string) error {
	return s.Dynamo.PutItemConditional(ctx, models.SparksTable, spark,
		"attribute_exists(sparkId) AND #status = :expected",
		map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberS{Value: expectedStatus},
		},
		map[string]string{"#status": "status"},
	)
}

func (s *DynamoSparkStore) ListByUser(ctx context.Context, userID string) ([]models.Spark, error) {
	var sparks []models.Spark
	for _, index := range []string{models.SparkUserAIndex, models.SparkUserBIndex} {
		keyCondition := "userAId = :user"
		if index == models.SparkUserBIndex {
			keyCondition = "userBId = :user"
		}
		items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.SparksTable, index, keyCondition,
			map[string]types.AttributeValue{
				":user": &types.AttributeValueMemberS{Value: userID},
			}, nil, 0)
		if err != nil {
			return nil, err
		}

		var page []models.Spark
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sparks: %w", err)
		}
		sparks = append(sparks, page...)
	}
	return sparks, nil
}

func (s *DynamoSparkStore) ListPending(ctx context.Context) ([]models.Spark, error) {
	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.SparksTable, models.SparkStatusIndex,
		"#status = :pending",
		map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: models.SparkStatusPending},
		},
		map[string]string{"#status": "status"}, 0)
	if err != nil {
		return nil, err
	}

	var sparks []models.Spark
	if err := attributevalue.UnmarshalListOfMaps(items, &sparks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending sparks: %w", err)
	}
	return sparks, nil
}
