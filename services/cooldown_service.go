package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"spark_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// CooldownStore is the keyed ledger behind the claim operation. Both writes
// are conditional at the storage layer: Insert fails with ErrConditionFailed
// when an entry for the pair already exists, Refresh fails when the existing
// entry's lastEncounterAt is newer than cutoff. There is deliberately no
// unconditional write; the conditional semantics are what make concurrent
// claims safe across workers and hosts.
type CooldownStore interface {
	Insert(ctx context.Context, entry models.CooldownEntry) error
	Refresh(ctx context.Context, entry models.CooldownEntry, cutoff time.Time) error
	Get(ctx context.Context, pairKey string) (*models.CooldownEntry, error)
}

// ClaimResult is the outcome of CooldownService.TryClaim.
type ClaimResult struct {
	Claimed   bool
	LockToken string        // set when Claimed
	Remaining time.Duration // set when on cooldown
}

// CooldownService enforces "at most one spark per unordered pair per
// cooldown window". The ledger row is the sole serialization point: the two
// members of a pair can be processed by two workers at the same instant, and
// only the worker whose conditional write succeeds creates a spark.
type CooldownService struct {
	Store    CooldownStore
	Cooldown time.Duration
}

// TryClaim attempts to reserve the right to create a spark for pairKey at
// the given instant. Losing the race or hitting the cooldown window is a
// normal outcome reported through the result, never through the error.
func (cs *CooldownService) TryClaim(ctx context.Context, pairKey string, now time.Time) (ClaimResult, error) {
	entry := models.CooldownEntry{
		PairKey:         pairKey,
		LastEncounterAt: now,
		LockToken:       uuid.NewString(),
	}

	// Fresh pair: atomic insert-if-absent.
	err := cs.Store.Insert(ctx, entry)
	if err == nil {
		return ClaimResult{Claimed: true, LockToken: entry.LockToken}, nil
	}
	if !errors.Is(err, ErrConditionFailed) {
		return ClaimResult{}, fmt.Errorf("cooldown insert for %s: %w", pairKey, err)
	}

	// Entry exists: atomic refresh-if-elapsed. Never read-then-write.
	cutoff := now.Add(-cs.Cooldown)
	err = cs.Store.Refresh(ctx, entry, cutoff)
	if err == nil {
		return ClaimResult{Claimed: true, LockToken: entry.LockToken}, nil
	}
	if !errors.Is(err, ErrConditionFailed) {
		return ClaimResult{}, fmt.Errorf("cooldown refresh for %s: %w", pairKey, err)
	}

	// Lost the claim. The read below is observability only; correctness was
	// already decided by the conditional writes above.
	remaining := cs.Cooldown
	if existing, getErr := cs.Store.Get(ctx, pairKey); getErr == nil && existing != nil {
		if r := cs.Cooldown - now.Sub(existing.LastEncounterAt); r > 0 && r < remaining {
			remaining = r
		}
	}
	log.Printf("pair %s on cooldown for another %s", pairKey, remaining)
	return ClaimResult{Claimed: false, Remaining: remaining}, nil
}

// DynamoCooldownStore implements CooldownStore with DynamoDB conditional
// writes against the SparkCooldowns table.
type DynamoCooldownStore struct {
	Dynamo *DynamoService
}

func (s *DynamoCooldownStore) Insert(ctx context.Context, entry models.CooldownEntry) error {
	return s.Dynamo.PutItemConditional(ctx, models.SparkCooldownsTable, entry,
		"attribute_not_exists(pairKey)", nil, nil)
}

func (s *DynamoCooldownStore) Refresh(ctx context.Context, entry models.CooldownEntry, cutoff time.Time) error {
	key := map[string]types.AttributeValue{
		"pairKey": &types.AttributeValueMemberS{Value: entry.PairKey},
	}
	updateExpression := "SET lastEncounterAt = :now, lockToken = :token"
	conditionExpression := "attribute_exists(pairKey) AND lastEncounterAt <= :cutoff"
	expressionValues := map[string]types.AttributeValue{
		":now":    &types.AttributeValueMemberN{Value: strconv.FormatInt(entry.LastEncounterAt.Unix(), 10)},
		":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff.Unix(), 10)},
		":token":  &types.AttributeValueMemberS{Value: entry.LockToken},
	}

	_, err := s.Dynamo.UpdateItemConditional(ctx, models.SparkCooldownsTable, key,
		updateExpression, conditionExpression, expressionValues, nil)
	return err
}

func (s *DynamoCooldownStore) Get(ctx context.Context, pairKey string) (*models.CooldownEntry, error) {
	key := map[string]types.AttributeValue{
		"pairKey": &types.AttributeValueMemberS{Value: pairKey},
	}
	item, err := s.Dynamo.GetItem(ctx, models.SparkCooldownsTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	var entry models.CooldownEntry
	if err := attributevalue.UnmarshalMap(item, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cooldown entry: %w", err)
	}
	return &entry, nil
}
