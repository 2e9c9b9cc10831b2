package services

import (
	"context"
	"fmt"

	"spark_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// LocationStore persists per-user coordinates. Samples are logically
// append-only: SaveSample records a new sample and makes it the user's
// latest, it never rewrites history.
type LocationStore interface {
	SaveSample(ctx context.Context, sample models.LocationSample) error
	Latest(ctx context.Context, userID string) (*models.LocationSample, error)
	// LatestAll returns the most recent sample of every user that has one.
	LatestAll(ctx context.Context) ([]models.LocationSample, error)
}

// DynamoLocationStore keeps the full history in the Locations table
// (PK userId, SK capturedAt) and mirrors the newest sample into the
// LatestLocations table so the candidate scan stays one row per user.
type DynamoLocationStore struct {
	Dynamo *DynamoService
}

func (s *DynamoLocationStore) SaveSample(ctx context.Context, sample models.LocationSample) error {
	if err := s.Dynamo.PutItem(ctx, models.LocationsTable, sample); err != nil {
		return fmt.Errorf("failed to append location history: %w", err)
	}
	if err := s.Dynamo.PutItem(ctx, models.LatestLocationsTable, sample); err != nil {
		return fmt.Errorf("failed to update latest location: %w", err)
	}
	return nil
}

// Latest reads the newest history row rather than the mirror, so a caller
// always sees its own just-written sample even if the mirror write failed.
func (s *DynamoLocationStore) Latest(ctx context.Context, userID string) (*models.LocationSample, error) {
	values := map[string]types.AttributeValue{
		":uid": &types.AttributeValueMemberS{Value: userID},
	}
	items, err := s.Dynamo.QueryItemsDescending(ctx, models.LocationsTable, "userId = :uid", values, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	var sample models.LocationSample
	if err := attributevalue.UnmarshalMap(items[0], &sample); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location sample: %w", err)
	}
	return &sample, nil
}

func (s *DynamoLocationStore) LatestAll(ctx context.Context) ([]models.LocationSample, error) {
	var samples []models.LocationSample
	if err := s.Dynamo.ScanAll(ctx, models.LatestLocationsTable, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}
