package services

import (
	"context"
	"fmt"
	"log"

	"spark_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ProfileStore reads user profiles. Profile writes belong to the profile
// service proper and are out of scope here.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
}

// PhotoURLSigner turns a stored photo key into a fetchable URL. Nil-safe at
// the call sites so tests and photo-less deployments can skip S3 entirely.
type PhotoURLSigner interface {
	SignReadURL(key string) (string, error)
}

// DynamoProfileStore implements ProfileStore against the UserProfiles table.
type DynamoProfileStore struct {
	Dynamo *DynamoService
}

func (s *DynamoProfileStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.UserProfilesTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user profile: %w", err)
	}
	return &profile, nil
}

// UserProfileService provides the profile reads the spark engine needs:
// discovery eligibility checks for the matcher and public summaries for
// spark listings.
type UserProfileService struct {
	Store  ProfileStore
	Signer PhotoURLSigner
}

// Discoverable reports whether userID exists and has opted in to proximity
// discovery.
func (ps *UserProfileService) Discoverable(ctx context.Context, userID string) (bool, error) {
	profile, err := ps.Store.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return profile != nil && profile.Discoverable, nil
}

// Blocked reports whether either user has blocked the other.
func (ps *UserProfileService) Blocked(ctx context.Context, userID, otherID string) (bool, error) {
	for _, pair := range [][2]string{{userID, otherID}, {otherID, userID}} {
		profile, err := ps.Store.Get(ctx, pair[0])
		if err != nil {
			return false, err
		}
		if profile == nil {
			continue
		}
		for _, blocked := range profile.Blocked {
			if blocked == pair[1] {
				return true, nil
			}
		}
	}
	return false, nil
}

// Summary returns the peer's public profile summary with photo keys resolved
// to presigned URLs when a signer is configured. A missing profile yields an
// ID-only summary rather than an error so spark listings degrade gracefully.
func (ps *UserProfileService) Summary(ctx context.Context, userID string) (name string, photos []string, err error) {
	profile, err := ps.Store.Get(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if profile == nil {
		return "", nil, nil
	}

	for _, key := range profile.Photos {
		if ps.Signer == nil {
			photos = append(photos, key)
			continue
		}
		url, signErr := ps.Signer.SignReadURL(key)
		if signErr != nil {
			log.Printf("failed to presign photo %s for %s: %v", key, userID, signErr)
			continue
		}
		photos = append(photos, url)
	}
	return profile.Name, photos, nil
}
