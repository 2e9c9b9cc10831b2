package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Service issues presigned read URLs for profile photos referenced from
// spark summaries. Implements PhotoURLSigner.
type S3Service struct {
	Client *s3.Client
	Bucket string
}

// NewS3Service initializes the S3 client from the ambient AWS configuration.
func NewS3Service(bucket string) (*S3Service, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Service{Client: s3.NewFromConfig(cfg), Bucket: bucket}, nil
}

// SignReadURL generates a presigned URL for reading a stored photo.
func (s *S3Service) SignReadURL(key string) (string, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}
	presigner := s3.NewPresignClient(s.Client)
	presignedURL, err := presigner.PresignGetObject(context.TODO(), params, s3.WithPresignExpires(5*time.Minute))
	if err != nil {
		return "", err
	}
	return presignedURL.URL, nil
}
