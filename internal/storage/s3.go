package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Config describes how to reach an S3 (or S3 compatible) bucket
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Backend stores documents in an S3 bucket
type S3Backend struct {
	client s3iface.S3API
	bucket string
}

// Ensure S3Backend implements Backend
var _ Backend = (*S3Backend)(nil)

// NewS3Backend creates an S3 backend. Static credentials are used when both
// keys are set, otherwise the SDK's default credential chain applies.
func NewS3Backend(config S3Config) (*S3Backend, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	awsConfig := &aws.Config{}
	if config.Region != "" {
		awsConfig.Region = aws.String(config.Region)
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKeyID, config.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewS3BackendWithClient(s3.New(sess), config.Bucket), nil
}

// NewS3BackendWithClient wraps an existing S3 client
func NewS3BackendWithClient(client s3iface.S3API, bucket string) *S3Backend {
	return &S3Backend{
		client: client,
		bucket: bucket,
	}
}

func (s *S3Backend) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return nil
}

func (s *S3Backend) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("object %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	return data, nil
}

// ListPage issues a single ListObjectsV2 request. ListObjectsV2 returns at
// most 1000 keys per response; the continuation token is passed back as the
// next page token.
func (s *S3Backend) ListPage(ctx context.Context, prefix, pageToken string) (Page, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	if pageToken != "" {
		input.ContinuationToken = aws.String(pageToken)
	}

	resp, err := s.client.ListObjectsV2WithContext(ctx, input)
	if err != nil {
		return Page{}, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
	}

	var page Page
	for _, item := range resp.Contents {
		if item.Key != nil {
			page.Keys = append(page.Keys, *item.Key)
		}
	}
	page.Truncated = aws.BoolValue(resp.IsTruncated)
	if page.Truncated {
		page.NextPageToken = aws.StringValue(resp.NextContinuationToken)
	}

	return page, nil
}
