package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3SlipStorage uploads payment slips to an S3 bucket.
type S3SlipStorage struct {
	uploader *s3manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3SlipStorage creates an uploader for bucket. Credentials come from
// the standard AWS environment. endpoint may point at an S3 compatible
// service; empty uses AWS.
func NewS3SlipStorage(bucket, region, endpoint string) (*S3SlipStorage, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	if endpoint != "" {
		baseURL = strings.TrimSuffix(endpoint, "/") + "/" + bucket
	}

	return &S3SlipStorage{
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
		baseURL:  baseURL,
	}, nil
}

// Save uploads body under key and returns the object URL.
func (s *S3SlipStorage) Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        io.LimitReader(body, size),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return s.baseURL + "/" + key, nil
}
