// Package s3bucket stores exported workbooks in S3.
package s3bucket

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectClient interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Bucket struct {
	client  objectClient
	presign func(ctx context.Context, key string) (string, error)
	bucket  string
	region  string
}

// LinkTTL is how long a returned download link stays valid.
const LinkTTL = 24 * time.Hour

func NewS3Bucket(ctx context.Context, region string, bucket string) (*S3Bucket, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	presignClient := s3.NewPresignClient(client)

	b := &S3Bucket{client: client, bucket: bucket, region: region}
	b.presign = func(ctx context.Context, key string) (string, error) {
		req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(LinkTTL))
		if err != nil {
			return "", fmt.Errorf("failed to presign object: %w", err)
		}
		return req.URL, nil
	}
	return b, nil
}

// Upload stores content under key and returns a time-limited download link.
func (b *S3Bucket) Upload(ctx context.Context, key string, contentType string, content []byte) (string, error) {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	if b.presign == nil {
		return b.ObjectURL(key), nil
	}
	return b.presign(ctx, key)
}

// ObjectURL is the plain, unsigned URL of key.
func (b *S3Bucket) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.region, key)
}
