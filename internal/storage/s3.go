package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"ocr-autograder/internal/config"
)

// Client stores full grading reports (transcript, sandbox logs, result)
// as JSON objects in a MinIO bucket.
type Client struct {
	s3     *s3.Client
	bucket string
}

func New(ctx context.Context, sc *config.Store) (*Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: "http://" + sc.Endpoint, HostnameImmutable: true}, nil
	})
	cfg, err := awscfg.LoadDefaultConfig(
		ctx,
		awscfg.WithRegion("us-east-1"),
		awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(sc.AccessKey, sc.SecretKey, "")),
		awscfg.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("object store config: %w", err)
	}
	return &Client{s3: s3.NewFromConfig(cfg), bucket: sc.Bucket}, nil
}

// PutReport writes v as JSON under reports/<submission>/<uuid>.json and
// returns the s3:// reference.
func (c *Client) PutReport(ctx context.Context, submissionID string, v any) (string, error) {
	key := fmt.Sprintf("reports/%s/%s.json", submissionID, uuid.New().String())
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &c.bucket,
		Key:         &key,
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put report %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", c.bucket, key), nil
}

func parseS3Ref(ref string) (string, string, error) {
	const p = "s3://"
	if !strings.HasPrefix(ref, p) {
		return "", "", fmt.Errorf("bad s3 ref (missing s3://): %q", ref)
	}
	s := strings.TrimPrefix(ref, p)
	slash := strings.IndexByte(s, '/')
	if slash <= 0 || slash == len(s)-1 {
		return "", "", fmt.Errorf("bad s3 ref (need bucket/key): %q", ref)
	}
	return s[:slash], s[slash+1:], nil
}

// GetReport fetches a previously stored report by its s3:// reference.
// Refs pointing outside the configured bucket are rejected.
func (c *Client) GetReport(ctx context.Context, ref string) (map[string]any, error) {
	bucket, key, err := parseS3Ref(ref)
	if err != nil {
		return nil, err
	}
	if bucket != c.bucket {
		return nil, fmt.Errorf("report ref %q is outside bucket %s", ref, c.bucket)
	}
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", ref, err)
	}
	defer out.Body.Close()
	var v map[string]any
	if err := json.NewDecoder(out.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", ref, err)
	}
	return v, nil
}
