// Package s3 uploads per-location CSV tables to an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"go.ngs.io/wave-energy/internal/adapter/sink/csvfile"
	"go.ngs.io/wave-energy/internal/domain"
)

// PutObjectAPI is the subset of *s3.Client the sink uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ClientConfig configures the S3 client.
type ClientConfig struct {
	Region    string
	Endpoint  string // Optional, for S3-compatible stores such as R2 or MinIO.
	AccessKey string // Optional; the default credential chain is used when empty.
	SecretKey string
}

// NewClient creates an S3 client.
func NewClient(ctx context.Context, c ClientConfig) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{}
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Sink uploads <prefix>/<location>.csv.
type Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewSink creates a Sink.
func NewSink(client PutObjectAPI, bucket, prefix string) *Sink {
	return &Sink{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a location.
func (s *Sink) Key(location string) string {
	return path.Join(s.prefix, csvfile.FileName(location))
}

// Write implements sink.Sink.
func (s *Sink) Write(ctx context.Context, table *domain.WideTable) error {
	var buf bytes.Buffer
	if err := csvfile.Encode(&buf, table); err != nil {
		return fmt.Errorf("failed to encode %s: %w", table.Location, err)
	}

	key := s.Key(table.Location)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
