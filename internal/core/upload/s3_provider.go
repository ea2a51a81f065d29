package upload

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures the S3 provider. Endpoint targets S3-compatible
// stores (MinIO, R2) and switches to path-style addressing.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Prefix          string
}

// S3Provider stores files in an S3 bucket
type S3Provider struct {
	client  *s3.Client
	bucket  string
	prefix  string
	baseURL string
}

func NewS3Provider(ctx context.Context, cfg S3Config) (*S3Provider, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	// Without static keys the default chain (env, shared config, IAM role) applies.
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	if endpoint != "" {
		baseURL = endpoint + "/" + cfg.Bucket
	}

	return &S3Provider{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cleanKey(cfg.Prefix),
		baseURL: baseURL,
	}, nil
}

func (p *S3Provider) objectKey(key string) string {
	key = cleanKey(key)
	if p.prefix == "" {
		return key
	}
	return p.prefix + "/" + key
}

func (p *S3Provider) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*Object, error) {
	objectKey := p.objectKey(key)
	if contentType == "" {
		contentType = ContentTypeFor(objectKey)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &Object{
		Key:         objectKey,
		URL:         p.baseURL + "/" + objectKey,
		Size:        size,
		ContentType: contentType,
	}, nil
}

func (p *S3Provider) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (p *S3Provider) URL(key string) string {
	return p.baseURL + "/" + p.objectKey(key)
}

func (p *S3Provider) Name() string {
	return "s3"
}
