package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
	"github.com/Revixit-Net/discord-bot/internal/core/port"
	conf "github.com/Revixit-Net/discord-bot/internal/infra/config"
)

// S3Store keeps cosmetic assets in an S3-compatible bucket (MinIO in the
// usual deployment) under per-kind key prefixes.
type S3Store struct {
	client   *s3.Client
	bucket   string
	prefixes map[domain.AssetKind]string
	logger   *zap.Logger
}

// NewS3Store builds an S3 client from static credentials and a custom
// endpoint.
func NewS3Store(ctx context.Context, cfg conf.S3Settings, logger *zap.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		prefixes: map[domain.AssetKind]string{
			domain.AssetSkin:  cfg.SkinPrefix,
			domain.AssetCloak: cfg.CloakPrefix,
		},
		logger: logger,
	}, nil
}

// Put uploads the asset object under the kind's key prefix.
func (s *S3Store) Put(ctx context.Context, kind domain.AssetKind, filename string, data []byte) error {
	prefix, ok := s.prefixes[kind]
	if !ok {
		return fmt.Errorf("unknown asset kind %q", kind)
	}

	key := fmt.Sprintf("%s/%s", prefix, filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("put s3 object %s: %w", key, err)
	}

	s.logger.Debug("asset object stored",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
	)

	return nil
}

var _ port.AssetStore = (*S3Store)(nil)
