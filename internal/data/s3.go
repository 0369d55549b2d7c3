package data

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"wheel/internal/conf"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-kratos/kratos/v2/log"
)

const (
	maxRetries     = 3
	retryDelay     = time.Second
	uploadTimeout  = 30 * time.Second
	presignExpires = time.Hour * 24 * 3
)

type S3Bucket struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	logger  *log.Helper
}

// NewS3Bucket 未配置 s3 时返回 nil，录像只保留在内存
func NewS3Bucket(c *conf.Data, logger log.Logger) (*S3Bucket, func(), error) {
	l := log.NewHelper(logger)

	if c == nil || c.S3 == nil || c.S3.Bucket == "" {
		l.Info("s3 not configured, spin recordings are not uploaded")
		return nil, func() {}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(c.S3.Region),
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     c.S3.AccessKeyId,
				SecretAccessKey: c.S3.SecretAccessKey,
			}, nil
		})),
	)
	if err != nil {
		l.Errorf("failed loading AWS config: %v", err)
		return nil, nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.S3.Endpoint != "" {
			// MinIO 等兼容存储
			o.BaseEndpoint = aws.String(c.S3.Endpoint)
			o.UsePathStyle = true
		}
	})
	if c.S3.Endpoint != "" {
		l.Infof("Using custom S3 endpoint: %s", c.S3.Endpoint)
	}

	cleanup := func() {
		l.Info("S3 uploader closed")
	}
	return &S3Bucket{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  c.S3.Bucket,
		logger:  l,
	}, cleanup, nil
}

// S3Enabled 实现 biz.DataRepo
func (r *dataRepo) S3Enabled() bool {
	return r.data.s3Bucket != nil
}

// UploadBytes 上传字节数组，返回预签名下载地址
func (r *dataRepo) UploadBytes(ctx context.Context, bucket, key, contentType string, data []byte) (string, error) {
	s := r.data.s3Bucket
	if s == nil {
		return "", fmt.Errorf("s3 not configured")
	}
	if bucket == "" {
		bucket = s.bucket
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("upload %s canceled: %w (last error: %v)", key, ctx.Err(), lastErr)
			case <-time.After(retryDelay * time.Duration(i)):
			}
			s.logger.Infof("Retry upload %d/%d: %s", i, maxRetries-1, key)
		}

		uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
		_, err := s.client.PutObject(uploadCtx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			ContentType: aws.String(contentType),
			Body:        bytes.NewReader(data),
		})
		cancel()
		if err != nil {
			lastErr = err
			s.logger.Warnf("Upload attempt %d/%d failed: %v", i+1, maxRetries, err)
			continue
		}

		get, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(presignExpires))
		if err != nil {
			lastErr = fmt.Errorf("failed to generate presigned GET URL: %w", err)
			s.logger.Warnf("Failed to generate presigned GET URL: %v", err)
			continue
		}

		s.logger.Infof("S3 upload success: bucket=%s, key=%s, size=%d", bucket, key, len(data))
		return get.URL, nil
	}

	return "", fmt.Errorf("upload failed after %d attempts: %w", maxRetries, lastErr)
}
