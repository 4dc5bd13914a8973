package storage

import (
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/thereayou/wallet-profile/internal/config"
)

// S3Uploader работает с любым S3-совместимым хранилищем
type S3Uploader struct {
	client *minio.Client
	bucket string
}

func NewS3Uploader(cfg config.StorageConfig) (*S3Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return &S3Uploader{client: client, bucket: cfg.Bucket}, nil
}

func (u *S3Uploader) Put(ctx context.Context, key string, obj Object) (string, error) {
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := u.client.PutObject(ctx, u.bucket, key, obj.Body, obj.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return info.Key, nil
}

// NewFromConfig возвращает nil, если хранилище не настроено
func NewFromConfig(cfg config.StorageConfig) (*Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	uploader, err := NewS3Uploader(cfg)
	if err != nil {
		return nil, err
	}

	gateway := cfg.Gateway
	if gateway == "" {
		scheme := "https://"
		if !cfg.UseSSL {
			scheme = "http://"
		}
		gateway = scheme + cfg.Endpoint
	}
	return NewStore(uploader, cfg.Bucket, gateway), nil
}
