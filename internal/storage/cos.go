package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"
)

// COSConfig holds the settings for a Tencent Cloud COS bucket.
type COSConfig struct {
	Bucket    string
	Region    string
	SecretID  string
	SecretKey string
	// Domain overrides the default COS endpoint, for private clouds.
	Domain string
	// Scheme defaults to https.
	Scheme string
}

// COSStorage stores heap dumps and result archives in a Tencent Cloud
// COS bucket.
type COSStorage struct {
	client *cos.Client
	config *COSConfig
}

// NewCOSStorage creates a COS-backed storage from the given config.
func NewCOSStorage(cfg *COSConfig) (*COSStorage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("cos bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("cos region is required")
	}
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("cos credentials are required")
	}

	if cfg.Scheme == "" {
		cfg.Scheme = "https"
	}
	if cfg.Domain == "" {
		cfg.Domain = "myqcloud.com"
	}

	bucketURL, err := url.Parse(fmt.Sprintf("%s://%s.cos.%s.%s", cfg.Scheme, cfg.Bucket, cfg.Region, cfg.Domain))
	if err != nil {
		return nil, fmt.Errorf("parse bucket url: %w", err)
	}
	serviceURL, err := url.Parse(fmt.Sprintf("%s://cos.%s.%s", cfg.Scheme, cfg.Region, cfg.Domain))
	if err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: bucketURL, ServiceURL: serviceURL}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	return &COSStorage{client: client, config: cfg}, nil
}

func (s *COSStorage) Upload(ctx context.Context, key string, data io.Reader) error {
	if _, err := s.client.Object.Put(ctx, key, data, nil); err != nil {
		return fmt.Errorf("upload %s to cos: %w", key, err)
	}
	return nil
}

func (s *COSStorage) UploadFile(ctx context.Context, key string, filePath string) error {
	if _, err := s.client.Object.PutFromFile(ctx, key, filePath, nil); err != nil {
		return fmt.Errorf("upload file %s to cos: %w", key, err)
	}
	return nil
}

func (s *COSStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.Object.Get(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s from cos: %w", key, err)
	}
	return resp.Body, nil
}

func (s *COSStorage) DownloadFile(ctx context.Context, key string, filePath string) error {
	if _, err := s.client.Object.GetToFile(ctx, key, filePath, nil); err != nil {
		return fmt.Errorf("download %s from cos: %w", key, err)
	}
	return nil
}

func (s *COSStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Object.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s from cos: %w", key, err)
	}
	return nil
}

func (s *COSStorage) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.Object.IsExist(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check %s on cos: %w", key, err)
	}
	return ok, nil
}

func (s *COSStorage) GetURL(key string) string {
	return fmt.Sprintf("%s://%s.cos.%s.%s/%s", s.config.Scheme, s.config.Bucket, s.config.Region, s.config.Domain, key)
}
