package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeheap-analysis/pkg/config"
)

func TestNewCOSStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *COSConfig
		wantErr string
	}{
		{
			name:    "MissingBucket",
			cfg:     &COSConfig{Region: "ap-guangzhou", SecretID: "id", SecretKey: "key"},
			wantErr: "bucket is required",
		},
		{
			name:    "MissingRegion",
			cfg:     &COSConfig{Bucket: "heap-dumps", SecretID: "id", SecretKey: "key"},
			wantErr: "region is required",
		},
		{
			name:    "MissingCredentials",
			cfg:     &COSConfig{Bucket: "heap-dumps", Region: "ap-guangzhou"},
			wantErr: "credentials are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCOSStorage(tt.cfg)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCOSStorage_GetURL(t *testing.T) {
	store, err := NewCOSStorage(&COSConfig{
		Bucket:    "heap-dumps",
		Region:    "ap-guangzhou",
		SecretID:  "id",
		SecretKey: "key",
	})
	require.NoError(t, err)

	assert.Equal(t,
		"https://heap-dumps.cos.ap-guangzhou.myqcloud.com/dumps/task-1/jeprof.heap",
		store.GetURL("dumps/task-1/jeprof.heap"))
}

func TestCOSStorage_CustomDomain(t *testing.T) {
	store, err := NewCOSStorage(&COSConfig{
		Bucket:    "heap-dumps",
		Region:    "gz",
		SecretID:  "id",
		SecretKey: "key",
		Domain:    "cloud.internal",
		Scheme:    "http",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://heap-dumps.cos.gz.cloud.internal/r.json.gz", store.GetURL("r.json.gz"))
}

func TestNewStorage_COS(t *testing.T) {
	cfg := &config.StorageConfig{
		Type:      "cos",
		Bucket:    "heap-dumps",
		Region:    "ap-guangzhou",
		SecretID:  "id",
		SecretKey: "key",
	}

	store, err := NewStorage(cfg)
	require.NoError(t, err)
	assert.IsType(t, &COSStorage{}, store)
}

func TestNewStorage_Unsupported(t *testing.T) {
	_, err := NewStorage(&config.StorageConfig{Type: "s3"})
	assert.ErrorContains(t, err, "unsupported storage type")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{
			name: "LocalOK",
			cfg:  &config.StorageConfig{Type: "local", LocalPath: "./storage"},
		},
		{
			name:    "LocalMissingPath",
			cfg:     &config.StorageConfig{Type: "local"},
			wantErr: "path is required",
		},
		{
			name: "COSOK",
			cfg: &config.StorageConfig{
				Type: "cos", Bucket: "b", Region: "r", SecretID: "i", SecretKey: "k",
			},
		},
		{
			name:    "COSMissingBucket",
			cfg:     &config.StorageConfig{Type: "cos", Region: "r", SecretID: "i", SecretKey: "k"},
			wantErr: "bucket is required",
		},
		{
			name:    "Unknown",
			cfg:     &config.StorageConfig{Type: "gcs"},
			wantErr: "unsupported storage type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
