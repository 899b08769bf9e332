// Package storage keeps payslip blobs on local disk or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"workpay/internal/platform/config"
)

var ErrNotFound = errors.New("object not found")

type Backend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// New picks the backend named by DOCUMENTS_BACKEND.
func New(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.DocumentsBackend {
	case config.DocumentsBackendS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		return NewS3(s3.NewFromConfig(awsCfg), cfg.DocumentsBucket), nil
	case config.DocumentsBackendLocal:
		return NewLocal(cfg.DocumentsDir)
	default:
		return nil, fmt.Errorf("unknown documents backend %q", cfg.DocumentsBackend)
	}
}
