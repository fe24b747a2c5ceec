package server

import (
	"context"
	"fmt"

	"github.com/vango-dev/blogfront/internal/config"
	"github.com/vango-dev/blogfront/pkg/upload"
)

// NewStore opens the staging backend named by cfg.Backend.
func NewStore(ctx context.Context, cfg config.StagingConfig) (upload.Store, error) {
	switch cfg.Backend {
	case config.BackendDisk:
		return upload.NewDiskStore(cfg.Dir)
	case config.BackendS3:
		return upload.NewS3StoreFromOptions(ctx, upload.S3Options{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown staging backend %q", cfg.Backend)
	}
}
