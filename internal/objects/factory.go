package objects

import (
	"context"
	"fmt"

	"ecorpus-go/internal/config"
	"ecorpus-go/internal/vfs"
)

// NewObjectStoreFromConfig creates an ObjectStore based on the objects config type.
func NewObjectStoreFromConfig(ctx context.Context, cfg config.ObjectsConfig, logger vfs.Logger) (vfs.ObjectStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem object store requires root to be set")
		}
		return NewFileSystemStore(cfg.Root, logger)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 object store requires s3_bucket to be set")
		}
		return NewS3StoreFromConfig(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown object store type: %s", cfg.Type)
	}
}
