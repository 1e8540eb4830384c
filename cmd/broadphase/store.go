package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/broadphase"
	"github.com/hupe1980/broadphase/blobstore"
	bpminio "github.com/hupe1980/broadphase/blobstore/minio"
	bps3 "github.com/hupe1980/broadphase/blobstore/s3"
	"github.com/hupe1980/broadphase/codec"
	"github.com/hupe1980/broadphase/internal/resource"
	"github.com/hupe1980/broadphase/persistence"
)

// openStore creates the blob store selected by cfg.
func openStore(ctx context.Context, cfg StoreConfig) (blobstore.BlobStore, error) {
	switch cfg.Type {
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "local":
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		return blobstore.NewLocalStore(cfg.Path), nil
	case "minio":
		if cfg.Endpoint == "" || cfg.Bucket == "" {
			return nil, fmt.Errorf("minio store needs an endpoint and a bucket")
		}
		return bpminio.New(cfg.Endpoint, cfg.Bucket, func(o *bpminio.Options) {
			o.Prefix = cfg.Prefix
			o.AccessKey, o.SecretKey = cfg.AccessKey, cfg.SecretKey
			o.Secure = cfg.Secure
		})
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 store needs a bucket")
		}
		opts := []bps3.Option{bps3.WithPrefix(cfg.Prefix)}
		if cfg.Region != "" {
			opts = append(opts, bps3.WithRegion(cfg.Region))
		}
		return bps3.New(ctx, cfg.Bucket, opts...)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Type)
	}
}

// openManager wraps the configured store in a snapshot manager.
func openManager(ctx context.Context, cfg StoreConfig) (*persistence.Manager, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c, err := codec.ByName(cfg.Compression)
	if err != nil {
		return nil, err
	}

	var rc *resource.Controller
	if cfg.IOLimit > 0 {
		rc = resource.NewController(resource.Config{
			IOLimitBytesPerSec: int64(cfg.IOLimit), //nolint:gosec // bounded by flag parsing
		})
	}

	return persistence.NewManager(store, func(o *persistence.ManagerOptions) {
		o.Codec = c
		o.Resources = rc
	}), nil
}

// newLogger builds the world logger for cfg, writing to the command's
// standard error.
func newLogger(cfg LogConfig, w io.Writer) (*broadphase.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return broadphase.NewLogger(slog.NewJSONHandler(w, opts)), nil
	}
	return broadphase.NewLogger(slog.NewTextHandler(w, opts)), nil
}
