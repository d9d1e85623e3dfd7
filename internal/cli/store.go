package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/CESNET/bota/fs"
	"github.com/CESNET/bota/internal/keymap"
	"github.com/CESNET/bota/internal/transfer"
	"github.com/CESNET/bota/s3"
	"github.com/CESNET/bota/s3/minio"
	"github.com/CESNET/bota/s3/s3types"
)

// Backend names accepted by --backend.
const (
	BackendAWS   = "aws"
	BackendMinio = "minio"
)

// Store is everything the commands need from a storage client.
// Both *s3.Client and *minio.Client implement it.
type Store interface {
	transfer.Store
	keymap.Lister

	ListBuckets(ctx context.Context) ([]s3types.Bucket, error)
	List(ctx context.Context, bucket, prefix string, opts ...s3types.ListOption) (*s3types.ListResult, error)
	CreateBucket(ctx context.Context, bucket string, opts ...s3types.BucketOption) error
	DeleteBucket(ctx context.Context, bucket string) error
	Delete(ctx context.Context, bucket, key string) error
	Close() error
}

var (
	_ Store = (*s3.Client)(nil)
	_ Store = (*minio.Client)(nil)
)

// StoreConfig describes the store a command talks to.
type StoreConfig struct {
	Backend    string
	Endpoint   string
	Region     string
	PathStyle  bool
	Filesystem fs.Filesystem
	Logger     *slog.Logger
}

// StoreFactory opens a Store.
type StoreFactory func(ctx context.Context, cfg StoreConfig) (Store, error)

// OpenStore is the default StoreFactory.
func OpenStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	opts := []s3types.Option{
		s3.WithEndpoint(cfg.Endpoint),
		s3.WithForcePathStyle(cfg.PathStyle),
		s3.WithLogger(cfg.Logger),
	}
	if cfg.Region != "" {
		opts = append(opts, s3.WithRegion(cfg.Region))
	}
	if cfg.Filesystem != nil {
		opts = append(opts, s3.WithFilesystem(cfg.Filesystem))
	}

	switch cfg.Backend {
	case BackendAWS, "":
		client, err := s3.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create aws client: %w", err)
		}
		return client, nil
	case BackendMinio:
		client, err := minio.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create minio client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want %q or %q)", cfg.Backend, BackendAWS, BackendMinio)
	}
}

// NormalizeEndpoint turns a bare hostname into an https URL.
// Hosts that already carry an http or https scheme are kept.
func NormalizeEndpoint(host string) string {
	if !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}
	return strings.TrimSuffix(host, "/")
}
