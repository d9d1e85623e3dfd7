// Package minio is the minio-go backend of bota.
//
// It offers the same operations as the aws-sdk-go-v2 client in the parent
// package and accepts the same s3types options, so callers can pick a
// backend at runtime. Errors are classified into the sentinels of the
// s3/errors package.
package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/CESNET/bota/fs"
	"github.com/CESNET/bota/fs/billy"
	"github.com/CESNET/bota/s3/errors"
	"github.com/CESNET/bota/s3/s3types"
)

const defaultRegion = "us-east-1"

// Object is a remote object being read.
// *minio.Object satisfies it; the request is only sent on the first
// Read or Stat, which is also where a missing key is reported.
type Object interface {
	io.ReadCloser
	Stat() (minio.ObjectInfo, error)
}

// API is the subset of the minio client used by Client.
type API interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PutObject(
		ctx context.Context,
		bucket, key string,
		reader io.Reader,
		size int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (Object, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	RemoveBucket(ctx context.Context, bucket string) error
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
}

// sdkClient adapts *minio.Client to API.
type sdkClient struct {
	*minio.Client
}

func (c sdkClient) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (Object, error) {
	obj, err := c.Client.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Client is a storage client backed by minio-go.
type Client struct {
	api      API
	endpoint string
	region   string

	partSize    int64
	concurrency int

	fs     fs.Filesystem
	logger *slog.Logger
}

// New creates a client for the endpoint set with s3.WithEndpoint.
// Credentials are taken, in order, from the AWS and MinIO environment
// variables, ~/.aws/credentials and the mc configuration file.
func New(opts ...s3types.Option) (*Client, error) {
	cfg := &s3types.ClientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	host, secure, err := splitEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	lookup := minio.BucketLookupAuto
	if cfg.ForcePathStyle {
		lookup = minio.BucketLookupPath
	}

	minioOpts := &minio.Options{
		Creds: credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
			&credentials.FileAWSCredentials{},
			&credentials.FileMinioClient{},
		}),
		Secure:       secure,
		Region:       region,
		BucketLookup: lookup,
	}
	if cfg.MaxRetries > 0 {
		minioOpts.MaxRetries = cfg.MaxRetries
	}
	if cfg.Timeout > 0 {
		transport, err := minio.DefaultTransport(secure)
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
		transport.ResponseHeaderTimeout = cfg.Timeout
		minioOpts.Transport = transport
	}

	mc, err := minio.New(host, minioOpts)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	cfg.Region = region
	return newClient(sdkClient{mc}, cfg), nil
}

// NewWithAPI creates a client over a custom API implementation.
// This is primarily used for testing.
func NewWithAPI(api API, opts ...s3types.Option) *Client {
	cfg := &s3types.ClientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return newClient(api, cfg)
}

func newClient(api API, cfg *s3types.ClientConfig) *Client {
	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = billy.NewNativeFS()
	}

	return &Client{
		api:         api,
		endpoint:    cfg.Endpoint,
		region:      cfg.Region,
		partSize:    cfg.PartSize,
		concurrency: cfg.Concurrency,
		fs:          filesystem,
		logger:      cfg.Logger,
	}
}

// Endpoint returns the endpoint URL the client was configured with.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}

// splitEndpoint turns an endpoint URL into the host and TLS flag minio expects.
// A bare host is treated as https.
func splitEndpoint(endpoint string) (string, bool, error) {
	if endpoint == "" {
		return "", false, fmt.Errorf("%w: endpoint is required", errors.ErrInvalidInput)
	}
	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), true, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("%w: parse endpoint %q: %w", errors.ErrInvalidInput, endpoint, err)
	}
	switch u.Scheme {
	case "http":
		return u.Host, false, nil
	case "https":
		return u.Host, true, nil
	default:
		return "", false, fmt.Errorf("%w: unsupported endpoint scheme %q", errors.ErrInvalidInput, u.Scheme)
	}
}
