// Package s3 provides client initialization and configuration.
//
// The Client provides a high-level interface for interacting with an
// S3-compatible object store over aws-sdk-go-v2: bucket listing, paginated
// object listing, and file uploads and downloads with progress reporting.
package s3

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/CESNET/bota/fs"
	"github.com/CESNET/bota/fs/billy"
	"github.com/CESNET/bota/s3/errors"
	"github.com/CESNET/bota/s3/internal/s3api"
	"github.com/CESNET/bota/s3/s3types"
)

const (
	defaultConcurrency = 5
	defaultPartSize    = 8 * 1024 * 1024
	defaultRegion      = "us-east-1"
)

// Client is a storage client backed by aws-sdk-go-v2.
// It is safe for concurrent use once constructed.
type Client struct {
	// s3Client is the underlying AWS SDK S3 client
	s3Client s3api.S3API

	// endpoint is the configured endpoint URL, empty for AWS defaults
	endpoint string

	// concurrency and partSize tune the transfer manager
	concurrency int
	partSize    int64

	// fs is the filesystem abstraction for file operations
	fs fs.Filesystem

	// logger is used for structured logging of operations (may be nil)
	logger *slog.Logger
}

// New creates a new client with the provided options.
// It loads credentials using the default AWS credential chain
// and applies the specified configuration options.
//
// Example:
//
//	client, err := s3.New(ctx,
//	    s3.WithEndpoint("https://s3.example.org"),
//	    s3.WithForcePathStyle(true),
//	)
func New(ctx context.Context, opts ...s3types.Option) (*Client, error) {
	clientCfg := defaultClientConfig()
	for _, opt := range opts {
		opt(clientCfg)
	}

	var cfg aws.Config
	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		var err error
		cfg, err = config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
	}

	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = defaultRegion
	}

	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	var s3Opts []func(*s3.Options)
	if clientCfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(clientCfg.Endpoint)
		})
	}
	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if clientCfg.Timeout > 0 {
		httpClient := &http.Client{
			Timeout: clientCfg.Timeout,
		}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	return newClient(s3.NewFromConfig(cfg, s3Opts...), clientCfg), nil
}

// NewWithClient creates a new client with a custom S3API implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(s3Client s3api.S3API, opts ...s3types.Option) *Client {
	clientCfg := defaultClientConfig()
	for _, opt := range opts {
		opt(clientCfg)
	}
	return newClient(s3Client, clientCfg)
}

func defaultClientConfig() *s3types.ClientConfig {
	return &s3types.ClientConfig{
		Concurrency: defaultConcurrency,
		PartSize:    defaultPartSize,
	}
}

func newClient(s3Client s3api.S3API, cfg *s3types.ClientConfig) *Client {
	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = billy.NewNativeFS()
	}

	return &Client{
		s3Client:    s3Client,
		endpoint:    cfg.Endpoint,
		concurrency: cfg.Concurrency,
		partSize:    cfg.PartSize,
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
