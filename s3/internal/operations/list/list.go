package list

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	s3types "github.com/CESNET/bota/s3/s3types"
)

// maxPageSize is the largest page ListObjectsV2 returns.
const maxPageSize = 1000

// S3Interface defines the S3 operations we need.
type S3Interface interface {
	ListObjectsV2(
		ctx context.Context,
		input *s3.ListObjectsV2Input,
		opts ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)
}

// Lister handles listing of S3 objects.
type Lister struct {
	client S3Interface
}

// New creates a new Lister.
func New(client S3Interface) *Lister {
	return &Lister{
		client: client,
	}
}

// Config holds configuration for list operations.
type Config struct {
	Bucket     string
	Prefix     string
	MaxKeys    int32
	StartAfter string
}

// Result represents one page of a list operation.
type Result struct {
	Objects           []s3types.Object
	IsTruncated       bool
	ContinuationToken string
	StartAfter        string
}

// List performs exactly one ListObjectsV2 call.
// Keys are requested URL-encoded and returned decoded.
func (l *Lister) List(ctx context.Context, config *Config) (*Result, error) {
	input := l.input(config, pageSize(config.MaxKeys))
	if config.StartAfter != "" {
		input.StartAfter = aws.String(config.StartAfter)
	}

	output, err := l.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	return convertOutput(output)
}

// ListWithPaginator creates a paginator that walks every page of a listing.
func (l *Lister) ListWithPaginator(config *Config) *Paginator {
	return &Paginator{
		lister:    l,
		config:    config,
		pageSize:  pageSize(config.MaxKeys),
		firstPage: true,
	}
}

// ListAll streams all objects under the configured prefix.
// The channel is closed after the last object or after the first error.
func (l *Lister) ListAll(ctx context.Context, config *Config) <-chan ObjectResult {
	resultChan := make(chan ObjectResult, 100)

	go func() {
		defer close(resultChan)

		paginator := l.ListWithPaginator(config)

		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				select {
				case resultChan <- ObjectResult{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			for _, obj := range page.Objects {
				select {
				case resultChan <- ObjectResult{Object: obj}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return resultChan
}

// ObjectResult wraps an object or error.
type ObjectResult struct {
	Object s3types.Object
	Err    error
}

// Paginator walks a listing with continuation tokens.
type Paginator struct {
	lister            *Lister
	config            *Config
	pageSize          int32
	continuationToken *string
	hasMorePages      bool
	firstPage         bool
}

// HasMorePages returns true if there are more pages to fetch.
func (p *Paginator) HasMorePages() bool {
	return p.firstPage || p.hasMorePages
}

// NextPage fetches the next page of results.
func (p *Paginator) NextPage(ctx context.Context) (*Result, error) {
	input := p.lister.input(p.config, p.pageSize)

	if !p.firstPage && p.continuationToken != nil {
		input.ContinuationToken = p.continuationToken
	} else if p.config.StartAfter != "" {
		input.StartAfter = aws.String(p.config.StartAfter)
	}

	output, err := p.lister.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list objects page: %w", err)
	}

	p.firstPage = false
	p.hasMorePages = aws.ToBool(output.IsTruncated) && output.NextContinuationToken != nil
	p.continuationToken = output.NextContinuationToken

	return convertOutput(output)
}

func (l *Lister) input(config *Config, maxKeys int32) *s3.ListObjectsV2Input {
	return &s3.ListObjectsV2Input{
		Bucket:       aws.String(config.Bucket),
		Prefix:       aws.String(config.Prefix),
		MaxKeys:      aws.Int32(maxKeys),
		EncodingType: types.EncodingTypeUrl,
	}
}

// convertOutput converts S3 output to our Result type, decoding keys.
func convertOutput(output *s3.ListObjectsV2Output) (*Result, error) {
	result := &Result{
		Objects:     make([]s3types.Object, 0, len(output.Contents)),
		IsTruncated: aws.ToBool(output.IsTruncated),
	}

	if output.NextContinuationToken != nil {
		result.ContinuationToken = *output.NextContinuationToken
	}
	if output.StartAfter != nil {
		startAfter, err := DecodeKey(*output.StartAfter)
		if err != nil {
			return nil, err
		}
		result.StartAfter = startAfter
	}

	for _, obj := range output.Contents {
		key, err := DecodeKey(aws.ToString(obj.Key))
		if err != nil {
			return nil, err
		}
		result.Objects = append(result.Objects, s3types.Object{
			Key:          key,
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         aws.ToString(obj.ETag),
			StorageClass: string(obj.StorageClass),
		})
	}

	return result, nil
}

// DecodeKey reverses the "url" encoding type of ListObjectsV2.
// S3 encodes spaces as '+' and a literal '+' as %2B.
func DecodeKey(key string) (string, error) {
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		return "", fmt.Errorf("decode key %q: %w", key, err)
	}
	return decoded, nil
}

func pageSize(maxKeys int32) int32 {
	if maxKeys <= 0 || maxKeys > maxPageSize {
		return maxPageSize
	}
	return maxKeys
}
