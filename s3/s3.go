// Package s3 provides the main S3 client and core operations.
package s3

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"

	s3errors "github.com/CESNET/bota/s3/errors"
	"github.com/CESNET/bota/s3/internal/operations/download"
	"github.com/CESNET/bota/s3/internal/operations/list"
	"github.com/CESNET/bota/s3/internal/operations/upload"
	"github.com/CESNET/bota/s3/internal/validation"
	"github.com/CESNET/bota/s3/s3types"
)

const (
	// DefaultContentType is the default content type used when content type detection fails
	DefaultContentType = "application/octet-stream"

	// sniffLen is how much of a file is read to detect its content type
	sniffLen = 3072
)

// ListBuckets returns all buckets visible to the configured credentials.
func (c *Client) ListBuckets(ctx context.Context) ([]s3types.Bucket, error) {
	output, err := c.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, s3errors.NewError("listBuckets", s3errors.Classify(err))
	}

	buckets := make([]s3types.Bucket, 0, len(output.Buckets))
	for _, b := range output.Buckets {
		buckets = append(buckets, s3types.Bucket{
			Name:         aws.ToString(b.Name),
			CreationDate: aws.ToTime(b.CreationDate),
		})
	}
	return buckets, nil
}

// List performs a single listing request against bucket.
// Use WithMaxKeys to bound the number of returned keys (at most 1000) and
// WithStartAfter to resume strictly after a key. Keys are returned decoded.
//
// An empty bucket or prefix yields an empty result, not an error.
//
// Example:
//
//	result, err := client.List(ctx, "my-bucket", "photos/", s3.WithMaxKeys(100))
//	if err != nil {
//	    return err
//	}
//	for _, obj := range result.Objects {
//	    fmt.Println(obj.Key)
//	}
func (c *Client) List(
	ctx context.Context,
	bucket, prefix string,
	opts ...s3types.ListOption,
) (*s3types.ListResult, error) {
	if err := validation.ValidateBucket("list", bucket); err != nil {
		return nil, err
	}

	config := &s3types.ListOptionConfig{
		Prefix:  prefix,
		MaxKeys: 1000,
	}
	for _, opt := range opts {
		opt(config)
	}

	startTime := time.Now()

	result, err := list.New(c.s3Client).List(ctx, &list.Config{
		Bucket:     bucket,
		Prefix:     config.Prefix,
		MaxKeys:    config.MaxKeys,
		StartAfter: config.StartAfter,
	})
	if err != nil {
		return nil, s3errors.NewError("list", s3errors.Classify(err)).WithBucket(bucket)
	}

	if c.logger != nil {
		c.logger.DebugContext(ctx, "listed objects",
			"bucket", bucket,
			"prefix", config.Prefix,
			"count", len(result.Objects),
			"truncated", result.IsTruncated)
	}

	page := &s3types.ListResult{
		Objects:               result.Objects,
		IsTruncated:           result.IsTruncated,
		NextContinuationToken: result.ContinuationToken,
		StartAfter:            result.StartAfter,
		Duration:              time.Since(startTime),
	}
	if page.IsTruncated && len(page.Objects) > 0 {
		page.NextStartAfter = page.Objects[len(page.Objects)-1].Key
	}
	return page, nil
}

// ListAll returns every object under prefix, following continuation tokens
// until the listing is exhausted.
func (c *Client) ListAll(ctx context.Context, bucket, prefix string) ([]s3types.Object, error) {
	if err := validation.ValidateBucket("listAll", bucket); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []s3types.Object
	for res := range list.New(c.s3Client).ListAll(ctx, &list.Config{Bucket: bucket, Prefix: prefix}) {
		if res.Err != nil {
			return nil, s3errors.NewError("listAll", s3errors.Classify(res.Err)).WithBucket(bucket)
		}
		objects = append(objects, res.Object)
	}

	if err := ctx.Err(); err != nil {
		return nil, s3errors.NewError("listAll", err).WithBucket(bucket)
	}

	return objects, nil
}

// UploadFile uploads a local file to bucket/key.
// Large files are uploaded in parts. The content type is detected from the
// file content unless set with WithContentType.
//
// Errors:
//   - ErrInvalidInput: If bucket or path is empty, or path is a directory
//   - ErrInvalidObjectKey: If the key cannot be stored
//   - ErrBucketNotFound: If the specified bucket doesn't exist
//   - fs.ErrNotExist: If the local file doesn't exist
//
// Example:
//
//	result, err := client.UploadFile(ctx, "my-bucket", "docs/report.pdf", "/path/to/report.pdf",
//	    s3.WithProgress(progressTracker),
//	)
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...s3types.UploadOption,
) (*s3types.UploadResult, error) {
	if err := validation.ValidateBucket("uploadFile", bucket); err != nil {
		return nil, err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, s3errors.NewError("uploadFile", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("filepath cannot be empty")
	}

	info, err := c.fs.Stat(path)
	if err != nil {
		return nil, s3errors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
	}
	if info.IsDir() {
		return nil, s3errors.NewError("uploadFile", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("filepath points to a directory, not a file")
	}

	config := &s3types.UploadOptionConfig{
		PartSize:    c.partSize,
		Concurrency: c.concurrency,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.ContentType == "" {
		config.ContentType = c.detectContentType(path)
	}

	file, err := c.fs.Open(path)
	if err != nil {
		return nil, s3errors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
	}
	defer file.Close()

	if c.logger != nil {
		c.logger.InfoContext(ctx, "uploading file",
			"bucket", bucket,
			"key", key,
			"path", path,
			"size", info.Size(),
			"content_type", config.ContentType)
	}

	startTime := time.Now()
	result, err := upload.New(c.s3Client, config.PartSize, config.Concurrency).
		UploadFile(ctx, bucket, key, file, info.Size(), config, startTime)
	if err != nil {
		if c.logger != nil {
			c.logger.ErrorContext(ctx, "upload failed",
				"bucket", bucket,
				"key", key,
				"error", err)
		}
		return nil, err
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "upload finished",
			"bucket", bucket,
			"key", key,
			"duration", result.Duration)
	}

	return result, nil
}

// DownloadFile downloads bucket/key into a local file.
// The parent directory of path must exist. The file is only created once
// data arrives, and is removed again if the download fails midway.
//
// Errors:
//   - ErrInvalidInput: If bucket or path is empty
//   - ErrObjectNotFound: If the specified object doesn't exist
//   - ErrBucketNotFound: If the specified bucket doesn't exist
//   - fs.ErrNotExist: If the parent directory of path doesn't exist
//
// Example:
//
//	result, err := client.DownloadFile(ctx, "my-bucket", "docs/report.pdf", "/tmp/report.pdf",
//	    s3.WithDownloadProgress(progressTracker),
//	)
func (c *Client) DownloadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...s3types.DownloadOption,
) (*s3types.DownloadResult, error) {
	if err := validation.ValidateBucket("downloadFile", bucket); err != nil {
		return nil, err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, s3errors.NewError("downloadFile", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("filepath cannot be empty")
	}

	if _, err := c.fs.Stat(filepath.Dir(path)); err != nil {
		return nil, s3errors.NewError("downloadFile", err).WithBucket(bucket).WithKey(key)
	}

	config := &s3types.DownloadOptionConfig{}
	for _, opt := range opts {
		opt(config)
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "downloading object",
			"bucket", bucket,
			"key", key,
			"path", path)
	}

	startTime := time.Now()
	writer := download.NewFileWriter(c.fs, path)
	result, err := download.New(c.s3Client, c.partSize, c.concurrency).
		Download(ctx, bucket, key, writer, config, startTime)
	if err != nil {
		if discardErr := writer.Discard(); discardErr != nil && c.logger != nil {
			c.logger.ErrorContext(ctx, "failed to remove partial download",
				"path", path,
				"error", discardErr)
		}
		if c.logger != nil {
			c.logger.ErrorContext(ctx, "download failed",
				"bucket", bucket,
				"key", key,
				"error", err)
		}
		return nil, err
	}

	if err := writer.Finish(); err != nil {
		return nil, s3errors.NewError("downloadFile", err).WithBucket(bucket).WithKey(key)
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "download finished",
			"bucket", bucket,
			"key", key,
			"size", result.Size,
			"duration", result.Duration)
	}

	return result, nil
}

// Delete deletes a single object.
// Deleting a non-existent object is not an error.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := validation.ValidateBucket("delete", bucket); err != nil {
		return err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return err
	}

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s3errors.NewError("delete", s3errors.Classify(err)).WithBucket(bucket).WithKey(key)
	}

	return nil
}

// CreateBucket creates a new bucket with a DNS-compliant name.
func (c *Client) CreateBucket(ctx context.Context, bucket string, opts ...s3types.BucketOption) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return err
	}

	config := &s3types.BucketOptionConfig{}
	for _, opt := range opts {
		opt(config)
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}
	if config.Region != "" && config.Region != defaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(config.Region),
		}
	}

	if _, err := c.s3Client.CreateBucket(ctx, input); err != nil {
		return s3errors.NewError("createBucket", s3errors.Classify(err)).WithBucket(bucket)
	}

	return nil
}

// DeleteBucket deletes an empty bucket.
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	if err := validation.ValidateBucket("deleteBucket", bucket); err != nil {
		return err
	}

	_, err := c.s3Client.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return s3errors.NewError("deleteBucket", s3errors.Classify(err)).WithBucket(bucket)
	}

	return nil
}

// detectContentType determines the content type by sniffing the file,
// falling back to extension-based lookup.
func (c *Client) detectContentType(path string) string {
	file, err := c.fs.Open(path)
	if err != nil {
		return detectContentTypeFromExtension(path)
	}
	defer file.Close()

	buf := make([]byte, sniffLen)
	n, _ := io.ReadFull(file, buf)
	if n > 0 {
		mt := mimetype.Detect(buf[:n])
		// Plain text and octet-stream are the generic fallbacks; an extension may say more.
		if !mt.Is("text/plain") && !mt.Is(DefaultContentType) {
			return mt.String()
		}
	}

	if byExt := detectContentTypeFromExtension(path); byExt != DefaultContentType {
		return byExt
	}
	if n > 0 {
		return mimetype.Detect(buf[:n]).String()
	}
	return DefaultContentType
}

// detectContentTypeFromExtension detects content type from file extension
func detectContentTypeFromExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}

	return DefaultContentType
}
