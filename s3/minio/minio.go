package minio

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"

	"github.com/CESNET/bota/s3/errors"
	"github.com/CESNET/bota/s3/internal/operations/download"
	"github.com/CESNET/bota/s3/internal/validation"
	"github.com/CESNET/bota/s3/s3types"
)

const (
	defaultContentType = "application/octet-stream"
	maxListKeys        = 1000
	minPartSize        = 5 * 1024 * 1024
)

// ListBuckets returns all buckets visible to the configured credentials.
func (c *Client) ListBuckets(ctx context.Context) ([]s3types.Bucket, error) {
	infos, err := c.api.ListBuckets(ctx)
	if err != nil {
		return nil, errors.NewError("listBuckets", classify(err))
	}

	buckets := make([]s3types.Bucket, 0, len(infos))
	for _, info := range infos {
		buckets = append(buckets, s3types.Bucket{
			Name:         info.Name,
			CreationDate: info.CreationDate,
		})
	}
	return buckets, nil
}

// List returns at most one page of objects under prefix.
// IsTruncated is set when more keys follow the page; the channel API has no
// continuation token, so resume with NextStartAfter.
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
		MaxKeys: maxListKeys,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.MaxKeys > maxListKeys {
		config.MaxKeys = maxListKeys
	}

	startTime := time.Now()

	// The channel keeps paginating on its own; stop it once the page is full.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := &s3types.ListResult{StartAfter: config.StartAfter}
	for info := range c.api.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:     config.Prefix,
		Recursive:  true,
		MaxKeys:    int(config.MaxKeys),
		StartAfter: config.StartAfter,
	}) {
		if info.Err != nil {
			return nil, errors.NewError("list", classify(info.Err)).WithBucket(bucket)
		}
		if int32(len(result.Objects)) == config.MaxKeys {
			result.IsTruncated = true
			break
		}
		result.Objects = append(result.Objects, toObject(info))
	}
	if result.IsTruncated && len(result.Objects) > 0 {
		result.NextStartAfter = result.Objects[len(result.Objects)-1].Key
	}
	result.Duration = time.Since(startTime)

	return result, nil
}

// ListAll returns every object under prefix.
func (c *Client) ListAll(ctx context.Context, bucket, prefix string) ([]s3types.Object, error) {
	if err := validation.ValidateBucket("listAll", bucket); err != nil {
		return nil, err
	}

	var objects []s3types.Object
	for info := range c.api.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, errors.NewError("listAll", classify(info.Err)).WithBucket(bucket)
		}
		objects = append(objects, toObject(info))
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.NewError("listAll", err).WithBucket(bucket)
	}
	return objects, nil
}

// UploadFile uploads a local file to bucket/key.
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

	info, err := c.fs.Stat(path)
	if err != nil {
		return nil, errors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
	}
	if info.IsDir() {
		return nil, errors.NewError("uploadFile", errors.ErrInvalidInput).
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

	file, err := c.fs.Open(path)
	if err != nil {
		return nil, errors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
	}
	defer file.Close()

	if config.ContentType == "" {
		config.ContentType = detectContentType(file, path)
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, errors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
		}
	}

	putOpts := minio.PutObjectOptions{ContentType: config.ContentType}
	if config.PartSize >= minPartSize {
		putOpts.PartSize = uint64(config.PartSize)
	}
	if config.Concurrency > 0 {
		putOpts.NumThreads = uint(config.Concurrency)
	}
	if config.ProgressTracker != nil {
		putOpts.Progress = &progressReader{tracker: config.ProgressTracker}
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "uploading file",
			"bucket", bucket,
			"key", key,
			"path", path,
			"size", info.Size())
	}

	startTime := time.Now()
	uploaded, err := c.api.PutObject(ctx, bucket, key, file, info.Size(), putOpts)
	if err != nil {
		if c.logger != nil {
			c.logger.ErrorContext(ctx, "upload failed", "bucket", bucket, "key", key, "error", err)
		}
		return nil, errors.NewError("uploadFile", classify(err)).WithBucket(bucket).WithKey(key)
	}

	return &s3types.UploadResult{
		Key:      key,
		Size:     uploaded.Size,
		ETag:     uploaded.ETag,
		Duration: time.Since(startTime),
	}, nil
}

// DownloadFile downloads bucket/key into a local file whose parent
// directory must exist. No file is left behind when the download fails.
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

	if _, err := c.fs.Stat(filepath.Dir(path)); err != nil {
		return nil, errors.NewError("downloadFile", err).WithBucket(bucket).WithKey(key)
	}

	config := &s3types.DownloadOptionConfig{}
	for _, opt := range opts {
		opt(config)
	}

	startTime := time.Now()

	obj, err := c.api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.NewError("downloadFile", classify(err)).WithBucket(bucket).WithKey(key)
	}
	defer obj.Close()

	if _, err := obj.Stat(); err != nil {
		return nil, errors.NewError("downloadFile", classify(err)).WithBucket(bucket).WithKey(key)
	}

	writer := download.NewFileWriter(c.fs, path)
	var dst io.Writer = io.NewOffsetWriter(writer, 0)
	if config.ProgressTracker != nil {
		dst = &progressWriter{writer: dst, tracker: config.ProgressTracker}
	}

	n, err := io.Copy(dst, obj)
	if err != nil {
		if discardErr := writer.Discard(); discardErr != nil && c.logger != nil {
			c.logger.ErrorContext(ctx, "failed to remove partial download", "path", path, "error", discardErr)
		}
		return nil, errors.NewError("downloadFile", classify(err)).WithBucket(bucket).WithKey(key)
	}
	if err := writer.Finish(); err != nil {
		return nil, errors.NewError("downloadFile", err).WithBucket(bucket).WithKey(key)
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "download finished", "bucket", bucket, "key", key, "size", n)
	}

	return &s3types.DownloadResult{
		Key:      key,
		Size:     n,
		Duration: time.Since(startTime),
	}, nil
}

// Delete deletes a single object.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := validation.ValidateBucket("delete", bucket); err != nil {
		return err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return err
	}

	if err := c.api.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.NewError("delete", classify(err)).WithBucket(bucket).WithKey(key)
	}
	return nil
}

// CreateBucket creates a new bucket with a DNS-compliant name.
func (c *Client) CreateBucket(ctx context.Context, bucket string, opts ...s3types.BucketOption) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return err
	}

	config := &s3types.BucketOptionConfig{Region: c.region}
	for _, opt := range opts {
		opt(config)
	}

	if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: config.Region}); err != nil {
		return errors.NewError("createBucket", classify(err)).WithBucket(bucket)
	}
	return nil
}

// DeleteBucket deletes an empty bucket.
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	if err := validation.ValidateBucket("deleteBucket", bucket); err != nil {
		return err
	}

	if err := c.api.RemoveBucket(ctx, bucket); err != nil {
		return errors.NewError("deleteBucket", classify(err)).WithBucket(bucket)
	}
	return nil
}

// classify annotates a minio error response with the matching sentinel.
func classify(err error) error {
	var resp minio.ErrorResponse
	if !stderrors.As(err, &resp) {
		return err
	}

	sentinel := errors.FromCode(resp.Code)
	if sentinel == nil {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func toObject(info minio.ObjectInfo) s3types.Object {
	return s3types.Object{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ETag:         info.ETag,
		StorageClass: info.StorageClass,
	}
}

// detectContentType sniffs r, preferring the extension when the content
// only reveals a generic type.
func detectContentType(r io.Reader, path string) string {
	mt, err := mimetype.DetectReader(r)
	if err == nil && !mt.Is("text/plain") && !mt.Is(defaultContentType) {
		return mt.String()
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		return byExt
	}
	if err == nil {
		return mt.String()
	}
	return defaultContentType
}

// progressReader is read by minio-go as the upload proceeds.
type progressReader struct {
	tracker s3types.ProgressTracker
}

func (p *progressReader) Read(b []byte) (int, error) {
	p.tracker.Add(int64(len(b)))
	return len(b), nil
}

type progressWriter struct {
	writer  io.Writer
	tracker s3types.ProgressTracker
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.writer.Write(b)
	if n > 0 {
		p.tracker.Add(int64(n))
	}
	return n, err
}
