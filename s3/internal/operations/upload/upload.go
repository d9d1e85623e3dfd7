// Package upload handles S3 object upload operations.
//
// Uploads go through the transfer manager, which switches to multipart
// uploads for bodies larger than one part and uploads parts concurrently.
package upload

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/CESNET/bota/s3/errors"
	"github.com/CESNET/bota/s3/internal/s3api"
	"github.com/CESNET/bota/s3/s3types"
)

// Uploader handles S3 upload operations.
type Uploader struct {
	uploader *manager.Uploader
}

// New creates a new Uploader instance.
// Non-positive partSize or concurrency keep the transfer manager defaults.
func New(s3Client s3api.S3API, partSize int64, concurrency int) *Uploader {
	return &Uploader{
		uploader: manager.NewUploader(s3Client, func(u *manager.Uploader) {
			if partSize >= manager.MinUploadPartSize {
				u.PartSize = partSize
			}
			if concurrency > 0 {
				u.Concurrency = concurrency
			}
		}),
	}
}

// UploadFile uploads size bytes read from reader to bucket/key.
// When config carries a progress tracker, every byte consumed from reader is
// reported to it.
func (u *Uploader) UploadFile(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	size int64,
	config *s3types.UploadOptionConfig,
	startTime time.Time,
) (*s3types.UploadResult, error) {
	body := reader
	if config.ProgressTracker != nil {
		body = &progressReader{
			reader:          reader,
			progressTracker: config.ProgressTracker,
		}
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if config.ContentType != "" {
		input.ContentType = aws.String(config.ContentType)
	}

	output, err := u.uploader.Upload(ctx, input)
	if err != nil {
		return nil, errors.NewError("uploadFile", errors.Classify(err)).WithBucket(bucket).WithKey(key)
	}

	return &s3types.UploadResult{
		Key:      key,
		Size:     size,
		ETag:     aws.ToString(output.ETag),
		Duration: time.Since(startTime),
	}, nil
}

// progressReader wraps an io.Reader to report consumed bytes.
type progressReader struct {
	reader          io.Reader
	progressTracker s3types.ProgressTracker
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.progressTracker.Add(int64(n))
	}
	//nolint:wrapcheck // io.Reader interface contract - error comes from underlying reader
	return n, err
}
