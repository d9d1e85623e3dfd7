// Package download handles S3 object download operations.
//
// Objects are fetched with the transfer manager, which issues ranged GETs
// for consecutive parts and writes them concurrently at their offsets.
package download

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/CESNET/bota/fs"
	"github.com/CESNET/bota/s3/errors"
	"github.com/CESNET/bota/s3/internal/s3api"
	"github.com/CESNET/bota/s3/s3types"
)

// Downloader handles S3 download operations with progress tracking support.
type Downloader struct {
	downloader *manager.Downloader
}

// New creates a new Downloader instance.
// Non-positive partSize or concurrency keep the transfer manager defaults.
func New(s3Client s3api.S3API, partSize int64, concurrency int) *Downloader {
	return &Downloader{
		downloader: manager.NewDownloader(s3Client, func(d *manager.Downloader) {
			if partSize > 0 {
				d.PartSize = partSize
			}
			if concurrency > 0 {
				d.Concurrency = concurrency
			}
		}),
	}
}

// Download writes the object bucket/key to w.
// Parts may be written out of order and from several goroutines.
func (d *Downloader) Download(
	ctx context.Context,
	bucket, key string,
	w io.WriterAt,
	config *s3types.DownloadOptionConfig,
	startTime time.Time,
) (*s3types.DownloadResult, error) {
	if config.ProgressTracker != nil {
		w = &progressWriterAt{
			writer:          w,
			progressTracker: config.ProgressTracker,
		}
	}

	n, err := d.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.NewError("download", errors.Classify(err)).WithBucket(bucket).WithKey(key)
	}

	return &s3types.DownloadResult{
		Key:      key,
		Size:     n,
		Duration: time.Since(startTime),
	}, nil
}

// progressWriterAt wraps an io.WriterAt to report written bytes.
type progressWriterAt struct {
	writer          io.WriterAt
	progressTracker s3types.ProgressTracker
}

func (pw *progressWriterAt) WriteAt(p []byte, off int64) (int, error) {
	n, err := pw.writer.WriteAt(p, off)
	if n > 0 {
		pw.progressTracker.Add(int64(n))
	}
	//nolint:wrapcheck // io.WriterAt interface contract - error comes from underlying writer
	return n, err
}

// FileWriter is an io.WriterAt over a local file that is only created on
// the first write, so a failed request leaves nothing behind.
type FileWriter struct {
	fs   fs.Filesystem
	path string

	mu   sync.Mutex
	file fs.File
}

// NewFileWriter returns a FileWriter for path on fsys.
func NewFileWriter(fsys fs.Filesystem, path string) *FileWriter {
	return &FileWriter{fs: fsys, path: path}
}

// WriteAt writes p at offset off, creating the file on first use.
func (w *FileWriter) WriteAt(p []byte, off int64) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.open(); err != nil {
		return 0, err
	}
	if _, err := w.file.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	//nolint:wrapcheck // errors are already wrapped by the filesystem adapter
	return w.file.Write(p)
}

// Created reports whether the file exists on disk.
func (w *FileWriter) Created() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file != nil
}

// Finish closes the file, creating it first when nothing was written.
func (w *FileWriter) Finish() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.open(); err != nil {
		return err
	}
	return w.file.Close()
}

// Discard closes and removes a file that was created by a failed download.
func (w *FileWriter) Discard() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	_ = w.file.Close()
	w.file = nil
	return w.fs.Remove(w.path)
}

func (w *FileWriter) open() error {
	if w.file != nil {
		return nil
	}
	f, err := w.fs.Create(w.path)
	if err != nil {
		return err
	}
	w.file = f
	return nil
}
