// Package transfer runs batches of uploads and downloads one item at a time,
// printing the user-facing progress messages and deciding which failures
// skip an item and which abort the batch.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CESNET/bota/fs"
	"github.com/CESNET/bota/fs/billy"
	"github.com/CESNET/bota/internal/progress"
	"github.com/CESNET/bota/s3"
	s3errors "github.com/CESNET/bota/s3/errors"
	"github.com/CESNET/bota/s3/s3types"
)

// ErrBucketNotFound aborts a batch whose bucket does not exist.
var ErrBucketNotFound = errors.New("bucket doesn't exist")

// Store is the part of a storage client the executor drives.
type Store interface {
	UploadFile(
		ctx context.Context,
		bucket, key, path string,
		opts ...s3types.UploadOption,
	) (*s3types.UploadResult, error)
	DownloadFile(
		ctx context.Context,
		bucket, key, path string,
		opts ...s3types.DownloadOption,
	) (*s3types.DownloadResult, error)
	Endpoint() string
}

// ItemError is a failed item together with its cause.
type ItemError struct {
	Item s3types.TransferItem
	Err  error
}

// Result summarizes a batch.
type Result struct {
	// Transferred counts the items that completed
	Transferred int

	// Failed lists the items that were skipped or aborted the batch
	Failed []ItemError

	// Duration is how long the whole batch took
	Duration time.Duration
}

// Executor runs transfer batches against a Store.
type Executor struct {
	store    Store
	fs       fs.Filesystem
	out      io.Writer
	progress progress.Factory
	makeDirs bool
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithOutput sets where user-facing messages are written. Default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Executor) {
		e.out = w
	}
}

// WithProgress enables per-item progress reporting through factory.
func WithProgress(factory progress.Factory) Option {
	return func(e *Executor) {
		e.progress = factory
	}
}

// WithMakeDirs makes downloads create missing parent directories.
func WithMakeDirs(makeDirs bool) Option {
	return func(e *Executor) {
		e.makeDirs = makeDirs
	}
}

// WithFilesystem sets the local filesystem. Default is the native one.
func WithFilesystem(fsys fs.Filesystem) Option {
	return func(e *Executor) {
		e.fs = fsys
	}
}

// WithLogger sets a logger for per-item diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// New creates an Executor for store.
func New(store Store, opts ...Option) *Executor {
	e := &Executor{
		store: store,
		out:   os.Stdout,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fs == nil {
		e.fs = billy.NewNativeFS()
	}
	return e
}

// Upload uploads items to bucket. Item sources are local paths and targets
// object keys.
//
// A missing or unreadable local file or a key the store cannot take skips its
// item. A missing bucket stops
// the batch with ErrBucketNotFound. Any other failure stops the batch and is
// returned as is. The Result is valid in every case.
func (e *Executor) Upload(ctx context.Context, bucket string, items []s3types.TransferItem) (*Result, error) {
	start := e.now()
	result := &Result{}

	for _, item := range items {
		e.printf("> Uploading %s to %s\n", item.Source, e.objectURL(bucket, item.Target))

		var opts []s3types.UploadOption
		sink := e.newSink(item.Source, progress.SizeOf(e.fs, item.Source))
		if sink != nil {
			opts = append(opts, s3.WithProgress(sink))
		}

		itemStart := e.now()
		_, err := e.store.UploadFile(ctx, bucket, item.Target, item.Source, opts...)
		if err != nil {
			if sink != nil {
				sink.Error(err)
			}
			result.Failed = append(result.Failed, ItemError{Item: item, Err: err})
			e.log(ctx, "upload failed", bucket, item, err)

			switch {
			case s3errors.IsBucketNotFound(err):
				e.printf("> [ERROR]: Bucket \"%s\" doesn't exist\n", bucket)
				result.Duration = e.now().Sub(start)
				return result, fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
			case s3errors.IsInvalidObjectKey(err):
				e.printf("> [ERROR]: Invalid object key \"%s\"\n", item.Target)
				continue
			case isLocalFileError(err):
				e.printf("> [ERROR]: %s: %s\n", reason(err), item.Source)
				continue
			default:
				result.Duration = e.now().Sub(start)
				return result, err
			}
		}

		result.Transferred++
		if sink != nil {
			sink.Complete()
			e.printSummary("Upload", sink.EffectiveSize(), e.now().Sub(itemStart))
		}
	}

	result.Duration = e.now().Sub(start)
	return result, nil
}

// Download downloads items from bucket. Item sources are object keys and
// targets local paths.
//
// A missing object, an invalid key or a missing parent directory skips its
// item. A missing
// bucket stops the batch with ErrBucketNotFound. Any other failure stops the
// batch and is returned as is.
func (e *Executor) Download(ctx context.Context, bucket string, items []s3types.TransferItem) (*Result, error) {
	start := e.now()
	result := &Result{}

	for _, item := range items {
		e.printf("> Downloading %s to %s\n", e.objectURL(bucket, item.Source), item.Target)

		parent := filepath.Dir(item.Target)
		if e.makeDirs {
			if err := e.fs.MkdirAll(parent, 0o755); err != nil {
				result.Failed = append(result.Failed, ItemError{Item: item, Err: err})
				e.printf("> [ERROR]: %s: %s\n", reason(err), parent)
				continue
			}
		}

		var opts []s3types.DownloadOption
		sink := e.newSink(item.Target, progress.SizeOf(e.fs, item.Target))
		if sink != nil {
			opts = append(opts, s3.WithDownloadProgress(sink))
		}

		itemStart := e.now()
		_, err := e.store.DownloadFile(ctx, bucket, item.Source, item.Target, opts...)
		if err != nil {
			if sink != nil {
				sink.Error(err)
			}
			result.Failed = append(result.Failed, ItemError{Item: item, Err: err})
			e.log(ctx, "download failed", bucket, item, err)

			if s3errors.IsInvalidObjectKey(err) {
				e.printf("> [ERROR]: Invalid object key \"%s\"\n", item.Source)
				continue
			}
			switch s3errors.KindOf(err) {
			case s3errors.KindNoSuchBucket:
				e.printf("> [ERROR]: Bucket \"%s\" doesn't exist\n", bucket)
				result.Duration = e.now().Sub(start)
				return result, fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
			case s3errors.KindNotFound:
				e.printf("> [ERROR]: Object \"%s\" not found in bucket %s\n", item.Source, bucket)
				continue
			}
			if errors.Is(err, iofs.ErrNotExist) {
				e.printf("> [ERROR]: Parent folder %s doesn't exist\n", parent)
				continue
			}
			result.Duration = e.now().Sub(start)
			return result, err
		}

		result.Transferred++
		if sink != nil {
			sink.Complete()
			e.printSummary("Download", sink.EffectiveSize(), e.now().Sub(itemStart))
		}
	}

	result.Duration = e.now().Sub(start)
	return result, nil
}

func (e *Executor) newSink(label string, size int64) progress.Sink {
	if e.progress == nil {
		return nil
	}
	return e.progress(label, size)
}

// printSummary prints the throughput line of a finished item.
func (e *Executor) printSummary(verb string, size int64, elapsed time.Duration) {
	speed := "n/a"
	if secs := elapsed.Seconds(); secs > 0 {
		speed = fmt.Sprintf("%d B/s", int64(float64(size)/secs))
	}
	e.printf("> %s complete. Average speed: %s, time elapsed: %s\n", verb, speed, elapsed.Round(time.Millisecond))
}

func (e *Executor) objectURL(bucket, key string) string {
	return strings.TrimSuffix(e.store.Endpoint(), "/") + "/" + bucket + "/" + key
}

func (e *Executor) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}

func (e *Executor) log(ctx context.Context, msg, bucket string, item s3types.TransferItem, err error) {
	if e.logger != nil {
		e.logger.DebugContext(ctx, msg,
			"bucket", bucket,
			"source", item.Source,
			"target", item.Target,
			"error", err)
	}
}

// isLocalFileError reports whether err came from reading the local source.
func isLocalFileError(err error) bool {
	var pathErr *iofs.PathError
	return errors.Is(err, iofs.ErrNotExist) ||
		errors.Is(err, iofs.ErrPermission) ||
		errors.As(err, &pathErr)
}

// reason returns the bare cause of a filesystem error, without the path.
func reason(err error) string {
	var pathErr *iofs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	if errors.Is(err, iofs.ErrNotExist) {
		return iofs.ErrNotExist.Error()
	}
	if errors.Is(err, iofs.ErrPermission) {
		return iofs.ErrPermission.Error()
	}
	return err.Error()
}
