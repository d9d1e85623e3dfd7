// Package s3types provides shared type definitions for the storage clients.
package s3types

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/CESNET/bota/fs"
)

// Bucket represents a bucket returned by a bucket listing.
type Bucket struct {
	// Name is the bucket name
	Name string

	// CreationDate is when the bucket was created, if reported
	CreationDate time.Time
}

// Object represents an object in a bucket listing.
type Object struct {
	// Key is the decoded object key
	Key string

	// Size is the object size in bytes
	Size int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the entity tag of the object
	ETag string

	// StorageClass is the storage class of the object
	StorageClass string
}

// TransferItem is one unit of work in an upload or download batch.
// For uploads Source is a local path and Target an object key; for
// downloads Source is an object key and Target a local path.
type TransferItem struct {
	Source string
	Target string
}

// ProgressTracker receives byte counts while a single object is transferred.
// Add may be called from several goroutines at once.
type ProgressTracker interface {
	// Add records n more transferred bytes.
	Add(n int64)

	// Complete is called once the transfer finished successfully.
	Complete()

	// Error is called once the transfer failed.
	Error(err error)
}

// UploadResult contains information about a completed upload.
type UploadResult struct {
	// Key is the object key that was uploaded
	Key string

	// Size is the number of bytes uploaded
	Size int64

	// ETag is the entity tag of the uploaded object
	ETag string

	// Duration is how long the upload took
	Duration time.Duration
}

// DownloadResult contains information about a completed download.
type DownloadResult struct {
	// Key is the object key that was downloaded
	Key string

	// Size is the number of bytes written to the target
	Size int64

	// Duration is how long the download took
	Duration time.Duration
}

// ListResult contains one page of an object listing.
type ListResult struct {
	// Objects are the listed objects in key order
	Objects []Object

	// IsTruncated indicates more objects are available
	IsTruncated bool

	// NextContinuationToken is an opaque token that continues the listing
	// when IsTruncated is set. Only backends with server-side tokens fill it.
	NextContinuationToken string

	// NextStartAfter is the last key of a truncated page. Passing it to a
	// start-after option resumes the listing on any backend.
	NextStartAfter string

	// StartAfter echoes the key the listing resumed after
	StartAfter string

	// Duration is how long the request took
	Duration time.Duration
}

// ClientConfig holds configuration shared by the storage clients.
type ClientConfig struct {
	Region          string
	Endpoint        string
	MaxRetries      int
	Timeout         time.Duration
	Concurrency     int
	PartSize        int64
	ForcePathStyle  bool
	CustomAWSConfig *aws.Config
	Filesystem      fs.Filesystem // Filesystem abstraction for file operations
	Logger          *slog.Logger
}

// UploadOptionConfig holds configuration for upload operations.
type UploadOptionConfig struct {
	ContentType     string
	ProgressTracker ProgressTracker
	PartSize        int64
	Concurrency     int
}

// DownloadOptionConfig holds configuration for download operations.
type DownloadOptionConfig struct {
	ProgressTracker ProgressTracker
}

// ListOptionConfig holds configuration for list operations.
type ListOptionConfig struct {
	Prefix     string
	MaxKeys    int32
	StartAfter string
}

// BucketOptionConfig holds configuration for bucket operations.
type BucketOptionConfig struct {
	Region string
}

// Option is a functional option for configuring a storage client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring upload operations.
	UploadOption func(*UploadOptionConfig)
	// DownloadOption is a functional option for configuring download operations.
	DownloadOption func(*DownloadOptionConfig)
	// ListOption is a functional option for configuring list operations.
	ListOption func(*ListOptionConfig)
	// BucketOption is a functional option for configuring bucket operations.
	BucketOption func(*BucketOptionConfig)
)
