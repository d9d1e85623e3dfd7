// Package progress renders the byte progress of a single transfer.
//
// Two renderers share the Sink contract: Tracker, which rewrites one
// "<label>  <seen> / <size>  (<pct>%)" status line, and Bar, which draws a
// progress bar. Both may receive Add calls from several goroutines.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/CESNET/bota/fs"
	"github.com/CESNET/bota/s3/s3types"
)

// UnknownSize marks a transfer whose total size is not known up front.
const UnknownSize int64 = -1

// Sink receives progress for one transfer and reports what it has seen.
type Sink interface {
	s3types.ProgressTracker

	// EffectiveSize is the known size, or the bytes seen so far when the
	// size is unknown.
	EffectiveSize() int64

	// Transferred is the number of bytes seen so far.
	Transferred() int64
}

// Factory creates a Sink for a transfer labelled label of size bytes.
type Factory func(label string, size int64) Sink

// Tracker accumulates transferred bytes and rewrites a status line on
// every update. The zero value is not usable; use New.
type Tracker struct {
	mu       sync.Mutex
	label    string
	size     int64
	seen     int64
	out      io.Writer
	rendered bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithOutput sets where the status line is written. Default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(t *Tracker) {
		t.out = w
	}
}

// New creates a Tracker. A negative size means the size is unknown.
func New(label string, size int64, opts ...Option) *Tracker {
	if size < 0 {
		size = UnknownSize
	}
	t := &Tracker{
		label: label,
		size:  size,
		out:   os.Stdout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewForFile creates a Tracker labelled path whose size is the size of
// path on fsys, or unknown when path cannot be stat'ed.
func NewForFile(fsys fs.Filesystem, path string, opts ...Option) *Tracker {
	return New(path, SizeOf(fsys, path), opts...)
}

// SizeOf returns the size of the regular file at path, or UnknownSize.
func SizeOf(fsys fs.Filesystem, path string) int64 {
	info, err := fsys.Stat(path)
	if err != nil || info.IsDir() {
		return UnknownSize
	}
	return info.Size()
}

// Add records n more bytes and redraws the status line.
func (t *Tracker) Add(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seen += n

	effective := t.effectiveSize()
	var pct float64
	if effective > 0 {
		pct = float64(t.seen) / float64(effective) * 100
	}

	fmt.Fprintf(t.out, "\r%s  %d / %d  (%.2f%%)", t.label, t.seen, effective, pct)
	t.rendered = true
	flush(t.out)
}

// EffectiveSize returns the known size, or the bytes seen so far.
func (t *Tracker) EffectiveSize() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.effectiveSize()
}

// Transferred returns the bytes seen so far.
func (t *Tracker) Transferred() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seen
}

// Complete ends the status line.
func (t *Tracker) Complete() {
	t.finish()
}

// Error ends the status line. The error itself is reported by the caller.
func (t *Tracker) Error(error) {
	t.finish()
}

func (t *Tracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rendered {
		fmt.Fprintln(t.out)
		t.rendered = false
		flush(t.out)
	}
}

func (t *Tracker) effectiveSize() int64 {
	if t.size > 0 {
		return t.size
	}
	return t.seen
}

func flush(w io.Writer) {
	if f, ok := w.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
}

var (
	_ Sink = (*Tracker)(nil)
	_ Sink = (*Bar)(nil)
)
