package progress

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar is a Sink drawn as a progress bar.
type Bar struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	size int64
	seen int64
}

// NewBar creates a Bar writing to out. A negative size draws a spinner.
func NewBar(out io.Writer, label string, size int64) *Bar {
	if size < 0 {
		size = UnknownSize
	}
	return &Bar{
		size: size,
		bar: progressbar.NewOptions64(size,
			progressbar.OptionSetDescription(label),
			progressbar.OptionSetWriter(out),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionOnCompletion(func() {
				_, _ = io.WriteString(out, "\n")
			}),
		),
	}
}

// Add advances the bar by n bytes.
func (b *Bar) Add(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seen += n
	_ = b.bar.Add64(n)
}

// EffectiveSize returns the known size, or the bytes seen so far.
func (b *Bar) EffectiveSize() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size > 0 {
		return b.size
	}
	return b.seen
}

// Transferred returns the bytes seen so far.
func (b *Bar) Transferred() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seen
}

// Complete fills the bar and ends its line.
func (b *Bar) Complete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Finish()
}

// Error stops the bar where it is.
func (b *Bar) Error(error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Exit()
}
