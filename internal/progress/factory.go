package progress

import (
	"fmt"
	"io"
)

// Renderer styles accepted by NewFactory.
const (
	StyleLine = "line"
	StyleBar  = "bar"
)

// NewFactory returns a Factory for the named style writing to out.
func NewFactory(style string, out io.Writer) (Factory, error) {
	switch style {
	case StyleLine, "":
		return func(label string, size int64) Sink {
			return New(label, size, WithOutput(out))
		}, nil
	case StyleBar:
		return func(label string, size int64) Sink {
			return NewBar(out, label, size)
		}, nil
	default:
		return nil, fmt.Errorf("unknown progress style %q (want %q or %q)", style, StyleLine, StyleBar)
	}
}
