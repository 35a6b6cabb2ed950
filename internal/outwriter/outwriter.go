// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct {
	out    io.Writer // destination when no output file is configured
	errOut io.Writer // notices and file confirmations
}

// NewOutWriter creates an output writer bound to the process stdout and stderr.
func NewOutWriter() *OutWriter {
	return &OutWriter{out: os.Stdout, errOut: os.Stderr}
}

// NewOutWriterTo creates an output writer bound to the given streams.
func NewOutWriterTo(out, errOut io.Writer) *OutWriter {
	return &OutWriter{out: out, errOut: errOut}
}

// WriteLayout prints a board layout using the configured output format.
func (ow *OutWriter) WriteLayout(result schema.LayoutResult, cfg *contract.Config, duration time.Duration) error {
	return ow.printLayout(result, cfg, duration)
}

// WriteMarkers prints the scale and data markers of a layout using the configured output format.
func (ow *OutWriter) WriteMarkers(result schema.LayoutResult, cfg *contract.Config) error {
	return ow.printMarkers(result, cfg)
}

// WriteNotice prints a one-line status message to the notice stream.
func (ow *OutWriter) WriteNotice(cfg *contract.Config, emoji, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if cfg != nil && cfg.UseEmojis && emoji != "" {
		msg = emoji + " " + msg
	}
	_, _ = fmt.Fprintln(ow.errOut, msg)
}
