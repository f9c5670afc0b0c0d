package recfile

import (
	"errors"
	"fmt"
)

// defaultBufferSize is the text buffer size used when none is configured.
const defaultBufferSize = 64 * 1024

// -----------------------------------------------------------------------------
// Session options
// -----------------------------------------------------------------------------

// sessionConfig holds the resolved configuration for a session.
type sessionConfig struct {
	tracer     Tracer
	bufferSize int
	offset     int64
	hasOffset  bool
	append     bool
}

func defaultSessionConfig() *sessionConfig {
	return &sessionConfig{bufferSize: defaultBufferSize}
}

// Option configures session construction.
// Options implement methods for the session modes they support.
// Using an option with an unsupported mode returns an error.
type Option interface {
	applyReader(*sessionConfig) error
	applyWriter(*sessionConfig) error
}

// ErrOptionNotValidForReader indicates a write-only option passed to a read session.
var ErrOptionNotValidForReader = errors.New("option not valid for reader")

// ErrOptionNotValidForWriter indicates a read-only option passed to a write session.
var ErrOptionNotValidForWriter = errors.New("option not valid for writer")

// tracerOption implements Option for WithTracer.
type tracerOption struct {
	tracer Tracer
}

// WithTracer sets the tracer that receives progress messages.
// Default: no tracing.
func WithTracer(t Tracer) Option {
	return &tracerOption{tracer: t}
}

func (o *tracerOption) applyReader(cfg *sessionConfig) error {
	cfg.tracer = o.tracer
	return nil
}

func (o *tracerOption) applyWriter(cfg *sessionConfig) error {
	cfg.tracer = o.tracer
	return nil
}

// bufferSizeOption implements Option for WithBufferSize.
type bufferSizeOption struct {
	size int
}

// WithBufferSize sets the buffer size used for text transfers.
// Default: 64KiB.
func WithBufferSize(n int) Option {
	return &bufferSizeOption{size: n}
}

func (o *bufferSizeOption) apply(cfg *sessionConfig) error {
	if o.size < 16 {
		return fmt.Errorf("WithBufferSize: %d is too small", o.size)
	}
	cfg.bufferSize = o.size
	return nil
}

func (o *bufferSizeOption) applyReader(cfg *sessionConfig) error { return o.apply(cfg) }
func (o *bufferSizeOption) applyWriter(cfg *sessionConfig) error { return o.apply(cfg) }

// offsetOption implements Option for WithOffset (reader-only).
type offsetOption struct {
	offset int64
}

// WithOffset sets the absolute byte offset of the first row, for files that
// carry a header before the rows. Default: the handle's position at open.
// This option is only valid for read sessions.
func WithOffset(off int64) Option {
	return &offsetOption{offset: off}
}

func (o *offsetOption) applyReader(cfg *sessionConfig) error {
	if o.offset < 0 {
		return fmt.Errorf("WithOffset: negative offset %d", o.offset)
	}
	cfg.offset = o.offset
	cfg.hasOffset = true
	return nil
}

func (o *offsetOption) applyWriter(*sessionConfig) error {
	return fmt.Errorf("WithOffset: %w", ErrOptionNotValidForWriter)
}

// appendOption implements Option for WithAppend (writer-only).
type appendOption struct{}

// WithAppend makes OpenWrite append to an existing file instead of
// truncating it. This option is only valid for write sessions.
func WithAppend() Option {
	return appendOption{}
}

func (appendOption) applyReader(*sessionConfig) error {
	return fmt.Errorf("WithAppend: %w", ErrOptionNotValidForReader)
}

func (appendOption) applyWriter(cfg *sessionConfig) error {
	cfg.append = true
	return nil
}

// -----------------------------------------------------------------------------
// Write options
// -----------------------------------------------------------------------------

// writeConfig holds per-call write settings.
type writeConfig struct {
	padNull    bool
	ignoreNull bool
}

// WriteOption configures a single Write call.
type WriteOption func(*writeConfig)

// WithPadNull replaces NUL bytes in String fields with spaces on text output.
func WithPadNull() WriteOption {
	return func(c *writeConfig) { c.padNull = true }
}

// WithIgnoreNull stops writing a String element at its first NUL byte on
// text output. It takes precedence over WithPadNull.
func WithIgnoreNull() WriteOption {
	return func(c *writeConfig) { c.ignoreNull = true }
}
