package recfile

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressorByName returns the compressor registered under name ("noop",
// "gzip" or "zstd"). An empty name selects noop.
func CompressorByName(name string) (Compressor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "noop", "none":
		return NewNoOpCompressor(), nil
	case "gzip", "gz":
		return NewGzipCompressor(), nil
	case "zstd", "zst":
		return NewZstdCompressor(), nil
	default:
		return nil, fmt.Errorf("%w: unknown compressor %q", ErrInvalidInput, name)
	}
}

// -----------------------------------------------------------------------------
// Gzip
// -----------------------------------------------------------------------------

type gzipCompressor struct{}

// NewGzipCompressor creates a gzip compressor (.gz).
func NewGzipCompressor() Compressor {
	return gzipCompressor{}
}

func (gzipCompressor) Name() string      { return "gzip" }
func (gzipCompressor) Extension() string { return ".gz" }

func (gzipCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

func (gzipCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// -----------------------------------------------------------------------------
// Zstd
// -----------------------------------------------------------------------------

type zstdCompressor struct{}

// NewZstdCompressor creates a Zstandard compressor (.zst).
func NewZstdCompressor() Compressor {
	return zstdCompressor{}
}

func (zstdCompressor) Name() string      { return "zstd" }
func (zstdCompressor) Extension() string { return ".zst" }

func (zstdCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

func (zstdCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

// -----------------------------------------------------------------------------
// NoOp
// -----------------------------------------------------------------------------

type noopCompressor struct{}

// NewNoOpCompressor creates a pass-through compressor.
func NewNoOpCompressor() Compressor {
	return noopCompressor{}
}

func (noopCompressor) Name() string      { return "noop" }
func (noopCompressor) Extension() string { return "" }

func (noopCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (noopCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
